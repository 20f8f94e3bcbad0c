package postgres

import (
	"fmt"
	"sync"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"go.uber.org/zap"

	"gocatalog_api/config"
	"gocatalog_api/pkg/logger"
)

const maxRetries = 10
const dbMaxOpenConns = 20
const retryDelay = 5 * time.Second

type PostgresDatabase struct {
	config.DbConfig
	db  *sqlx.DB
	log *zap.Logger
	mu  sync.Mutex // Для защиты доступа к db

	retries int
	delay   time.Duration
}

func NewPgConnector(dbConfig config.DbConfig, log *zap.Logger) *PostgresDatabase {
	return &PostgresDatabase{
		DbConfig: dbConfig,
		log:      logger.Nop(log).Named("postgres"),
		retries:  maxRetries,
		delay:    retryDelay,
	}
}

// NewPgConnectorFromDB wraps an already opened pool.
func NewPgConnectorFromDB(db *sqlx.DB, log *zap.Logger) *PostgresDatabase {
	return &PostgresDatabase{
		db:      db,
		log:     logger.Nop(log).Named("postgres"),
		retries: maxRetries,
		delay:   retryDelay,
	}
}

func (pg *PostgresDatabase) Connect() (*sqlx.DB, error) {
	pg.mu.Lock()
	defer pg.mu.Unlock()

	if pg.db != nil {
		return pg.db, nil
	}

	var err error
	conStr := pg.GetConnectionString()

	for i := 0; i < pg.retries; i++ {
		var db *sqlx.DB
		db, err = sqlx.Open("postgres", conStr)
		if err != nil {
			pg.log.Warn("failed to open postgres", zap.Int("attempt", i+1), zap.Int("max", pg.retries), zap.Error(err))
			time.Sleep(pg.delay)
			continue
		}

		db.SetMaxOpenConns(dbMaxOpenConns)

		if err = db.Ping(); err != nil {
			pg.log.Warn("failed to ping postgres", zap.Int("attempt", i+1), zap.Int("max", pg.retries), zap.Error(err))
			db.Close()
			time.Sleep(pg.delay)
			continue
		}

		pg.log.Info("connected to postgres")
		pg.db = db
		return pg.db, nil
	}
	return nil, fmt.Errorf("postgres unreachable after %d attempts: %w", pg.retries, err)
}

func (pg *PostgresDatabase) Ping() error {
	pg.mu.Lock()
	defer pg.mu.Unlock()

	if pg.db == nil {
		return fmt.Errorf("database connection is not established")
	}

	// пул общий с репозиториями, здесь не закрывать
	if err := pg.db.Ping(); err != nil {
		return fmt.Errorf("ping failed: %w", err)
	}
	return nil
}

func (pg *PostgresDatabase) Close() error {
	pg.mu.Lock()
	defer pg.mu.Unlock()

	if pg.db == nil {
		return nil
	}
	err := pg.db.Close()
	pg.db = nil
	return err
}
