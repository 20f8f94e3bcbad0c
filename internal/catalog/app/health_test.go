package app

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"

	"gocatalog_api/config"
	"gocatalog_api/internal/catalog/business/models"
	"gocatalog_api/internal/catalog/storage/repositories"
	"gocatalog_api/pkg/dbconnect/postgres"
)

func TestHealthPostgresBlipDoesNotBreakStore(t *testing.T) {
	raw, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	if err != nil {
		t.Fatal(err)
	}
	defer raw.Close()
	held := sqlx.NewDb(raw, "postgres")

	s := NewCatalogServer(&config.AppConfig{
		Server:  config.ServerConfig{ShutdownTimeout: time.Second},
		Storage: config.StorageConfig{Backend: "postgres"},
	}, nil)
	s.db = postgres.NewPgConnectorFromDB(held, nil)
	s.echo = s.routes()
	store := repositories.NewStore(held)

	mock.ExpectPing().WillReturnError(errors.New("connection reset"))
	mock.ExpectQuery(`SELECT .* FROM catalog.products WHERE connection_id = \$1 AND remote_id = \$2`).
		WithArgs("shop-1", "r1").
		WillReturnRows(sqlmock.NewRows([]string{"local_id"}))
	mock.ExpectPing()

	if rec := do(s, http.MethodGet, "/healthz", "", ""); rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("healthz during outage = %d, want 503", rec.Code)
	}

	_, err = store.FindProductByRemoteID(context.Background(), "shop-1", "r1")
	if !errors.Is(err, models.ErrNotFound) {
		t.Fatalf("store after failed health ping: %v, want ErrNotFound", err)
	}

	if rec := do(s, http.MethodGet, "/healthz", "", ""); rec.Code != http.StatusOK {
		t.Fatalf("healthz after recovery = %d, want 200", rec.Code)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}
