package postgres

import (
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
)

func newMockPool(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return sqlx.NewDb(db, "postgres"), mock
}

func TestFailedPingKeepsPoolOpen(t *testing.T) {
	held, mock := newMockPool(t)
	mock.ExpectPing().WillReturnError(errors.New("transient blip"))
	mock.ExpectQuery(`SELECT 1`).WillReturnRows(sqlmock.NewRows([]string{"n"}).AddRow(1))
	mock.ExpectPing()

	pg := NewPgConnectorFromDB(held, nil)
	if err := pg.Ping(); err == nil {
		t.Fatal("first ping should fail")
	}

	var n int
	if err := held.QueryRowx("SELECT 1").Scan(&n); err != nil || n != 1 {
		t.Fatalf("query on held pool after failed ping: n=%d err=%v", n, err)
	}
	if err := pg.Ping(); err != nil {
		t.Fatalf("ping after recovery: %v", err)
	}
	if db, err := pg.Connect(); err != nil || db != held {
		t.Fatalf("Connect should return the held pool, got %p %v", db, err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestPingWithoutConnection(t *testing.T) {
	pg := NewPgConnector(nil, nil)
	if err := pg.Ping(); err == nil {
		t.Fatal("ping without Connect should fail")
	}
	if err := pg.Close(); err != nil {
		t.Fatalf("close without Connect: %v", err)
	}
}
