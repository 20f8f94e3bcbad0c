package catalog

import (
	"testing"

	"github.com/DATA-DOG/go-sqlmock"

	"gocatalog_api/pkg/dbconnect/migration"
)

func TestMigrationSkipsWhenRecorded(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	mock.ExpectQuery(`SELECT EXISTS`).
		WithArgs("catalog.products").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	if err := (&CreateProductsTable{}).UpMigration(db); err != nil {
		t.Fatalf("UpMigration: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestMigrationExecutesAndMarks(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	mock.ExpectQuery(`SELECT EXISTS`).
		WithArgs("catalog.categories").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS catalog.categories`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`INSERT INTO migrations.migrations`).
		WithArgs("catalog.categories").
		WillReturnResult(sqlmock.NewResult(1, 1))

	if err := (&CreateCategoriesTable{}).UpMigration(db); err != nil {
		t.Fatalf("UpMigration: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestApplyAllInOrder(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()
	mock.MatchExpectationsInOrder(true)

	mock.ExpectExec(`CREATE SCHEMA IF NOT EXISTS migrations`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`CREATE SCHEMA IF NOT EXISTS catalog`).WillReturnResult(sqlmock.NewResult(0, 0))
	for _, name := range []string{
		"catalog.products",
		"catalog.product_descriptions",
		"catalog.product_images",
		"catalog.categories",
		"catalog.product_category_relations",
	} {
		mock.ExpectQuery(`SELECT EXISTS`).
			WithArgs(name).
			WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
	}

	if err := migration.Apply(db, All()...); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}
