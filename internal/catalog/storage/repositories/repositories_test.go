package repositories

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"gocatalog_api/internal/catalog/business/models"
)

func newMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return sqlx.NewDb(db, "postgres"), mock
}

func TestFindProductNotFound(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectQuery(`SELECT .* FROM catalog.products WHERE connection_id = \$1 AND remote_id = \$2`).
		WithArgs("c1", "r1").
		WillReturnRows(sqlmock.NewRows([]string{"local_id"}))

	_, err := NewProductRepository(db).FindProductByRemoteID(context.Background(), "c1", "r1")
	if !errors.Is(err, models.ErrNotFound) {
		t.Fatalf("got %v, want ErrNotFound", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestUpsertProductReturnsStoredLocalID(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectQuery(`INSERT INTO catalog.products .* ON CONFLICT \(connection_id, remote_id\) DO UPDATE SET .* RETURNING local_id`).
		WillReturnRows(sqlmock.NewRows([]string{"local_id"}).AddRow("existing-id"))

	p := &models.Product{
		LocalID:         "fresh-id",
		ConnectionID:    "c1",
		RemoteID:        "r1",
		SKU:             "SKU-1",
		Price:           decimal.RequireFromString("9.99"),
		PriceMultiplier: decimal.NewFromInt(1),
		SyncStatus:      models.SyncStatusSynced,
	}
	if err := NewProductRepository(db).UpsertProduct(context.Background(), p); err != nil {
		t.Fatalf("UpsertProduct: %v", err)
	}
	if p.LocalID != "existing-id" {
		t.Fatalf("local id = %q, want the stored one", p.LocalID)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestUpsertProductWrapsStorageError(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectQuery(`INSERT INTO catalog.products`).WillReturnError(errors.New("connection reset"))

	err := NewProductRepository(db).UpsertProduct(context.Background(), &models.Product{LocalID: "x"})
	var se *models.StorageError
	if !errors.As(err, &se) {
		t.Fatalf("got %v, want StorageError", err)
	}
}

func TestSetParentMissingRow(t *testing.T) {
	db, mock := newMock(t)
	parent := "p-1"
	mock.ExpectExec(`UPDATE catalog.products SET parent_local_id = \$2 WHERE local_id = \$1`).
		WithArgs("c-1", parent).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := NewProductRepository(db).SetParent(context.Background(), "c-1", &parent)
	if !errors.Is(err, models.ErrNotFound) {
		t.Fatalf("got %v, want ErrNotFound", err)
	}
}

func TestListUnresolvedParents(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectQuery(`parent_remote_id IS NOT NULL AND parent_local_id IS NULL`).
		WithArgs("c1").
		WillReturnRows(sqlmock.NewRows([]string{"local_id", "remote_id", "parent_remote_id"}).
			AddRow("l1", "child", "P1"))

	got, err := NewProductRepository(db).ListUnresolvedParents(context.Background(), "c1")
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].ParentRemoteID != "P1" {
		t.Fatalf("got %+v", got)
	}
}

func TestReplaceImagesCommits(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM catalog.product_images WHERE product_local_id = \$1`).
		WithArgs("l1").
		WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectExec(`INSERT INTO catalog.product_images`).WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(`INSERT INTO catalog.product_images`).WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	images := []models.Image{
		{RemotePath: "a.jpg", URL: "https://cdn/a.jpg", IsMain: true, AltTextStatus: models.AltTextPending},
		{RemotePath: "b.jpg", URL: "https://cdn/b.jpg", SortOrder: 1, AltTextStatus: models.AltTextPending},
	}
	if err := NewMediaRepository(db).ReplaceImages(context.Background(), "l1", images); err != nil {
		t.Fatalf("ReplaceImages: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestReplaceImagesRollsBack(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM catalog.product_images`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`INSERT INTO catalog.product_images`).WillReturnError(errors.New("duplicate key"))
	mock.ExpectRollback()

	err := NewMediaRepository(db).ReplaceImages(context.Background(), "l1", []models.Image{{RemotePath: "a.jpg"}})
	var se *models.StorageError
	if !errors.As(err, &se) {
		t.Fatalf("got %v, want StorageError", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestUpsertCategoryRelationKeepsStoredKey(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectQuery(`INSERT INTO catalog.product_category_relations .* ON CONFLICT \(product_local_id, category_local_id\)`).
		WithArgs("new-key", "l1", "cat1", nil).
		WillReturnRows(sqlmock.NewRows([]string{"relation_key"}).AddRow("old-key"))

	rel := &models.CategoryRelation{RelationKey: "new-key", ProductLocalID: "l1", CategoryLocalID: "cat1"}
	if err := NewCategoryRepository(db).UpsertCategoryRelation(context.Background(), rel); err != nil {
		t.Fatal(err)
	}
	if rel.RelationKey != "old-key" {
		t.Fatalf("relation key = %q", rel.RelationKey)
	}
}

func TestSoftDeleteRelationsExcept(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectExec(`UPDATE catalog.product_category_relations SET deleted_at = NOW\(\)`).
		WithArgs("l1", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 2))

	if err := NewCategoryRepository(db).SoftDeleteRelationsExcept(context.Background(), "l1", []string{"k1"}); err != nil {
		t.Fatal(err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestFindDescription(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectQuery(`FROM catalog.product_descriptions`).
		WithArgs("l1", "de").
		WillReturnRows(sqlmock.NewRows([]string{
			"product_local_id", "language_code", "remote_description_id", "name", "meta_title",
			"meta_description", "meta_keywords", "short_description", "description",
		}).AddRow("l1", "de", "d1", "Name", "", "", "", "", "Body"))

	d, err := NewDescriptionRepository(db).FindDescription(context.Background(), "l1", "de")
	if err != nil {
		t.Fatal(err)
	}
	if d.Description != "Body" {
		t.Fatalf("description = %+v", d)
	}
}
