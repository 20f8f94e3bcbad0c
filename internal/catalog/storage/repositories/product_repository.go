package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"gocatalog_api/internal/catalog/business/models"
)

type ProductRepository struct {
	db *sqlx.DB
}

func NewProductRepository(db *sqlx.DB) *ProductRepository {
	return &ProductRepository{db: db}
}

const productColumns = `local_id, connection_id, remote_id, sku, model_number, gtin, name, brand,
	price, cost, price_multiplier, parent_local_id, parent_remote_id, attributes, sync_status, last_synced_at`

func (r *ProductRepository) FindProductByRemoteID(ctx context.Context, connectionID, remoteID string) (*models.Product, error) {
	var p models.Product
	query := `SELECT ` + productColumns + ` FROM catalog.products WHERE connection_id = $1 AND remote_id = $2`
	if err := r.db.GetContext(ctx, &p, query, connectionID, remoteID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		return nil, &models.StorageError{Op: "find product", Err: err}
	}
	return &p, nil
}

func (r *ProductRepository) UpsertProduct(ctx context.Context, p *models.Product) error {
	query := `
	INSERT INTO catalog.products (` + productColumns + `)
	VALUES (:local_id, :connection_id, :remote_id, :sku, :model_number, :gtin, :name, :brand,
		:price, :cost, :price_multiplier, :parent_local_id, :parent_remote_id, :attributes, :sync_status, :last_synced_at)
	ON CONFLICT (connection_id, remote_id) DO UPDATE SET
		sku = EXCLUDED.sku,
		model_number = EXCLUDED.model_number,
		gtin = EXCLUDED.gtin,
		name = EXCLUDED.name,
		brand = EXCLUDED.brand,
		price = EXCLUDED.price,
		cost = EXCLUDED.cost,
		price_multiplier = EXCLUDED.price_multiplier,
		parent_local_id = EXCLUDED.parent_local_id,
		parent_remote_id = EXCLUDED.parent_remote_id,
		attributes = EXCLUDED.attributes,
		sync_status = EXCLUDED.sync_status,
		last_synced_at = EXCLUDED.last_synced_at
	RETURNING local_id`

	rows, err := r.db.NamedQueryContext(ctx, query, p)
	if err != nil {
		return &models.StorageError{Op: "upsert product", Err: err}
	}
	defer rows.Close()

	if rows.Next() {
		if err := rows.Scan(&p.LocalID); err != nil {
			return &models.StorageError{Op: "upsert product", Err: err}
		}
	}
	if err := rows.Err(); err != nil {
		return &models.StorageError{Op: "upsert product", Err: err}
	}
	return nil
}

func (r *ProductRepository) SetParent(ctx context.Context, localID string, parentLocalID *string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE catalog.products SET parent_local_id = $2 WHERE local_id = $1`, localID, parentLocalID)
	if err != nil {
		return &models.StorageError{Op: "set parent", Err: err}
	}
	return expectRow(res, "set parent")
}

func (r *ProductRepository) SetSyncStatus(ctx context.Context, localID string, status models.SyncStatus) error {
	res, err := r.db.ExecContext(ctx, `UPDATE catalog.products SET sync_status = $2 WHERE local_id = $1`, localID, status)
	if err != nil {
		return &models.StorageError{Op: "set sync status", Err: err}
	}
	return expectRow(res, "set sync status")
}

func (r *ProductRepository) ListUnresolvedParents(ctx context.Context, connectionID string) ([]models.ParentCandidate, error) {
	var out []models.ParentCandidate
	query := `
	SELECT local_id, remote_id, parent_remote_id
	FROM catalog.products
	WHERE connection_id = $1 AND parent_remote_id IS NOT NULL AND parent_local_id IS NULL
	ORDER BY remote_id`
	if err := r.db.SelectContext(ctx, &out, query, connectionID); err != nil {
		return nil, &models.StorageError{Op: "list unresolved parents", Err: err}
	}
	return out, nil
}

func (r *ProductRepository) ListProducts(ctx context.Context, connectionID string) ([]models.Product, error) {
	var out []models.Product
	query := `SELECT ` + productColumns + ` FROM catalog.products WHERE connection_id = $1 ORDER BY remote_id`
	if err := r.db.SelectContext(ctx, &out, query, connectionID); err != nil {
		return nil, &models.StorageError{Op: "list products", Err: err}
	}
	return out, nil
}

func expectRow(res sql.Result, op string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return &models.StorageError{Op: op, Err: err}
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", op, models.ErrNotFound)
	}
	return nil
}
