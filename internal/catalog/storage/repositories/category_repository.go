package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"gocatalog_api/internal/catalog/business/models"
)

type CategoryRepository struct {
	db *sqlx.DB
}

func NewCategoryRepository(db *sqlx.DB) *CategoryRepository {
	return &CategoryRepository{db: db}
}

func (r *CategoryRepository) FindCategoryByRemoteID(ctx context.Context, connectionID, remoteID string) (*models.Category, error) {
	var c models.Category
	query := `SELECT local_id, connection_id, remote_id, name FROM catalog.categories WHERE connection_id = $1 AND remote_id = $2`
	if err := r.db.GetContext(ctx, &c, query, connectionID, remoteID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		return nil, &models.StorageError{Op: "find category", Err: err}
	}
	return &c, nil
}

func (r *CategoryRepository) UpsertCategory(ctx context.Context, c *models.Category) error {
	query := `
	INSERT INTO catalog.categories (local_id, connection_id, remote_id, name)
	VALUES ($1, $2, $3, $4)
	ON CONFLICT (connection_id, remote_id) DO UPDATE SET name = EXCLUDED.name
	RETURNING local_id`
	if err := r.db.QueryRowxContext(ctx, query, c.LocalID, c.ConnectionID, c.RemoteID, c.Name).Scan(&c.LocalID); err != nil {
		return &models.StorageError{Op: "upsert category", Err: err}
	}
	return nil
}

func (r *CategoryRepository) UpsertCategoryRelation(ctx context.Context, rel *models.CategoryRelation) error {
	query := `
	INSERT INTO catalog.product_category_relations (relation_key, product_local_id, category_local_id, remote_relation_id, deleted_at)
	VALUES ($1, $2, $3, $4, NULL)
	ON CONFLICT (product_local_id, category_local_id) DO UPDATE SET
		remote_relation_id = EXCLUDED.remote_relation_id,
		deleted_at = NULL
	RETURNING relation_key`
	err := r.db.QueryRowxContext(ctx, query, rel.RelationKey, rel.ProductLocalID, rel.CategoryLocalID, rel.RemoteRelationID).
		Scan(&rel.RelationKey)
	if err != nil {
		return &models.StorageError{Op: "upsert category relation", Err: err}
	}
	rel.DeletedAt = nil
	return nil
}

func (r *CategoryRepository) SoftDeleteRelationsExcept(ctx context.Context, productLocalID string, keep []string) error {
	query := `
	UPDATE catalog.product_category_relations SET deleted_at = NOW()
	WHERE product_local_id = $1 AND deleted_at IS NULL AND NOT (relation_key = ANY($2))`
	if _, err := r.db.ExecContext(ctx, query, productLocalID, pq.Array(keep)); err != nil {
		return &models.StorageError{Op: "soft delete relations", Err: err}
	}
	return nil
}

func (r *CategoryRepository) ListRelations(ctx context.Context, productLocalID string) ([]models.CategoryRelation, error) {
	var out []models.CategoryRelation
	query := `
	SELECT relation_key, product_local_id, category_local_id, remote_relation_id, deleted_at
	FROM catalog.product_category_relations WHERE product_local_id = $1 ORDER BY relation_key`
	if err := r.db.SelectContext(ctx, &out, query, productLocalID); err != nil {
		return nil, &models.StorageError{Op: "list relations", Err: err}
	}
	return out, nil
}
