package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"gocatalog_api/internal/catalog/business/models"
)

type DescriptionRepository struct {
	db *sqlx.DB
}

func NewDescriptionRepository(db *sqlx.DB) *DescriptionRepository {
	return &DescriptionRepository{db: db}
}

func (r *DescriptionRepository) FindDescription(ctx context.Context, productLocalID, languageCode string) (*models.Description, error) {
	var d models.Description
	query := `
	SELECT product_local_id, language_code, remote_description_id, name, meta_title, meta_description,
		meta_keywords, short_description, description
	FROM catalog.product_descriptions
	WHERE product_local_id = $1 AND language_code = $2`
	if err := r.db.GetContext(ctx, &d, query, productLocalID, languageCode); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		return nil, &models.StorageError{Op: "find description", Err: err}
	}
	return &d, nil
}

func (r *DescriptionRepository) UpsertDescription(ctx context.Context, d *models.Description) error {
	query := `
	INSERT INTO catalog.product_descriptions (product_local_id, language_code, remote_description_id, name,
		meta_title, meta_description, meta_keywords, short_description, description)
	VALUES (:product_local_id, :language_code, :remote_description_id, :name,
		:meta_title, :meta_description, :meta_keywords, :short_description, :description)
	ON CONFLICT (product_local_id, language_code) DO UPDATE SET
		remote_description_id = EXCLUDED.remote_description_id,
		name = EXCLUDED.name,
		meta_title = EXCLUDED.meta_title,
		meta_description = EXCLUDED.meta_description,
		meta_keywords = EXCLUDED.meta_keywords,
		short_description = EXCLUDED.short_description,
		description = EXCLUDED.description`
	if _, err := r.db.NamedExecContext(ctx, query, d); err != nil {
		return &models.StorageError{Op: "upsert description", Err: err}
	}
	return nil
}
