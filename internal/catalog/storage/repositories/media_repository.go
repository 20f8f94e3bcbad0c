package repositories

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"gocatalog_api/internal/catalog/business/models"
)

type MediaRepository struct {
	db *sqlx.DB
}

func NewMediaRepository(db *sqlx.DB) *MediaRepository {
	return &MediaRepository{db: db}
}

// ReplaceImages swaps the product's image set in one transaction. It never touches
// the product row itself.
func (r *MediaRepository) ReplaceImages(ctx context.Context, productLocalID string, images []models.Image) (err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return &models.StorageError{Op: "replace images", Err: err}
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `DELETE FROM catalog.product_images WHERE product_local_id = $1`, productLocalID); err != nil {
		return &models.StorageError{Op: "replace images", Err: fmt.Errorf("delete: %w", err)}
	}

	query := `
	INSERT INTO catalog.product_images (product_local_id, remote_path, url, sort_order, is_main, alt_text, alt_text_status)
	VALUES (:product_local_id, :remote_path, :url, :sort_order, :is_main, :alt_text, :alt_text_status)`
	for _, img := range images {
		img.ProductLocalID = productLocalID
		if _, err = tx.NamedExecContext(ctx, query, img); err != nil {
			return &models.StorageError{Op: "replace images", Err: fmt.Errorf("insert %s: %w", img.RemotePath, err)}
		}
	}

	if err = tx.Commit(); err != nil {
		return &models.StorageError{Op: "replace images", Err: err}
	}
	return nil
}

func (r *MediaRepository) ListImages(ctx context.Context, productLocalID string) ([]models.Image, error) {
	var out []models.Image
	query := `
	SELECT product_local_id, remote_path, url, sort_order, is_main, alt_text, alt_text_status
	FROM catalog.product_images WHERE product_local_id = $1 ORDER BY sort_order`
	if err := r.db.SelectContext(ctx, &out, query, productLocalID); err != nil {
		return nil, &models.StorageError{Op: "list images", Err: err}
	}
	return out, nil
}
