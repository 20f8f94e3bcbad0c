package repositories

import (
	"github.com/jmoiron/sqlx"

	"gocatalog_api/internal/catalog/storage"
)

// Store bundles the Postgres repositories behind storage.Store.
type Store struct {
	*ProductRepository
	*DescriptionRepository
	*MediaRepository
	*CategoryRepository
}

func NewStore(db *sqlx.DB) *Store {
	return &Store{
		ProductRepository:     NewProductRepository(db),
		DescriptionRepository: NewDescriptionRepository(db),
		MediaRepository:       NewMediaRepository(db),
		CategoryRepository:    NewCategoryRepository(db),
	}
}

var _ storage.Store = (*Store)(nil)
