package storage

import (
	"context"

	"gocatalog_api/internal/catalog/business/models"
)

// Lookups return models.ErrNotFound when the row is absent.

type ProductRepository interface {
	FindProductByRemoteID(ctx context.Context, connectionID, remoteID string) (*models.Product, error)
	// UpsertProduct inserts or updates by (ConnectionID, RemoteID) and writes the
	// stored LocalID back into p.
	UpsertProduct(ctx context.Context, p *models.Product) error
	SetParent(ctx context.Context, localID string, parentLocalID *string) error
	SetSyncStatus(ctx context.Context, localID string, status models.SyncStatus) error
	// ListUnresolvedParents returns products that reference a parent not yet linked.
	ListUnresolvedParents(ctx context.Context, connectionID string) ([]models.ParentCandidate, error)
	ListProducts(ctx context.Context, connectionID string) ([]models.Product, error)
}

type DescriptionRepository interface {
	FindDescription(ctx context.Context, productLocalID, languageCode string) (*models.Description, error)
	UpsertDescription(ctx context.Context, d *models.Description) error
}

type MediaRepository interface {
	// ReplaceImages deletes every image of the product and inserts images.
	ReplaceImages(ctx context.Context, productLocalID string, images []models.Image) error
	ListImages(ctx context.Context, productLocalID string) ([]models.Image, error)
}

type CategoryRepository interface {
	FindCategoryByRemoteID(ctx context.Context, connectionID, remoteID string) (*models.Category, error)
	UpsertCategory(ctx context.Context, c *models.Category) error
	// UpsertCategoryRelation inserts or revives the relation of (ProductLocalID,
	// CategoryLocalID) and writes the stored RelationKey back into rel.
	UpsertCategoryRelation(ctx context.Context, rel *models.CategoryRelation) error
	// SoftDeleteRelationsExcept marks every live relation of the product whose key is
	// not in keep as deleted.
	SoftDeleteRelationsExcept(ctx context.Context, productLocalID string, keep []string) error
	ListRelations(ctx context.Context, productLocalID string) ([]models.CategoryRelation, error)
}

type Store interface {
	ProductRepository
	DescriptionRepository
	MediaRepository
	CategoryRepository
}
