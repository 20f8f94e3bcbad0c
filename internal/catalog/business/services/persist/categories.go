package persist

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"gocatalog_api/internal/catalog/business/models"
	"gocatalog_api/internal/catalog/business/models/dto/response"
)

var relationNamespace = uuid.MustParse("7d1f6c3e-5b0a-4e47-9a51-2f6f0b8c4d21")

// RelationKey derives a stable key for a product/category pair that has no
// remote relation ID.
func RelationKey(connectionID, productRemoteID, categoryRemoteID string) string {
	return uuid.NewSHA1(relationNamespace, []byte(connectionID+"|"+productRemoteID+"|"+categoryRemoteID)).String()
}

// persistCategories upserts one relation per reported category that exists
// locally and soft-deletes relations no longer reported.
func (p *Persister) persistCategories(ctx context.Context, localID, remoteID string, refs []response.CategoryRef) error {
	var errs error
	keep := make([]string, 0, len(refs))
	for _, ref := range refs {
		catRemote := strings.TrimSpace(ref.CategoryID)
		if catRemote == "" {
			continue
		}

		category, err := p.store.FindCategoryByRemoteID(ctx, p.connectionID, catRemote)
		if errors.Is(err, models.ErrNotFound) {
			p.log.Info("category not synced yet, skipping relation",
				zap.String("remote_id", remoteID), zap.String("category_id", catRemote))
			continue
		}
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("category %s: %w", catRemote, err))
			continue
		}

		rel := &models.CategoryRelation{
			RelationKey:     RelationKey(p.connectionID, remoteID, catRemote),
			ProductLocalID:  localID,
			CategoryLocalID: category.LocalID,
		}
		if id := strings.TrimSpace(ref.RelationID); id != "" {
			rel.RelationKey = id
			rel.RemoteRelationID = &id
		}
		if err := p.store.UpsertCategoryRelation(ctx, rel); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("category relation %s: %w", catRemote, err))
			continue
		}
		keep = append(keep, rel.RelationKey)
	}

	if errs != nil {
		return errs
	}
	if err := p.store.SoftDeleteRelationsExcept(ctx, localID, keep); err != nil {
		return fmt.Errorf("category relations: %w", err)
	}
	return nil
}
