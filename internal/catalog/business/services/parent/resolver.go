package parent

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"gocatalog_api/internal/catalog/business/models"
	"gocatalog_api/internal/catalog/business/models/dto/response"
	"gocatalog_api/internal/catalog/pkg/clients"
	"gocatalog_api/internal/catalog/storage"
	"gocatalog_api/pkg/logger"
)

const DefaultPostPassBatchSize = 50

type DetailFetcher interface {
	FetchBatch(ctx context.Context, ids []string) ([]response.BatchItem, error)
}

// Link is the phase-one outcome for one product.
type Link struct {
	ParentLocalID *string
	// Unresolved means the parent is referenced but not stored yet.
	Unresolved bool
	// SelfReference means the remote record names itself as parent; the link is dropped.
	SelfReference bool
}

type PostPassStats struct {
	Candidates int
	Resolved   int
	Unresolved int
	Failed     int
}

// Resolver links products to their parents: inline while persisting, and in a
// post-pass for children stored before their parent.
type Resolver struct {
	products  storage.ProductRepository
	fetcher   DetailFetcher
	batchSize int
	log       *zap.Logger
}

func NewResolver(products storage.ProductRepository, fetcher DetailFetcher, batchSize int, log *zap.Logger) *Resolver {
	if batchSize <= 0 {
		batchSize = DefaultPostPassBatchSize
	}
	batchSize = min(batchSize, clients.MaxBatchSize)
	return &Resolver{products: products, fetcher: fetcher, batchSize: batchSize, log: logger.Nop(log).Named("parents")}
}

// ResolveInline links to the parent when it already exists locally.
func (r *Resolver) ResolveInline(ctx context.Context, connectionID, localID, remoteID, parentRemoteID string) (Link, error) {
	if parentRemoteID == "" {
		return Link{}, nil
	}
	if parentRemoteID == remoteID {
		r.log.Warn("product references itself as parent, clearing",
			zap.String("connection_id", connectionID), zap.String("remote_id", remoteID))
		return Link{SelfReference: true}, nil
	}

	parent, err := r.products.FindProductByRemoteID(ctx, connectionID, parentRemoteID)
	if errors.Is(err, models.ErrNotFound) {
		return Link{Unresolved: true}, nil
	}
	if err != nil {
		return Link{Unresolved: true}, fmt.Errorf("lookup parent %s: %w", parentRemoteID, err)
	}
	if parent.LocalID == localID {
		r.log.Warn("parent resolves to the product itself, clearing",
			zap.String("connection_id", connectionID), zap.String("remote_id", remoteID))
		return Link{SelfReference: true}, nil
	}
	id := parent.LocalID
	return Link{ParentLocalID: &id}, nil
}

// PostPass re-fetches candidates in batches and backfills every parent that now
// exists locally. The parent reference recorded at persist time is used when a
// candidate cannot be re-fetched.
func (r *Resolver) PostPass(ctx context.Context, connectionID string, candidates []models.ParentCandidate) (PostPassStats, error) {
	candidates = dedup(candidates)
	stats := PostPassStats{Candidates: len(candidates)}
	log := r.log.With(zap.String("connection_id", connectionID))

	for start := 0; start < len(candidates); start += r.batchSize {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		batch := candidates[start:min(start+r.batchSize, len(candidates))]
		refs := r.refetch(ctx, batch, log)

		for _, c := range batch {
			ref := refs[c.LocalID]
			if ref == "" || ref == c.RemoteID {
				stats.Unresolved++
				continue
			}
			parent, err := r.products.FindProductByRemoteID(ctx, connectionID, ref)
			if errors.Is(err, models.ErrNotFound) {
				stats.Unresolved++
				continue
			}
			if err != nil {
				stats.Failed++
				log.Warn("parent lookup failed", zap.String("remote_id", c.RemoteID), zap.Error(err))
				continue
			}
			if parent.LocalID == c.LocalID {
				stats.Unresolved++
				continue
			}
			if err := r.products.SetParent(ctx, c.LocalID, &parent.LocalID); err != nil {
				stats.Failed++
				log.Warn("parent backfill failed", zap.String("remote_id", c.RemoteID), zap.Error(err))
				continue
			}
			stats.Resolved++
		}
	}

	log.Info("parent post-pass finished",
		zap.Int("candidates", stats.Candidates), zap.Int("resolved", stats.Resolved),
		zap.Int("unresolved", stats.Unresolved), zap.Int("failed", stats.Failed))
	return stats, nil
}

// refetch returns the current parent reference per candidate local ID.
func (r *Resolver) refetch(ctx context.Context, batch []models.ParentCandidate, log *zap.Logger) map[string]string {
	refs := make(map[string]string, len(batch))
	ids := make([]string, len(batch))
	for i, c := range batch {
		refs[c.LocalID] = c.ParentRemoteID
		ids[i] = c.RemoteID
	}
	if r.fetcher == nil {
		return refs
	}

	items, err := r.fetcher.FetchBatch(ctx, ids)
	if err != nil {
		log.Warn("post-pass batch failed, using recorded parent references", zap.Int("count", len(ids)), zap.Error(err))
		return refs
	}
	for i, item := range items {
		if i >= len(batch) {
			break
		}
		if !item.OK() {
			continue
		}
		detail, err := clients.DecodeProduct(item.Body)
		if err != nil {
			continue
		}
		refs[batch[i].LocalID] = detail.ParentID
	}
	return refs
}

func dedup(candidates []models.ParentCandidate) []models.ParentCandidate {
	seen := make(map[string]bool, len(candidates))
	out := make([]models.ParentCandidate, 0, len(candidates))
	for _, c := range candidates {
		if seen[c.LocalID] {
			continue
		}
		seen[c.LocalID] = true
		out = append(out, c)
	}
	return out
}
