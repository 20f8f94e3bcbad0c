package attributes

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"gocatalog_api/internal/catalog/business/models"
	"gocatalog_api/internal/catalog/business/models/dto/request"
	"gocatalog_api/internal/catalog/business/models/dto/response"
	"gocatalog_api/internal/catalog/pkg/clients"
	"gocatalog_api/pkg/logger"
)

type Fetcher interface {
	Execute(ctx context.Context, reqs []request.VirtualRequest) ([]response.BatchItem, error)
	FetchAttribute(ctx context.Context, kind, id string) (*response.AttributeDetail, error)
}

// Resolver turns attribute references into display labels with one batch call
// per batchSize distinct references.
type Resolver struct {
	client    Fetcher
	batchSize int
	log       *zap.Logger
}

func NewResolver(client Fetcher, batchSize int, log *zap.Logger) *Resolver {
	if batchSize <= 0 || batchSize > clients.MaxBatchSize {
		batchSize = clients.MaxBatchSize
	}
	return &Resolver{client: client, batchSize: batchSize, log: logger.Nop(log).Named("attributes")}
}

// ResolveMany never fails. Every distinct ref is present in the result; a miss
// maps to an empty AttributeDescription.
func (r *Resolver) ResolveMany(ctx context.Context, refs []models.AttributeRef) map[models.AttributeRef]models.AttributeDescription {
	unique := dedup(refs)
	out := make(map[models.AttributeRef]models.AttributeDescription, len(unique))
	for _, ref := range unique {
		out[ref] = models.AttributeDescription{}
	}

	for start := 0; start < len(unique); start += r.batchSize {
		end := min(start+r.batchSize, len(unique))
		r.resolveChunk(ctx, unique[start:end], out)
	}
	return out
}

func (r *Resolver) resolveChunk(ctx context.Context, refs []models.AttributeRef, out map[models.AttributeRef]models.AttributeDescription) {
	reqs := make([]request.VirtualRequest, len(refs))
	byKey := make(map[string]models.AttributeRef, len(refs))
	for i, ref := range refs {
		key := string(ref.Kind) + "/" + ref.ID
		reqs[i] = request.VirtualRequest{ID: key, Method: http.MethodGet, Path: clients.AttributePath(string(ref.Kind), ref.ID)}
		byKey[key] = ref
	}

	items, err := r.client.Execute(ctx, reqs)
	if err != nil {
		r.log.Warn("attribute batch failed, resolving one by one", zap.Int("count", len(refs)), zap.Error(err))
		r.resolveOneByOne(ctx, refs, out)
		return
	}

	for _, item := range items {
		ref, ok := byKey[item.ID]
		if !ok || !item.OK() {
			continue
		}
		detail, err := clients.DecodeAttribute(item.Body)
		if err != nil {
			r.log.Debug("undecodable attribute", zap.String("attribute", item.ID), zap.Error(err))
			continue
		}
		out[ref] = describe(detail)
	}
}

func (r *Resolver) resolveOneByOne(ctx context.Context, refs []models.AttributeRef, out map[models.AttributeRef]models.AttributeDescription) {
	for _, ref := range refs {
		if ctx.Err() != nil {
			return
		}
		detail, err := r.client.FetchAttribute(ctx, string(ref.Kind), ref.ID)
		if err != nil {
			continue
		}
		out[ref] = describe(detail)
	}
}

func describe(d *response.AttributeDetail) models.AttributeDescription {
	return models.AttributeDescription{DisplayName: d.Name, Prefix: d.Prefix, Postfix: d.Postfix}
}

func dedup(refs []models.AttributeRef) []models.AttributeRef {
	seen := make(map[models.AttributeRef]bool, len(refs))
	out := make([]models.AttributeRef, 0, len(refs))
	for _, ref := range refs {
		if ref.ID == "" || seen[ref] {
			continue
		}
		seen[ref] = true
		out = append(out, ref)
	}
	return out
}
