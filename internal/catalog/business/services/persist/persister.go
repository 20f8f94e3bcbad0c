package persist

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"gocatalog_api/internal/catalog/business/models"
	"gocatalog_api/internal/catalog/business/models/dto/response"
	"gocatalog_api/internal/catalog/business/services/parent"
	"gocatalog_api/internal/catalog/storage"
	"gocatalog_api/pkg/business/service"
	"gocatalog_api/pkg/logger"
)

type FailureReason string

const (
	MissingSku   FailureReason = "missingSku"
	MissingID    FailureReason = "missingId"
	StorageError FailureReason = "storageError"
	OtherError   FailureReason = "otherError"
)

// Result is the outcome of persisting one product. Reason is empty on success;
// StepErrors lists failed sub-steps of an otherwise persisted product.
type Result struct {
	LocalID          string
	RemoteID         string
	Created          bool
	UnresolvedParent string
	Reason           FailureReason
	Err              error
	StepErrors       error
}

func (r Result) OK() bool {
	return r.Reason == ""
}

type ImageMetaFetcher interface {
	FetchImageMeta(ctx context.Context, productID string) ([]response.ImageMeta, error)
}

type Config struct {
	ConnectionID string
	ImageBaseURL string
	Store        storage.Store
	Parents      *parent.Resolver
	// ImageMeta is asked for alt texts when a product carries no image metadata.
	ImageMeta ImageMetaFetcher
	Log       *zap.Logger
}

// Persister upserts remote products of one connection into the local store.
type Persister struct {
	connectionID string
	imageBaseURL string
	store        storage.Store
	parents      *parent.Resolver
	imageMeta    ImageMetaFetcher
	text         *service.TextService
	log          *zap.Logger
	newID        func() string
	now          func() time.Time
}

func New(cfg Config) *Persister {
	return &Persister{
		connectionID: cfg.ConnectionID,
		imageBaseURL: strings.TrimRight(cfg.ImageBaseURL, "/"),
		store:        cfg.Store,
		parents:      cfg.Parents,
		imageMeta:    cfg.ImageMeta,
		text:         service.NewTextService(),
		log:          logger.Nop(cfg.Log).Named("persister").With(zap.String("connection_id", cfg.ConnectionID)),
		newID:        uuid.NewString,
		now:          time.Now,
	}
}

// Persist never returns an error for a single bad product; the failure is in the Result.
func (p *Persister) Persist(ctx context.Context, detail *response.ProductDetail, attrs map[models.AttributeRef]models.AttributeDescription, forceSync bool) (res Result) {
	defer func() {
		if r := recover(); r != nil {
			res.Reason = OtherError
			res.Err = fmt.Errorf("panic while persisting %s: %v", res.RemoteID, r)
			p.log.Error("persist panicked", zap.String("remote_id", res.RemoteID), zap.Any("panic", r))
		}
	}()

	if detail == nil {
		return Result{Reason: OtherError, Err: errors.New("empty product payload")}
	}
	res.RemoteID = strings.TrimSpace(detail.ID)
	if res.RemoteID == "" {
		res.Reason, res.Err = MissingID, &models.ValidationError{Field: "id"}
		return res
	}
	if strings.TrimSpace(detail.SKU) == "" {
		res.Reason, res.Err = MissingSku, &models.ValidationError{RemoteID: res.RemoteID, Field: "sku"}
		return res
	}

	log := p.log.With(zap.String("remote_id", res.RemoteID))

	existing, err := p.store.FindProductByRemoteID(ctx, p.connectionID, res.RemoteID)
	switch {
	case errors.Is(err, models.ErrNotFound):
		res.LocalID = p.newID()
		res.Created = true
	case err != nil:
		res.Reason, res.Err = StorageError, err
		return res
	default:
		res.LocalID = existing.LocalID
	}

	product := p.buildProduct(detail, res.LocalID, attrs)

	var steps error
	if ref := strings.TrimSpace(detail.ParentID); ref != "" {
		product.ParentRemoteID = &ref
		link, err := p.parents.ResolveInline(ctx, p.connectionID, res.LocalID, res.RemoteID, ref)
		if err != nil {
			steps = multierr.Append(steps, fmt.Errorf("parent: %w", err))
		}
		product.ParentLocalID = link.ParentLocalID
		if link.SelfReference {
			product.ParentRemoteID = nil
		}
		if link.Unresolved {
			res.UnresolvedParent = ref
		}
	}

	if err := p.store.UpsertProduct(ctx, product); err != nil {
		res.Reason, res.Err = StorageError, err
		log.Warn("product upsert failed", zap.Error(err))
		return res
	}
	res.LocalID = product.LocalID

	steps = multierr.Append(steps, p.persistDescriptions(ctx, product.LocalID, detail.Descriptions, forceSync))
	steps = multierr.Append(steps, p.persistImages(ctx, product.LocalID, detail))
	steps = multierr.Append(steps, p.persistCategories(ctx, product.LocalID, res.RemoteID, detail.Categories))

	if steps != nil {
		res.StepErrors = steps
		log.Warn("product persisted with failed steps", zap.Error(steps))
		if err := p.store.SetSyncStatus(ctx, product.LocalID, models.SyncStatusError); err != nil {
			log.Warn("failed to flag product sync status", zap.Error(err))
		}
	}
	return res
}

func (p *Persister) buildProduct(detail *response.ProductDetail, localID string, attrs map[models.AttributeRef]models.AttributeDescription) *models.Product {
	multiplier := decimal.NewFromInt(1)
	if detail.PriceMultiplier.Valid {
		multiplier = detail.PriceMultiplier.Decimal
	}
	now := p.now().UTC()
	return &models.Product{
		LocalID:         localID,
		ConnectionID:    p.connectionID,
		RemoteID:        strings.TrimSpace(detail.ID),
		SKU:             strings.TrimSpace(detail.SKU),
		ModelNumber:     strings.TrimSpace(detail.ModelNumber),
		GTIN:            strings.TrimSpace(detail.GTIN),
		Name:            p.text.CleanName(detail.Name),
		Brand:           strings.TrimSpace(detail.Brand),
		Price:           detail.Price,
		Cost:            detail.Cost,
		PriceMultiplier: multiplier,
		Attributes:      buildAttributes(detail.Attributes, attrs),
		SyncStatus:      models.SyncStatusSynced,
		LastSyncedAt:    &now,
	}
}

// AttributeRefs lists the attribute references of products, for one ResolveMany call.
func AttributeRefs(products []*response.ProductDetail) []models.AttributeRef {
	var refs []models.AttributeRef
	for _, product := range products {
		for _, a := range product.Attributes {
			if a.ID == "" {
				continue
			}
			refs = append(refs, models.AttributeRef{ID: a.ID, Kind: normalizeKind(a.Kind)})
		}
	}
	return refs
}
