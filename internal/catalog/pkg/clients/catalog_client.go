package clients

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"

	"gocatalog_api/config"
	"gocatalog_api/config/values"
	"gocatalog_api/internal/catalog/business/models/dto/request"
	"gocatalog_api/internal/catalog/business/models/dto/response"
	"gocatalog_api/internal/catalog/business/services"
	"gocatalog_api/pkg/ratelimit"
)

// MaxBatchSize is the documented capacity of the remote batch endpoint.
const MaxBatchSize = 200

const apiPrefix = "/api/v1"

// CatalogClient talks to one connection's remote catalog API. It never retries;
// the shared limiter only queues calls.
type CatalogClient struct {
	*BaseClient
	listTimeout  time.Duration
	batchTimeout time.Duration
}

func NewCatalogClient(conn config.ConnectionConfig, limiter *ratelimit.Limiter, syncValues values.SyncValues, log *zap.Logger) (*CatalogClient, error) {
	if err := conn.Validate(); err != nil {
		return nil, err
	}
	syncValues = syncValues.WithDefaults()
	auth := services.NewBasicAuth(conn.Username, conn.Password)
	return &CatalogClient{
		BaseClient:   NewBaseClient(conn.BaseURL+apiPrefix, auth, limiter, log),
		listTimeout:  syncValues.ListTimeout,
		batchTimeout: syncValues.BatchTimeout,
	}, nil
}

// ListIDs returns one page of product IDs. Pages start at 1. hasMore is false once a
// page is short or the server-reported page count is reached.
func (c *CatalogClient) ListIDs(ctx context.Context, page, pageSize int) ([]string, bool, error) {
	endpoint := fmt.Sprintf("/products?page=%d&limit=%d", page, pageSize)

	var listing response.Listing
	if err := c.doRequest(ctx, "list", http.MethodGet, endpoint, c.listTimeout, nil, &listing); err != nil {
		return nil, false, err
	}

	ids := make([]string, 0, len(listing.Data))
	for _, item := range listing.Data {
		if item.ID != "" {
			ids = append(ids, item.ID)
		}
	}

	hasMore := len(listing.Data) >= pageSize
	if listing.Meta.Pages > 0 && page >= listing.Meta.Pages {
		hasMore = false
	}
	return ids, hasMore, nil
}

// FetchBatch fetches product details in one batch call. Items come back in the
// order of ids; an item the server did not answer has status 0.
func (c *CatalogClient) FetchBatch(ctx context.Context, ids []string) ([]response.BatchItem, error) {
	reqs := make([]request.VirtualRequest, len(ids))
	for i, id := range ids {
		reqs[i] = request.VirtualRequest{ID: id, Method: http.MethodGet, Path: ProductPath(id)}
	}
	return c.Execute(ctx, reqs)
}

// Execute runs up to MaxBatchSize virtual requests in one round trip.
func (c *CatalogClient) Execute(ctx context.Context, reqs []request.VirtualRequest) ([]response.BatchItem, error) {
	if len(reqs) > MaxBatchSize {
		return nil, fmt.Errorf("%w: %d > %d", ErrBatchTooLarge, len(reqs), MaxBatchSize)
	}
	if len(reqs) == 0 {
		return nil, nil
	}

	var batch response.Batch
	if err := c.doRequest(ctx, "batch", http.MethodPost, "/batch", c.batchTimeout, request.Batch{Requests: reqs}, &batch); err != nil {
		return nil, err
	}

	byID := make(map[string]response.BatchItem, len(batch.Responses))
	for _, item := range batch.Responses {
		byID[item.ID] = item
	}

	items := make([]response.BatchItem, len(reqs))
	for i, req := range reqs {
		item, ok := byID[req.ID]
		if !ok {
			item = response.BatchItem{ID: req.ID, Error: "missing from batch response"}
		}
		items[i] = item
	}
	return items, nil
}

func (c *CatalogClient) FetchOne(ctx context.Context, id string) (*response.ProductDetail, error) {
	var env response.Envelope[response.ProductDetail]
	if err := c.doRequest(ctx, "product", http.MethodGet, ProductPath(id), c.listTimeout, nil, &env); err != nil {
		return nil, err
	}
	return &env.Data, nil
}

func (c *CatalogClient) FetchAttribute(ctx context.Context, kind, id string) (*response.AttributeDetail, error) {
	var env response.Envelope[response.AttributeDetail]
	if err := c.doRequest(ctx, "attribute", http.MethodGet, AttributePath(kind, id), c.listTimeout, nil, &env); err != nil {
		return nil, err
	}
	return &env.Data, nil
}

func (c *CatalogClient) FetchImageMeta(ctx context.Context, productID string) ([]response.ImageMeta, error) {
	var env response.Envelope[[]response.ImageMeta]
	if err := c.doRequest(ctx, "image_meta", http.MethodGet, ProductPath(productID)+"/images", c.listTimeout, nil, &env); err != nil {
		return nil, err
	}
	return env.Data, nil
}

func ProductPath(id string) string {
	return "/products/" + url.PathEscape(id)
}

func AttributePath(kind, id string) string {
	return "/attributes/" + url.PathEscape(kind) + "/" + url.PathEscape(id)
}

// DecodeProduct parses a batch item body or detail response.
func DecodeProduct(body json.RawMessage) (*response.ProductDetail, error) {
	var env response.Envelope[response.ProductDetail]
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("failed to decode product: %w", err)
	}
	return &env.Data, nil
}

func DecodeAttribute(body json.RawMessage) (*response.AttributeDetail, error) {
	var env response.Envelope[response.AttributeDetail]
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("failed to decode attribute: %w", err)
	}
	return &env.Data, nil
}
