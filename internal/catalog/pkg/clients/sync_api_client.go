package clients

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"gocatalog_api/internal/catalog/business/models"
	"gocatalog_api/internal/catalog/business/models/dto/request"
	"gocatalog_api/internal/catalog/business/services"
)

// DefaultPollTimeout is the poller's safety limit. It only stops the waiting side;
// the run itself is not affected.
const DefaultPollTimeout = 10 * time.Minute

var ErrPollTimeout = errors.New("gave up waiting for the sync to finish")

// SyncAPIClient drives the sync endpoints of a running catalog service.
type SyncAPIClient struct {
	*BaseClient
	timeout time.Duration
}

func NewSyncAPIClient(baseURL, token string, timeout time.Duration, log *zap.Logger) *SyncAPIClient {
	var auth services.AuthEngine
	if bearer := services.NewBearerAuth(token); bearer != nil {
		auth = bearer
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &SyncAPIClient{
		BaseClient: NewBaseClient(strings.TrimRight(baseURL, "/")+apiPrefix, auth, nil, log),
		timeout:    timeout,
	}
}

func syncPath(connectionID string) string {
	return "/connections/" + url.PathEscape(connectionID) + "/sync"
}

func (c *SyncAPIClient) Start(ctx context.Context, connectionID string, forceSync bool) (int, error) {
	var resp struct {
		Total int `json:"total"`
	}
	err := c.doRequest(ctx, "api_start", http.MethodPost, syncPath(connectionID), c.timeout, request.SyncStart{ForceSync: forceSync}, &resp)
	if err != nil {
		return 0, err
	}
	return resp.Total, nil
}

func (c *SyncAPIClient) Progress(ctx context.Context, connectionID string) (models.SyncProgress, bool, error) {
	var p models.SyncProgress
	err := c.doRequest(ctx, "api_progress", http.MethodGet, syncPath(connectionID), c.timeout, nil, &p)
	if IsNotFound(err) {
		return models.SyncProgress{}, false, nil
	}
	if err != nil {
		return models.SyncProgress{}, false, err
	}
	return p, true, nil
}

func (c *SyncAPIClient) Stop(ctx context.Context, connectionID string) (bool, error) {
	err := c.doRequest(ctx, "api_stop", http.MethodPost, syncPath(connectionID)+"/stop", c.timeout, nil, nil)
	if IsNotFound(err) {
		return false, nil
	}
	return err == nil, err
}

// WaitForCompletion polls every interval until the run reaches a terminal status.
// After safety it returns the last seen progress with ErrPollTimeout.
func (c *SyncAPIClient) WaitForCompletion(ctx context.Context, connectionID string, interval, safety time.Duration, onProgress func(models.SyncProgress)) (models.SyncProgress, error) {
	if safety <= 0 {
		safety = DefaultPollTimeout
	}
	deadline := time.NewTimer(safety)
	defer deadline.Stop()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var last models.SyncProgress
	for {
		p, ok, err := c.Progress(ctx, connectionID)
		switch {
		case err != nil:
			c.log.Warn("poll failed", zap.String("connection_id", connectionID), zap.Error(err))
		case !ok:
			return last, models.ErrNotFound
		default:
			last = p
			if onProgress != nil {
				onProgress(p)
			}
			if p.Status.Terminal() {
				return p, nil
			}
		}

		select {
		case <-ctx.Done():
			return last, ctx.Err()
		case <-deadline.C:
			return last, ErrPollTimeout
		case <-ticker.C:
		}
	}
}
