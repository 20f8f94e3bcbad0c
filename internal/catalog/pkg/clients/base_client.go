package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"gocatalog_api/internal/catalog/business/services"
	"gocatalog_api/metrics"
	"gocatalog_api/pkg/logger"
	"gocatalog_api/pkg/ratelimit"
)

type BaseClient struct {
	ApiURL  string
	auth    services.AuthEngine
	limiter *ratelimit.Limiter
	client  *http.Client
	log     *zap.Logger
}

func NewBaseClient(apiURL string, auth services.AuthEngine, limiter *ratelimit.Limiter, log *zap.Logger) *BaseClient {
	return &BaseClient{
		ApiURL:  apiURL,
		auth:    auth,
		limiter: limiter,
		// per-call deadlines come from the context
		client: &http.Client{},
		log:    logger.Nop(log),
	}
}

// doRequest waits for a limiter token, then runs one JSON call bounded by timeout.
// Every failure is returned as a *TransportError.
func (c *BaseClient) doRequest(ctx context.Context, op, method, endpoint string, timeout time.Duration, requestBody interface{}, response interface{}) error {
	url := c.ApiURL + endpoint

	_, err := ratelimit.Execute(ctx, c.limiter, func(ctx context.Context) (struct{}, error) {
		ctx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()
		return struct{}{}, c.roundTrip(ctx, op, method, url, requestBody, response)
	})
	if err != nil {
		var te *TransportError
		if errors.As(err, &te) {
			return err
		}
		return &TransportError{Op: op, URL: url, Err: err}
	}
	return nil
}

func (c *BaseClient) roundTrip(ctx context.Context, op, method, url string, requestBody, response interface{}) error {
	var body io.Reader
	if requestBody != nil {
		bodyBytes, err := json.Marshal(requestBody)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		body = bytes.NewReader(bodyBytes)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if requestBody != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.auth != nil {
		c.auth.SetApiKey(req)
	}

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		metrics.RecordRemoteCall(op, 0, time.Since(start))
		select {
		case <-ctx.Done():
			return &TransportError{Op: op, URL: url, Err: fmt.Errorf("request was cancelled: %w", ctx.Err())}
		default:
			return &TransportError{Op: op, URL: url, Err: err}
		}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	metrics.RecordRemoteCall(op, resp.StatusCode, time.Since(start))
	if err != nil {
		return &TransportError{Op: op, URL: url, Status: resp.StatusCode, Err: fmt.Errorf("failed to read response body: %w", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.log.Debug("remote call failed",
			zap.String("op", op), zap.String("url", url), zap.Int("status", resp.StatusCode))
		return &TransportError{Op: op, URL: url, Status: resp.StatusCode, Body: bodyPrefix(respBody)}
	}

	if response == nil {
		return nil
	}
	if err := json.Unmarshal(respBody, response); err != nil {
		return &TransportError{Op: op, URL: url, Status: resp.StatusCode, Body: bodyPrefix(respBody),
			Err: fmt.Errorf("failed to unmarshal response: %w", err)}
	}
	return nil
}
