package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"gocatalog_api/internal/catalog/business/models"
	"gocatalog_api/internal/catalog/pkg/clients"
)

type fakeService struct {
	total     int
	startErr  error
	progress  models.SyncProgress
	found     bool
	stopFound bool

	gotConnection string
	gotForce      bool
}

func (f *fakeService) Start(_ context.Context, connectionID string, forceSync bool) (int, error) {
	f.gotConnection, f.gotForce = connectionID, forceSync
	return f.total, f.startErr
}

func (f *fakeService) Progress(_ context.Context, _ string) (models.SyncProgress, bool, error) {
	return f.progress, f.found, nil
}

func (f *fakeService) Stop(_ context.Context, _ string) (bool, error) {
	return f.stopFound, nil
}

func serve(svc SyncService, method, path, body string) *httptest.ResponseRecorder {
	e := echo.New()
	NewSyncHandler(svc, nil).Register(e.Group("/api/v1/connections"))

	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestStartSyncAccepted(t *testing.T) {
	svc := &fakeService{total: 450}
	rec := serve(svc, http.MethodPost, "/api/v1/connections/shop-1/sync", `{"forceSync":true}`)

	if rec.Code != http.StatusAccepted {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body)
	}
	var resp struct {
		Total int `json:"total"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil || resp.Total != 450 {
		t.Fatalf("body = %s", rec.Body)
	}
	if svc.gotConnection != "shop-1" || !svc.gotForce {
		t.Fatalf("service called with %q force=%v", svc.gotConnection, svc.gotForce)
	}
}

func TestStartSyncWithoutBody(t *testing.T) {
	svc := &fakeService{total: 1}
	rec := serve(svc, http.MethodPost, "/api/v1/connections/shop-1/sync", "")
	if rec.Code != http.StatusAccepted || svc.gotForce {
		t.Fatalf("status = %d, force = %v", rec.Code, svc.gotForce)
	}
}

func TestStartSyncErrorStatuses(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"unknown connection", fmt.Errorf("%w: x", models.ErrUnknownConnection), http.StatusNotFound},
		{"bad connection", &models.ConfigurationError{ConnectionID: "x", Field: "credentials", Reason: "empty"}, http.StatusBadRequest},
		{"already running", models.ErrSyncInProgress, http.StatusConflict},
		{"no products", models.ErrNoProducts, http.StatusBadGateway},
		{"listing failed", fmt.Errorf("listing page 1: %w", &clients.TransportError{Op: "list", Status: 503}), http.StatusBadGateway},
		{"other", fmt.Errorf("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := serve(&fakeService{startErr: tc.err}, http.MethodPost, "/api/v1/connections/x/sync", `{}`)
			if rec.Code != tc.want {
				t.Fatalf("status = %d, want %d", rec.Code, tc.want)
			}
		})
	}
}

func TestStartSyncBadBody(t *testing.T) {
	rec := serve(&fakeService{}, http.MethodPost, "/api/v1/connections/x/sync", `{"forceSync":`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestGetProgress(t *testing.T) {
	svc := &fakeService{found: true, progress: models.SyncProgress{ConnectionID: "shop-1", Total: 10, Synced: 4, Errors: 1, Status: models.RunSyncing}}
	rec := serve(svc, http.MethodGet, "/api/v1/connections/shop-1/sync", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var p models.SyncProgress
	if err := json.Unmarshal(rec.Body.Bytes(), &p); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if p.Total != 10 || p.Synced != 4 || p.Errors != 1 || p.Status != models.RunSyncing {
		t.Fatalf("progress = %+v", p)
	}

	rec = serve(&fakeService{}, http.MethodGet, "/api/v1/connections/shop-1/sync", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("cleared run status = %d", rec.Code)
	}
}

func TestStopSync(t *testing.T) {
	rec := serve(&fakeService{stopFound: true}, http.MethodPost, "/api/v1/connections/shop-1/sync/stop", "")
	if rec.Code != http.StatusAccepted || !strings.Contains(rec.Body.String(), `"stopping":true`) {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body)
	}

	rec = serve(&fakeService{}, http.MethodPost, "/api/v1/connections/shop-1/sync/stop", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d", rec.Code)
	}
}
