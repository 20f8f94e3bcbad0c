package clients

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"gocatalog_api/config"
	"gocatalog_api/config/values"
	"gocatalog_api/internal/catalog/business/models"
	"gocatalog_api/internal/catalog/business/models/dto/request"
	"gocatalog_api/internal/catalog/business/models/dto/response"
	"gocatalog_api/internal/catalog/pkg/clients/remotetest"
	"gocatalog_api/pkg/ratelimit"
)

func newTestClient(t *testing.T, conn config.ConnectionConfig) *CatalogClient {
	t.Helper()
	c, err := NewCatalogClient(conn, ratelimit.New(1000, 10), values.SyncValues{}, nil)
	if err != nil {
		t.Fatalf("NewCatalogClient: %v", err)
	}
	return c
}

func TestNewCatalogClientRejectsBadConnection(t *testing.T) {
	_, err := NewCatalogClient(config.ConnectionConfig{ID: "x"}, nil, values.SyncValues{}, nil)
	var cfgErr *models.ConfigurationError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("got %v, want ConfigurationError", err)
	}
}

func TestListIDsPaging(t *testing.T) {
	srv := remotetest.NewServer()
	defer srv.Close()
	for i := 0; i < 5; i++ {
		srv.AddProduct(remotetest.Product(fmt.Sprintf("p%d", i)))
	}
	c := newTestClient(t, srv.Connection("c1"))

	ids, more, err := c.ListIDs(context.Background(), 1, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(ids) != 2 || ids[0] != "p0" || !more {
		t.Fatalf("page 1 = %v more=%v", ids, more)
	}

	ids, more, err = c.ListIDs(context.Background(), 3, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(ids) != 1 || ids[0] != "p4" || more {
		t.Fatalf("page 3 = %v more=%v", ids, more)
	}
}

func TestListIDsStopsAtReportedPages(t *testing.T) {
	srv := remotetest.NewServer()
	defer srv.Close()
	for i := 0; i < 4; i++ {
		srv.AddProduct(remotetest.Product(fmt.Sprintf("p%d", i)))
	}
	srv.ReportPages(1)
	c := newTestClient(t, srv.Connection("c1"))

	ids, more, err := c.ListIDs(context.Background(), 1, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(ids) != 2 || more {
		t.Fatalf("ids=%v more=%v, want full page with no more", ids, more)
	}
}

func TestFetchBatchKeepsOrderAndItemStatus(t *testing.T) {
	srv := remotetest.NewServer()
	defer srv.Close()
	srv.AddProduct(remotetest.Product("a"))
	srv.AddProduct(remotetest.Product("b"))
	srv.SetItemStatus("b", http.StatusInternalServerError)
	c := newTestClient(t, srv.Connection("c1"))

	items, err := c.FetchBatch(context.Background(), []string{"b", "a", "zzz"})
	if err != nil {
		t.Fatal(err)
	}
	if len(items) != 3 {
		t.Fatalf("got %d items", len(items))
	}
	if items[0].ID != "b" || items[0].OK() {
		t.Errorf("item b = %+v", items[0])
	}
	if items[1].ID != "a" || !items[1].OK() {
		t.Errorf("item a = %+v", items[1])
	}
	if items[2].Status != http.StatusNotFound {
		t.Errorf("item zzz status = %d", items[2].Status)
	}

	p, err := DecodeProduct(items[1].Body)
	if err != nil {
		t.Fatal(err)
	}
	if p.SKU != "SKU-a" {
		t.Errorf("sku = %q", p.SKU)
	}
	if got := srv.Counts().BatchSizes; len(got) != 1 || got[0] != 3 {
		t.Errorf("batch sizes = %v", got)
	}
}

func TestExecuteRejectsOversizedBatch(t *testing.T) {
	srv := remotetest.NewServer()
	defer srv.Close()
	c := newTestClient(t, srv.Connection("c1"))

	reqs := make([]request.VirtualRequest, MaxBatchSize+1)
	_, err := c.Execute(context.Background(), reqs)
	if !errors.Is(err, ErrBatchTooLarge) {
		t.Fatalf("got %v, want ErrBatchTooLarge", err)
	}
	if n := len(srv.Counts().BatchSizes); n != 0 {
		t.Fatalf("oversized batch reached the server %d times", n)
	}
}

func TestTransportErrorCarriesStatusAndBody(t *testing.T) {
	srv := remotetest.NewServer()
	defer srv.Close()
	srv.FailListing(http.StatusServiceUnavailable)
	c := newTestClient(t, srv.Connection("c1"))

	_, _, err := c.ListIDs(context.Background(), 1, 200)
	var te *TransportError
	if !errors.As(err, &te) {
		t.Fatalf("got %v, want TransportError", err)
	}
	if te.Status != http.StatusServiceUnavailable || !strings.Contains(te.Body, "listing unavailable") {
		t.Fatalf("transport error = %+v", te)
	}
	if srv.Counts().List != 1 {
		t.Fatalf("client must not retry, list calls = %d", srv.Counts().List)
	}
}

func TestTransportErrorOnBadCredentials(t *testing.T) {
	srv := remotetest.NewServer()
	defer srv.Close()
	conn := srv.Connection("c1")
	conn.Password = "wrong"
	c := newTestClient(t, conn)

	_, err := c.FetchOne(context.Background(), "a")
	var te *TransportError
	if !errors.As(err, &te) || te.Status != http.StatusUnauthorized {
		t.Fatalf("got %v, want 401 TransportError", err)
	}
}

func TestTransportErrorOnNonJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<html>maintenance</html>"))
	}))
	defer srv.Close()
	c := newTestClient(t, config.ConnectionConfig{ID: "c1", BaseURL: srv.URL, Username: "u", Password: "p"})

	_, err := c.FetchOne(context.Background(), "a")
	var te *TransportError
	if !errors.As(err, &te) || te.Status != http.StatusOK || te.Err == nil {
		t.Fatalf("got %v, want decode TransportError", err)
	}
	if !strings.Contains(te.Body, "maintenance") {
		t.Fatalf("body prefix = %q", te.Body)
	}
}

func TestTransportErrorOnTimeout(t *testing.T) {
	block := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-block:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(block)

	c, err := NewCatalogClient(
		config.ConnectionConfig{ID: "c1", BaseURL: srv.URL, Username: "u", Password: "p"},
		nil,
		values.SyncValues{ListTimeout: 50 * time.Millisecond},
		nil,
	)
	if err != nil {
		t.Fatal(err)
	}

	_, _, err = c.ListIDs(context.Background(), 1, 200)
	var te *TransportError
	if !errors.As(err, &te) || te.Status != 0 {
		t.Fatalf("got %v, want TransportError without status", err)
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("got %v, want deadline exceeded", err)
	}
}

func TestFetchAttributeAndImageMeta(t *testing.T) {
	srv := remotetest.NewServer()
	defer srv.Close()
	name := "Colour"
	srv.AddAttribute("LIST", response.AttributeDetail{ID: "7", Name: &name})
	srv.SetImageMeta("a", []response.ImageMeta{{Path: "data/img/a.jpg", AltText: "front"}})
	c := newTestClient(t, srv.Connection("c1"))

	attr, err := c.FetchAttribute(context.Background(), "LIST", "7")
	if err != nil {
		t.Fatal(err)
	}
	if attr.Name == nil || *attr.Name != "Colour" {
		t.Fatalf("attribute = %+v", attr)
	}

	_, err = c.FetchAttribute(context.Background(), "LIST", "8")
	if !IsNotFound(err) {
		t.Fatalf("got %v, want not found", err)
	}

	meta, err := c.FetchImageMeta(context.Background(), "a")
	if err != nil {
		t.Fatal(err)
	}
	if len(meta) != 1 || meta[0].AltText != "front" {
		t.Fatalf("meta = %+v", meta)
	}
}

func TestBodyPrefixIsBounded(t *testing.T) {
	long := strings.Repeat("x", bodyPrefixLimit*2)
	if got := bodyPrefix([]byte(long)); len(got) != bodyPrefixLimit {
		t.Fatalf("len = %d", len(got))
	}
}
