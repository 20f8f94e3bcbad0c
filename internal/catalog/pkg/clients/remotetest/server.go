// Package remotetest runs an in-process fake of the remote catalog API.
package remotetest

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"sync"

	"gocatalog_api/config"
	"gocatalog_api/internal/catalog/business/models/dto/request"
	"gocatalog_api/internal/catalog/business/models/dto/response"
)

const (
	Username = "api-user"
	Password = "api-secret"
)

type Server struct {
	*httptest.Server

	mu          sync.Mutex
	ids         []string
	products    map[string]response.ProductDetail
	itemStatus  map[string]int
	attributes  map[string]response.AttributeDetail
	imageMeta   map[string][]response.ImageMeta
	listStatus  int
	batchStatus int
	pages       int

	counts Counts
}

// Counts tallies calls received. Detail, Attribute and ImageMeta exclude virtual
// requests inside a batch.
type Counts struct {
	List       int
	Detail     int
	Attribute  int
	ImageMeta  int
	BatchSizes []int
}

func NewServer() *Server {
	s := &Server{
		products:   make(map[string]response.ProductDetail),
		itemStatus: make(map[string]int),
		attributes: make(map[string]response.AttributeDetail),
		imageMeta:  make(map[string][]response.ImageMeta),
	}
	s.Server = httptest.NewServer(http.HandlerFunc(s.handle))
	return s
}

// Connection returns a connection config pointing at the fake.
func (s *Server) Connection(id string) config.ConnectionConfig {
	return config.ConnectionConfig{ID: id, BaseURL: s.URL, Username: Username, Password: Password}
}

// Product returns a minimal valid product detail.
func Product(id string) response.ProductDetail {
	return response.ProductDetail{ID: id, SKU: "SKU-" + id, Name: "Product " + id}
}

// AddProduct appends p to the listing.
func (s *Server) AddProduct(p response.ProductDetail) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.products[p.ID]; !ok {
		s.ids = append(s.ids, p.ID)
	}
	s.products[p.ID] = p
}

// ListOnly adds an id to the listing with no detail behind it.
func (s *Server) ListOnly(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ids = append(s.ids, id)
}

func (s *Server) SetItemStatus(id string, status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.itemStatus[id] = status
}

func (s *Server) AddAttribute(kind string, a response.AttributeDetail) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.attributes[kind+"/"+a.ID] = a
}

func (s *Server) SetImageMeta(productID string, meta []response.ImageMeta) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.imageMeta[productID] = meta
}

// FailListing makes the listing endpoint answer with status.
func (s *Server) FailListing(status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listStatus = status
}

// FailBatch makes the batch endpoint answer with status.
func (s *Server) FailBatch(status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.batchStatus = status
}

// ReportPages overrides the page count reported in listing metadata.
func (s *Server) ReportPages(pages int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pages = pages
}

func (s *Server) Counts() Counts {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := s.counts
	c.BatchSizes = append([]int(nil), s.counts.BatchSizes...)
	return c
}

func (s *Server) handle(w http.ResponseWriter, r *http.Request) {
	user, pass, ok := r.BasicAuth()
	if !ok || user != Username || pass != Password {
		http.Error(w, `{"error":"unauthorized"}`, http.StatusUnauthorized)
		return
	}

	path := strings.TrimPrefix(r.URL.Path, "/api/v1")
	switch {
	case r.Method == http.MethodGet && path == "/products":
		s.handleListing(w, r)
	case r.Method == http.MethodPost && path == "/batch":
		s.handleBatch(w, r)
	case r.Method == http.MethodGet:
		s.mu.Lock()
		status, body := s.resolve(strings.TrimPrefix(r.URL.EscapedPath(), "/api/v1"), true)
		s.mu.Unlock()
		writeJSON(w, status, body)
	default:
		http.NotFound(w, r)
	}
}

func (s *Server) handleListing(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.counts.List++

	if s.listStatus != 0 {
		http.Error(w, "listing unavailable", s.listStatus)
		return
	}

	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 200
	}

	start := (page - 1) * limit
	end := start + limit
	if start > len(s.ids) {
		start = len(s.ids)
	}
	if end > len(s.ids) {
		end = len(s.ids)
	}

	pages := (len(s.ids) + limit - 1) / limit
	if s.pages != 0 {
		pages = s.pages
	}

	listing := response.Listing{Data: []response.ListingItem{}, Meta: response.ListingMeta{Total: len(s.ids), Pages: pages}}
	for _, id := range s.ids[start:end] {
		listing.Data = append(listing.Data, response.ListingItem{ID: id})
	}
	writeJSON(w, http.StatusOK, listing)
}

func (s *Server) handleBatch(w http.ResponseWriter, r *http.Request) {
	var batch request.Batch
	if err := json.NewDecoder(r.Body).Decode(&batch); err != nil {
		http.Error(w, "bad batch", http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.counts.BatchSizes = append(s.counts.BatchSizes, len(batch.Requests))

	if s.batchStatus != 0 {
		http.Error(w, "batch unavailable", s.batchStatus)
		return
	}
	if len(batch.Requests) > 200 {
		http.Error(w, "too many requests", http.StatusRequestEntityTooLarge)
		return
	}

	out := response.Batch{Responses: make([]response.BatchItem, 0, len(batch.Requests))}
	for _, vr := range batch.Requests {
		status, body := s.resolve(vr.Path, false)
		raw, _ := json.Marshal(body)
		out.Responses = append(out.Responses, response.BatchItem{ID: vr.ID, Status: status, Body: raw})
	}
	writeJSON(w, http.StatusOK, out)
}

// resolve answers a detail path. Caller holds mu.
func (s *Server) resolve(path string, direct bool) (int, any) {
	parts := strings.Split(strings.Trim(path, "/"), "/")
	for i, p := range parts {
		if u, err := url.PathUnescape(p); err == nil {
			parts[i] = u
		}
	}

	notFound := map[string]string{"error": "not found"}
	switch {
	case len(parts) == 2 && parts[0] == "products":
		if direct {
			s.counts.Detail++
		}
		id := parts[1]
		if status, ok := s.itemStatus[id]; ok {
			return status, map[string]string{"error": "forced failure"}
		}
		p, ok := s.products[id]
		if !ok {
			return http.StatusNotFound, notFound
		}
		return http.StatusOK, response.Envelope[response.ProductDetail]{Data: p}
	case len(parts) == 3 && parts[0] == "products" && parts[2] == "images":
		if direct {
			s.counts.ImageMeta++
		}
		meta, ok := s.imageMeta[parts[1]]
		if !ok {
			return http.StatusNotFound, notFound
		}
		return http.StatusOK, response.Envelope[[]response.ImageMeta]{Data: meta}
	case len(parts) == 3 && parts[0] == "attributes":
		if direct {
			s.counts.Attribute++
		}
		a, ok := s.attributes[parts[1]+"/"+parts[2]]
		if !ok {
			return http.StatusNotFound, notFound
		}
		return http.StatusOK, response.Envelope[response.AttributeDetail]{Data: a}
	}
	return http.StatusNotFound, notFound
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
