// Package memory is a map-backed Store for tests and single-process runs without Postgres.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"gocatalog_api/internal/catalog/business/models"
	"gocatalog_api/internal/catalog/storage"
)

type Store struct {
	mu           sync.RWMutex
	products     map[string]models.Product // by local id
	productIndex map[string]string         // connection|remote -> local id
	descriptions map[string]models.Description
	images       map[string][]models.Image
	categories   map[string]models.Category // connection|remote
	relations    map[string]models.CategoryRelation
	now          func() time.Time
}

func NewStore() *Store {
	return &Store{
		products:     make(map[string]models.Product),
		productIndex: make(map[string]string),
		descriptions: make(map[string]models.Description),
		images:       make(map[string][]models.Image),
		categories:   make(map[string]models.Category),
		relations:    make(map[string]models.CategoryRelation),
		now:          time.Now,
	}
}

func key(a, b string) string {
	return a + "|" + b
}

func (s *Store) FindProductByRemoteID(_ context.Context, connectionID, remoteID string) (*models.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.productIndex[key(connectionID, remoteID)]
	if !ok {
		return nil, models.ErrNotFound
	}
	p := s.products[id]
	return &p, nil
}

func (s *Store) UpsertProduct(_ context.Context, p *models.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := key(p.ConnectionID, p.RemoteID)
	if existing, ok := s.productIndex[k]; ok {
		p.LocalID = existing
	}
	if p.ParentLocalID != nil && *p.ParentLocalID == p.LocalID {
		return &models.StorageError{Op: "upsert product", Err: errSelfParent}
	}
	stored := *p
	stored.Attributes = append(models.Attributes(nil), p.Attributes...)
	s.products[p.LocalID] = stored
	s.productIndex[k] = p.LocalID
	return nil
}

func (s *Store) SetParent(_ context.Context, localID string, parentLocalID *string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.products[localID]
	if !ok {
		return models.ErrNotFound
	}
	if parentLocalID != nil && *parentLocalID == localID {
		return &models.StorageError{Op: "set parent", Err: errSelfParent}
	}
	p.ParentLocalID = parentLocalID
	s.products[localID] = p
	return nil
}

func (s *Store) SetSyncStatus(_ context.Context, localID string, status models.SyncStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.products[localID]
	if !ok {
		return models.ErrNotFound
	}
	p.SyncStatus = status
	s.products[localID] = p
	return nil
}

func (s *Store) ListUnresolvedParents(_ context.Context, connectionID string) ([]models.ParentCandidate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.ParentCandidate
	for _, p := range s.products {
		if p.ConnectionID != connectionID || p.ParentRemoteID == nil || p.ParentLocalID != nil {
			continue
		}
		out = append(out, models.ParentCandidate{LocalID: p.LocalID, RemoteID: p.RemoteID, ParentRemoteID: *p.ParentRemoteID})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RemoteID < out[j].RemoteID })
	return out, nil
}

func (s *Store) ListProducts(_ context.Context, connectionID string) ([]models.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.Product
	for _, p := range s.products {
		if p.ConnectionID == connectionID {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RemoteID < out[j].RemoteID })
	return out, nil
}

func (s *Store) FindDescription(_ context.Context, productLocalID, languageCode string) (*models.Description, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.descriptions[key(productLocalID, languageCode)]
	if !ok {
		return nil, models.ErrNotFound
	}
	return &d, nil
}

func (s *Store) UpsertDescription(_ context.Context, d *models.Description) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.products[d.ProductLocalID]; !ok {
		return &models.StorageError{Op: "upsert description", Err: models.ErrNotFound}
	}
	s.descriptions[key(d.ProductLocalID, d.LanguageCode)] = *d
	return nil
}

func (s *Store) ReplaceImages(_ context.Context, productLocalID string, images []models.Image) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	seen := make(map[string]bool, len(images))
	for _, img := range images {
		if seen[img.RemotePath] {
			return &models.StorageError{Op: "replace images", Err: errDuplicateImage}
		}
		seen[img.RemotePath] = true
	}
	s.images[productLocalID] = append([]models.Image(nil), images...)
	return nil
}

func (s *Store) ListImages(_ context.Context, productLocalID string) ([]models.Image, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.Image(nil), s.images[productLocalID]...), nil
}

func (s *Store) FindCategoryByRemoteID(_ context.Context, connectionID, remoteID string) (*models.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.categories[key(connectionID, remoteID)]
	if !ok {
		return nil, models.ErrNotFound
	}
	return &c, nil
}

func (s *Store) UpsertCategory(_ context.Context, c *models.Category) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := key(c.ConnectionID, c.RemoteID)
	if existing, ok := s.categories[k]; ok {
		c.LocalID = existing.LocalID
	}
	s.categories[k] = *c
	return nil
}

func (s *Store) UpsertCategoryRelation(_ context.Context, rel *models.CategoryRelation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for k, existing := range s.relations {
		if existing.ProductLocalID == rel.ProductLocalID && existing.CategoryLocalID == rel.CategoryLocalID {
			existing.RemoteRelationID = rel.RemoteRelationID
			existing.DeletedAt = nil
			s.relations[k] = existing
			rel.RelationKey = k
			return nil
		}
	}
	if _, taken := s.relations[rel.RelationKey]; taken {
		return &models.StorageError{Op: "upsert category relation", Err: errDuplicateRelation}
	}
	stored := *rel
	stored.DeletedAt = nil
	s.relations[rel.RelationKey] = stored
	return nil
}

func (s *Store) SoftDeleteRelationsExcept(_ context.Context, productLocalID string, keep []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := make(map[string]bool, len(keep))
	for _, k := range keep {
		kept[k] = true
	}
	now := s.now()
	for k, rel := range s.relations {
		if rel.ProductLocalID != productLocalID || rel.DeletedAt != nil || kept[k] {
			continue
		}
		rel.DeletedAt = &now
		s.relations[k] = rel
	}
	return nil
}

func (s *Store) ListRelations(_ context.Context, productLocalID string) ([]models.CategoryRelation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.CategoryRelation
	for _, rel := range s.relations {
		if rel.ProductLocalID == productLocalID {
			out = append(out, rel)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RelationKey < out[j].RelationKey })
	return out, nil
}

var _ storage.Store = (*Store)(nil)
