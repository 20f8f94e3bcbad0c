package progress

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"gocatalog_api/internal/catalog/business/models"
)

// Store keeps one live SyncProgress per connection. Increment must be safe for
// concurrent callers.
type Store interface {
	// Init creates a fresh record with a new RunID. It fails with
	// models.ErrSyncInProgress while the connection has a syncing record.
	Init(ctx context.Context, connectionID string, total int) (models.SyncProgress, error)
	SetTotal(ctx context.Context, connectionID string, total int) error
	Increment(ctx context.Context, connectionID string, delta models.ProgressDelta) error
	SetCurrent(ctx context.Context, connectionID, current string) error
	Finish(ctx context.Context, connectionID string, status models.RunStatus, message string) error
	Get(ctx context.Context, connectionID string) (models.SyncProgress, bool, error)
	// MarkStopRequested reports false when there is no record.
	MarkStopRequested(ctx context.Context, connectionID string) (bool, error)
	// Clear removes the record if it still belongs to runID.
	Clear(ctx context.Context, connectionID, runID string) error
}

type MemoryStore struct {
	mu   sync.Mutex
	runs map[string]*models.SyncProgress
	now  func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{runs: make(map[string]*models.SyncProgress), now: time.Now}
}

func (s *MemoryStore) Init(_ context.Context, connectionID string, total int) (models.SyncProgress, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p, ok := s.runs[connectionID]; ok && p.Status == models.RunSyncing {
		return *p, models.ErrSyncInProgress
	}
	p := &models.SyncProgress{
		RunID:        uuid.NewString(),
		ConnectionID: connectionID,
		Total:        total,
		Status:       models.RunSyncing,
		StartedAt:    s.now().UTC(),
	}
	s.runs[connectionID] = p
	return *p, nil
}

func (s *MemoryStore) update(connectionID string, fn func(p *models.SyncProgress)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.runs[connectionID]
	if !ok {
		return models.ErrNotFound
	}
	fn(p)
	return nil
}

func (s *MemoryStore) SetTotal(_ context.Context, connectionID string, total int) error {
	return s.update(connectionID, func(p *models.SyncProgress) { p.Total = total })
}

func (s *MemoryStore) Increment(_ context.Context, connectionID string, delta models.ProgressDelta) error {
	return s.update(connectionID, func(p *models.SyncProgress) {
		p.Synced += delta.Synced
		p.Errors += delta.Errors
	})
}

func (s *MemoryStore) SetCurrent(_ context.Context, connectionID, current string) error {
	return s.update(connectionID, func(p *models.SyncProgress) { p.Current = current })
}

func (s *MemoryStore) Finish(_ context.Context, connectionID string, status models.RunStatus, message string) error {
	return s.update(connectionID, func(p *models.SyncProgress) {
		p.Status = status
		p.Message = message
		p.Current = ""
	})
}

func (s *MemoryStore) Get(_ context.Context, connectionID string) (models.SyncProgress, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.runs[connectionID]
	if !ok {
		return models.SyncProgress{}, false, nil
	}
	return *p, true, nil
}

func (s *MemoryStore) MarkStopRequested(_ context.Context, connectionID string) (bool, error) {
	err := s.update(connectionID, func(p *models.SyncProgress) { p.ShouldStop = true })
	if err == models.ErrNotFound {
		return false, nil
	}
	return err == nil, err
}

func (s *MemoryStore) Clear(_ context.Context, connectionID, runID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p, ok := s.runs[connectionID]; ok && p.RunID == runID {
		delete(s.runs, connectionID)
	}
	return nil
}
