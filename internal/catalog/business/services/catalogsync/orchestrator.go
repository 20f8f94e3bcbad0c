package catalogsync

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"gocatalog_api/config"
	"gocatalog_api/config/values"
	"gocatalog_api/internal/catalog/business/models"
	"gocatalog_api/internal/catalog/business/models/dto/response"
	"gocatalog_api/internal/catalog/business/services/attributes"
	"gocatalog_api/internal/catalog/business/services/parent"
	"gocatalog_api/internal/catalog/business/services/persist"
	"gocatalog_api/internal/catalog/business/services/progress"
	"gocatalog_api/internal/catalog/pkg/clients"
	"gocatalog_api/internal/catalog/storage"
	"gocatalog_api/metrics"
	"gocatalog_api/pkg/logger"
	"gocatalog_api/pkg/ratelimit"
)

var ErrClosed = errors.New("sync orchestrator is shut down")

// errStopped ends a chunk group early; the run finishes as stopped.
var errStopped = errors.New("stop requested")

// Client is everything a run needs from one connection's remote catalog.
type Client interface {
	Lister
	parent.DetailFetcher
	attributes.Fetcher
	persist.ImageMetaFetcher
}

type ClientFactory func(conn config.ConnectionConfig, limiter *ratelimit.Limiter) (Client, error)

type Connections interface {
	Connection(id string) (config.ConnectionConfig, bool)
}

type Options struct {
	Connections Connections
	Store       storage.Store
	Progress    progress.Store
	Values      values.SyncValues
	// Grace is how long a finished run stays visible to pollers.
	Grace     time.Duration
	NewClient ClientFactory
	Log       *zap.Logger
}

// Orchestrator runs catalog syncs: listing in the caller, everything after it in
// a background goroutine observed only through the progress store.
type Orchestrator struct {
	connections Connections
	store       storage.Store
	progress    progress.Store
	values      values.SyncValues
	grace       time.Duration
	newClient   ClientFactory
	log         *zap.Logger

	mu       sync.Mutex
	limiters map[string]*ratelimit.Limiter
	timers   map[string]*time.Timer
	closed   bool

	root   context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func New(opts Options) *Orchestrator {
	v := opts.Values.WithDefaults()
	log := logger.Nop(opts.Log).Named("orchestrator")

	newClient := opts.NewClient
	if newClient == nil {
		newClient = func(conn config.ConnectionConfig, limiter *ratelimit.Limiter) (Client, error) {
			c, err := clients.NewCatalogClient(conn, limiter, v, log)
			if err != nil {
				return nil, err
			}
			return c, nil
		}
	}
	grace := opts.Grace
	if grace <= 0 {
		grace = config.DefaultProgressGrace
	}

	root, cancel := context.WithCancel(context.Background())
	return &Orchestrator{
		connections: opts.Connections,
		store:       opts.Store,
		progress:    opts.Progress,
		values:      v,
		grace:       grace,
		newClient:   newClient,
		log:         log,
		limiters:    make(map[string]*ratelimit.Limiter),
		timers:      make(map[string]*time.Timer),
		root:        root,
		cancel:      cancel,
	}
}

// limiter returns the token bucket of a connection; every run against it shares one.
func (o *Orchestrator) limiter(connectionID string) *ratelimit.Limiter {
	o.mu.Lock()
	defer o.mu.Unlock()
	l, ok := o.limiters[connectionID]
	if !ok {
		l = ratelimit.New(o.values.RequestsPerSecond, o.values.Burst)
		o.limiters[connectionID] = l
	}
	return l
}

type run struct {
	connectionID string
	runID        string
	forceSync    bool
	client       Client
	attrs        *attributes.Resolver
	parents      *parent.Resolver
	persister    *persist.Persister
	log          *zap.Logger

	counters metrics.RunCounters

	mu         sync.Mutex
	unresolved []models.ParentCandidate
}

func (r *run) addUnresolved(c models.ParentCandidate) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.unresolved = append(r.unresolved, c)
}

func (o *Orchestrator) newRun(connectionID, runID string, client Client, forceSync bool) *run {
	log := o.log.With(zap.String("connection_id", connectionID), zap.String("run_id", runID))
	parents := parent.NewResolver(o.store, client, o.values.PostPassBatchSize, log)
	return &run{
		connectionID: connectionID,
		runID:        runID,
		forceSync:    forceSync,
		client:       client,
		attrs:        attributes.NewResolver(client, o.values.BatchSize, log),
		parents:      parents,
		persister: persist.New(persist.Config{
			ConnectionID: connectionID,
			ImageBaseURL: o.values.ImageBaseURL,
			Store:        o.store,
			Parents:      parents,
			ImageMeta:    client,
			Log:          log,
		}),
		log: log,
	}
}

// Start lists the connection's products and hands fetching and persisting to a
// background goroutine. It returns the listed total.
func (o *Orchestrator) Start(ctx context.Context, connectionID string, forceSync bool) (int, error) {
	if o.root.Err() != nil {
		return 0, ErrClosed
	}
	conn, ok := o.connections.Connection(connectionID)
	if !ok {
		return 0, fmt.Errorf("%w: %s", models.ErrUnknownConnection, connectionID)
	}
	if err := conn.Validate(); err != nil {
		return 0, err
	}
	client, err := o.newClient(conn, o.limiter(conn.ID))
	if err != nil {
		return 0, err
	}

	prog, err := o.progress.Init(ctx, conn.ID, 0)
	if err != nil {
		return 0, err
	}
	metrics.RunStarted()
	r := o.newRun(conn.ID, prog.RunID, client, forceSync)
	r.log.Info("sync started", zap.Bool("force_sync", forceSync))

	ids, err := listAll(ctx, client, o.values.PageSize)
	if err == nil && len(ids) == 0 {
		err = models.ErrNoProducts
	}
	if err == nil {
		err = o.progress.SetTotal(ctx, conn.ID, len(ids))
	}
	if err != nil {
		r.log.Error("listing failed", zap.Error(err))
		o.finish(r, models.RunError, err.Error())
		return 0, err
	}

	r.log.Info("listing finished", zap.Int("total", len(ids)))
	o.wg.Add(1)
	go o.run(r, ids)
	return len(ids), nil
}

func (o *Orchestrator) Progress(ctx context.Context, connectionID string) (models.SyncProgress, bool, error) {
	return o.progress.Get(ctx, connectionID)
}

// Stop only raises the flag; the run notices it at its next checkpoint.
func (o *Orchestrator) Stop(ctx context.Context, connectionID string) (bool, error) {
	return o.progress.MarkStopRequested(ctx, connectionID)
}

// Wait blocks until every background run has finished.
func (o *Orchestrator) Wait() {
	o.wg.Wait()
}

// Close cancels running syncs and waits for them to record their final status.
// Pending grace clears are dropped; finished records stay until their TTL.
func (o *Orchestrator) Close(ctx context.Context) error {
	o.cancel()
	o.stopTimers()
	done := make(chan struct{})
	go func() {
		o.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (o *Orchestrator) run(r *run, ids []string) {
	defer o.wg.Done()
	defer func() {
		if p := recover(); p != nil {
			r.log.Error("sync run panicked", zap.Any("panic", p))
			o.finish(r, models.RunError, fmt.Sprintf("internal error: %v", p))
		}
	}()

	ctx := o.root
	status, message := o.fetchAll(ctx, r, ids)
	if status == models.RunCompleted {
		if err := o.postPass(ctx, r); err != nil {
			status, message = models.RunStopped, stopMessage(ctx)
		}
	}
	o.finish(r, status, message)
}

// fetchAll обрабатывает чанки группами по ConcurrentBatches. Флаг остановки
// проверяется перед каждой группой.
func (o *Orchestrator) fetchAll(ctx context.Context, r *run, ids []string) (models.RunStatus, string) {
	chunks := Batch(ids, o.values.BatchSize)
	for _, g := range groups(len(chunks), o.values.ConcurrentBatches) {
		if o.stopRequested(ctx, r) {
			return models.RunStopped, stopMessage(ctx)
		}

		// без общего контекста: сбой одного чанка не прерывает соседний запрос
		var eg errgroup.Group
		for i := g[0]; i < g[1]; i++ {
			eg.Go(func() error {
				return o.processChunk(ctx, r, i, chunks[i])
			})
		}
		if err := eg.Wait(); err != nil {
			return models.RunStopped, stopMessage(ctx)
		}
	}

	if failed := int(r.counters.FailedChunks.Load()); failed == len(chunks) {
		return models.RunError, fmt.Sprintf("batch transport failed for all %d chunks", failed)
	}
	return models.RunCompleted, ""
}

func (o *Orchestrator) processChunk(ctx context.Context, r *run, idx int, ids []string) error {
	log := r.log.With(zap.Int("chunk", idx), zap.Int("size", len(ids)))

	items, err := r.client.FetchBatch(ctx, ids)
	if err != nil {
		if ctx.Err() != nil {
			return errStopped
		}
		r.counters.FailedChunks.Add(1)
		log.Warn("batch call failed, counting every item as an error", zap.Error(err))
		o.increment(ctx, r, models.ProgressDelta{Errors: len(ids)})
		return nil
	}
	if o.stopRequested(ctx, r) {
		log.Info("stop requested, discarding fetched batch")
		return errStopped
	}

	var delta models.ProgressDelta
	details := make([]*response.ProductDetail, 0, len(items))
	for _, item := range items {
		if !item.OK() {
			delta.Errors++
			log.Warn("batch item failed", zap.String("remote_id", item.ID),
				zap.Int("status", item.Status), zap.String("error", item.Error))
			continue
		}
		detail, err := clients.DecodeProduct(item.Body)
		if err != nil {
			delta.Errors++
			log.Warn("batch item is not a product", zap.String("remote_id", item.ID), zap.Error(err))
			continue
		}
		details = append(details, detail)
	}

	descs := r.attrs.ResolveMany(ctx, persist.AttributeRefs(details))

	stopped := false
	for _, detail := range details {
		if o.stopRequested(ctx, r) {
			stopped = true
			break
		}
		o.setCurrent(ctx, r, detail.ID)

		res := r.persister.Persist(ctx, detail, descs, r.forceSync)
		if !res.OK() {
			delta.Errors++
			log.Warn("product not persisted", zap.String("remote_id", res.RemoteID),
				zap.String("reason", string(res.Reason)), zap.Error(res.Err))
			continue
		}
		delta.Synced++
		if res.UnresolvedParent != "" {
			r.addUnresolved(models.ParentCandidate{LocalID: res.LocalID, RemoteID: res.RemoteID, ParentRemoteID: res.UnresolvedParent})
		}
	}

	o.increment(ctx, r, delta)
	log.Debug("chunk finished", zap.Int("synced", delta.Synced), zap.Int("errors", delta.Errors))
	if stopped {
		return errStopped
	}
	return nil
}

// postPass backfills parents of children stored before them: the references
// tracked in this run plus any left unresolved by earlier runs.
func (o *Orchestrator) postPass(ctx context.Context, r *run) error {
	r.mu.Lock()
	candidates := append([]models.ParentCandidate(nil), r.unresolved...)
	r.mu.Unlock()

	stored, err := o.store.ListUnresolvedParents(ctx, r.connectionID)
	if err != nil {
		r.log.Warn("failed to list stored unresolved parents", zap.Error(err))
	}
	candidates = append(candidates, stored...)
	if len(candidates) == 0 {
		return nil
	}

	o.setCurrent(ctx, r, "parent post-pass")
	_, err = r.parents.PostPass(ctx, r.connectionID, candidates)
	return err
}

func (o *Orchestrator) stopRequested(ctx context.Context, r *run) bool {
	if ctx.Err() != nil {
		return true
	}
	p, ok, err := o.progress.Get(ctx, r.connectionID)
	if err != nil {
		r.log.Warn("failed to read stop flag", zap.Error(err))
		return false
	}
	return ok && p.RunID == r.runID && p.ShouldStop
}

func (o *Orchestrator) increment(ctx context.Context, r *run, delta models.ProgressDelta) {
	r.counters.Add(delta.Synced, delta.Errors)
	if err := o.progress.Increment(context.WithoutCancel(ctx), r.connectionID, delta); err != nil {
		r.log.Error("failed to record progress", zap.Error(err))
	}
}

func (o *Orchestrator) setCurrent(ctx context.Context, r *run, current string) {
	if err := o.progress.SetCurrent(ctx, r.connectionID, current); err != nil {
		r.log.Debug("failed to set current item", zap.Error(err))
	}
}

// finish records the terminal status and schedules the record's removal after
// the grace period.
func (o *Orchestrator) finish(r *run, status models.RunStatus, message string) {
	ctx := context.Background()
	if err := o.progress.Finish(ctx, r.connectionID, status, message); err != nil {
		r.log.Error("failed to record final status", zap.Error(err))
	}

	synced, errs := r.counters.Snapshot()
	metrics.RecordProducts(r.connectionID, synced, errs)
	metrics.RunFinished(r.connectionID, string(status))
	r.log.Info("sync finished", zap.String("status", string(status)),
		zap.Int("synced", synced), zap.Int("errors", errs), zap.String("message", message))

	o.scheduleClear(r.connectionID, r.runID)
}

func (o *Orchestrator) scheduleClear(connectionID, runID string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.closed {
		return
	}
	if prev, ok := o.timers[connectionID]; ok {
		prev.Stop()
	}

	var t *time.Timer
	t = time.AfterFunc(o.grace, func() {
		o.mu.Lock()
		if o.timers[connectionID] == t {
			delete(o.timers, connectionID)
		}
		o.mu.Unlock()

		if err := o.progress.Clear(context.Background(), connectionID, runID); err != nil {
			o.log.Warn("failed to clear progress", zap.String("connection_id", connectionID), zap.Error(err))
		}
	})
	o.timers[connectionID] = t
}

func (o *Orchestrator) stopTimers() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.closed = true
	for id, t := range o.timers {
		t.Stop()
		delete(o.timers, id)
	}
}

func stopMessage(ctx context.Context) string {
	if ctx.Err() != nil {
		return "service shutting down"
	}
	return models.ErrUserCancelled.Error()
}
