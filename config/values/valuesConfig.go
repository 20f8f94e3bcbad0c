package values

import "time"

// SyncValues holds the tunables of a catalog sync run.
type SyncValues struct {
	PageSize          int           `yaml:"page-size"`
	BatchSize         int           `yaml:"batch-size"`
	ConcurrentBatches int           `yaml:"concurrent-batches"`
	PostPassBatchSize int           `yaml:"post-pass-batch-size"`
	ListTimeout       time.Duration `yaml:"list-timeout"`
	BatchTimeout      time.Duration `yaml:"batch-timeout"`
	RequestsPerSecond float64       `yaml:"requests-per-second"`
	Burst             int           `yaml:"burst"`
	ImageBaseURL      string        `yaml:"image-base-url"`
}

const (
	DefaultPageSize          = 200
	DefaultBatchSize         = 200
	DefaultConcurrentBatches = 2
	DefaultPostPassBatchSize = 50
	DefaultListTimeout       = 30 * time.Second
	DefaultBatchTimeout      = 600 * time.Second
	DefaultRequestsPerSecond = 3
)

func DefaultSyncValues() SyncValues {
	return SyncValues{
		PageSize:          DefaultPageSize,
		BatchSize:         DefaultBatchSize,
		ConcurrentBatches: DefaultConcurrentBatches,
		PostPassBatchSize: DefaultPostPassBatchSize,
		ListTimeout:       DefaultListTimeout,
		BatchTimeout:      DefaultBatchTimeout,
		RequestsPerSecond: DefaultRequestsPerSecond,
		Burst:             1,
	}
}

// WithDefaults fills every unset field from DefaultSyncValues.
// Batch and post-pass batch sizes never exceed the remote cap of 200.
func (v SyncValues) WithDefaults() SyncValues {
	d := DefaultSyncValues()
	if v.PageSize <= 0 {
		v.PageSize = d.PageSize
	}
	if v.BatchSize <= 0 || v.BatchSize > DefaultBatchSize {
		v.BatchSize = d.BatchSize
	}
	if v.ConcurrentBatches <= 0 {
		v.ConcurrentBatches = d.ConcurrentBatches
	}
	if v.PostPassBatchSize <= 0 {
		v.PostPassBatchSize = d.PostPassBatchSize
	}
	v.PostPassBatchSize = min(v.PostPassBatchSize, DefaultBatchSize)
	if v.ListTimeout <= 0 {
		v.ListTimeout = d.ListTimeout
	}
	if v.BatchTimeout <= 0 {
		v.BatchTimeout = d.BatchTimeout
	}
	if v.RequestsPerSecond <= 0 {
		v.RequestsPerSecond = d.RequestsPerSecond
	}
	if v.Burst <= 0 {
		v.Burst = d.Burst
	}
	return v
}
