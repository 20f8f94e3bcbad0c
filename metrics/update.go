package metrics

import "sync/atomic"

// RunCounters are the live outcome counters of one sync run.
type RunCounters struct {
	Synced       atomic.Int64
	Errored      atomic.Int64
	FailedChunks atomic.Int64
}

func (c *RunCounters) Add(synced, errored int) {
	c.Synced.Add(int64(synced))
	c.Errored.Add(int64(errored))
}

func (c *RunCounters) Snapshot() (synced, errored int) {
	return int(c.Synced.Load()), int(c.Errored.Load())
}
