package metrics

import (
	"sync"
	"sync/atomic"
)

// BasicProvider keeps every instrument in memory. It is meant for tests, examples and
// small programs that read values back through Snapshot.
type BasicProvider struct {
	mu         sync.Mutex
	counters   map[string]*BasicCounter
	updowns    map[string]*BasicUpDownCounter
	histograms map[string]*BasicHistogram
	configs    map[string]InstrumentConfig
}

// NewBasicProvider returns an empty in-memory provider.
func NewBasicProvider() *BasicProvider {
	return &BasicProvider{
		counters:   make(map[string]*BasicCounter),
		updowns:    make(map[string]*BasicUpDownCounter),
		histograms: make(map[string]*BasicHistogram),
		configs:    make(map[string]InstrumentConfig),
	}
}

// lookup returns the instrument stored under name, creating it on first use.
func lookup[T any](p *BasicProvider, m map[string]*T, name string, opts []InstrumentOption) *T {
	p.mu.Lock()
	defer p.mu.Unlock()
	if v, ok := m[name]; ok {
		return v
	}
	v := new(T)
	m[name] = v
	p.configs[name] = buildConfig(opts)
	return v
}

func (p *BasicProvider) Counter(name string, opts ...InstrumentOption) Counter {
	return lookup(p, p.counters, name, opts)
}

func (p *BasicProvider) UpDownCounter(name string, opts ...InstrumentOption) UpDownCounter {
	return lookup(p, p.updowns, name, opts)
}

func (p *BasicProvider) Histogram(name string, opts ...InstrumentOption) Histogram {
	return lookup(p, p.histograms, name, opts)
}

// Config returns the metadata an instrument was created with.
func (p *BasicProvider) Config(name string) (InstrumentConfig, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	cfg, ok := p.configs[name]
	return cfg, ok
}

// BasicCounter is a monotonic counter.
type BasicCounter struct{ v atomic.Int64 }

func (c *BasicCounter) Add(n int64) { c.v.Add(n) }

// Snapshot returns the current count.
func (c *BasicCounter) Snapshot() int64 { return c.v.Load() }

// BasicUpDownCounter tracks a current level and the highest level seen.
type BasicUpDownCounter struct {
	mu       sync.Mutex
	cur, max int64
}

func (u *BasicUpDownCounter) Add(n int64) {
	u.mu.Lock()
	u.cur += n
	if u.cur > u.max {
		u.max = u.cur
	}
	u.mu.Unlock()
}

// Snapshot returns the current level.
func (u *BasicUpDownCounter) Snapshot() int64 {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.cur
}

// Peak returns the highest level observed.
func (u *BasicUpDownCounter) Peak() int64 {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.max
}

// BasicHistogram aggregates count, sum, min and max without buckets.
type BasicHistogram struct {
	mu  sync.Mutex
	agg HistSnapshot
}

// HistSnapshot is a point-in-time copy of a BasicHistogram.
type HistSnapshot struct {
	Count    int64
	Sum      float64
	Min, Max float64
}

// Mean returns Sum/Count, or zero for an empty histogram.
func (s HistSnapshot) Mean() float64 {
	if s.Count == 0 {
		return 0
	}
	return s.Sum / float64(s.Count)
}

func (h *BasicHistogram) Record(v float64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.agg.Count == 0 || v < h.agg.Min {
		h.agg.Min = v
	}
	if h.agg.Count == 0 || v > h.agg.Max {
		h.agg.Max = v
	}
	h.agg.Count++
	h.agg.Sum += v
}

// Snapshot returns the aggregate recorded so far.
func (h *BasicHistogram) Snapshot() HistSnapshot {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.agg
}
