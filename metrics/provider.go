// Package metrics is the instrumentation seam of the dispatcher. A Provider hands out
// named instruments; the dispatcher records spawns, completions, failures, the current
// in-flight count and worker durations through them.
//
// Implementations must be safe for concurrent use: workers record from their own goroutines.
package metrics

// Instrument names recorded by the dispatcher.
const (
	Spawned   = "tasks_spawned_total"
	Completed = "tasks_completed_total"
	Failed    = "tasks_failed_total"
	InFlight  = "tasks_inflight"
	Duration  = "tasks_duration_seconds"
)

// Provider constructs instruments. Asking twice for the same name returns the same instrument.
type Provider interface {
	Counter(name string, opts ...InstrumentOption) Counter
	UpDownCounter(name string, opts ...InstrumentOption) UpDownCounter
	Histogram(name string, opts ...InstrumentOption) Histogram
}

// Counter records monotonic counts.
type Counter interface {
	Add(n int64)
}

// UpDownCounter records a value that moves both ways, such as workers in flight.
type UpDownCounter interface {
	Add(n int64)
}

// Histogram records a distribution of measurements, such as durations in seconds.
type Histogram interface {
	Record(v float64)
}

// InstrumentConfig carries advisory instrument metadata.
type InstrumentConfig struct {
	Description string
	Unit        string
}

// InstrumentOption mutates InstrumentConfig.
type InstrumentOption func(*InstrumentConfig)

// WithDescription sets the instrument description.
func WithDescription(desc string) InstrumentOption {
	return func(c *InstrumentConfig) { c.Description = desc }
}

// WithUnit sets the instrument unit, e.g. "1" or "s".
func WithUnit(unit string) InstrumentOption {
	return func(c *InstrumentConfig) { c.Unit = unit }
}

func buildConfig(opts []InstrumentOption) InstrumentConfig {
	var cfg InstrumentConfig
	for _, o := range opts {
		if o != nil {
			o(&cfg)
		}
	}
	return cfg
}
