package metrics

import (
	"sync"
	"testing"
)

func TestBasicProvider_SameNameSameInstrument(t *testing.T) {
	p := NewBasicProvider()

	c1 := p.Counter(Spawned, WithDescription("workers spawned"), WithUnit("1"))
	c2 := p.Counter(Spawned)
	if c1 != c2 {
		t.Fatalf("expected the same counter for the same name")
	}
	if p.Counter(Completed) == c1 {
		t.Fatalf("expected a different counter for a different name")
	}

	cfg, ok := p.Config(Spawned)
	if !ok || cfg.Description != "workers spawned" || cfg.Unit != "1" {
		t.Fatalf("unexpected config: %+v ok=%v", cfg, ok)
	}
}

func TestBasicCounter_Accumulates(t *testing.T) {
	p := NewBasicProvider()
	c := p.Counter(Completed)

	var wg sync.WaitGroup
	for range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.Add(2)
		}()
	}
	wg.Wait()

	if got := c.(*BasicCounter).Snapshot(); got != 100 {
		t.Fatalf("counter = %d; want 100", got)
	}
}

func TestBasicUpDownCounter_TracksPeak(t *testing.T) {
	p := NewBasicProvider()
	u := p.UpDownCounter(InFlight).(*BasicUpDownCounter)

	u.Add(1)
	u.Add(1)
	u.Add(1)
	u.Add(-1)
	u.Add(1)
	u.Add(-3)

	if got := u.Snapshot(); got != 0 {
		t.Fatalf("level = %d; want 0", got)
	}
	if got := u.Peak(); got != 3 {
		t.Fatalf("peak = %d; want 3", got)
	}
}

func TestBasicHistogram_Aggregates(t *testing.T) {
	p := NewBasicProvider()
	h := p.Histogram(Duration).(*BasicHistogram)

	if s := h.Snapshot(); s.Count != 0 || s.Mean() != 0 {
		t.Fatalf("expected empty snapshot, got %+v", s)
	}

	for _, v := range []float64{0.5, 0.1, 0.9} {
		h.Record(v)
	}

	s := h.Snapshot()
	if s.Count != 3 || s.Min != 0.1 || s.Max != 0.9 {
		t.Fatalf("unexpected snapshot: %+v", s)
	}
	if mean := s.Mean(); mean < 0.49 || mean > 0.51 {
		t.Fatalf("mean = %v; want 0.5", mean)
	}
}

func TestNoopProvider_Discards(t *testing.T) {
	var p NoopProvider
	p.Counter(Spawned).Add(1)
	p.UpDownCounter(InFlight).Add(-1)
	p.Histogram(Duration).Record(1)
}
