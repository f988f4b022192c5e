package observability

import (
	"context"
	"sync"
	"time"
)

// Timer measures one scoped operation. Start it on entry, defer Stop, and the
// latency event is emitted exactly once on every exit path. A nil metrics sink
// is allowed; the event still goes to the observer.
type Timer struct {
	observer Observer
	metrics  *Metrics
	typ      EventType
	source   string
	start    time.Time
	data     map[string]any

	once sync.Once
}

// StartTimer begins timing. typ is the event emitted on Stop.
func StartTimer(observer Observer, metrics *Metrics, typ EventType, source string) *Timer {
	if observer == nil {
		observer = NoopObserver{}
	}
	return &Timer{
		observer: observer,
		metrics:  metrics,
		typ:      typ,
		source:   source,
		start:    time.Now(),
	}
}

// Add attaches a data key to the eventual Stop event.
func (t *Timer) Add(key string, value any) {
	if t.data == nil {
		t.data = make(map[string]any)
	}
	t.data[key] = value
}

// Stop emits the latency event. Level is Info on success, Error when err is
// non-nil. Repeat calls are no-ops.
func (t *Timer) Stop(ctx context.Context, err error) {
	t.once.Do(func() {
		elapsed := time.Since(t.start).Milliseconds()
		if t.metrics != nil {
			t.metrics.RecordLatency(elapsed)
		}

		data := make(map[string]any, len(t.data)+2)
		for k, v := range t.data {
			data[k] = v
		}
		data["elapsed_ms"] = elapsed

		level := LevelInfo
		if err != nil {
			level = LevelError
			data["error"] = err.Error()
		}

		t.observer.OnEvent(ctx, Event{
			Type:      t.typ,
			Level:     level,
			Timestamp: time.Now(),
			Source:    t.source,
			Data:      data,
		})
	})
}
