package observability

import "sync/atomic"

// Snapshot is a point-in-time copy of the service counters, shaped for the
// health endpoint.
type Snapshot struct {
	TurnsStarted   int64 `json:"turns_started"`
	TurnsCompleted int64 `json:"turns_completed"`
	TurnsFailed    int64 `json:"turns_failed"`
	BackendCalls   int64 `json:"backend_calls"`
	ToolCalls      int64 `json:"tool_calls"`
	CallsContained int64 `json:"calls_contained"`
	CallsHandedOff int64 `json:"calls_handed_off"`
	LatencyTotalMS int64 `json:"latency_total_ms"`
}

// Metrics is the fire-and-forget counter sink. All methods are safe for
// concurrent use and never block.
type Metrics struct {
	turnsStarted   atomic.Int64
	turnsCompleted atomic.Int64
	turnsFailed    atomic.Int64
	backendCalls   atomic.Int64
	toolCalls      atomic.Int64
	callsContained atomic.Int64
	callsHandedOff atomic.Int64
	latencyTotalMS atomic.Int64
}

func NewMetrics() *Metrics {
	return &Metrics{}
}

func (m *Metrics) RecordTurnStarted() {
	m.turnsStarted.Add(1)
}

func (m *Metrics) RecordTurnCompleted() {
	m.turnsCompleted.Add(1)
}

func (m *Metrics) RecordTurnFailed() {
	m.turnsFailed.Add(1)
}

func (m *Metrics) RecordBackendCall() {
	m.backendCalls.Add(1)
}

func (m *Metrics) RecordToolCalls(n int) {
	m.toolCalls.Add(int64(n))
}

// RecordCallEnded tallies how the call left the service: contained calls ended
// without a human, handed-off calls were transferred.
func (m *Metrics) RecordCallEnded(handedOff bool) {
	if handedOff {
		m.callsHandedOff.Add(1)
	} else {
		m.callsContained.Add(1)
	}
}

func (m *Metrics) RecordLatency(ms int64) {
	m.latencyTotalMS.Add(ms)
}

func (m *Metrics) Snapshot() Snapshot {
	return Snapshot{
		TurnsStarted:   m.turnsStarted.Load(),
		TurnsCompleted: m.turnsCompleted.Load(),
		TurnsFailed:    m.turnsFailed.Load(),
		BackendCalls:   m.backendCalls.Load(),
		ToolCalls:      m.toolCalls.Load(),
		CallsContained: m.callsContained.Load(),
		CallsHandedOff: m.callsHandedOff.Load(),
		LatencyTotalMS: m.latencyTotalMS.Load(),
	}
}
