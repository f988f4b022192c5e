package memory

import "context"

// NoopRecorder discards records and returns no history. It stands in when
// long-term memory is not configured.
type NoopRecorder struct{}

// NewNoopRecorder creates a Recorder that does nothing.
func NewNoopRecorder() *NoopRecorder {
	return &NoopRecorder{}
}

func (*NoopRecorder) RecordTurn(context.Context, TurnRecord) error {
	return nil
}

func (*NoopRecorder) CompleteSession(context.Context, SessionSummary) error {
	return nil
}

func (*NoopRecorder) CallerHistory(context.Context, string, int) ([]CallerSummary, error) {
	return nil, nil
}

func (*NoopRecorder) Search(context.Context, string, int) ([]KnowledgeHit, error) {
	return nil, nil
}
