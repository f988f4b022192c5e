package dialog_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/telistry/switchboard/core/fault"
	"github.com/telistry/switchboard/core/protocol"
	"github.com/telistry/switchboard/dialog"
	"github.com/telistry/switchboard/inference"
	"github.com/telistry/switchboard/memory"
	"github.com/telistry/switchboard/observability"
	"github.com/telistry/switchboard/session"
)

// --- Test helpers ---

// scriptedBackend returns queued replies on successive Invoke calls, serving
// the last reply to any further calls. Every request is recorded.
type scriptedBackend struct {
	mu       sync.Mutex
	replies  []*inference.Reply
	err      error
	requests []inference.Request
}

func (b *scriptedBackend) Invoke(_ context.Context, req inference.Request) (*inference.Reply, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.requests = append(b.requests, req)
	if b.err != nil {
		return nil, b.err
	}
	if len(b.replies) == 0 {
		return textReply("Okay."), nil
	}
	reply := b.replies[0]
	if len(b.replies) > 1 {
		b.replies = b.replies[1:]
	}
	return reply, nil
}

func (b *scriptedBackend) requestCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.requests)
}

func (b *scriptedBackend) request(i int) inference.Request {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.requests[i]
}

// textReply builds a final reply. The action is derived from the text the
// same way the real backend derives it.
func textReply(text string) *inference.Reply {
	return &inference.Reply{
		Text:       text,
		Action:     inference.DeriveAction("end_turn", nil, text),
		StopReason: "end_turn",
	}
}

// toolReply builds a tool-requesting reply.
func toolReply(text string, calls ...protocol.ToolCall) *inference.Reply {
	return &inference.Reply{
		Text:       text,
		Action:     inference.DeriveAction(inference.StopReasonToolUse, calls, text),
		ToolCalls:  calls,
		StopReason: inference.StopReasonToolUse,
	}
}

// recorderStub captures long-term memory writes and serves canned caller
// history and knowledge hits.
type recorderStub struct {
	mu           sync.Mutex
	turns        []memory.TurnRecord
	summaries    []memory.SessionSummary
	history      []memory.CallerSummary
	historyCalls int
	turnErr      error
	historyErr   error
}

func (r *recorderStub) RecordTurn(_ context.Context, rec memory.TurnRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.turnErr != nil {
		return r.turnErr
	}
	r.turns = append(r.turns, rec)
	return nil
}

func (r *recorderStub) CompleteSession(_ context.Context, summary memory.SessionSummary) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.summaries = append(r.summaries, summary)
	return nil
}

func (r *recorderStub) CallerHistory(_ context.Context, callerID string, limit int) ([]memory.CallerSummary, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.historyCalls++
	if r.historyErr != nil {
		return nil, r.historyErr
	}
	if len(r.history) > limit {
		return r.history[:limit], nil
	}
	return r.history, nil
}

func (r *recorderStub) Search(_ context.Context, query string, _ int) ([]memory.KnowledgeHit, error) {
	return []memory.KnowledgeHit{{Topic: query, Content: "We are open 9-5 on weekdays."}}, nil
}

// captureObserver records every emitted event.
type captureObserver struct {
	mu     sync.Mutex
	events []observability.Event
}

func (o *captureObserver) OnEvent(_ context.Context, event observability.Event) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.events = append(o.events, event)
}

func (o *captureObserver) countOf(typ observability.EventType) int {
	o.mu.Lock()
	defer o.mu.Unlock()
	n := 0
	for _, e := range o.events {
		if e.Type == typ {
			n++
		}
	}
	return n
}

func (o *captureObserver) firstOf(typ observability.EventType) (observability.Event, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	for _, e := range o.events {
		if e.Type == typ {
			return e, true
		}
	}
	return observability.Event{}, false
}

// failingStore errors on every operation.
type failingStore struct {
	err error
}

func (s *failingStore) Create(context.Context, string, string) (*session.Session, error) {
	return nil, s.err
}

func (s *failingStore) Get(context.Context, string) (*session.Session, error) {
	return nil, s.err
}

func (s *failingStore) Update(context.Context, string, *session.Session) error {
	return s.err
}

func (s *failingStore) End(context.Context, string) error {
	return s.err
}

func (s *failingStore) ActiveCount(context.Context) (int, error) {
	return 0, s.err
}

// minimalConfig returns defaults for tests to adjust before passing to New.
func minimalConfig() *dialog.Config {
	cfg := dialog.DefaultConfig()
	return &cfg
}

func quiet() dialog.Option {
	return dialog.WithObserver(observability.NoopObserver{})
}

// --- Tests ---

func TestHandle_InitGreets(t *testing.T) {
	svc, err := dialog.New(minimalConfig(), dialog.WithBackend(&scriptedBackend{}), quiet())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	resp, err := svc.Handle(context.Background(), protocol.Event{Type: protocol.EventInit, ContactID: "contact-1"})
	if err != nil {
		t.Fatalf("Handle failed: %v", err)
	}

	if resp.Text != "Hello! Thank you for calling. How can I help you today?" {
		t.Errorf("got text %q, want the default greeting", resp.Text)
	}
	if resp.Action != protocol.ActionContinue {
		t.Errorf("got action %q, want %q", resp.Action, protocol.ActionContinue)
	}
	if resp.SessionID == "" {
		t.Error("expected a session ID on the init response")
	}

	active, err := svc.ActiveSessions(context.Background())
	if err != nil {
		t.Fatalf("ActiveSessions failed: %v", err)
	}
	if active != 1 {
		t.Errorf("got %d active sessions, want 1", active)
	}
}

func TestHandle_InitSeedsHistoryWithGreeting(t *testing.T) {
	backend := &scriptedBackend{}
	svc, err := dialog.New(minimalConfig(), dialog.WithBackend(backend), quiet())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	ctx := context.Background()

	if _, err := svc.Handle(ctx, protocol.Event{Type: protocol.EventInit, ContactID: "contact-1"}); err != nil {
		t.Fatalf("init failed: %v", err)
	}
	if _, err := svc.Handle(ctx, protocol.Event{Type: protocol.EventUserInput, ContactID: "contact-1", UserInput: "What are your hours?"}); err != nil {
		t.Fatalf("turn failed: %v", err)
	}

	req := backend.request(0)
	if len(req.History) != 2 {
		t.Fatalf("got %d history messages, want 2", len(req.History))
	}
	if req.History[0].Role != protocol.RoleAssistant {
		t.Errorf("got first role %q, want %q", req.History[0].Role, protocol.RoleAssistant)
	}
	if got := req.History[0].Text(); got != "Hello! Thank you for calling. How can I help you today?" {
		t.Errorf("got first message %q, want the greeting", got)
	}
	if req.History[1].Role != protocol.RoleUser {
		t.Errorf("got second role %q, want %q", req.History[1].Role, protocol.RoleUser)
	}
	if got := req.History[1].Text(); got != "What are your hours?" {
		t.Errorf("got second message %q, want the caller utterance", got)
	}
}

func TestHandle_ReturningCallerHistory(t *testing.T) {
	recorder := &recorderStub{history: []memory.CallerSummary{
		{SessionID: "s-1", Turns: 4, Action: "end", EndedAt: time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)},
		{SessionID: "s-2", Turns: 2, Action: "transfer", Summary: "billing dispute", EndedAt: time.Date(2025, 5, 20, 9, 0, 0, 0, time.UTC)},
	}}
	backend := &scriptedBackend{}
	capture := &captureObserver{}
	svc, err := dialog.New(minimalConfig(),
		dialog.WithBackend(backend),
		dialog.WithRecorder(recorder),
		dialog.WithObserver(capture),
	)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	ctx := context.Background()

	if _, err := svc.Handle(ctx, protocol.Event{Type: protocol.EventInit, ContactID: "contact-1", CallerID: "+15550100"}); err != nil {
		t.Fatalf("init failed: %v", err)
	}
	if _, err := svc.Handle(ctx, protocol.Event{Type: protocol.EventUserInput, ContactID: "contact-1", UserInput: "Hi again"}); err != nil {
		t.Fatalf("turn failed: %v", err)
	}

	if recorder.historyCalls != 1 {
		t.Errorf("got %d caller history lookups, want 1", recorder.historyCalls)
	}
	if got := backend.request(0).Context.CallerHistory; got != 2 {
		t.Errorf("got %d prior calls in prompt context, want 2", got)
	}

	ev, ok := capture.firstOf(dialog.EventCallStart)
	if !ok {
		t.Fatal("expected a call start event")
	}
	if ev.Data["prior_calls"] != 2 {
		t.Errorf("got prior_calls %v, want 2", ev.Data["prior_calls"])
	}
	if ev.Data["caller_known"] != true {
		t.Errorf("got caller_known %v, want true", ev.Data["caller_known"])
	}
}

func TestHandle_AnonymousCallerSkipsHistory(t *testing.T) {
	recorder := &recorderStub{}
	svc, err := dialog.New(minimalConfig(), dialog.WithBackend(&scriptedBackend{}), dialog.WithRecorder(recorder), quiet())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	if _, err := svc.Handle(context.Background(), protocol.Event{Type: protocol.EventInit, ContactID: "contact-1"}); err != nil {
		t.Fatalf("init failed: %v", err)
	}

	if recorder.historyCalls != 0 {
		t.Errorf("got %d caller history lookups, want 0 for an anonymous caller", recorder.historyCalls)
	}
}

func TestHandle_CallerHistoryFailureIsBestEffort(t *testing.T) {
	recorder := &recorderStub{historyErr: errors.New("db offline")}
	capture := &captureObserver{}
	svc, err := dialog.New(minimalConfig(),
		dialog.WithBackend(&scriptedBackend{}),
		dialog.WithRecorder(recorder),
		dialog.WithObserver(capture),
	)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	resp, err := svc.Handle(context.Background(), protocol.Event{Type: protocol.EventInit, ContactID: "contact-1", CallerID: "+15550100"})
	if err != nil {
		t.Fatalf("Handle failed: %v", err)
	}
	if resp.Action != protocol.ActionContinue {
		t.Errorf("got action %q, want %q", resp.Action, protocol.ActionContinue)
	}

	ev, ok := capture.firstOf(dialog.EventError)
	if !ok {
		t.Fatal("expected a warning event for the failed lookup")
	}
	if ev.Level != observability.LevelWarning {
		t.Errorf("got level %v, want %v", ev.Level, observability.LevelWarning)
	}
	if ev.Data["op"] != "memory.caller_history" {
		t.Errorf("got op %v, want memory.caller_history", ev.Data["op"])
	}
}

func TestHandle_EndCompletesSession(t *testing.T) {
	recorder := &recorderStub{}
	svc, err := dialog.New(minimalConfig(), dialog.WithBackend(&scriptedBackend{}), dialog.WithRecorder(recorder), quiet())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	ctx := context.Background()

	if _, err := svc.Handle(ctx, protocol.Event{Type: protocol.EventInit, ContactID: "contact-1", CallerID: "+15550100"}); err != nil {
		t.Fatalf("init failed: %v", err)
	}
	turn, err := svc.Handle(ctx, protocol.Event{Type: protocol.EventUserInput, ContactID: "contact-1", UserInput: "One question"})
	if err != nil {
		t.Fatalf("turn failed: %v", err)
	}

	resp, err := svc.Handle(ctx, protocol.Event{Type: protocol.EventEnd, ContactID: "contact-1"})
	if err != nil {
		t.Fatalf("end failed: %v", err)
	}

	if resp.Text != "Thank you for calling. Have a great day!" {
		t.Errorf("got text %q, want the goodbye line", resp.Text)
	}
	if resp.Action != protocol.ActionEnd {
		t.Errorf("got action %q, want %q", resp.Action, protocol.ActionEnd)
	}
	if resp.SessionID != turn.SessionID {
		t.Errorf("got session ID %q, want %q", resp.SessionID, turn.SessionID)
	}

	active, err := svc.ActiveSessions(ctx)
	if err != nil {
		t.Fatalf("ActiveSessions failed: %v", err)
	}
	if active != 0 {
		t.Errorf("got %d active sessions after end, want 0", active)
	}

	if len(recorder.summaries) != 1 {
		t.Fatalf("got %d session summaries, want 1", len(recorder.summaries))
	}
	summary := recorder.summaries[0]
	if summary.SessionID != turn.SessionID {
		t.Errorf("got summary session %q, want %q", summary.SessionID, turn.SessionID)
	}
	if summary.ContactID != "contact-1" {
		t.Errorf("got summary contact %q, want contact-1", summary.ContactID)
	}
	if summary.CallerID != "+15550100" {
		t.Errorf("got summary caller %q, want +15550100", summary.CallerID)
	}
	if summary.Turns != 1 {
		t.Errorf("got summary turns %d, want 1", summary.Turns)
	}
	if summary.Action != "end" {
		t.Errorf("got summary action %q, want end", summary.Action)
	}
}

func TestHandle_EndTwiceIsQuiet(t *testing.T) {
	recorder := &recorderStub{}
	svc, err := dialog.New(minimalConfig(), dialog.WithBackend(&scriptedBackend{}), dialog.WithRecorder(recorder), quiet())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	ctx := context.Background()

	if _, err := svc.Handle(ctx, protocol.Event{Type: protocol.EventInit, ContactID: "contact-1"}); err != nil {
		t.Fatalf("init failed: %v", err)
	}
	if _, err := svc.Handle(ctx, protocol.Event{Type: protocol.EventEnd, ContactID: "contact-1"}); err != nil {
		t.Fatalf("first end failed: %v", err)
	}

	resp, err := svc.Handle(ctx, protocol.Event{Type: protocol.EventEnd, ContactID: "contact-1"})
	if err != nil {
		t.Fatalf("second end failed: %v", err)
	}
	if resp.Action != protocol.ActionEnd {
		t.Errorf("got action %q, want %q", resp.Action, protocol.ActionEnd)
	}
	if resp.SessionID != "" {
		t.Errorf("got session ID %q on a repeated end, want none", resp.SessionID)
	}
	if len(recorder.summaries) != 1 {
		t.Errorf("got %d session summaries, want 1", len(recorder.summaries))
	}
}

func TestHandle_EndUnknownContactIsQuiet(t *testing.T) {
	svc, err := dialog.New(minimalConfig(), dialog.WithBackend(&scriptedBackend{}), quiet())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	resp, err := svc.Handle(context.Background(), protocol.Event{Type: protocol.EventEnd, ContactID: "never-called"})
	if err != nil {
		t.Fatalf("Handle failed: %v", err)
	}
	if resp.Text != "Thank you for calling. Have a great day!" {
		t.Errorf("got text %q, want the goodbye line", resp.Text)
	}
	if resp.Action != protocol.ActionEnd {
		t.Errorf("got action %q, want %q", resp.Action, protocol.ActionEnd)
	}
}

func TestHandle_TransferVerdictReachesSummary(t *testing.T) {
	recorder := &recorderStub{}
	backend := &scriptedBackend{replies: []*inference.Reply{
		textReply("I'll transfer you to an agent who can help."),
	}}
	svc, err := dialog.New(minimalConfig(), dialog.WithBackend(backend), dialog.WithRecorder(recorder), quiet())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	ctx := context.Background()

	if _, err := svc.Handle(ctx, protocol.Event{Type: protocol.EventInit, ContactID: "contact-1"}); err != nil {
		t.Fatalf("init failed: %v", err)
	}
	turn, err := svc.Handle(ctx, protocol.Event{Type: protocol.EventUserInput, ContactID: "contact-1", UserInput: "I need a human"})
	if err != nil {
		t.Fatalf("turn failed: %v", err)
	}
	if turn.Action != protocol.ActionTransfer {
		t.Fatalf("got action %q, want %q", turn.Action, protocol.ActionTransfer)
	}

	if _, err := svc.Handle(ctx, protocol.Event{Type: protocol.EventEnd, ContactID: "contact-1"}); err != nil {
		t.Fatalf("end failed: %v", err)
	}

	if len(recorder.summaries) != 1 {
		t.Fatalf("got %d session summaries, want 1", len(recorder.summaries))
	}
	if got := recorder.summaries[0].Action; got != "transfer" {
		t.Errorf("got summary action %q, want transfer", got)
	}

	// The hand-off was counted at transfer time; the end event must not
	// count the same call as contained.
	snap := svc.Metrics().Snapshot()
	if snap.CallsHandedOff != 1 {
		t.Errorf("got %d handed-off calls, want 1", snap.CallsHandedOff)
	}
	if snap.CallsContained != 0 {
		t.Errorf("got %d contained calls, want 0", snap.CallsContained)
	}
}

func TestHandle_RecordTurnFailureDoesNotFailTurn(t *testing.T) {
	recorder := &recorderStub{turnErr: errors.New("disk full")}
	capture := &captureObserver{}
	svc, err := dialog.New(minimalConfig(),
		dialog.WithBackend(&scriptedBackend{}),
		dialog.WithRecorder(recorder),
		dialog.WithObserver(capture),
	)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	ctx := context.Background()

	if _, err := svc.Handle(ctx, protocol.Event{Type: protocol.EventInit, ContactID: "contact-1"}); err != nil {
		t.Fatalf("init failed: %v", err)
	}
	resp, err := svc.Handle(ctx, protocol.Event{Type: protocol.EventUserInput, ContactID: "contact-1", UserInput: "Hello"})
	if err != nil {
		t.Fatalf("turn failed: %v", err)
	}

	if resp.Text != "Okay." {
		t.Errorf("got text %q, want the backend reply", resp.Text)
	}
	if resp.TurnCount != 1 {
		t.Errorf("got turn count %d, want 1", resp.TurnCount)
	}

	ev, ok := capture.firstOf(dialog.EventError)
	if !ok {
		t.Fatal("expected a warning event for the failed record")
	}
	if ev.Level != observability.LevelWarning {
		t.Errorf("got level %v, want %v", ev.Level, observability.LevelWarning)
	}
	if ev.Data["op"] != "memory.record_turn" {
		t.Errorf("got op %v, want memory.record_turn", ev.Data["op"])
	}
}

func TestHandle_BackendFailurePolicy(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantText   string
		wantAction protocol.Action
	}{
		{
			name:       "throttled keeps the caller",
			err:        fault.NewBackendThrottled(errors.New("429")),
			wantText:   "I'm experiencing high demand right now. Please hold on a moment.",
			wantAction: protocol.ActionContinue,
		},
		{
			name:       "transient asks for a repeat",
			err:        fault.NewBackendTransient("request timed out", errors.New("deadline exceeded")),
			wantText:   "I had a brief issue. Could you please repeat that?",
			wantAction: protocol.ActionContinue,
		},
		{
			name:       "fatal hands off",
			err:        fault.NewBackendFatal(errors.New("invalid request")),
			wantText:   "I'm having trouble processing your request. Let me transfer you to an agent.",
			wantAction: protocol.ActionTransfer,
		},
		{
			name:       "unclassified hands off",
			err:        errors.New("boom"),
			wantText:   "I apologize, but I'm experiencing technical issues. Let me transfer you to someone who can assist.",
			wantAction: protocol.ActionTransfer,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, err := dialog.New(minimalConfig(), dialog.WithBackend(&scriptedBackend{err: tt.err}), quiet())
			if err != nil {
				t.Fatalf("New failed: %v", err)
			}

			resp, err := svc.Handle(context.Background(), protocol.Event{Type: protocol.EventUserInput, ContactID: "contact-1", UserInput: "Hello"})
			if err != nil {
				t.Fatalf("Handle returned error: %v", err)
			}
			if resp.Text != tt.wantText {
				t.Errorf("got text %q, want %q", resp.Text, tt.wantText)
			}
			if resp.Action != tt.wantAction {
				t.Errorf("got action %q, want %q", resp.Action, tt.wantAction)
			}
			if resp.SessionID != "" {
				t.Errorf("got session ID %q on a policy reply, want none", resp.SessionID)
			}
		})
	}
}

func TestHandle_FailedTurnCounts(t *testing.T) {
	capture := &captureObserver{}
	svc, err := dialog.New(minimalConfig(),
		dialog.WithBackend(&scriptedBackend{err: fault.NewBackendFatal(errors.New("boom"))}),
		dialog.WithObserver(capture),
	)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	if _, err := svc.Handle(context.Background(), protocol.Event{Type: protocol.EventUserInput, ContactID: "contact-1", UserInput: "Hello"}); err != nil {
		t.Fatalf("Handle returned error: %v", err)
	}

	snap := svc.Metrics().Snapshot()
	if snap.TurnsFailed != 1 {
		t.Errorf("got %d failed turns, want 1", snap.TurnsFailed)
	}
	if snap.TurnsCompleted != 0 {
		t.Errorf("got %d completed turns, want 0", snap.TurnsCompleted)
	}
	if snap.CallsHandedOff != 1 {
		t.Errorf("got %d handed-off calls, want 1", snap.CallsHandedOff)
	}

	ev, ok := capture.firstOf(dialog.EventError)
	if !ok {
		t.Fatal("expected an error event for the failed turn")
	}
	if ev.Level != observability.LevelError {
		t.Errorf("got level %v, want %v", ev.Level, observability.LevelError)
	}
	if ev.Data["kind"] != "backend_fatal" {
		t.Errorf("got kind %v, want backend_fatal", ev.Data["kind"])
	}
}

func TestHandle_StoreFailureTransfers(t *testing.T) {
	events := []protocol.Event{
		{Type: protocol.EventInit, ContactID: "contact-1"},
		{Type: protocol.EventUserInput, ContactID: "contact-1", UserInput: "Hello"},
		{Type: protocol.EventEnd, ContactID: "contact-1"},
	}

	for _, event := range events {
		t.Run(string(event.Type), func(t *testing.T) {
			svc, err := dialog.New(minimalConfig(),
				dialog.WithBackend(&scriptedBackend{}),
				dialog.WithStore(&failingStore{err: errors.New("disk failure")}),
				quiet(),
			)
			if err != nil {
				t.Fatalf("New failed: %v", err)
			}

			resp, err := svc.Handle(context.Background(), event)
			if err != nil {
				t.Fatalf("Handle returned error: %v", err)
			}
			if resp.Text != "I'm having technical difficulties. Let me connect you with someone who can help." {
				t.Errorf("got text %q, want the degraded-store line", resp.Text)
			}
			if resp.Action != protocol.ActionTransfer {
				t.Errorf("got action %q, want %q", resp.Action, protocol.ActionTransfer)
			}
		})
	}
}

func TestHandle_InvalidEvent(t *testing.T) {
	svc, err := dialog.New(minimalConfig(), dialog.WithBackend(&scriptedBackend{}), quiet())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	tests := []struct {
		name  string
		event protocol.Event
	}{
		{name: "unknown type", event: protocol.Event{Type: "bogus", ContactID: "contact-1"}},
		{name: "missing contact", event: protocol.Event{Type: protocol.EventInit}},
		{name: "missing input", event: protocol.Event{Type: protocol.EventUserInput, ContactID: "contact-1"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := svc.Handle(context.Background(), tt.event)
			if !errors.Is(err, protocol.ErrInvalidEvent) {
				t.Errorf("got error %v, want ErrInvalidEvent", err)
			}
			if resp != nil {
				t.Errorf("got response %+v, want nil", resp)
			}
		})
	}
}

func TestHandle_ContextCanceledPropagates(t *testing.T) {
	svc, err := dialog.New(minimalConfig(), dialog.WithBackend(&scriptedBackend{err: context.Canceled}), quiet())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	resp, err := svc.Handle(context.Background(), protocol.Event{Type: protocol.EventUserInput, ContactID: "contact-1", UserInput: "Hello"})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("got error %v, want context.Canceled", err)
	}
	if resp != nil {
		t.Errorf("got response %+v, want nil", resp)
	}

	// The hang-up is not a turn failure and produces no policy reply.
	if got := svc.Metrics().Snapshot().TurnsFailed; got != 0 {
		t.Errorf("got %d failed turns, want 0", got)
	}
}

func TestSafeReply(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantAction protocol.Action
	}{
		{name: "throttled", err: fault.NewBackendThrottled(errors.New("429")), wantAction: protocol.ActionContinue},
		{name: "transient", err: fault.NewBackendTransient("timeout", nil), wantAction: protocol.ActionContinue},
		{name: "backend fatal", err: fault.NewBackendFatal(errors.New("400")), wantAction: protocol.ActionTransfer},
		{name: "configuration", err: fault.NewConfiguration("bad prompt", nil), wantAction: protocol.ActionTransfer},
		{name: "session store", err: fault.NewSessionStore("update", errors.New("locked")), wantAction: protocol.ActionTransfer},
		{name: "tool execution", err: fault.NewToolExecution("lookup_account", errors.New("boom")), wantAction: protocol.ActionTransfer},
		{name: "plain error", err: errors.New("boom"), wantAction: protocol.ActionTransfer},
		{name: "wrapped fault", err: errors.Join(errors.New("outer"), fault.NewBackendThrottled(nil)), wantAction: protocol.ActionContinue},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			text, action := dialog.SafeReply(tt.err)
			if action != tt.wantAction {
				t.Errorf("got action %q, want %q", action, tt.wantAction)
			}
			if text == "" {
				t.Error("got empty reply text")
			}
		})
	}
}
