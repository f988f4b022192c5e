// Package dialog implements the per-call conversation runtime: it composes
// the session store, inference backend, tools, long-term memory, and
// observability into the turn state machine behind Handle.
//
// The service initializes from configuration via New, creating all subsystems
// internally. Functional options allow test overrides of any subsystem.
//
//	svc, err := dialog.New(&cfg)
//	resp, err := svc.Handle(ctx, protocol.Event{Type: protocol.EventInit, ContactID: "C1"})
package dialog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/telistry/switchboard/connectors"
	"github.com/telistry/switchboard/core/fault"
	"github.com/telistry/switchboard/core/protocol"
	"github.com/telistry/switchboard/inference"
	"github.com/telistry/switchboard/memory"
	"github.com/telistry/switchboard/observability"
	"github.com/telistry/switchboard/session"
	"github.com/telistry/switchboard/tools"
)

// apiKeyEnv holds the inference backend credential. Secrets never come from
// config files.
const apiKeyEnv = "ANTHROPIC_API_KEY"

// ToolExecutor abstracts tool listing and execution for testability. The
// default implementation is a tools.Registry carrying the built-in
// capability set.
type ToolExecutor interface {
	List() []protocol.Tool
	Execute(ctx context.Context, name string, args json.RawMessage) (tools.Result, error)
}

// Option configures a Service before config-driven initialization fills the
// gaps. Anything an option sets is kept; New only creates what is still
// missing.
type Option func(*Service)

// WithStore overrides the config-created session store.
func WithStore(s session.Store) Option {
	return func(svc *Service) { svc.store = s }
}

// WithBackend overrides the config-created inference backend.
func WithBackend(b inference.Backend) Option {
	return func(svc *Service) { svc.backend = b }
}

// WithToolExecutor overrides the built-in tool registry.
func WithToolExecutor(e ToolExecutor) Option {
	return func(svc *Service) { svc.tools = e }
}

// WithRecorder overrides the config-created memory recorder.
func WithRecorder(r memory.Recorder) Option {
	return func(svc *Service) { svc.recorder = r }
}

// WithObserver overrides the default SlogObserver.
func WithObserver(o observability.Observer) Option {
	return func(svc *Service) { svc.observer = o }
}

// WithMetrics overrides the service-owned metrics sink.
func WithMetrics(m *observability.Metrics) Option {
	return func(svc *Service) { svc.metrics = m }
}

// Service is the conversation runtime serving contact events.
type Service struct {
	cfg      Config
	store    session.Store
	backend  inference.Backend
	tools    ToolExecutor
	recorder memory.Recorder
	observer observability.Observer
	metrics  *observability.Metrics
}

// New creates a Service from configuration. Options are applied first;
// subsystems they did not provide are initialized from their config sections.
// The default backend reads its API key from ANTHROPIC_API_KEY.
func New(cfg *Config, opts ...Option) (*Service, error) {
	if cfg == nil {
		defaults := DefaultConfig()
		cfg = &defaults
	}

	svc := &Service{cfg: *cfg}
	for _, opt := range opts {
		opt(svc)
	}

	if svc.store == nil {
		store, err := session.NewStore(&cfg.Session)
		if err != nil {
			return nil, fmt.Errorf("failed to create session store: %w", err)
		}
		svc.store = store
	}

	if svc.recorder == nil {
		recorder, err := memory.NewRecorder(&cfg.Memory)
		if err != nil {
			return nil, fmt.Errorf("failed to create memory recorder: %w", err)
		}
		svc.recorder = recorder
	}

	if svc.tools == nil {
		registry := tools.NewRegistry()
		deps := tools.BuiltinDeps{
			CRM:        connectors.NewCRM(&cfg.Connectors),
			Scheduling: connectors.NewScheduling(&cfg.Connectors),
			Knowledge:  svc.recorder,
		}
		if err := tools.RegisterBuiltin(registry, deps); err != nil {
			return nil, fmt.Errorf("failed to register built-in tools: %w", err)
		}
		if cfg.ToolsPath != "" {
			defs, err := tools.LoadDefinitions(cfg.ToolsPath)
			if err != nil {
				return nil, fmt.Errorf("failed to load tool definitions: %w", err)
			}
			if err := tools.ApplyDefinitions(registry, defs); err != nil {
				return nil, fmt.Errorf("failed to apply tool definitions: %w", err)
			}
		}
		svc.tools = registry
	}

	if svc.backend == nil {
		backend, err := inference.NewClient(cfg.Inference, os.Getenv(apiKeyEnv))
		if err != nil {
			return nil, fmt.Errorf("failed to create inference backend: %w", err)
		}
		svc.backend = backend
	}

	if svc.observer == nil {
		svc.observer = observability.NewSlogObserver(slog.Default())
	}
	if svc.metrics == nil {
		svc.metrics = observability.NewMetrics()
	}

	return svc, nil
}

// Handle serves one contact event. Failures that abort a turn are converted
// into a caller-safe reply; only event validation problems and context
// cancellation surface as errors.
func (s *Service) Handle(ctx context.Context, event protocol.Event) (*protocol.Response, error) {
	if err := event.Validate(); err != nil {
		return nil, err
	}

	var (
		resp *protocol.Response
		err  error
	)
	switch event.Type {
	case protocol.EventInit:
		resp, err = s.handleInit(ctx, &event)
	case protocol.EventUserInput:
		resp, err = s.handleUserInput(ctx, &event)
	case protocol.EventEnd:
		resp, err = s.handleEnd(ctx, &event)
	}
	if err == nil {
		return resp, nil
	}
	if errors.Is(err, context.Canceled) {
		return nil, err
	}

	s.metrics.RecordTurnFailed()
	s.observer.OnEvent(ctx, observability.Event{
		Type:      EventError,
		Level:     observability.LevelError,
		Timestamp: time.Now(),
		Source:    "dialog.Handle",
		Data: map[string]any{
			"contact_id": event.ContactID,
			"event_type": string(event.Type),
			"kind":       fault.KindOf(err).String(),
			"error":      err.Error(),
		},
	})

	text, action := SafeReply(err)
	if action == protocol.ActionTransfer {
		s.metrics.RecordCallEnded(true)
	}
	return &protocol.Response{Text: text, Action: action}, nil
}

// handleInit starts a session, fetches prior-call summaries for a returning
// caller, and greets.
func (s *Service) handleInit(ctx context.Context, event *protocol.Event) (*protocol.Response, error) {
	sess, err := s.store.Create(ctx, event.ContactID, event.CallerID)
	if err != nil {
		return nil, fault.NewSessionStore("create", err)
	}

	if event.CallerID != "" {
		history, err := s.recorder.CallerHistory(ctx, event.CallerID, s.cfg.Memory.HistoryLimit)
		if err != nil {
			s.bestEffort(ctx, "memory.caller_history", err)
		}
		for _, prior := range history {
			sess.CallerHistory = append(sess.CallerHistory, callerSummaryLine(prior))
		}
	}

	sess.Append(protocol.RoleAssistant, s.cfg.Greeting)
	if err := s.store.Update(ctx, event.ContactID, sess); err != nil {
		return nil, fault.NewSessionStore("update", err)
	}

	s.observer.OnEvent(ctx, observability.Event{
		Type:      EventCallStart,
		Level:     observability.LevelInfo,
		Timestamp: time.Now(),
		Source:    "dialog.Init",
		Data: map[string]any{
			"contact_id":   event.ContactID,
			"session_id":   sess.ID,
			"prior_calls":  len(sess.CallerHistory),
			"caller_known": event.CallerID != "",
		},
	})

	return &protocol.Response{
		Text:      s.cfg.Greeting,
		Action:    protocol.ActionContinue,
		SessionID: sess.ID,
	}, nil
}

// handleEnd writes the end-of-call summary and releases the session. Ending
// twice, or ending a contact that never called, succeeds quietly.
func (s *Service) handleEnd(ctx context.Context, event *protocol.Event) (*protocol.Response, error) {
	var sessionID string
	var handedOff bool
	if sess, err := s.store.Get(ctx, event.ContactID); err == nil {
		sessionID = sess.ID
		handedOff = lastAction(sess) == protocol.ActionTransfer
		s.bestEffort(ctx, "memory.complete_session",
			s.recorder.CompleteSession(ctx, endOfCallSummary(sess)))
	}

	if err := s.store.End(ctx, event.ContactID); err != nil {
		return nil, fault.NewSessionStore("end", err)
	}
	// A handed-off call was counted when the transfer happened.
	if !handedOff {
		s.metrics.RecordCallEnded(false)
	}

	s.observer.OnEvent(ctx, observability.Event{
		Type:      EventCallEnd,
		Level:     observability.LevelInfo,
		Timestamp: time.Now(),
		Source:    "dialog.End",
		Data: map[string]any{
			"contact_id": event.ContactID,
			"session_id": sessionID,
		},
	})

	return &protocol.Response{
		Text:      s.cfg.Goodbye,
		Action:    protocol.ActionEnd,
		SessionID: sessionID,
	}, nil
}

// lastAction returns the verdict of the session's most recent turn, if one
// was recorded.
func lastAction(sess *session.Session) protocol.Action {
	if last, ok := sess.Metadata["last_action"].(string); ok {
		return protocol.Action(last)
	}
	return ""
}

// endOfCallSummary distills a finished session into its call-log record. A
// turn that already handed the call off keeps that verdict.
func endOfCallSummary(sess *session.Session) memory.SessionSummary {
	action := string(protocol.ActionEnd)
	if lastAction(sess) == protocol.ActionTransfer {
		action = string(protocol.ActionTransfer)
	}
	return memory.SessionSummary{
		SessionID: sess.ID,
		ContactID: sess.ContactID,
		CallerID:  sess.CallerID,
		Turns:     sess.TurnCount,
		Action:    action,
		EndedAt:   time.Now(),
	}
}

// callerSummaryLine renders one prior call for the session record.
func callerSummaryLine(prior memory.CallerSummary) string {
	line := fmt.Sprintf("%s: %d turns, ended with %s",
		prior.EndedAt.Format("2006-01-02"), prior.Turns, prior.Action)
	if prior.Summary != "" {
		line += " (" + prior.Summary + ")"
	}
	return line
}

// bestEffort logs a failure of an optional collaborator and moves on.
func (s *Service) bestEffort(ctx context.Context, op string, err error) {
	if err == nil {
		return
	}
	be := fault.NewBestEffort(op, err)
	s.observer.OnEvent(ctx, observability.Event{
		Type:      EventError,
		Level:     observability.LevelWarning,
		Timestamp: time.Now(),
		Source:    "dialog.Handle",
		Data: map[string]any{
			"op":    op,
			"error": be.Error(),
		},
	})
}

// Metrics exposes the service counters for the health endpoint.
func (s *Service) Metrics() *observability.Metrics {
	return s.metrics
}

// ActiveSessions reports how many live sessions the store holds.
func (s *Service) ActiveSessions(ctx context.Context) (int, error) {
	return s.store.ActiveCount(ctx)
}

// Close releases the store and recorder when they hold file handles.
func (s *Service) Close() error {
	var errs []error
	if closer, ok := s.store.(io.Closer); ok {
		errs = append(errs, closer.Close())
	}
	if closer, ok := s.recorder.(io.Closer); ok {
		errs = append(errs, closer.Close())
	}
	return errors.Join(errs...)
}
