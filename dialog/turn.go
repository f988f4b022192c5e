package dialog

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/telistry/switchboard/core/fault"
	"github.com/telistry/switchboard/core/protocol"
	"github.com/telistry/switchboard/inference"
	"github.com/telistry/switchboard/memory"
	"github.com/telistry/switchboard/observability"
	"github.com/telistry/switchboard/session"
	"github.com/telistry/switchboard/tools"
)

// handleUserInput runs one turn of the conversation state machine: load the
// session, invoke the backend, execute any requested tools with exactly one
// follow-up invocation, then persist and respond. A turn makes at most two
// backend invocations, always sequentially.
func (s *Service) handleUserInput(ctx context.Context, event *protocol.Event) (resp *protocol.Response, err error) {
	s.metrics.RecordTurnStarted()
	timer := observability.StartTimer(s.observer, s.metrics, EventTurnComplete, "dialog.Turn")
	timer.Add("contact_id", event.ContactID)
	defer func() { timer.Stop(ctx, err) }()

	s.observer.OnEvent(ctx, observability.Event{
		Type:      EventTurnStart,
		Level:     observability.LevelVerbose,
		Timestamp: time.Now(),
		Source:    "dialog.Turn",
		Data: map[string]any{
			"contact_id":   event.ContactID,
			"input_length": len(event.UserInput),
		},
	})

	sess, err := s.store.Get(ctx, event.ContactID)
	if err != nil {
		if !errors.Is(err, session.ErrNotFound) {
			s.bestEffort(ctx, "session.get", err)
		}
		// Mid-call restarts and expired sessions start fresh.
		sess, err = s.store.Create(ctx, event.ContactID, event.CallerID)
		if err != nil {
			return nil, fault.NewSessionStore("create", err)
		}
	}

	sess.Append(protocol.RoleUser, event.UserInput)

	pc := inference.PromptContext{
		CompanyName:   s.cfg.CompanyName,
		SessionID:     sess.ID,
		CallerID:      sess.CallerID,
		TurnCount:     sess.TurnCount,
		CallerHistory: len(sess.CallerHistory),
		Now:           time.Now(),
	}
	history := sess.Messages(s.cfg.HistoryWindow)

	reply, err := s.invokeBackend(ctx, inference.Request{
		History: history,
		Context: pc,
		Tools:   s.tools.List(),
	}, false)
	if err != nil {
		return nil, err
	}

	text, action := reply.Text, reply.Action
	var toolsUsed []string

	if reply.StopReason == inference.StopReasonToolUse && len(reply.ToolCalls) > 0 {
		callCtx := tools.WithCallContext(ctx, tools.CallContext{
			ContactID: event.ContactID,
			CallerID:  sess.CallerID,
			SessionID: sess.ID,
		})
		results := s.executeCalls(callCtx, reply.ToolCalls)
		for _, call := range reply.ToolCalls {
			toolsUsed = append(toolsUsed, call.Name)
		}
		s.metrics.RecordToolCalls(len(reply.ToolCalls))

		follow, followErr := s.invokeBackend(ctx, inference.Request{
			History: history,
			Context: pc,
			Round: &inference.ToolRound{
				Text:    reply.Text,
				Calls:   reply.ToolCalls,
				Results: results,
			},
		}, true)
		if followErr != nil {
			return nil, followErr
		}
		if follow.StopReason == inference.StopReasonToolUse && len(follow.ToolCalls) > 0 {
			// Hard bound: one tool round per turn. The request is
			// surfaced as-is, nothing more executes.
			s.observer.OnEvent(ctx, observability.Event{
				Type:      EventError,
				Level:     observability.LevelWarning,
				Timestamp: time.Now(),
				Source:    "dialog.Turn",
				Data: map[string]any{
					"error": "follow-up requested more tools",
					"tools": len(follow.ToolCalls),
				},
			})
		}
		text, action = follow.Text, follow.Action
	}

	sess.Append(protocol.RoleAssistant, text)
	sess.TurnCount++
	if s.cfg.MaxTurns > 0 && sess.TurnCount >= s.cfg.MaxTurns {
		// The cap overrides whatever the backend decided.
		action = protocol.ActionTransfer
		text = s.cfg.Handoff
	}
	if sess.Metadata == nil {
		sess.Metadata = make(map[string]any)
	}
	sess.Metadata["last_action"] = string(action)

	if updateErr := s.store.Update(ctx, event.ContactID, sess); updateErr != nil {
		return nil, fault.NewSessionStore("update", updateErr)
	}

	s.bestEffort(ctx, "memory.record_turn", s.recorder.RecordTurn(ctx, memory.TurnRecord{
		SessionID: sess.ID,
		ContactID: sess.ContactID,
		CallerID:  sess.CallerID,
		Turn:      sess.TurnCount,
		UserInput: event.UserInput,
		Reply:     text,
		Action:    string(action),
		ToolsUsed: toolsUsed,
		Timestamp: time.Now(),
	}))

	s.metrics.RecordTurnCompleted()
	if action == protocol.ActionTransfer {
		s.metrics.RecordCallEnded(true)
	}
	timer.Add("turn_count", sess.TurnCount)
	timer.Add("action", string(action))

	return &protocol.Response{
		Text:      text,
		Action:    action,
		SessionID: sess.ID,
		TurnCount: sess.TurnCount,
	}, nil
}

// invokeBackend counts and times one backend invocation. The inference event
// carries its own latency; only the turn timer feeds the latency counter.
func (s *Service) invokeBackend(ctx context.Context, req inference.Request, followUp bool) (*inference.Reply, error) {
	s.metrics.RecordBackendCall()
	timer := observability.StartTimer(s.observer, nil, EventInference, "dialog.Turn")
	timer.Add("follow_up", followUp)
	timer.Add("messages", len(req.History))

	reply, err := s.backend.Invoke(ctx, req)
	timer.Stop(ctx, err)
	return reply, err
}

// executeCalls runs the requested tools concurrently, each under its own
// timeout, and joins the results in call order. One failure never blocks
// another execution and never aborts the turn.
func (s *Service) executeCalls(ctx context.Context, calls []protocol.ToolCall) []protocol.ToolResult {
	results := make([]protocol.ToolResult, len(calls))
	var wg sync.WaitGroup
	for i, call := range calls {
		i, call := i, call
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i] = s.executeCall(ctx, call)
		}()
	}
	wg.Wait()
	return results
}

// executeCall runs one tool. Failures, including unknown tool names, become
// error-shaped results the backend can react to.
func (s *Service) executeCall(ctx context.Context, call protocol.ToolCall) protocol.ToolResult {
	s.observer.OnEvent(ctx, observability.Event{
		Type:      EventToolCall,
		Level:     observability.LevelVerbose,
		Timestamp: time.Now(),
		Source:    "dialog.Turn",
		Data:      map[string]any{"name": call.Name, "call_id": call.ID},
	})

	toolCtx := ctx
	if timeout := s.cfg.ToolTimeout(); timeout > 0 {
		var cancel context.CancelFunc
		toolCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	result, err := s.tools.Execute(toolCtx, call.Name, call.Input)
	if err != nil {
		payload, _ := json.Marshal(map[string]string{"error": err.Error()})
		result = tools.Result{Content: string(payload), IsError: true}
	}

	s.observer.OnEvent(ctx, observability.Event{
		Type:      EventToolComplete,
		Level:     observability.LevelVerbose,
		Timestamp: time.Now(),
		Source:    "dialog.Turn",
		Data:      map[string]any{"name": call.Name, "call_id": call.ID, "error": result.IsError},
	})

	return protocol.ToolResult{CallID: call.ID, Content: result.Content, IsError: result.IsError}
}
