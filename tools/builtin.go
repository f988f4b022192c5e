package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/telistry/switchboard/connectors"
	"github.com/telistry/switchboard/core/protocol"
	"github.com/telistry/switchboard/memory"
)

const knowledgeSearchLimit = 5

// Knowledge is the slice of the memory recorder the knowledge tool needs.
type Knowledge interface {
	Search(ctx context.Context, query string, limit int) ([]memory.KnowledgeHit, error)
}

// BuiltinDeps carries the collaborators behind the built-in capability set.
// Nil fields degrade to "not configured" tool results.
type BuiltinDeps struct {
	CRM        *connectors.CRM
	Scheduling *connectors.Scheduling
	Knowledge  Knowledge
}

// RegisterBuiltin installs the default voice-agent capability set.
func RegisterBuiltin(r *Registry, deps BuiltinDeps) error {
	builtins := []struct {
		tool    protocol.Tool
		handler Handler
	}{
		{searchKnowledgeBaseTool, searchKnowledgeBase(deps.Knowledge)},
		{lookupAccountTool, lookupAccount(deps.CRM)},
		{checkAvailabilityTool, checkAvailability(deps.Scheduling)},
		{scheduleAppointmentTool, scheduleAppointment(deps.Scheduling)},
		{transferToAgentTool, transferToAgent()},
	}

	for _, b := range builtins {
		if err := r.Register(b.tool, b.handler); err != nil {
			return err
		}
	}
	return nil
}

var searchKnowledgeBaseTool = protocol.Tool{
	Name:        "search_knowledge_base",
	Description: "Search the company knowledge base for information to answer customer questions",
	InputSchema: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"query": map[string]any{
				"type":        "string",
				"description": "The search query based on the customer's question",
			},
		},
		"required": []string{"query"},
	},
}

var lookupAccountTool = protocol.Tool{
	Name:        "lookup_account",
	Description: "Look up customer account information by account ID or phone number",
	InputSchema: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"account_id": map[string]any{
				"type":        "string",
				"description": "The customer account ID or phone number",
			},
		},
		"required": []string{"account_id"},
	},
}

var checkAvailabilityTool = protocol.Tool{
	Name:        "check_availability",
	Description: "List open appointment slots for a given date",
	InputSchema: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"date": map[string]any{
				"type":        "string",
				"description": "Date to check in YYYY-MM-DD format",
			},
			"type": map[string]any{
				"type":        "string",
				"description": "Type of appointment",
			},
		},
		"required": []string{"date"},
	},
}

var scheduleAppointmentTool = protocol.Tool{
	Name:        "schedule_appointment",
	Description: "Schedule an appointment for the customer",
	InputSchema: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"date": map[string]any{
				"type":        "string",
				"description": "Appointment date in YYYY-MM-DD format",
			},
			"time": map[string]any{
				"type":        "string",
				"description": "Appointment time in HH:MM format",
			},
			"type": map[string]any{
				"type":        "string",
				"description": "Type of appointment",
			},
		},
		"required": []string{"date", "time", "type"},
	},
}

var transferToAgentTool = protocol.Tool{
	Name:        "transfer_to_agent",
	Description: "Transfer the call to a human agent when you cannot help or the customer requests it",
	InputSchema: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"department": map[string]any{
				"type":        "string",
				"description": "Which department to transfer to",
				"enum":        []string{"sales", "support", "billing", "general"},
			},
			"reason": map[string]any{
				"type":        "string",
				"description": "Reason for the transfer",
			},
		},
		"required": []string{"department", "reason"},
	},
}

func searchKnowledgeBase(kb Knowledge) Handler {
	return func(ctx context.Context, args json.RawMessage) (Result, error) {
		var input struct {
			Query string `json:"query"`
		}
		if err := unmarshalArgs(args, &input); err != nil {
			return Result{}, err
		}

		if kb == nil {
			return jsonResult(map[string]any{
				"results": []any{},
				"message": "Knowledge base not configured",
			})
		}

		hits, err := kb.Search(ctx, input.Query, knowledgeSearchLimit)
		if err != nil {
			return Result{}, err
		}
		if hits == nil {
			hits = []memory.KnowledgeHit{}
		}
		return jsonResult(map[string]any{"results": hits})
	}
}

func lookupAccount(crm *connectors.CRM) Handler {
	return func(ctx context.Context, args json.RawMessage) (Result, error) {
		var input struct {
			AccountID string `json:"account_id"`
		}
		if err := unmarshalArgs(args, &input); err != nil {
			return Result{}, err
		}

		// Callers rarely know their account ID; fall back to their number.
		accountID := input.AccountID
		if accountID == "" {
			if cc, ok := CallContextFrom(ctx); ok {
				accountID = cc.CallerID
			}
		}
		if accountID == "" {
			return jsonResult(map[string]any{
				"found": false,
				"error": "no account identifier available",
			})
		}
		if crm == nil {
			return jsonResult(map[string]any{
				"found":   false,
				"message": "CRM not configured",
			})
		}

		acct, err := crm.LookupAccount(ctx, accountID)
		if err != nil {
			return Result{}, err
		}
		return jsonResult(acct)
	}
}

func checkAvailability(sched *connectors.Scheduling) Handler {
	return func(ctx context.Context, args json.RawMessage) (Result, error) {
		var input struct {
			Date string `json:"date"`
			Type string `json:"type"`
		}
		if err := unmarshalArgs(args, &input); err != nil {
			return Result{}, err
		}
		if sched == nil {
			return jsonResult(map[string]any{"error": "scheduling not configured"})
		}

		apptType := input.Type
		if apptType == "" {
			apptType = "general"
		}
		slots, err := sched.AvailableSlots(ctx, input.Date, apptType)
		if err != nil {
			return Result{}, err
		}
		if slots == nil {
			slots = []connectors.Slot{}
		}
		return jsonResult(map[string]any{"date": input.Date, "slots": slots})
	}
}

func scheduleAppointment(sched *connectors.Scheduling) Handler {
	return func(ctx context.Context, args json.RawMessage) (Result, error) {
		var input struct {
			Date string `json:"date"`
			Time string `json:"time"`
			Type string `json:"type"`
		}
		if err := unmarshalArgs(args, &input); err != nil {
			return Result{}, err
		}
		if sched == nil {
			return jsonResult(map[string]any{"error": "scheduling not configured"})
		}

		apptType := input.Type
		if apptType == "" {
			apptType = "general"
		}
		booking, err := sched.Book(ctx, input.Date, input.Time, apptType)
		if err != nil {
			return Result{}, err
		}
		return jsonResult(booking)
	}
}

func transferToAgent() Handler {
	return func(ctx context.Context, args json.RawMessage) (Result, error) {
		var input struct {
			Department string `json:"department"`
			Reason     string `json:"reason"`
		}
		if err := unmarshalArgs(args, &input); err != nil {
			return Result{}, err
		}

		department := input.Department
		if department == "" {
			department = "general"
		}
		return jsonResult(map[string]any{
			"transfer_requested": true,
			"department":         department,
		})
	}
}

func unmarshalArgs(args json.RawMessage, into any) error {
	if len(args) == 0 {
		return nil
	}
	if err := json.Unmarshal(args, into); err != nil {
		return fmt.Errorf("invalid arguments: %w", err)
	}
	return nil
}

func jsonResult(v any) (Result, error) {
	payload, err := json.Marshal(v)
	if err != nil {
		return Result{}, fmt.Errorf("failed to encode result: %w", err)
	}
	return Result{Content: string(payload)}, nil
}
