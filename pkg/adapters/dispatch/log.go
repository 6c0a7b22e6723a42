// Package dispatch provides ports.ActionDispatcher implementations that do not
// leave the process: a structured-log dispatcher, a registry of Go handlers
// and a fan-out combinator.
package dispatch

import (
	"context"
	"log/slog"

	"github.com/aretw0/brokerdesk/internal/logging"
	"github.com/aretw0/brokerdesk/pkg/domain"
)

// LogDispatcher records each automated action as a single log line.
// It is the default side effect when no integration is configured.
type LogDispatcher struct {
	logger *slog.Logger
}

// NewLogDispatcher creates a LogDispatcher. A nil logger discards output.
func NewLogDispatcher(logger *slog.Logger) *LogDispatcher {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &LogDispatcher{logger: logger}
}

func (d *LogDispatcher) Dispatch(ctx context.Context, action string, c *domain.Client) error {
	d.logger.InfoContext(ctx, Describe(action, c),
		"action", action,
		"client_id", c.ID,
		"org_id", c.OrganizationID,
		"stage", c.PipelineStage,
	)
	return nil
}

// Describe renders the human readable message for a known action.
// Unknown actions fall back to a generic sentence.
func Describe(action string, c *domain.Client) string {
	name := c.PersonalInfo.DisplayName()
	email := c.PersonalInfo.Email

	switch action {
	case "send-intake-form":
		return "Sending intake form to " + email
	case "create-google-sheet-entry":
		return "Creating Google Sheet entry for " + name
	case "send-broker-agreement":
		return "Sending broker agreement to " + email
	case "schedule-intake-meeting":
		return "Scheduling intake meeting with " + name
	case "create-budget":
		return "Creating budget for " + name
	case "submit-to-fi":
		return "Submitting budget to Fiscal Intermediary"
	case "request-documents":
		return "Requesting documents from care manager"
	case "validate-documents":
		return "Validating submitted documents"
	case "generate-invoices":
		return "Generating invoices for " + name
	case "submit-billing":
		return "Submitting billing for " + name
	case "archive-case":
		return "Archiving case for " + name
	case "send-completion-notice":
		return "Sending completion notice to " + email
	default:
		return "Running action " + action + " for " + name
	}
}
