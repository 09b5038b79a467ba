package integrations

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/ndanaka/chatflow/internal/logging"
	"github.com/ndanaka/chatflow/pkg/flow"
	"github.com/ndanaka/chatflow/pkg/ports"
	"github.com/ndanaka/chatflow/pkg/variables"
)

// Outcome classifies one integration invocation for edge selection.
const (
	OutcomeSuccess = "success"
	OutcomeError   = "error"
)

// VariableUpdate is a binding write requested by an integration response.
type VariableUpdate struct {
	VariableID string
	Value      string
}

// Result is the observed outcome of one integration block.
type Result struct {
	Outcome string
	Log     ports.Log
	// SetVariables carries response values to merge into the session
	// bindings (webhook response mapping, sheet cell extraction).
	SetVariables []VariableUpdate
}

// Executor dispatches integration blocks to their collaborators. Failures
// are captured in the Result, never returned as errors: the walk always
// continues.
type Executor struct {
	http      *resty.Client
	sheets    ports.SheetsClient
	mailer    ports.Mailer
	analytics ports.AnalyticsClient
	logger    *slog.Logger
}

// ExecutorOption configures the Executor.
type ExecutorOption func(*Executor)

// WithHTTPClient overrides the webhook HTTP client.
func WithHTTPClient(client *resty.Client) ExecutorOption {
	return func(e *Executor) {
		e.http = client
	}
}

// WithSheets wires the spreadsheet collaborator.
func WithSheets(client ports.SheetsClient) ExecutorOption {
	return func(e *Executor) {
		e.sheets = client
	}
}

// WithMailer wires the email collaborator.
func WithMailer(mailer ports.Mailer) ExecutorOption {
	return func(e *Executor) {
		e.mailer = mailer
	}
}

// WithAnalytics wires the analytics collaborator.
func WithAnalytics(client ports.AnalyticsClient) ExecutorOption {
	return func(e *Executor) {
		e.analytics = client
	}
}

// WithLogger sets the executor's logger.
func WithLogger(logger *slog.Logger) ExecutorOption {
	return func(e *Executor) {
		e.logger = logger
	}
}

// NewExecutor creates an integration executor. Collaborators left unset
// cause the matching block kinds to fail softly with an error log.
func NewExecutor(opts ...ExecutorOption) *Executor {
	e := &Executor{
		http:   resty.New().SetTimeout(30 * time.Second),
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Execute runs one integration block against the current bindings and
// reports the outcome. Chatwoot blocks are client-executed and never reach
// the executor.
func (e *Executor) Execute(ctx context.Context, block *flow.IntegrationBlock, defs []flow.Variable, bindings variables.Bindings) Result {
	var result Result
	switch block.Type {
	case flow.BlockWebhook:
		result = e.executeWebhook(ctx, block, defs, bindings)
	case flow.BlockSheets:
		result = e.executeSheets(ctx, block, defs, bindings)
	case flow.BlockEmail:
		result = e.executeEmail(ctx, block, defs, bindings)
	case flow.BlockAnalytics:
		result = e.executeAnalytics(ctx, block, defs, bindings)
	default:
		result = errorResult(fmt.Sprintf("Unsupported integration block %q", block.Type), "")
	}

	if result.Outcome == OutcomeError {
		e.logger.Warn("integration failed",
			"block_id", block.ID,
			"block_type", string(block.Type),
			"description", result.Log.Description,
		)
	}
	return result
}

func errorResult(description, details string) Result {
	return Result{
		Outcome: OutcomeError,
		Log: ports.Log{
			Status:      ports.LogError,
			Description: description,
			Details:     details,
		},
	}
}

func successResult(description string) Result {
	return Result{
		Outcome: OutcomeSuccess,
		Log: ports.Log{
			Status:      ports.LogOK,
			Description: description,
		},
	}
}
