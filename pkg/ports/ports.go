// Package ports declares the collaborator interfaces of the engine: flow
// snapshot lookup, result/answer persistence and the outbound clients used
// by integration blocks. The engine treats all of them as fallible remote
// calls.
package ports

import (
	"context"

	"github.com/ndanaka/chatflow/pkg/flow"
)

// FlowStore resolves published flow snapshots.
type FlowStore interface {
	// PublicTypebot returns the published snapshot for a typebot id or
	// public id. Returns flow-not-found errors unwrapped so callers can
	// surface them as fatal.
	PublicTypebot(ctx context.Context, typebotID string) (*flow.Typebot, error)
}

// Answer is one recorded user reply. Answers are append-only: the engine
// emits them and never reads them back for flow decisions.
type Answer struct {
	ID         string `json:"id"`
	ResultID   string `json:"resultId"`
	GroupID    string `json:"groupId"`
	BlockID    string `json:"blockId"`
	VariableID string `json:"variableId,omitempty"`
	Content    string `json:"content"`
}

// ResultPatch updates the status flags of a result. Nil fields are left
// untouched.
type ResultPatch struct {
	HasStarted  *bool `json:"hasStarted,omitempty"`
	IsCompleted *bool `json:"isCompleted,omitempty"`
}

// LogStatus grades a result log entry.
type LogStatus string

const (
	LogOK      LogStatus = "ok"
	LogInfo    LogStatus = "info"
	LogWarning LogStatus = "warning"
	LogError   LogStatus = "error"
)

// Log is one structured entry attached to a result, typically recording an
// integration outcome. It is informational: there is no automatic retry.
type Log struct {
	Status      LogStatus `json:"status"`
	Description string    `json:"description"`
	Details     string    `json:"details,omitempty"`
}

// ResultStore persists conversation results, answers and logs.
type ResultStore interface {
	// CreateResult opens a new result for a typebot and returns its id.
	CreateResult(ctx context.Context, typebotID string) (string, error)

	// UpsertAnswer records a user reply, replacing any previous answer for
	// the same (resultId, blockId) pair.
	UpsertAnswer(ctx context.Context, answer Answer) error

	// UpdateResult patches a result's status flags.
	UpdateResult(ctx context.Context, resultID string, patch ResultPatch) error

	// AppendLog attaches a log entry to a result.
	AppendLog(ctx context.Context, resultID string, log Log) error
}

// SheetsRow is one spreadsheet row keyed by column name.
type SheetsRow map[string]string

// SheetsClient talks to a spreadsheet backend on behalf of Google Sheets
// integration blocks.
type SheetsClient interface {
	AppendRow(ctx context.Context, spreadsheetID, sheetID string, row SheetsRow) error
	UpdateRow(ctx context.Context, spreadsheetID, sheetID string, refColumn, refValue string, row SheetsRow) error
	// GetRow returns the first row whose refColumn matches refValue.
	GetRow(ctx context.Context, spreadsheetID, sheetID string, refColumn, refValue string) (SheetsRow, error)
}

// Email is one outbound transactional message.
type Email struct {
	CredentialsID string   `json:"credentialsId,omitempty"`
	Recipients    []string `json:"recipients"`
	CC            []string `json:"cc,omitempty"`
	BCC           []string `json:"bcc,omitempty"`
	ReplyTo       string   `json:"replyTo,omitempty"`
	Subject       string   `json:"subject"`
	Body          string   `json:"body"`
	IsBodyHTML    bool     `json:"isBodyHtml,omitempty"`
}

// Mailer sends transactional email for Email integration blocks.
type Mailer interface {
	Send(ctx context.Context, email Email) error
}

// AnalyticsEvent is one tracking event emitted by an analytics block.
type AnalyticsEvent struct {
	TrackingID string `json:"trackingId"`
	Category   string `json:"category"`
	Action     string `json:"action"`
	Label      string `json:"label,omitempty"`
	Value      string `json:"value,omitempty"`
}

// AnalyticsClient posts tracking events.
type AnalyticsClient interface {
	Track(ctx context.Context, event AnalyticsEvent) error
}
