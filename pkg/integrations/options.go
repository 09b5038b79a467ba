// Package integrations executes integration blocks: webhook calls,
// spreadsheet operations, transactional email and analytics events. A
// failed integration never aborts the walk; it yields an error-status log
// and the walk continues on the matching outcome edge.
package integrations

import (
	"fmt"

	"github.com/mitchellh/mapstructure"
)

// WebhookOptions configures a webhook block. Every string field may carry
// {{variable}} placeholders; they are substituted right before the call.
type WebhookOptions struct {
	URL         string            `mapstructure:"url"`
	Method      string            `mapstructure:"method"`
	Headers     map[string]string `mapstructure:"headers"`
	QueryParams map[string]string `mapstructure:"queryParams"`
	Body        string            `mapstructure:"body"`
	// TimeoutSeconds bounds the call; zero means the client default.
	TimeoutSeconds int `mapstructure:"timeout"`
	// ResponseVariableMapping maps response body paths into variables.
	ResponseVariableMapping []ResponseVariableMapping `mapstructure:"responseVariableMapping"`
}

// ResponseVariableMapping binds a dotted body path (e.g. "data.user.name",
// "statusCode") to a variable id.
type ResponseVariableMapping struct {
	BodyPath   string `mapstructure:"bodyPath"`
	VariableID string `mapstructure:"variableId"`
}

// SheetsAction selects the spreadsheet operation.
type SheetsAction string

const (
	SheetsInsertRow SheetsAction = "Insert a row"
	SheetsUpdateRow SheetsAction = "Update a row"
	SheetsGetData   SheetsAction = "Get data from sheet"
)

// SheetsOptions configures a Google Sheets block.
type SheetsOptions struct {
	Action        SheetsAction `mapstructure:"action"`
	CredentialsID string       `mapstructure:"credentialsId"`
	SpreadsheetID string       `mapstructure:"spreadsheetId"`
	SheetID       string       `mapstructure:"sheetId"`
	// ReferenceCell locates the row for update/get actions.
	ReferenceCell *Cell `mapstructure:"referenceCell"`
	// CellsToInsert holds the column values written by insert/update.
	CellsToInsert []Cell `mapstructure:"cellsToInsert"`
	// CellsToExtract maps fetched columns into variables (get action).
	CellsToExtract []ExtractingCell `mapstructure:"cellsToExtract"`
}

// Cell pairs a column with a (substitutable) value.
type Cell struct {
	Column string `mapstructure:"column"`
	Value  string `mapstructure:"value"`
}

// ExtractingCell maps a fetched column into a variable.
type ExtractingCell struct {
	Column     string `mapstructure:"column"`
	VariableID string `mapstructure:"variableId"`
}

// EmailOptions configures an Email block.
type EmailOptions struct {
	CredentialsID string   `mapstructure:"credentialsId"`
	Recipients    []string `mapstructure:"recipients"`
	CC            []string `mapstructure:"cc"`
	BCC           []string `mapstructure:"bcc"`
	ReplyTo       string   `mapstructure:"replyTo"`
	Subject       string   `mapstructure:"subject"`
	Body          string   `mapstructure:"body"`
	IsBodyHTML    bool     `mapstructure:"isBodyHtml"`
}

// AnalyticsOptions configures a Google Analytics block.
type AnalyticsOptions struct {
	TrackingID string `mapstructure:"trackingId"`
	Category   string `mapstructure:"category"`
	Action     string `mapstructure:"action"`
	Label      string `mapstructure:"label"`
	Value      string `mapstructure:"value"`
}

// decodeOptions decodes the loose option map of an integration block into a
// typed struct. Input is weakly typed because the snapshot JSON does not
// distinguish ints from floats.
func decodeOptions(raw map[string]any, out any) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return fmt.Errorf("build options decoder: %w", err)
	}
	if err := decoder.Decode(raw); err != nil {
		return fmt.Errorf("decode integration options: %w", err)
	}
	return nil
}
