// Package providers holds default implementations of the integration
// collaborator ports: an HTTP spreadsheet gateway client, a Google
// Analytics collect client and an SMTP mailer. Deployments with different
// backends swap these behind the ports.
package providers

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/ndanaka/chatflow/pkg/ports"
)

// SheetsGateway implements ports.SheetsClient against a spreadsheet REST
// gateway (the service holding the OAuth credentials, outside this core).
type SheetsGateway struct {
	client  *resty.Client
	baseURL string
}

// SheetsOption configures the gateway client.
type SheetsOption func(*SheetsGateway)

// WithSheetsHTTPClient overrides the HTTP client (tests).
func WithSheetsHTTPClient(client *resty.Client) SheetsOption {
	return func(g *SheetsGateway) {
		g.client = client
	}
}

// NewSheetsGateway creates a client for the gateway at baseURL.
func NewSheetsGateway(baseURL string, opts ...SheetsOption) *SheetsGateway {
	g := &SheetsGateway{
		client:  resty.New().SetTimeout(20 * time.Second),
		baseURL: baseURL,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

func (g *SheetsGateway) rowsURL(spreadsheetID, sheetID string) string {
	return fmt.Sprintf("%s/spreadsheets/%s/sheets/%s/rows", g.baseURL, spreadsheetID, sheetID)
}

// AppendRow implements ports.SheetsClient.
func (g *SheetsGateway) AppendRow(ctx context.Context, spreadsheetID, sheetID string, row ports.SheetsRow) error {
	resp, err := g.client.R().
		SetContext(ctx).
		SetBody(map[string]any{"values": row}).
		Post(g.rowsURL(spreadsheetID, sheetID))
	if err != nil {
		return fmt.Errorf("append row: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("append row: gateway returned %s", resp.Status())
	}
	return nil
}

// UpdateRow implements ports.SheetsClient.
func (g *SheetsGateway) UpdateRow(ctx context.Context, spreadsheetID, sheetID, refColumn, refValue string, row ports.SheetsRow) error {
	resp, err := g.client.R().
		SetContext(ctx).
		SetBody(map[string]any{
			"referenceColumn": refColumn,
			"referenceValue":  refValue,
			"values":          row,
		}).
		Patch(g.rowsURL(spreadsheetID, sheetID))
	if err != nil {
		return fmt.Errorf("update row: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("update row: gateway returned %s", resp.Status())
	}
	return nil
}

// GetRow implements ports.SheetsClient.
func (g *SheetsGateway) GetRow(ctx context.Context, spreadsheetID, sheetID, refColumn, refValue string) (ports.SheetsRow, error) {
	var out struct {
		Values map[string]string `json:"values"`
	}
	resp, err := g.client.R().
		SetContext(ctx).
		SetQueryParam("referenceColumn", refColumn).
		SetQueryParam("referenceValue", refValue).
		SetResult(&out).
		Get(g.rowsURL(spreadsheetID, sheetID))
	if err != nil {
		return nil, fmt.Errorf("get row: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("get row: gateway returned %s", resp.Status())
	}
	return out.Values, nil
}
