package integrations

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Jeffail/gabs/v2"

	"github.com/ndanaka/chatflow/pkg/flow"
	"github.com/ndanaka/chatflow/pkg/variables"
)

func (e *Executor) executeWebhook(ctx context.Context, block *flow.IntegrationBlock, defs []flow.Variable, bindings variables.Bindings) Result {
	var opts WebhookOptions
	if err := decodeOptions(block.Options, &opts); err != nil {
		return errorResult("Webhook block misconfigured", err.Error())
	}
	if opts.URL == "" {
		return errorResult("Webhook block has no URL", "")
	}

	method := strings.ToUpper(opts.Method)
	if method == "" {
		method = "POST"
	}

	sub := func(s string) string { return variables.Substitute(s, defs, bindings) }

	req := e.http.R().SetContext(ctx)
	for key, value := range opts.Headers {
		req.SetHeader(key, sub(value))
	}
	for key, value := range opts.QueryParams {
		req.SetQueryParam(key, sub(value))
	}
	if opts.Body != "" && method != "GET" {
		req.SetHeader("Content-Type", "application/json")
		req.SetBody(sub(opts.Body))
	}
	if opts.TimeoutSeconds > 0 {
		timeoutCtx, cancel := context.WithTimeout(ctx, time.Duration(opts.TimeoutSeconds)*time.Second)
		defer cancel()
		req.SetContext(timeoutCtx)
	}

	resp, err := req.Execute(method, sub(opts.URL))
	if err != nil {
		return errorResult("Webhook request failed", err.Error())
	}

	result := Result{Outcome: OutcomeSuccess}
	if resp.IsError() {
		result = errorResult(
			fmt.Sprintf("Webhook returned %s", resp.Status()),
			truncate(string(resp.Body()), 1000),
		)
	} else {
		result.Log.Status = "ok"
		result.Log.Description = fmt.Sprintf("Webhook successfully executed (%s)", resp.Status())
	}

	// Response mapping runs on both outcomes so error branches can inspect
	// the status code and body.
	result.SetVariables = mapResponse(resp.StatusCode(), resp.Body(), opts.ResponseVariableMapping)
	return result
}

// mapResponse resolves each configured body path against a virtual
// {statusCode, data} document, where data is the parsed response body.
// Paths are gabs dotted paths, e.g. "statusCode" or "data.user.name".
func mapResponse(statusCode int, body []byte, mappings []ResponseVariableMapping) []VariableUpdate {
	if len(mappings) == 0 {
		return nil
	}

	wrapper := gabs.New()
	wrapper.Set(statusCode, "statusCode")
	if len(body) > 0 {
		if parsed, err := gabs.ParseJSON(body); err == nil {
			wrapper.Set(parsed.Data(), "data")
		}
	}

	var updates []VariableUpdate
	for _, m := range mappings {
		if m.VariableID == "" || m.BodyPath == "" {
			continue
		}
		value := wrapper.Path(m.BodyPath)
		if value == nil {
			continue
		}
		updates = append(updates, VariableUpdate{VariableID: m.VariableID, Value: stringify(value.Data())})
	}
	return updates
}

func stringify(v any) string {
	switch value := v.(type) {
	case string:
		return value
	case nil:
		return ""
	default:
		return fmt.Sprintf("%v", value)
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
