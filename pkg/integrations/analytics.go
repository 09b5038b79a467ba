package integrations

import (
	"context"

	"github.com/ndanaka/chatflow/pkg/flow"
	"github.com/ndanaka/chatflow/pkg/ports"
	"github.com/ndanaka/chatflow/pkg/variables"
)

func (e *Executor) executeAnalytics(ctx context.Context, block *flow.IntegrationBlock, defs []flow.Variable, bindings variables.Bindings) Result {
	if e.analytics == nil {
		return errorResult("Analytics integration is not configured", "")
	}
	var opts AnalyticsOptions
	if err := decodeOptions(block.Options, &opts); err != nil {
		return errorResult("Analytics block misconfigured", err.Error())
	}
	if opts.TrackingID == "" {
		return errorResult("Analytics block has no tracking id", "")
	}

	sub := func(s string) string { return variables.Substitute(s, defs, bindings) }
	event := ports.AnalyticsEvent{
		TrackingID: opts.TrackingID,
		Category:   sub(opts.Category),
		Action:     sub(opts.Action),
		Label:      sub(opts.Label),
		Value:      sub(opts.Value),
	}
	if err := e.analytics.Track(ctx, event); err != nil {
		return errorResult("Analytics event not sent", err.Error())
	}
	return successResult("Analytics event sent")
}
