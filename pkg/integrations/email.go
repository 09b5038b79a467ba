package integrations

import (
	"context"

	"github.com/ndanaka/chatflow/pkg/flow"
	"github.com/ndanaka/chatflow/pkg/ports"
	"github.com/ndanaka/chatflow/pkg/variables"
)

func (e *Executor) executeEmail(ctx context.Context, block *flow.IntegrationBlock, defs []flow.Variable, bindings variables.Bindings) Result {
	if e.mailer == nil {
		return errorResult("Email integration is not configured", "")
	}
	var opts EmailOptions
	if err := decodeOptions(block.Options, &opts); err != nil {
		return errorResult("Email block misconfigured", err.Error())
	}
	if len(opts.Recipients) == 0 {
		return errorResult("Email block has no recipients", "")
	}

	sub := func(s string) string { return variables.Substitute(s, defs, bindings) }

	email := ports.Email{
		CredentialsID: opts.CredentialsID,
		Recipients:    substituteAll(opts.Recipients, sub),
		CC:            substituteAll(opts.CC, sub),
		BCC:           substituteAll(opts.BCC, sub),
		ReplyTo:       sub(opts.ReplyTo),
		Subject:       sub(opts.Subject),
		Body:          sub(opts.Body),
		IsBodyHTML:    opts.IsBodyHTML,
	}
	if err := e.mailer.Send(ctx, email); err != nil {
		return errorResult("Email not sent", err.Error())
	}
	return successResult("Email successfully sent")
}

func substituteAll(values []string, sub func(string) string) []string {
	if len(values) == 0 {
		return nil
	}
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = sub(v)
	}
	return out
}
