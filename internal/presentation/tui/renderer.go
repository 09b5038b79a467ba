// Package tui renders engine replies for the interactive chat command.
package tui

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/muesli/termenv"
	"golang.org/x/term"

	"github.com/ndanaka/chatflow/pkg/engine"
	"github.com/ndanaka/chatflow/pkg/flow"
)

// Renderer writes replies to a terminal, with markdown rendering when the
// output is an interactive terminal and plain text otherwise.
type Renderer struct {
	out      io.Writer
	markdown *glamour.TermRenderer
	plain    bool
}

// NewRenderer builds a Renderer for stdout.
func NewRenderer() *Renderer {
	r := &Renderer{out: os.Stdout}
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		r.plain = true
		return r
	}
	md, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(100),
	)
	if err != nil {
		r.plain = true
		return r
	}
	r.markdown = md
	return r
}

// RenderReply prints every message of a reply, then the input prompt if the
// flow paused on one.
func (r *Renderer) RenderReply(reply *engine.Reply) {
	for _, msg := range reply.Messages {
		r.renderMessage(msg)
	}
	for _, action := range reply.ClientActions {
		r.renderAction(action)
	}
	if reply.Input != nil {
		r.renderPrompt(reply.Input)
	}
	if reply.IsCompleted {
		fmt.Fprintln(r.out, r.styled("Conversation ended.", "244"))
	}
}

func (r *Renderer) renderMessage(msg engine.Message) {
	switch msg.Type {
	case flow.BlockImage:
		fmt.Fprintf(r.out, "%s %s\n", r.styled("[image]", "33"), msg.Content.URL)
	case flow.BlockVideo:
		fmt.Fprintf(r.out, "%s %s\n", r.styled("[video]", "33"), msg.Content.URL)
	case flow.BlockEmbed:
		fmt.Fprintf(r.out, "%s %s\n", r.styled("[embed]", "33"), msg.Content.URL)
	default:
		if r.markdown != nil {
			if rendered, err := r.markdown.Render(msg.Content.Text); err == nil {
				fmt.Fprint(r.out, rendered)
				return
			}
		}
		fmt.Fprintln(r.out, msg.Content.Text)
	}
}

func (r *Renderer) renderAction(action engine.ClientAction) {
	switch action.Type {
	case engine.ActionRedirect:
		fmt.Fprintf(r.out, "%s %s\n", r.styled("[redirect]", "208"), action.Redirect.URL)
	case engine.ActionCode:
		fmt.Fprintf(r.out, "%s %s\n", r.styled("[script]", "208"), action.Code.Name)
	case engine.ActionChatwoot:
		fmt.Fprintln(r.out, r.styled("[chatwoot handoff]", "208"))
	}
}

func (r *Renderer) renderPrompt(prompt *engine.InputPrompt) {
	if len(prompt.Items) > 0 {
		var b strings.Builder
		for i, item := range prompt.Items {
			if i > 0 {
				b.WriteString("  ")
			}
			fmt.Fprintf(&b, "[%d] %s", i+1, item.Content)
		}
		fmt.Fprintln(r.out, r.styled(b.String(), "39"))
	}
	if placeholder := prompt.Options.Labels.Placeholder; placeholder != "" {
		fmt.Fprintln(r.out, r.styled(placeholder, "244"))
	}
}

func (r *Renderer) styled(s, color string) string {
	if r.plain {
		return s
	}
	p := termenv.ColorProfile()
	return termenv.String(s).Foreground(p.Color(color)).String()
}
