package whatsapp_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ndanaka/chatflow/pkg/engine"
	"github.com/ndanaka/chatflow/pkg/flow"
	"github.com/ndanaka/chatflow/pkg/whatsapp"
)

type graphStub struct {
	srv      *httptest.Server
	payloads []map[string]any
	paths    []string
	status   int
}

func newGraphStub(t *testing.T) *graphStub {
	t.Helper()
	stub := &graphStub{status: http.StatusOK}
	stub.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var payload map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		stub.payloads = append(stub.payloads, payload)
		stub.paths = append(stub.paths, r.URL.Path)
		w.WriteHeader(stub.status)
		_, _ = w.Write([]byte(`{}`))
	}))
	t.Cleanup(stub.srv.Close)
	return stub
}

func TestSendReply_TextAndMedia(t *testing.T) {
	stub := newGraphStub(t)
	sender := whatsapp.NewSender("10001", "token", whatsapp.WithBaseURL(stub.srv.URL))

	reply := &engine.Reply{Messages: []engine.Message{
		{Type: flow.BlockText, Content: flow.BubbleContent{Text: "Hello!"}},
		{Type: flow.BlockImage, Content: flow.BubbleContent{URL: "https://cdn.example.com/a.png"}},
		{Type: flow.BlockEmbed, Content: flow.BubbleContent{URL: "https://example.com/form"}},
	}}

	require.NoError(t, sender.SendReply(context.Background(), "4479000", reply))
	require.Len(t, stub.payloads, 3)
	assert.Equal(t, "/10001/messages", stub.paths[0])

	assert.Equal(t, "text", stub.payloads[0]["type"])
	assert.Equal(t, "4479000", stub.payloads[0]["to"])

	assert.Equal(t, "image", stub.payloads[1]["type"])
	image := stub.payloads[1]["image"].(map[string]any)
	assert.Equal(t, "https://cdn.example.com/a.png", image["link"])

	// Embeds degrade to a plain text link.
	assert.Equal(t, "text", stub.payloads[2]["type"])
}

func TestSendReply_LongTextIsChunked(t *testing.T) {
	stub := newGraphStub(t)
	sender := whatsapp.NewSender("10001", "token", whatsapp.WithBaseURL(stub.srv.URL))

	long := strings.Repeat("word ", 1200) // ~6000 chars
	reply := &engine.Reply{Messages: []engine.Message{
		{Type: flow.BlockText, Content: flow.BubbleContent{Text: long}},
	}}

	require.NoError(t, sender.SendReply(context.Background(), "4479000", reply))
	require.Len(t, stub.payloads, 2)
	for _, payload := range stub.payloads {
		body := payload["text"].(map[string]any)["body"].(string)
		assert.LessOrEqual(t, len([]rune(body)), 4096)
		assert.NotEmpty(t, body)
	}
}

func TestSendReply_ChoiceButtons(t *testing.T) {
	stub := newGraphStub(t)
	sender := whatsapp.NewSender("10001", "token", whatsapp.WithBaseURL(stub.srv.URL))

	reply := &engine.Reply{Input: &engine.InputPrompt{
		Type: flow.BlockChoiceInput,
		Options: flow.InputOptions{
			Labels: flow.InputLabels{Placeholder: "Pick a color"},
		},
		Items: []flow.ChoiceItem{
			{ID: "i1", Content: "Red"},
			{ID: "i2", Content: "A very long button label indeed"},
		},
	}}

	require.NoError(t, sender.SendReply(context.Background(), "4479000", reply))
	require.Len(t, stub.payloads, 1)
	assert.Equal(t, "interactive", stub.payloads[0]["type"])

	interactive := stub.payloads[0]["interactive"].(map[string]any)
	assert.Equal(t, "Pick a color", interactive["body"].(map[string]any)["text"])

	buttons := interactive["action"].(map[string]any)["buttons"].([]any)
	require.Len(t, buttons, 2)
	first := buttons[0].(map[string]any)["reply"].(map[string]any)
	assert.Equal(t, "i1", first["id"])
	assert.Equal(t, "Red", first["title"])

	second := buttons[1].(map[string]any)["reply"].(map[string]any)
	assert.Len(t, []rune(second["title"].(string)), 20)
}

func TestSendReply_ManyChoicesBecomeNumberedList(t *testing.T) {
	stub := newGraphStub(t)
	sender := whatsapp.NewSender("10001", "token", whatsapp.WithBaseURL(stub.srv.URL))

	reply := &engine.Reply{Input: &engine.InputPrompt{
		Type: flow.BlockChoiceInput,
		Items: []flow.ChoiceItem{
			{ID: "i1", Content: "One"},
			{ID: "i2", Content: "Two"},
			{ID: "i3", Content: "Three"},
			{ID: "i4", Content: "Four"},
		},
	}}

	require.NoError(t, sender.SendReply(context.Background(), "4479000", reply))
	require.Len(t, stub.payloads, 1)
	assert.Equal(t, "text", stub.payloads[0]["type"])
	body := stub.payloads[0]["text"].(map[string]any)["body"].(string)
	assert.Contains(t, body, "Select an option")
	assert.Contains(t, body, "1. One")
	assert.Contains(t, body, "4. Four")
}

func TestSendReply_AbortsOnRejection(t *testing.T) {
	stub := newGraphStub(t)
	stub.status = http.StatusUnauthorized
	sender := whatsapp.NewSender("10001", "token", whatsapp.WithBaseURL(stub.srv.URL))

	reply := &engine.Reply{Messages: []engine.Message{
		{Type: flow.BlockText, Content: flow.BubbleContent{Text: "one"}},
		{Type: flow.BlockText, Content: flow.BubbleContent{Text: "two"}},
	}}

	err := sender.SendReply(context.Background(), "4479000", reply)
	require.Error(t, err)
	assert.Len(t, stub.payloads, 1)
}
