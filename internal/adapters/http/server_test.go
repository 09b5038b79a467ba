package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	httpadapter "github.com/ndanaka/chatflow/internal/adapters/http"
	"github.com/ndanaka/chatflow/pkg/adapters/memory"
	"github.com/ndanaka/chatflow/pkg/engine"
	"github.com/ndanaka/chatflow/pkg/flow"
	"github.com/ndanaka/chatflow/pkg/session"
	"github.com/ndanaka/chatflow/pkg/whatsapp"
)

func testBot() flow.Typebot {
	return flow.Typebot{
		ID: "greeter",
		Groups: []flow.Group{
			{ID: "g1", Blocks: []flow.Block{
				&flow.BubbleBlock{
					BaseBlock: flow.BaseBlock{ID: "b1", Type: flow.BlockText},
					Content:   flow.BubbleContent{Text: "Welcome!"},
				},
				&flow.InputBlock{
					BaseBlock: flow.BaseBlock{ID: "b2", Type: flow.BlockTextInput, OutgoingEdgeID: "e1"},
					Options:   flow.InputOptions{VariableID: "v1"},
				},
			}},
			{ID: "g2", Blocks: []flow.Block{
				&flow.BubbleBlock{
					BaseBlock: flow.BaseBlock{ID: "b3", Type: flow.BlockText},
					Content:   flow.BubbleContent{Text: "Bye {{Name}}!"},
				},
			}},
		},
		Edges: []flow.Edge{
			{ID: "e1", From: flow.EdgeSource{GroupID: "g1", BlockID: "b2"}, To: flow.EdgeTarget{GroupID: "g2"}},
		},
		Variables: []flow.Variable{{ID: "v1", Name: "Name"}},
	}
}

func newTestServer(t *testing.T, opts ...httpadapter.Option) http.Handler {
	t.Helper()
	flows := memory.NewFlowStore()
	flows.Register(testBot())
	eng := engine.New(flows, engine.WithResultStore(memory.NewResultStore()))
	sessions := session.NewManager(memory.NewSessionStore())
	return httpadapter.NewServer(eng, sessions, opts...).Handler()
}

func postJSON(t *testing.T, handler http.Handler, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func decodeReply(t *testing.T, rec *httptest.ResponseRecorder) engine.Reply {
	t.Helper()
	var reply engine.Reply
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &reply))
	return reply
}

func TestStartAndContinueChat(t *testing.T) {
	handler := newTestServer(t)

	rec := postJSON(t, handler, "/api/v1/typebots/greeter/startChat", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	opening := decodeReply(t, rec)
	require.NotEmpty(t, opening.SessionID)
	require.Len(t, opening.Messages, 1)
	assert.Equal(t, "Welcome!", opening.Messages[0].Content.Text)
	require.NotNil(t, opening.Input)

	rec = postJSON(t, handler, "/api/v1/sessions/"+opening.SessionID+"/continueChat",
		map[string]string{"message": "Grace"})
	require.Equal(t, http.StatusOK, rec.Code)
	closing := decodeReply(t, rec)
	require.Len(t, closing.Messages, 1)
	assert.Equal(t, "Bye Grace!", closing.Messages[0].Content.Text)
	assert.True(t, closing.IsCompleted)

	// The completed session is gone.
	rec = postJSON(t, handler, "/api/v1/sessions/"+opening.SessionID+"/continueChat",
		map[string]string{"message": "again"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestStartChat_UnknownTypebot(t *testing.T) {
	handler := newTestServer(t)

	rec := postJSON(t, handler, "/api/v1/typebots/missing/startChat", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestStartChat_PrefilledVariables(t *testing.T) {
	handler := newTestServer(t)

	rec := postJSON(t, handler, "/api/v1/typebots/greeter/startChat",
		map[string]any{"prefilledVariables": map[string]string{"Name": "Ada"}})
	require.Equal(t, http.StatusOK, rec.Code)
	opening := decodeReply(t, rec)

	// An empty reply still answers the pending input; the prefilled binding
	// only shows once the flow reads it.
	rec = postJSON(t, handler, "/api/v1/sessions/"+opening.SessionID+"/continueChat",
		map[string]string{"message": "Grace"})
	require.Equal(t, http.StatusOK, rec.Code)
	closing := decodeReply(t, rec)
	assert.Equal(t, "Bye Grace!", closing.Messages[0].Content.Text)
}

func TestContinueChat_BadBody(t *testing.T) {
	handler := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/sessions/s1/continueChat",
		strings.NewReader("{not json"))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHealth(t *testing.T) {
	handler := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestCORSPreflight(t *testing.T) {
	handler := newTestServer(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/typebots/greeter/startChat", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func newWhatsAppServer(t *testing.T) http.Handler {
	t.Helper()
	flows := memory.NewFlowStore()
	bot := testBot()
	bot.Settings.WhatsApp = &flow.WhatsAppSettings{IsEnabled: true}
	flows.Register(bot)

	eng := engine.New(flows, engine.WithResultStore(memory.NewResultStore()))
	sessions := session.NewManager(memory.NewSessionStore())
	svc := whatsapp.NewService(eng, sessions, flows, noopSender{})
	server := httpadapter.NewServer(eng, sessions, httpadapter.WithWhatsApp(svc, "secret"))
	return server.Handler()
}

type noopSender struct{}

func (noopSender) SendReply(_ context.Context, _ string, _ *engine.Reply) error { return nil }

func TestWhatsAppVerifyHandshake(t *testing.T) {
	handler := newWhatsAppServer(t)

	req := httptest.NewRequest(http.MethodGet,
		"/api/v1/whatsapp/webhook?hub.mode=subscribe&hub.verify_token=secret&hub.challenge=12345", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "12345", rec.Body.String())

	req = httptest.NewRequest(http.MethodGet,
		"/api/v1/whatsapp/webhook?hub.mode=subscribe&hub.verify_token=wrong&hub.challenge=12345", nil)
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestWhatsAppWebhook_AlwaysAcknowledges(t *testing.T) {
	handler := newWhatsAppServer(t)

	rec := postJSON(t, handler, "/api/v1/whatsapp/webhook", map[string]any{
		"entry": []map[string]any{{
			"changes": []map[string]any{{
				"value": map[string]any{
					"metadata": map[string]any{"phone_number_id": "10001"},
					"messages": []map[string]any{{
						"from": "4479000",
						"type": "text",
						"text": map[string]any{"body": "hello"},
					}},
				},
			}},
		}},
	})
	assert.Equal(t, http.StatusOK, rec.Code)

	// Garbage payloads are still acknowledged so Meta stops retrying.
	req := httptest.NewRequest(http.MethodPost, "/api/v1/whatsapp/webhook", strings.NewReader("{broken"))
	rec2 := httptest.NewRecorder()
	handler.ServeHTTP(rec2, req)
	assert.Equal(t, http.StatusOK, rec2.Code)
}
