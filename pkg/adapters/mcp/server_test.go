package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/aretw0/concord"
	"github.com/aretw0/concord/internal/testutils"
	"github.com/aretw0/concord/pkg/adapters/memory"
	"github.com/aretw0/concord/pkg/negotiation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type rpcResponse struct {
	Result struct {
		Content []struct {
			Type string `json:"type"`
			Text string `json:"text"`
		} `json:"content"`
		StructuredContent map[string]any `json:"structuredContent"`
		IsError           bool           `json:"isError"`
		Contents          []struct {
			URI  string `json:"uri"`
			Text string `json:"text"`
		} `json:"contents"`
	} `json:"result"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

func newTestServer(t *testing.T) *Server {
	t.Helper()
	engine := concord.New()
	mgr := negotiation.NewManager(testutils.Catalog(t), memory.NewStore(), engine)
	s := NewServer(mgr, engine)

	send(t, s, "initialize", map[string]any{
		"protocolVersion": "2025-03-26",
		"clientInfo":      map[string]any{"name": "test", "version": "0.0.0"},
		"capabilities":    map[string]any{},
	})
	return s
}

var requestID int

func send(t *testing.T, s *Server, method string, params any) rpcResponse {
	t.Helper()
	requestID++
	msg, err := json.Marshal(map[string]any{
		"jsonrpc": "2.0",
		"id":      requestID,
		"method":  method,
		"params":  params,
	})
	require.NoError(t, err)

	out, err := json.Marshal(s.MCPServer().HandleMessage(context.Background(), msg))
	require.NoError(t, err)

	var resp rpcResponse
	require.NoError(t, json.Unmarshal(out, &resp))
	require.Nil(t, resp.Error, fmt.Sprintf("%s failed", method))
	return resp
}

func call(t *testing.T, s *Server, tool string, args map[string]any) rpcResponse {
	t.Helper()
	return send(t, s, "tools/call", map[string]any{"name": tool, "arguments": args})
}

func TestListTemplates(t *testing.T) {
	s := newTestServer(t)

	resp := call(t, s, "list_templates", map[string]any{})
	require.Len(t, resp.Result.Content, 1)
	assert.JSONEq(t, `["nda"]`, resp.Result.Content[0].Text)
}

func TestSubmitAndGetResult(t *testing.T) {
	s := newTestServer(t)

	resp := call(t, s, "submit_preference", map[string]any{
		"template_id": "nda",
		"group_id":    "term",
		"party":       "a",
		"ranking":     `["2y","1y"]`,
		"metadata":    `{"agent":"drafting-assistant"}`,
	})
	require.False(t, resp.Result.IsError, resp.Result.Content)
	assert.Equal(t, "partially_submitted", resp.Result.StructuredContent["group_state"])

	resp = call(t, s, "submit_preference", map[string]any{
		"template_id": "nda",
		"group_id":    "term",
		"party":       "party_b",
		"ranking":     `["2y"]`,
		"rejected":    `["1y"]`,
	})
	require.False(t, resp.Result.IsError, resp.Result.Content)
	outcome := resp.Result.StructuredContent["outcome"].(map[string]any)
	assert.Equal(t, "2y", outcome["variant_id"])
	assert.Equal(t, "unanimous_top", outcome["basis"])

	resp = call(t, s, "get_result", map[string]any{"template_id": "nda"})
	require.False(t, resp.Result.IsError)
	assert.Equal(t, "blocked", resp.Result.StructuredContent["status"])
	assert.Len(t, resp.Result.StructuredContent["groups"], 3)
}

func TestSubmitErrors(t *testing.T) {
	s := newTestServer(t)

	resp := call(t, s, "submit_preference", map[string]any{
		"template_id": "nda",
		"group_id":    "term",
		"party":       "a",
		"ranking":     `["2y"`,
	})
	assert.True(t, resp.Result.IsError)
	assert.Contains(t, resp.Result.Content[0].Text, "malformed submission")

	resp = call(t, s, "submit_preference", map[string]any{
		"template_id": "nda",
		"group_id":    "term",
		"party":       "a",
		"ranking":     `["2y"]`,
	})
	assert.True(t, resp.Result.IsError)
	assert.Contains(t, resp.Result.Content[0].Text, "partition_mismatch")

	resp = call(t, s, "get_result", map[string]any{"template_id": "lease"})
	assert.True(t, resp.Result.IsError)
	assert.Contains(t, resp.Result.Content[0].Text, "template not found")
}

func TestReconcileIsStateless(t *testing.T) {
	s := newTestServer(t)

	resp := call(t, s, "reconcile", map[string]any{
		"template_id": "nda",
		"submissions": `[
			{"group_id":"liability","party":"a","ranking":["X","Y","Z"]},
			{"group_id":"liability","party":"b","ranking":["Y","X","Z"]}
		]`,
	})
	require.False(t, resp.Result.IsError, resp.Result.Content)
	groups := resp.Result.StructuredContent["groups"].([]any)
	liability := groups[1].(map[string]any)
	assert.Equal(t, "liability", liability["group_id"])
	assert.Equal(t, "X", liability["outcome"].(map[string]any)["variant_id"])

	// Nothing was stored.
	resp = call(t, s, "get_result", map[string]any{"template_id": "nda"})
	groups = resp.Result.StructuredContent["groups"].([]any)
	assert.Equal(t, "pending", groups[1].(map[string]any)["state"])

	resp = call(t, s, "reconcile", map[string]any{"template_id": "nda", "submissions": `{}`})
	assert.True(t, resp.Result.IsError)
}

func TestReconcileRejectsNullEntries(t *testing.T) {
	s := newTestServer(t)

	for _, subs := range []string{`[null]`, `[{"group_id":"term","party":"a","ranking":["1y","2y"]}, null]`} {
		resp := call(t, s, "reconcile", map[string]any{"template_id": "nda", "submissions": subs})
		require.True(t, resp.Result.IsError, subs)
		require.NotEmpty(t, resp.Result.Content)
		assert.Contains(t, resp.Result.Content[0].Text, "malformed submission")
	}

	// The server keeps answering afterwards.
	resp := call(t, s, "list_templates", map[string]any{})
	assert.False(t, resp.Result.IsError)
}

func TestTemplatesResource(t *testing.T) {
	s := newTestServer(t)

	resp := send(t, s, "resources/read", map[string]any{"uri": TemplatesURI})
	require.Len(t, resp.Result.Contents, 1)
	assert.Equal(t, TemplatesURI, resp.Result.Contents[0].URI)
	assert.Contains(t, resp.Result.Contents[0].Text, `"id":"liability"`)
}
