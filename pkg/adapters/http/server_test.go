package http

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/aretw0/concord"
	"github.com/aretw0/concord/internal/testutils"
	"github.com/aretw0/concord/pkg/adapters/memory"
	"github.com/aretw0/concord/pkg/domain"
	"github.com/aretw0/concord/pkg/negotiation"
	"github.com/aretw0/concord/pkg/observability"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, opts ...Option) *httptest.Server {
	t.Helper()
	mgr := negotiation.NewManager(testutils.Catalog(t), memory.NewStore(), concord.New())
	opts = append([]Option{WithLogger(slog.New(slog.DiscardHandler))}, opts...)
	handler := NewHandler(mgr, opts...)
	srv := httptest.NewServer(handler)
	t.Cleanup(handler.Close)
	t.Cleanup(srv.Close)
	return srv
}

// countingService tracks live change subscriptions on a real manager.
type countingService struct {
	*negotiation.Manager
	active int
}

func (c *countingService) OnChange(fn negotiation.ChangeFunc) func() {
	c.active++
	unsubscribe := c.Manager.OnChange(fn)
	return func() {
		c.active--
		unsubscribe()
	}
}

func post(t *testing.T, srv *httptest.Server, path, body string) (*http.Response, map[string]any) {
	t.Helper()
	resp, err := http.Post(srv.URL+path, "application/json", strings.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	var out map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return resp, out
}

func get(t *testing.T, srv *httptest.Server, path string) (*http.Response, map[string]any) {
	t.Helper()
	resp, err := http.Get(srv.URL + path)
	require.NoError(t, err)
	defer resp.Body.Close()
	var out map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return resp, out
}

func TestSpecIsValid(t *testing.T) {
	doc, err := GetSwagger()
	require.NoError(t, err)
	assert.Equal(t, "0.1.0", doc.Info.Version)
	assert.Contains(t, doc.Components.Schemas, "SubmissionRequest")
}

func TestHealthAndInfo(t *testing.T) {
	srv := newTestServer(t)

	resp, body := get(t, srv, "/health")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))

	_, info := get(t, srv, "/info")
	assert.Equal(t, "concord-http", info["app"])
	assert.Equal(t, concord.Version, info["version"])
	assert.Equal(t, "0.1.0", info["api_version"])
	assert.Equal(t, "lowest-id", info["tie_break"])
}

func TestTemplates(t *testing.T) {
	srv := newTestServer(t)

	_, list := get(t, srv, "/templates")
	assert.Equal(t, []any{"nda"}, list["templates"])

	resp, tpl := get(t, srv, "/templates/nda")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Mutual NDA", tpl["label"])
	assert.Len(t, tpl["groups"], 3)

	resp, body := get(t, srv, "/templates/lease")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Contains(t, body["error"], "template not found")
}

func TestSubmitAndResult(t *testing.T) {
	srv := newTestServer(t)

	resp, receipt := post(t, srv, "/templates/nda/preferences",
		`{"group_id":"liability","party":"a","ranking":["X","Y","Z"],"metadata":{"source":"test"}}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode, receipt)
	assert.Equal(t, "party_a", receipt["party"])
	assert.Equal(t, "partially_submitted", receipt["group_state"])
	assert.NotEmpty(t, receipt["version"])

	resp, receipt = post(t, srv, "/templates/nda/preferences",
		`{"group_id":"liability","party":"party_b","ranks":{"Y":1,"X":2,"Z":3}}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode, receipt)
	outcome := receipt["outcome"].(map[string]any)
	assert.Equal(t, "scored_selection", outcome["kind"])
	assert.Equal(t, "X", outcome["variant_id"])

	_, group := get(t, srv, "/templates/nda/groups/liability")
	assert.Equal(t, "both_submitted", group["state"])

	_, result := get(t, srv, "/templates/nda/result")
	assert.Equal(t, "blocked", result["status"])
	assert.Len(t, result["groups"], 3)

	resp, history := get(t, srv, "/templates/nda/groups/liability/history?party=party_a")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	versions := history["versions"].([]any)
	require.Len(t, versions, 1)
	assert.Equal(t, "test", versions[0].(map[string]any)["metadata"].(map[string]any)["source"])
}

func TestSubmitErrors(t *testing.T) {
	srv := newTestServer(t)

	tests := []struct {
		name   string
		path   string
		body   string
		status int
	}{
		{"not json", "/templates/nda/preferences", `{`, http.StatusBadRequest},
		{"unknown field", "/templates/nda/preferences", `{"group_id":"term","party":"a","ranking":["1y","2y"],"color":"red"}`, http.StatusBadRequest},
		{"missing party", "/templates/nda/preferences", `{"group_id":"term","ranking":["1y","2y"]}`, http.StatusBadRequest},
		{"ranking and ranks", "/templates/nda/preferences", `{"group_id":"term","party":"a","ranking":["1y"],"ranks":{"2y":1}}`, http.StatusBadRequest},
		{"template mismatch", "/templates/nda/preferences", `{"template_id":"lease","group_id":"term","party":"a","ranking":["1y","2y"]}`, http.StatusBadRequest},
		{"unknown template", "/templates/lease/preferences", `{"group_id":"term","party":"a","ranking":["1y","2y"]}`, http.StatusNotFound},
		{"unknown group", "/templates/nda/preferences", `{"group_id":"indemnity","party":"a","ranking":["1y"]}`, http.StatusNotFound},
		{"partition", "/templates/nda/preferences", `{"group_id":"term","party":"a","ranking":["1y"]}`, http.StatusUnprocessableEntity},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, body := post(t, srv, tt.path, tt.body)
			assert.Equal(t, tt.status, resp.StatusCode, body)
			assert.NotEmpty(t, body["error"])
		})
	}

	_, body := post(t, srv, "/templates/nda/preferences", `{"group_id":"term","party":"c","ranking":["1y"],"rejected":["3y"]}`)
	violations := body["violations"].([]any)
	var codes []string
	for _, v := range violations {
		codes = append(codes, v.(map[string]any)["code"].(string))
	}
	assert.Equal(t, []string{"unknown_party", "unknown_variant", "partition_mismatch"}, codes)
}

func TestHistoryParty(t *testing.T) {
	srv := newTestServer(t)

	resp, _ := get(t, srv, "/templates/nda/groups/term/history")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = get(t, srv, "/templates/nda/groups/term/history?party=party_c")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, body := get(t, srv, "/templates/nda/groups/term/history?party=b")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Empty(t, body["versions"])
}

func TestMetricsAndSpec(t *testing.T) {
	metrics := observability.NewMetrics()
	srv := newTestServer(t, WithMetrics(metrics.Handler()))

	resp, err := http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Get(srv.URL + "/openapi.yaml")
	require.NoError(t, err)
	spec, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Contains(t, string(spec), "openapi: 3.0.3")
}

func readEvents(t *testing.T, body io.Reader) <-chan string {
	t.Helper()
	lines := make(chan string, 32)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(body)
		for scanner.Scan() {
			if line := scanner.Text(); strings.HasPrefix(line, "data: ") {
				lines <- strings.TrimPrefix(line, "data: ")
			}
		}
	}()
	return lines
}

func next(t *testing.T, lines <-chan string) string {
	t.Helper()
	select {
	case line, ok := <-lines:
		require.True(t, ok, "stream closed")
		return line
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for event")
		return ""
	}
}

func TestSubscribeEvents_Template(t *testing.T) {
	srv := newTestServer(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/events?template_id=nda&watch=liability", nil)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	lines := readEvents(t, resp.Body)
	assert.Equal(t, "connected", next(t, lines))

	// Filtered out: only liability is watched.
	post(t, srv, "/templates/nda/preferences", `{"group_id":"term","party":"a","ranking":["1y","2y"]}`)
	post(t, srv, "/templates/nda/preferences", `{"group_id":"liability","party":"a","ranking":["X","Y","Z"]}`)

	var diff domain.ResultDiff
	require.NoError(t, json.Unmarshal([]byte(next(t, lines)), &diff))
	assert.Equal(t, "nda", diff.TemplateID)
	require.Len(t, diff.Groups, 1)
	assert.Equal(t, "liability", diff.Groups[0].GroupID)
}

type fakeWatcher struct{}

func (fakeWatcher) Watch(ctx context.Context) (<-chan string, error) {
	ch := make(chan string, 1)
	ch <- "nda"
	close(ch)
	return ch, nil
}

func TestSubscribeEvents_Catalog(t *testing.T) {
	srv := newTestServer(t)
	resp, err := http.Get(srv.URL + "/events")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	watching := newTestServer(t, WithCatalogWatch(fakeWatcher{}))
	resp, err = http.Get(watching.URL + "/events")
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "event: ping")
	assert.Contains(t, string(body), "event: catalog\ndata: nda")
}

func TestCloseReleasesChangeSubscription(t *testing.T) {
	svc := &countingService{
		Manager: negotiation.NewManager(testutils.Catalog(t), memory.NewStore(), concord.New()),
	}

	for i := 0; i < 3; i++ {
		handler := NewHandler(svc, WithLogger(slog.New(slog.DiscardHandler)))
		assert.Equal(t, 1, svc.active)
		handler.Close()
		handler.Close()
		assert.Equal(t, 0, svc.active)
	}

	// A closed handler still answers requests.
	handler := NewHandler(svc, WithLogger(slog.New(slog.DiscardHandler)))
	handler.Close()
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}
