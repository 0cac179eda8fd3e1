package observability

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/aretw0/concord"
	"github.com/aretw0/concord/internal/logging"
	"github.com/aretw0/concord/internal/testutils"
	"github.com/aretw0/concord/pkg/domain"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func submissions() domain.Submissions {
	subs := domain.Submissions{}
	subs.Add(testutils.Ranked("term", domain.PartyA, nil, "2y", "1y"))
	subs.Add(testutils.Ranked("term", domain.PartyB, nil, "2y", "1y"))
	subs.Add(testutils.Ranked("liability", domain.PartyA, nil, "X", "Y", "Z"))
	subs.Add(testutils.Ranked("governing_law", domain.PartyA, nil, "ny", "de"))
	subs.Add(testutils.Ranked("governing_law", domain.PartyB, nil, "ny"))
	return subs
}

func TestMetrics_Hooks(t *testing.T) {
	m := NewMetrics()
	eng := concord.New(concord.WithLifecycleHooks(m.Hooks()))

	result := eng.ReconcileTemplate(context.Background(), testutils.NDA(), submissions())
	require.Equal(t, domain.StatusBlocked, result.Status)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.groupsReconciled.WithLabelValues("auto_selected", "")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.groupsReconciled.WithLabelValues("red_light", "missing_preference")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.groupsReconciled.WithLabelValues("red_light", "invalid_preference")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.templatesReconciled.WithLabelValues("blocked")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.preferencesRejected.WithLabelValues("partition_mismatch")))
	assert.Equal(t, 2, testutil.CollectAndCount(m.groupDuration), "one series per outcome kind")
}

func TestMetrics_Handler(t *testing.T) {
	m := NewMetrics()
	eng := concord.New(concord.WithLifecycleHooks(m.Hooks()))
	eng.ReconcileTemplate(context.Background(), testutils.NDA(), submissions())

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	require.Equal(t, 200, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `concord_templates_reconciled_total{status="blocked"} 1`)
	assert.Contains(t, body, "concord_template_reconcile_duration_seconds_count 1")
	assert.Contains(t, body, "go_goroutines")
}

func TestAuditHooks(t *testing.T) {
	var buf bytes.Buffer
	logger := logging.NewWithWriter(&buf, slog.LevelDebug, logging.FormatJSON)
	eng := concord.New(concord.WithLifecycleHooks(Combine(NewMetrics().Hooks(), AuditHooks(logger))))

	eng.ReconcileTemplate(context.Background(), testutils.NDA(), submissions())

	out := buf.String()
	assert.Equal(t, 3, strings.Count(out, `"msg":"group_reconciled"`))
	assert.Equal(t, 1, strings.Count(out, `"msg":"template_reconciled"`))
	assert.Equal(t, 1, strings.Count(out, `"msg":"preference_rejected"`))
	assert.Contains(t, out, `"blocking":["liability","governing_law"]`)
}

func TestCombine(t *testing.T) {
	var calls []string
	record := func(name string) domain.LifecycleHooks {
		return domain.LifecycleHooks{
			OnTemplateReconciled: func(context.Context, *domain.TemplateEvent) { calls = append(calls, name) },
		}
	}

	hooks := Combine(record("first"), AuditHooks(slog.New(slog.NewTextHandler(io.Discard, nil))), record("second"))
	hooks.OnTemplateReconciled(context.Background(), &domain.TemplateEvent{})

	assert.Equal(t, []string{"first", "second"}, calls)
	assert.Nil(t, Combine().OnGroupReconciled)
}
