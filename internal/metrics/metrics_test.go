package metrics

import (
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/common/expfmt"
)

// scrape runs one HTTP request against the registry and parses the body back
// into metric families.
func scrape(t *testing.T, r *Registry) map[string]float64 {
	t.Helper()
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	var parser expfmt.TextParser
	mfs, err := parser.TextToMetricFamilies(strings.NewReader(rec.Body.String()))
	if err != nil {
		t.Fatalf("parse exposition: %v", err)
	}

	out := make(map[string]float64)
	for name, mf := range mfs {
		for _, m := range mf.GetMetric() {
			key := name
			for _, lp := range m.GetLabel() {
				key += "{" + lp.GetName() + "=" + lp.GetValue() + "}"
			}
			switch {
			case m.Counter != nil:
				out[key] = m.Counter.GetValue()
			case m.Gauge != nil:
				out[key] = m.Gauge.GetValue()
			}
		}
	}
	return out
}

func TestRegistry_RoundTripsThroughExposition(t *testing.T) {
	r := New()
	r.SessionOpened()
	r.SessionOpened()
	r.SessionClosed()
	r.Reconnect()
	r.Heartbeat()
	r.Heartbeat()
	r.TaskCompleted()
	r.TaskFailed()
	r.AuthFailure()

	got := scrape(t, r)

	want := map[string]float64{
		"streamnode_sessions_open":         1,
		"streamnode_reconnects_total":      1,
		"streamnode_heartbeats_total":      2,
		"streamnode_tasks_completed_total": 1,
		"streamnode_tasks_failed_total":    1,
		"streamnode_auth_failures_total":   1,
	}
	for name, v := range want {
		if got[name] != v {
			t.Errorf("%s: got %v, want %v", name, got[name], v)
		}
	}
}

func TestRegistry_PerAccountPoints(t *testing.T) {
	r := New()
	r.SetPoints("alice@example.com", 1250)
	r.SetPoints("bob@example.com", 10)
	r.SetPoints("alice@example.com", 1300) // overwrite, not accumulate

	got := scrape(t, r)

	if got["streamnode_account_points_total{account=alice@example.com}"] != 1300 {
		t.Errorf("alice points: got %v", got["streamnode_account_points_total{account=alice@example.com}"])
	}
	if got["streamnode_account_points_total{account=bob@example.com}"] != 10 {
		t.Errorf("bob points: got %v", got["streamnode_account_points_total{account=bob@example.com}"])
	}
}

func TestRegistry_EmptyScrapeParses(t *testing.T) {
	got := scrape(t, New())
	if got["streamnode_sessions_open"] != 0 {
		t.Errorf("sessions_open: got %v, want 0", got["streamnode_sessions_open"])
	}
}
