package metrics

import (
	"net/http"
	"sort"
	"sync"

	dto "github.com/prometheus/client_model/go"
	"github.com/prometheus/common/expfmt"
	"google.golang.org/protobuf/proto"
)

// Registry holds the client's in-memory counters and serves them in
// Prometheus text exposition format. All methods are safe for concurrent use
// by every session goroutine.
//
// Registry never touches session state — it is written to, never read, by
// the core.
type Registry struct {
	mu sync.Mutex

	sessionsOpen   float64
	reconnects     float64
	authFailures   float64
	heartbeats     float64
	tasksCompleted float64
	tasksFailed    float64

	// points holds the last observed total score per account email.
	points map[string]float64
}

// New returns an empty Registry.
func New() *Registry {
	return &Registry{points: make(map[string]float64)}
}

// SessionOpened records a channel transitioning to open.
func (r *Registry) SessionOpened() { r.add(&r.sessionsOpen, 1) }

// SessionClosed records a channel leaving the open state.
func (r *Registry) SessionClosed() { r.add(&r.sessionsOpen, -1) }

// Reconnect records one reconnection attempt being scheduled.
func (r *Registry) Reconnect() { r.add(&r.reconnects, 1) }

// AuthFailure records a session abandoned at login.
func (r *Registry) AuthFailure() { r.add(&r.authFailures, 1) }

// Heartbeat records one heartbeat tick on an open channel.
func (r *Registry) Heartbeat() { r.add(&r.heartbeats, 1) }

// TaskCompleted records a relay task answered with a response message.
func (r *Registry) TaskCompleted() { r.add(&r.tasksCompleted, 1) }

// TaskFailed records a relay task answered with an error message.
func (r *Registry) TaskFailed() { r.add(&r.tasksFailed, 1) }

// SetPoints records the latest total score observed for an account.
func (r *Registry) SetPoints(email string, total float64) {
	r.mu.Lock()
	r.points[email] = total
	r.mu.Unlock()
}

func (r *Registry) add(field *float64, delta float64) {
	r.mu.Lock()
	*field += delta
	r.mu.Unlock()
}

// ServeHTTP writes the current counters in Prometheus text format.
func (r *Registry) ServeHTTP(w http.ResponseWriter, _ *http.Request) {
	fams := r.gather()

	format := expfmt.NewFormat(expfmt.TypeTextPlain)
	w.Header().Set("Content-Type", string(format))

	enc := expfmt.NewEncoder(w, format)
	for _, mf := range fams {
		if err := enc.Encode(mf); err != nil {
			// Client went away mid-write; nothing useful to do.
			return
		}
	}
}

// gather snapshots the counters into metric families.
func (r *Registry) gather() []*dto.MetricFamily {
	r.mu.Lock()
	defer r.mu.Unlock()

	fams := []*dto.MetricFamily{
		gauge("streamnode_sessions_open", "Channels currently in the open state.", r.sessionsOpen),
		counter("streamnode_reconnects_total", "Reconnection attempts scheduled after a close or error.", r.reconnects),
		counter("streamnode_auth_failures_total", "Sessions abandoned because login failed.", r.authFailures),
		counter("streamnode_heartbeats_total", "Heartbeat pings sent on open channels.", r.heartbeats),
		counter("streamnode_tasks_completed_total", "Relay tasks answered with a response message.", r.tasksCompleted),
		counter("streamnode_tasks_failed_total", "Relay tasks answered with an error message.", r.tasksFailed),
	}

	if len(r.points) > 0 {
		mf := &dto.MetricFamily{
			Name: proto.String("streamnode_account_points_total"),
			Help: proto.String("Last observed total score per account."),
			Type: dto.MetricType_GAUGE.Enum(),
		}
		emails := make([]string, 0, len(r.points))
		for email := range r.points {
			emails = append(emails, email)
		}
		sort.Strings(emails)
		for _, email := range emails {
			mf.Metric = append(mf.Metric, &dto.Metric{
				Label: []*dto.LabelPair{{
					Name:  proto.String("account"),
					Value: proto.String(email),
				}},
				Gauge: &dto.Gauge{Value: proto.Float64(r.points[email])},
			})
		}
		fams = append(fams, mf)
	}

	return fams
}

func gauge(name, help string, v float64) *dto.MetricFamily {
	return &dto.MetricFamily{
		Name:   proto.String(name),
		Help:   proto.String(help),
		Type:   dto.MetricType_GAUGE.Enum(),
		Metric: []*dto.Metric{{Gauge: &dto.Gauge{Value: proto.Float64(v)}}},
	}
}

func counter(name, help string, v float64) *dto.MetricFamily {
	return &dto.MetricFamily{
		Name:   proto.String(name),
		Help:   proto.String(help),
		Type:   dto.MetricType_COUNTER.Enum(),
		Metric: []*dto.Metric{{Counter: &dto.Counter{Value: proto.Float64(v)}}},
	}
}
