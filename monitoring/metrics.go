package monitoring

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"test12/internal/engine"
	"test12/models"
)

var (
	waitingEntries = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "test12_waiting_entries",
			Help: "Current number of waiting queue entries",
		},
	)

	activeSessions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "test12_active_sessions",
			Help: "Current number of active sessions",
		},
	)

	activeBundles = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "test12_active_bundles",
			Help: "Current number of active Pro Dev bundles",
		},
	)

	sessionsOpened = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "test12_sessions_opened_total",
			Help: "Total sessions opened",
		},
	)

	sessionsConcluded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "test12_sessions_concluded_total",
			Help: "Total member outcomes recorded when sessions conclude",
		},
		[]string{"outcome"},
	)

	operations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "test12_operations_total",
			Help: "Total service operations",
		},
		[]string{"operation", "status"},
	)

	bundleDrops = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "test12_bundle_drops_total",
			Help: "Total bundle drops chained after a previous drop ended",
		},
	)
)

// Monitor records engine activity into the process-wide registry. A nil
// *Monitor is valid and records nothing.
type Monitor struct{}

func NewMonitor() *Monitor {
	return &Monitor{}
}

// ObserveSnapshot sets the gauges from the current state.
func (m *Monitor) ObserveSnapshot(s *models.Snapshot) {
	if m == nil || s == nil {
		return
	}
	waiting := 0
	for _, q := range s.Queue {
		if q.Status == models.StatusWaiting {
			waiting++
		}
	}
	sessions := 0
	for _, sess := range s.Sessions {
		if sess.Status == models.SessionActive {
			sessions++
		}
	}
	bundles := 0
	for _, b := range s.Bundles {
		if b.State == models.BundleActive {
			bundles++
		}
	}
	waitingEntries.Set(float64(waiting))
	activeSessions.Set(float64(sessions))
	activeBundles.Set(float64(bundles))
}

func (m *Monitor) TrackReconcile(res engine.Result) {
	if m == nil {
		return
	}
	sessionsOpened.Add(float64(len(res.OpenedSessionIDs)))
	for _, o := range res.Outcomes {
		if o.Completed {
			sessionsConcluded.WithLabelValues("completed").Inc()
		} else {
			sessionsConcluded.WithLabelValues("failed").Inc()
		}
	}
	bundleDrops.Add(float64(len(res.ChainedAppIDs)))
}

// Track service operations
func (m *Monitor) TrackOperation(operation, status string) {
	if m == nil {
		return
	}
	operations.WithLabelValues(operation, status).Inc()
}

func (m *Monitor) Handler() http.Handler {
	return promhttp.Handler()
}
