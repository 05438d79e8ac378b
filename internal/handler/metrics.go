package handler

import (
	"fmt"
	"net/http"
	"slices"

	"github.com/fitjournal/fitjournal/internal/metrics"
)

// MetricsHandler exposes in-memory metrics.
type MetricsHandler struct {
	snapshotter metrics.Snapshotter
}

// NewMetricsHandler creates a new MetricsHandler.
func NewMetricsHandler(snapshotter metrics.Snapshotter) *MetricsHandler {
	return &MetricsHandler{snapshotter: snapshotter}
}

// Metrics returns metrics in Prometheus exposition format.
func (h *MetricsHandler) Metrics(w http.ResponseWriter, r *http.Request) {
	if h.snapshotter == nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}

	snap := h.snapshotter.Snapshot()

	w.Header().Set("Content-Type", "text/plain; version=0.0.4")

	writeMetric(w, "# TYPE fitjournal_users_registered_total counter\n")
	writeMetric(w, "fitjournal_users_registered_total %d\n", snap.UsersRegistered)

	writeMetric(w, "# TYPE fitjournal_logins_total counter\n")
	writeMetric(w, "fitjournal_logins_total{status=%q} %d\n", metrics.LoginSuccess, snap.LoginsSucceeded)
	writeMetric(w, "fitjournal_logins_total{status=%q} %d\n", metrics.LoginFailed, snap.LoginsFailed)

	writeMetric(w, "# TYPE fitjournal_auth_rejections_total counter\n")
	reasons := make([]string, 0, len(snap.AuthRejected))
	for reason := range snap.AuthRejected {
		reasons = append(reasons, reason)
	}
	slices.Sort(reasons)
	for _, reason := range reasons {
		writeMetric(w, "fitjournal_auth_rejections_total{reason=%q} %d\n", reason, snap.AuthRejected[reason])
	}

	writeMetric(w, "# TYPE fitjournal_workouts_created_total counter\n")
	writeMetric(w, "fitjournal_workouts_created_total %d\n", snap.WorkoutsCreated)
	writeMetric(w, "# TYPE fitjournal_workouts_updated_total counter\n")
	writeMetric(w, "fitjournal_workouts_updated_total %d\n", snap.WorkoutsUpdated)
	writeMetric(w, "# TYPE fitjournal_workouts_deleted_total counter\n")
	writeMetric(w, "fitjournal_workouts_deleted_total %d\n", snap.WorkoutsDeleted)
}

func writeMetric(w http.ResponseWriter, format string, args ...any) {
	_, _ = fmt.Fprintf(w, format, args...)
}
