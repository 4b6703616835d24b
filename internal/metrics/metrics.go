// Package metrics declares the Prometheus collectors of the sentinel.
//
// Collectors are registered with the default registry at init; the HTTP
// surface exposes them on /metrics.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Pipeline outcome label values.
const (
	OutcomeNoUser           = "no_user"
	OutcomeContactsError    = "contacts_error"
	OutcomeNoContacts       = "no_contacts"
	OutcomePermissionDenied = "permission_denied"
	OutcomeCompleted        = "completed"
)

// Delivery result label values.
const (
	ResultOK     = "ok"
	ResultFailed = "failed"
)

//nolint:gochecknoglobals // Collectors are process-wide by nature.
var (
	// Toggles counts screen toggles accepted by an armed detector.
	Toggles = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "sos", Subsystem: "detector", Name: "toggles_total",
		Help: "Screen toggles evaluated by the armed detector.",
	})
	// Triggers counts gestures recognized by the detector.
	Triggers = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "sos", Subsystem: "detector", Name: "triggers_total",
		Help: "Panic gestures recognized.",
	})
	// PipelineRuns counts alert pipeline runs by how far they got.
	PipelineRuns = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "sos", Subsystem: "pipeline", Name: "runs_total",
		Help: "Alert pipeline runs by outcome.",
	}, []string{"outcome"})
	// SMSSends counts individual text message attempts.
	SMSSends = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "sos", Subsystem: "pipeline", Name: "sms_sends_total",
		Help: "SMS dispatch attempts by result.",
	}, []string{"result"})
	// RecordsCreated counts distress record writes.
	RecordsCreated = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "sos", Subsystem: "pipeline", Name: "records_created_total",
		Help: "Distress record writes by result.",
	}, []string{"result"})
	// LocationFixes counts location requests by whether a fix arrived.
	LocationFixes = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "sos", Subsystem: "pipeline", Name: "location_fixes_total",
		Help: "Location fix requests by result.",
	}, []string{"result"})
)

func init() { //nolint:gochecknoinits // Default registry registration.
	prometheus.MustRegister(Toggles, Triggers, PipelineRuns, SMSSends, RecordsCreated, LocationFixes)
}

// Result maps an error to a result label.
func Result(err error) string {
	if err != nil {
		return ResultFailed
	}

	return ResultOK
}
