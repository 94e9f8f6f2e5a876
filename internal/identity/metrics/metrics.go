package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var operationBuckets = []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1}

// Metrics provides observability for the identity registry.
type Metrics struct {
	IdentitiesCreated  prometheus.Counter
	CommitmentsUpdated prometheus.Counter
	IdentitiesRevoked  prometheus.Counter
	ProofsAccepted     prometheus.Counter
	ProofsRejected     *prometheus.CounterVec
	EventPublishFailed *prometheus.CounterVec
	OperationDuration  *prometheus.HistogramVec
}

// New registers identity metrics on reg. Pass prometheus.DefaultRegisterer in main
// and a fresh registry in tests.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		IdentitiesCreated: f.NewCounter(prometheus.CounterOpts{
			Name: "minkyc_identities_created_total",
			Help: "Total number of identities created",
		}),
		CommitmentsUpdated: f.NewCounter(prometheus.CounterOpts{
			Name: "minkyc_commitments_updated_total",
			Help: "Total number of commitment overwrites on fresh identities",
		}),
		IdentitiesRevoked: f.NewCounter(prometheus.CounterOpts{
			Name: "minkyc_identities_revoked_total",
			Help: "Total number of identities revoked",
		}),
		ProofsAccepted: f.NewCounter(prometheus.CounterOpts{
			Name: "minkyc_proofs_accepted_total",
			Help: "Total number of proofs accepted and consumed",
		}),
		ProofsRejected: f.NewCounterVec(prometheus.CounterOpts{
			Name: "minkyc_proofs_rejected_total",
			Help: "Proof submissions rejected, by reason",
		}, []string{"reason"}),
		EventPublishFailed: f.NewCounterVec(prometheus.CounterOpts{
			Name: "minkyc_event_publish_failures_total",
			Help: "Verification events that could not be delivered, by sink",
		}, []string{"sink"}),
		OperationDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "minkyc_identity_operation_duration_seconds",
			Help:    "Duration of identity registry operations",
			Buckets: operationBuckets,
		}, []string{"operation"}),
	}
}

func (m *Metrics) IncrementIdentitiesCreated() {
	if m == nil {
		return
	}
	m.IdentitiesCreated.Inc()
}

func (m *Metrics) IncrementCommitmentsUpdated() {
	if m == nil {
		return
	}
	m.CommitmentsUpdated.Inc()
}

func (m *Metrics) IncrementIdentitiesRevoked() {
	if m == nil {
		return
	}
	m.IdentitiesRevoked.Inc()
}

func (m *Metrics) IncrementProofsAccepted() {
	if m == nil {
		return
	}
	m.ProofsAccepted.Inc()
}

// IncrementProofsRejected records a rejected proof; reason is an error code.
func (m *Metrics) IncrementProofsRejected(reason string) {
	if m == nil {
		return
	}
	m.ProofsRejected.WithLabelValues(reason).Inc()
}

func (m *Metrics) IncrementEventPublishFailed(sink string) {
	if m == nil {
		return
	}
	m.EventPublishFailed.WithLabelValues(sink).Inc()
}

// ObserveOperation records the duration of an operation started at start.
func (m *Metrics) ObserveOperation(operation string, start time.Time) {
	if m == nil {
		return
	}
	m.OperationDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}
