package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetrics_Counters(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.IncrementIdentitiesCreated()
	m.IncrementIdentitiesCreated()
	m.IncrementProofsRejected("proof_already_used")
	m.IncrementEventPublishFailed("kafka")
	m.ObserveOperation("verify_proof", time.Now())

	assert.Equal(t, 2.0, promtest.ToFloat64(m.IdentitiesCreated))
	assert.Equal(t, 1.0, promtest.ToFloat64(m.ProofsRejected.WithLabelValues("proof_already_used")))
	assert.Equal(t, 1.0, promtest.ToFloat64(m.EventPublishFailed.WithLabelValues("kafka")))
	assert.Equal(t, 1, promtest.CollectAndCount(m.OperationDuration))
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.IncrementIdentitiesCreated()
		m.IncrementProofsAccepted()
		m.IncrementEventPublishFailed("log")
		m.ObserveOperation("create_identity", time.Now())
	})
}
