package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestNewRegistersWithoutPanic(t *testing.T) {
	r := New()
	assert.NotNil(t, r.Registerer())
}

func TestObservePublishRecordsSuccessAndFailure(t *testing.T) {
	r := New()

	r.ObservePublish("events", true)
	r.ObservePublish("events", false)
	r.ObservePublish("events", false)

	assert.Equal(t, float64(1), testutil.ToFloat64(r.PubsubPublishes.WithLabelValues("events")))
	assert.Equal(t, float64(2), testutil.ToFloat64(r.PubsubFailures.WithLabelValues("events")))
}

func TestActiveWorkersGaugeSettable(t *testing.T) {
	r := New()
	r.ActiveWorkers.Set(3)
	assert.Equal(t, float64(3), testutil.ToFloat64(r.ActiveWorkers))
}
