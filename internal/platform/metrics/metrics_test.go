package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestObserveRequest(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.ObserveRequest("GET", "/registry/admin", 200, time.Now())
	m.ObserveRequest("GET", "/registry/admin", 200, time.Now())
	m.ObserveRequest("PUT", "/registry/admin", 403, time.Now())

	assert.Equal(t, 2.0, testutil.ToFloat64(m.RequestsTotal.WithLabelValues("GET", "/registry/admin", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RequestsTotal.WithLabelValues("PUT", "/registry/admin", "403")))
	assert.Equal(t, 2, testutil.CollectAndCount(m.RequestDuration))
}
