package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestCollector(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.ObserveToolCall("navigate", "ok", 120*time.Millisecond)
	c.ObserveToolCall("navigate", "ok", 80*time.Millisecond)
	c.ObserveToolCall("navigate", "precondition", time.Millisecond)
	c.SetSessionOpen(true)

	assert.Equal(t, float64(2), testutil.ToFloat64(c.toolCalls.WithLabelValues("navigate", "ok")))
	assert.Equal(t, float64(1), testutil.ToFloat64(c.toolCalls.WithLabelValues("navigate", "precondition")))
	assert.Equal(t, float64(1), testutil.ToFloat64(c.sessionsOpen))
	assert.Equal(t, 1, testutil.CollectAndCount(c.toolDuration))

	c.SetSessionOpen(false)
	assert.Equal(t, float64(0), testutil.ToFloat64(c.sessionsOpen))
}
