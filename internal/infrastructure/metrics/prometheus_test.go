package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestPrometheus_Counters(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewPrometheus(reg)

	m.MovementRecorded("in")
	m.MovementRecorded("in")
	m.MovementRecorded("out")
	m.AdjustmentRejected("insufficient_stock")
	m.ReceiptProcessed("partially_received", 3)
	m.LockBusy("product")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.movements.WithLabelValues("in")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.movements.WithLabelValues("out")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.rejections.WithLabelValues("insufficient_stock")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.receipts.WithLabelValues("partially_received")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.receiptLines.WithLabelValues("partially_received")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.lockBusy.WithLabelValues("product")))
}

func TestPrometheus_ObserveHTTP(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewPrometheus(reg)

	m.ObserveHTTP("POST", "/api/v1/products/:id/adjustments", 201, 0.01)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.httpRequests.WithLabelValues("POST", "/api/v1/products/:id/adjustments", "201")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.httpLatency))
}
