package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

// Prometheus implementa inventory.Metrics y expone además las métricas HTTP.
type Prometheus struct {
	movements     *prometheus.CounterVec
	rejections    *prometheus.CounterVec
	receipts      *prometheus.CounterVec
	receiptLines  *prometheus.CounterVec
	lockBusy      *prometheus.CounterVec
	httpRequests  *prometheus.CounterVec
	httpLatency   *prometheus.HistogramVec
}

// NewPrometheus crea y registra los colectores en reg.
func NewPrometheus(reg prometheus.Registerer) *Prometheus {
	p := &Prometheus{
		movements: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stock_ledger_movements_total",
				Help: "Movimientos confirmados en el ledger por tipo",
			},
			[]string{"type"},
		),
		rejections: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stock_ledger_adjustments_rejected_total",
				Help: "Ajustes rechazados por motivo",
			},
			[]string{"reason"},
		),
		receipts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stock_ledger_receipts_total",
				Help: "Recepciones de órdenes de compra por estado resultante",
			},
			[]string{"status"},
		),
		receiptLines: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stock_ledger_receipt_lines_total",
				Help: "Líneas aplicadas en recepciones por estado resultante",
			},
			[]string{"status"},
		),
		lockBusy: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stock_ledger_lock_busy_total",
				Help: "Operaciones rechazadas por bloqueo ocupado",
			},
			[]string{"scope"},
		),
		httpRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stock_ledger_http_requests_total",
				Help: "Peticiones HTTP por método, ruta y código",
			},
			[]string{"method", "route", "status"},
		),
		httpLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "stock_ledger_http_request_duration_seconds",
				Help:    "Duración de las peticiones HTTP",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
	}
	reg.MustRegister(p.movements, p.rejections, p.receipts, p.receiptLines, p.lockBusy, p.httpRequests, p.httpLatency)
	return p
}

func (p *Prometheus) MovementRecorded(kind string) { p.movements.WithLabelValues(kind).Inc() }

func (p *Prometheus) AdjustmentRejected(reason string) { p.rejections.WithLabelValues(reason).Inc() }

func (p *Prometheus) ReceiptProcessed(status string, lines int) {
	p.receipts.WithLabelValues(status).Inc()
	p.receiptLines.WithLabelValues(status).Add(float64(lines))
}

func (p *Prometheus) LockBusy(scope string) { p.lockBusy.WithLabelValues(scope).Inc() }

// ObserveHTTP registra una petición ya respondida.
func (p *Prometheus) ObserveHTTP(method, route string, status int, seconds float64) {
	p.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	p.httpLatency.WithLabelValues(method, route).Observe(seconds)
}
