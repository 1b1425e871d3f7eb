package observability

import (
	"bytes"
	"io"
	"net/http"
	"strconv"
	"time"
)

// Metrics holds the process counters exposed on /metrics.
type Metrics struct {
	apiRequests  *CounterVec
	apiLatency   *HistogramVec
	apiInflight  *Gauge
	rolls        *CounterVec
	confirms     *CounterVec
	rollRejected *CounterVec
}

func NewMetrics() *Metrics {
	return &Metrics{
		apiRequests:  NewCounterVec("aleator_http_requests_total", "HTTP requests by route and status.", []string{"method", "route", "status"}),
		apiLatency:   NewHistogramVec("aleator_http_request_duration_seconds", "HTTP request latency.", []string{"method", "route"}, nil),
		apiInflight:  NewGauge("aleator_http_inflight_requests", "HTTP requests being served."),
		rolls:        NewCounterVec("aleator_rolls_total", "Rolls created by decision kind.", []string{"kind"}),
		confirms:     NewCounterVec("aleator_roll_confirmations_total", "Confirmed rolls by decision kind and follow-through.", []string{"kind", "followed"}),
		rollRejected: NewCounterVec("aleator_roll_rejections_total", "Roll attempts refused, by error kind.", []string{"reason"}),
	}
}

func (m *Metrics) ObserveAPI(method, route string, status int, dur time.Duration) {
	if m == nil {
		return
	}
	m.apiRequests.Inc(method, route, strconv.Itoa(status))
	m.apiLatency.Observe(dur.Seconds(), method, route)
}

func (m *Metrics) InflightInc() {
	if m != nil {
		m.apiInflight.Add(1)
	}
}

func (m *Metrics) InflightDec() {
	if m != nil {
		m.apiInflight.Add(-1)
	}
}

func (m *Metrics) IncRoll(kind string) {
	if m != nil {
		m.rolls.Inc(kind)
	}
}

func (m *Metrics) IncConfirm(kind string, followed bool) {
	if m != nil {
		m.confirms.Inc(kind, strconv.FormatBool(followed))
	}
}

func (m *Metrics) IncRollRejected(reason string) {
	if m != nil {
		m.rollRejected.Inc(reason)
	}
}

// RollCount is the number of rolls recorded for kind.
func (m *Metrics) RollCount(kind string) float64 {
	if m == nil {
		return 0
	}
	return m.rolls.Value(kind)
}

func (m *Metrics) WriteHTTP(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if m != nil {
		for _, c := range []interface{ WritePrometheus(io.Writer) error }{
			m.apiRequests, m.apiLatency, m.apiInflight, m.rolls, m.confirms, m.rollRejected,
		} {
			if err := c.WritePrometheus(&buf); err != nil {
				http.Error(w, err.Error(), http.StatusInternalServerError)
				return
			}
		}
	}
	w.Header().Set("Content-Type", "text/plain; version=0.0.4")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}
