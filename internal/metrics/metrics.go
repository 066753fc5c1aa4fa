package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Registry holds all Prometheus metrics.
type Registry struct {
	*prometheus.Registry

	// HTTP metrics
	httpRequestsTotal    *prometheus.CounterVec
	httpRequestDuration  *prometheus.HistogramVec
	httpRequestsInFlight prometheus.Gauge

	// Business metrics
	signalsGenerated *prometheus.CounterVec
	riskDecisions    *prometheus.CounterVec
	tradesTotal      *prometheus.CounterVec
	queueDepth       prometheus.Gauge
	exposure         prometheus.Gauge
	dailyPnL         prometheus.Gauge
	openPositions    prometheus.Gauge
	scanCycles       prometheus.Counter
	scanDuration     prometheus.Histogram
	watchlistSymbols prometheus.Gauge
}

// NewRegistry creates a new metrics registry with all metrics registered.
func NewRegistry() *Registry {
	reg := prometheus.NewRegistry()

	// Register Go runtime metrics
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	r := &Registry{
		Registry: reg,

		httpRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),

		httpRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),

		httpRequestsInFlight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "http_requests_in_flight",
				Help: "Number of HTTP requests currently in flight",
			},
		),
	}

	reg.MustRegister(r.httpRequestsTotal)
	reg.MustRegister(r.httpRequestDuration)
	reg.MustRegister(r.httpRequestsInFlight)

	// Business metrics
	r.signalsGenerated = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pitboss_signals_generated_total",
			Help: "Total number of trading signals generated",
		},
		[]string{"source", "action"},
	)
	r.riskDecisions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pitboss_risk_decisions_total",
			Help: "Total number of risk engine decisions",
		},
		[]string{"outcome"},
	)
	r.tradesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pitboss_trades_total",
			Help: "Total number of trades by final state",
		},
		[]string{"status"},
	)
	r.queueDepth = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "pitboss_queue_depth",
			Help: "Number of trades waiting in the approval queue",
		},
	)
	r.exposure = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "pitboss_exposure_dollars",
			Help: "Current total market exposure in dollars",
		},
	)
	r.dailyPnL = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "pitboss_daily_pnl_dollars",
			Help: "Realized profit and loss for the current trading day",
		},
	)
	r.openPositions = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "pitboss_open_positions",
			Help: "Number of open positions",
		},
	)
	r.scanCycles = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "pitboss_scan_cycles_total",
			Help: "Total number of watchlist scan cycles completed",
		},
	)
	r.scanDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "pitboss_scan_duration_seconds",
			Help:    "Watchlist scan cycle duration in seconds",
			Buckets: []float64{1, 5, 10, 30, 60, 120, 300},
		},
	)
	r.watchlistSymbols = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "pitboss_watchlist_symbols",
			Help: "Number of symbols in the watchlist",
		},
	)

	reg.MustRegister(r.signalsGenerated)
	reg.MustRegister(r.riskDecisions)
	reg.MustRegister(r.tradesTotal)
	reg.MustRegister(r.queueDepth)
	reg.MustRegister(r.exposure)
	reg.MustRegister(r.dailyPnL)
	reg.MustRegister(r.openPositions)
	reg.MustRegister(r.scanCycles)
	reg.MustRegister(r.scanDuration)
	reg.MustRegister(r.watchlistSymbols)

	return r
}

// RecordRequest records metrics for an HTTP request.
func (r *Registry) RecordRequest(method, path string, status int, duration float64) {
	statusStr := statusToString(status)
	r.httpRequestsTotal.WithLabelValues(method, path, statusStr).Inc()
	r.httpRequestDuration.WithLabelValues(method, path).Observe(duration)
}

// InFlightInc increments in-flight requests.
func (r *Registry) InFlightInc() {
	r.httpRequestsInFlight.Inc()
}

// InFlightDec decrements in-flight requests.
func (r *Registry) InFlightDec() {
	r.httpRequestsInFlight.Dec()
}

// RecordSignal records a generated signal.
func (r *Registry) RecordSignal(source, action string) {
	r.signalsGenerated.WithLabelValues(source, action).Inc()
}

// RecordRiskDecision records a risk engine outcome ("approved" or
// "blocked").
func (r *Registry) RecordRiskDecision(outcome string) {
	r.riskDecisions.WithLabelValues(outcome).Inc()
}

// RecordTrade records a trade reaching a final state.
func (r *Registry) RecordTrade(status string) {
	r.tradesTotal.WithLabelValues(status).Inc()
}

// SetQueueDepth sets the current approval queue depth.
func (r *Registry) SetQueueDepth(depth int) {
	r.queueDepth.Set(float64(depth))
}

// SetPortfolio updates the portfolio gauges.
func (r *Registry) SetPortfolio(exposure, dailyPnL float64, openPositions int) {
	r.exposure.Set(exposure)
	r.dailyPnL.Set(dailyPnL)
	r.openPositions.Set(float64(openPositions))
}

// RecordScanCycle records a scan cycle completion.
func (r *Registry) RecordScanCycle(duration float64) {
	r.scanCycles.Inc()
	r.scanDuration.Observe(duration)
}

// SetWatchlistSize sets the watchlist size.
func (r *Registry) SetWatchlistSize(size int) {
	r.watchlistSymbols.Set(float64(size))
}

func statusToString(status int) string {
	switch {
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	case status >= 300:
		return "3xx"
	case status >= 200:
		return "2xx"
	default:
		return "1xx"
	}
}
