package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics 机尾排班服务的 Prometheus 指标。
// 方法对 nil 接收者安全，测试与未启用指标时可直接传 nil。
type Metrics struct {
	HTTPRequests     *prometheus.CounterVec
	HTTPDuration     *prometheus.HistogramVec
	FetchesTotal     *prometheus.CounterVec // result: applied / stale / failed
	FetchDuration    prometheus.Histogram
	MutationsTotal   *prometheus.CounterVec // op, result: accepted / rejected
	RollbacksTotal   prometheus.Counter
	BoardDuration    prometheus.Histogram
	ConflictsGauge   *prometheus.GaugeVec
	OverflowGauge    prometheus.Gauge
	ActiveWorkspaces prometheus.Gauge
}

// New 创建并注册指标；reg 为 nil 时使用默认注册器
func New(namespace string, reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	m := &Metrics{
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		}, []string{"method", "path", "status"}),
		HTTPDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "Time taken for HTTP requests",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "path"}),
		FetchesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "workspace_fetches_total",
			Help:      "Window fetches by outcome",
		}, []string{"result"}),
		FetchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "workspace_fetch_duration_seconds",
			Help:      "Time taken to fetch a window",
			Buckets:   prometheus.DefBuckets,
		}),
		MutationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "assignment_mutations_total",
			Help:      "Assignment mutations by operation and outcome",
		}, []string{"op", "result"}),
		RollbacksTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "workspace_rollbacks_total",
			Help:      "Optimistic batches rolled back after a rejected write",
		}),
		BoardDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "board_compute_duration_seconds",
			Help:      "Time taken to compute a rotation board",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		}),
		ConflictsGauge: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "board_conflicts",
			Help:      "Conflicts on the last computed board by kind",
		}, []string{"kind"}),
		OverflowGauge: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "board_overflow_occurrences",
			Help:      "Unplaced occurrences on the last computed board",
		}),
		ActiveWorkspaces: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_workspaces",
			Help:      "Number of open planning workspaces",
		}),
	}
	reg.MustRegister(
		m.HTTPRequests, m.HTTPDuration,
		m.FetchesTotal, m.FetchDuration,
		m.MutationsTotal, m.RollbacksTotal,
		m.BoardDuration, m.ConflictsGauge, m.OverflowGauge,
		m.ActiveWorkspaces,
	)
	return m
}

func (m *Metrics) ObserveHTTP(method, path, status string, d time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequests.WithLabelValues(method, path, status).Inc()
	m.HTTPDuration.WithLabelValues(method, path).Observe(d.Seconds())
}

func (m *Metrics) ObserveFetch(result string, d time.Duration) {
	if m == nil {
		return
	}
	m.FetchesTotal.WithLabelValues(result).Inc()
	if d > 0 {
		m.FetchDuration.Observe(d.Seconds())
	}
}

func (m *Metrics) ObserveMutation(op, result string) {
	if m == nil {
		return
	}
	m.MutationsTotal.WithLabelValues(op, result).Inc()
}

func (m *Metrics) ObserveRollback() {
	if m == nil {
		return
	}
	m.RollbacksTotal.Inc()
}

// ObserveBoard 记录一次看板计算；conflicts 为 kind → 数量
func (m *Metrics) ObserveBoard(d time.Duration, conflicts map[string]int, overflow int) {
	if m == nil {
		return
	}
	m.BoardDuration.Observe(d.Seconds())
	m.ConflictsGauge.Reset()
	for kind, n := range conflicts {
		m.ConflictsGauge.WithLabelValues(kind).Set(float64(n))
	}
	m.OverflowGauge.Set(float64(overflow))
}

func (m *Metrics) SetActiveWorkspaces(n int) {
	if m == nil {
		return
	}
	m.ActiveWorkspaces.Set(float64(n))
}
