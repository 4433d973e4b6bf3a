package ledger

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type rpcMetrics struct {
	requests    *prometheus.CounterVec
	latency     *prometheus.HistogramVec
	submissions *prometheus.CounterVec
}

// newRPCMetrics registry 为 nil 时创建未注册的指标
func newRPCMetrics(registry prometheus.Registerer) *rpcMetrics {
	factory := promauto.With(registry)
	return &rpcMetrics{
		requests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "governance_rpc_requests_total",
			Help: "Total number of Solana RPC requests by method and result",
		}, []string{"method", "result"}),
		latency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "governance_rpc_request_duration_seconds",
			Help:    "Latency of Solana RPC requests",
			Buckets: prometheus.ExponentialBuckets(0.005, 2, 12), // 5ms to ~10s
		}, []string{"method"}),
		submissions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "governance_transactions_total",
			Help: "Submitted governance transactions by final result",
		}, []string{"result"}),
	}
}

func (m *rpcMetrics) observe(method string, seconds float64, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.requests.WithLabelValues(method, result).Inc()
	m.latency.WithLabelValues(method).Observe(seconds)
}
