package services

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/social-graph/social-graph/pkg/errs"
)

var (
	graphOpsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "social_graph_operations_total",
		Help: "Follow graph mutations by operation and result",
	}, []string{"op", "result"})

	engagementOpsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "social_engagement_operations_total",
		Help: "Like, comment and bookmark operations by result",
	}, []string{"op", "result"})

	messagingOpsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "social_messaging_operations_total",
		Help: "Direct message operations by result",
	}, []string{"op", "result"})

	feedCacheTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "social_feed_cache_total",
		Help: "Feed cache lookups by result",
	}, []string{"result"}) // hit, miss, error

	feedAssemblyDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "social_feed_assembly_duration_seconds",
		Help:    "Time spent assembling a feed from the store",
		Buckets: prometheus.ExponentialBuckets(0.001, 2, 12),
	})

	feedSize = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "social_feed_size",
		Help:    "Number of posts returned per feed request",
		Buckets: []float64{0, 1, 5, 10, 25, 50, 100, 200},
	})

	counterDriftFixedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "social_counter_drift_fixed_total",
		Help: "Denormalized counter rows corrected by reconciliation",
	}, []string{"kind"}) // post, user
)

// resultLabel 把错误映射成指标标签
func resultLabel(err error) string {
	if err == nil {
		return "ok"
	}
	return errs.ErrorCode(err)
}
