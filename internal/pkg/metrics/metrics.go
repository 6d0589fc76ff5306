// Package metrics 定义并注册 Prometheus 指标。
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	// ViewsRecordedTotal 记录的商品浏览事件总数。
	ViewsRecordedTotal prometheus.Counter

	// SessionMergesTotal 会话归并操作总数。
	SessionMergesTotal prometheus.Counter

	// MergedViewsTotal 归并到用户名下的浏览记录行数。
	MergedViewsTotal prometheus.Counter

	// RecommendationRequestsTotal 推荐请求数，按类型区分 (similar / recommended / popular / recently_viewed)。
	RecommendationRequestsTotal *prometheus.CounterVec

	// RateLimitRejectedTotal 被限流拒绝的请求数，按作用域区分。
	RateLimitRejectedTotal *prometheus.CounterVec

	// StatsRefreshDuration 缓存计数刷新任务的耗时分布。
	StatsRefreshDuration prometheus.Histogram

	initOnce sync.Once
)

// InitMetrics 初始化并注册所有指标。幂等，可在测试中重复调用。
func InitMetrics() {
	initOnce.Do(func() {
		ViewsRecordedTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "minishop_views_recorded_total",
			Help: "Total number of product view events recorded.",
		})
		SessionMergesTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "minishop_session_merges_total",
			Help: "Total number of session-to-user merge operations.",
		})
		MergedViewsTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "minishop_merged_views_total",
			Help: "Total number of view rows reassigned to users by merges.",
		})
		RecommendationRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "minishop_recommendation_requests_total",
			Help: "Total number of recommendation requests by kind.",
		}, []string{"kind"})
		RateLimitRejectedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "minishop_ratelimit_rejected_total",
			Help: "Total number of requests rejected by the rate limiter by scope.",
		}, []string{"scope"})
		StatsRefreshDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "minishop_stats_refresh_duration_seconds",
			Help:    "Duration of denormalized counter refresh runs.",
			Buckets: prometheus.DefBuckets,
		})

		prometheus.MustRegister(
			ViewsRecordedTotal,
			SessionMergesTotal,
			MergedViewsTotal,
			RecommendationRequestsTotal,
			RateLimitRejectedTotal,
			StatsRefreshDuration,
		)
	})
}
