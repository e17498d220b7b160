// Package metrics exposes prometheus collectors for the behavior subsystem.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// BehaviorMetrics exposes counters/histograms for profile computation and
// recommendation runs. A nil receiver is a no-op so callers can skip wiring
// in tests.
type BehaviorMetrics struct {
	profileBuilds   *prometheus.CounterVec
	buildLatency    prometheus.Histogram
	cacheLookups    *prometheus.CounterVec
	recommendations *prometheus.CounterVec
}

func NewBehaviorMetrics(reg prometheus.Registerer) *BehaviorMetrics {
	m := &BehaviorMetrics{
		profileBuilds: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "portal",
			Subsystem: "behavior",
			Name:      "profile_builds_total",
			Help:      "Total behavior profile computations",
		}, []string{"status"}),
		buildLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "portal",
			Subsystem: "behavior",
			Name:      "profile_build_seconds",
			Help:      "Latency of behavior profile computation",
			Buckets:   prometheus.DefBuckets,
		}),
		cacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "portal",
			Subsystem: "behavior",
			Name:      "profile_cache_lookups_total",
			Help:      "Profile cache lookups by outcome",
		}, []string{"outcome"}),
		recommendations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "portal",
			Subsystem: "behavior",
			Name:      "recommendations_total",
			Help:      "Recommendations emitted by type",
		}, []string{"type"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.profileBuilds, m.buildLatency, m.cacheLookups, m.recommendations)
	return m
}

func (m *BehaviorMetrics) ObserveProfileBuild(status string, seconds float64) {
	if m == nil {
		return
	}
	m.profileBuilds.WithLabelValues(status).Inc()
	if status == "ok" {
		m.buildLatency.Observe(seconds)
	}
}

func (m *BehaviorMetrics) ObserveProfileCache(hit bool) {
	if m == nil {
		return
	}
	outcome := "miss"
	if hit {
		outcome = "hit"
	}
	m.cacheLookups.WithLabelValues(outcome).Inc()
}

func (m *BehaviorMetrics) ObserveRecommendation(recType string) {
	if m == nil {
		return
	}
	m.recommendations.WithLabelValues(recType).Inc()
}
