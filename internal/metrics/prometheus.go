package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus metrics for the league engine

var (
	// Season loads
	SeasonLoadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "league_engine_season_loads_total",
			Help: "Total number of season loads",
		},
		[]string{"modality", "status"},
	)

	SeasonLoadDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "league_engine_season_load_duration_seconds",
			Help:    "Duration of season loads in seconds",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5},
		},
		[]string{"modality"},
	)

	TimelineSlots = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "league_engine_timeline_slots",
			Help: "Number of slots in the loaded rating timeline",
		},
	)

	TeamsLoaded = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "league_engine_teams_loaded",
			Help: "Number of teams in the loaded season",
		},
	)

	MatchesRejected = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "league_engine_matches_rejected_total",
			Help: "Total number of match rows the normalizer could not use",
		},
	)

	// Qualified-teams cache
	CacheHitsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "league_engine_qualified_cache_hits_total",
			Help: "Total number of qualified-teams cache hits",
		},
	)

	CacheMissesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "league_engine_qualified_cache_misses_total",
			Help: "Total number of qualified-teams cache misses",
		},
	)

	// Brackets
	BracketBuildsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "league_engine_bracket_builds_total",
			Help: "Total number of bracket builds by outcome",
		},
		[]string{"kind"},
	)

	// MCP tools
	ToolCallsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "league_engine_tool_calls_total",
			Help: "Total number of MCP tool calls",
		},
		[]string{"tool", "status"},
	)

	ToolCallDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "league_engine_tool_call_duration_seconds",
			Help:    "Duration of MCP tool calls in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"tool"},
	)

	// Scheduler
	ScheduledReloadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "league_engine_scheduled_reloads_total",
			Help: "Total number of scheduled reloads",
		},
		[]string{"status"},
	)
)

// RecordSeasonLoad records a season load
func RecordSeasonLoad(modality string, duration time.Duration, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	SeasonLoadsTotal.WithLabelValues(modality, status).Inc()
	SeasonLoadDuration.WithLabelValues(modality).Observe(duration.Seconds())
}

// RecordCache records a qualified-teams cache lookup
func RecordCache(hit bool) {
	if hit {
		CacheHitsTotal.Inc()
		return
	}
	CacheMissesTotal.Inc()
}

// RecordBracket records a bracket build
func RecordBracket(kind string) {
	BracketBuildsTotal.WithLabelValues(kind).Inc()
}

// RecordToolCall records an MCP tool call
func RecordToolCall(tool string, duration time.Duration, failed bool) {
	status := "success"
	if failed {
		status = "error"
	}
	ToolCallsTotal.WithLabelValues(tool, status).Inc()
	ToolCallDuration.WithLabelValues(tool).Observe(duration.Seconds())
}

// RecordScheduledReload records a reload triggered by the scheduler
func RecordScheduledReload(err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	ScheduledReloadsTotal.WithLabelValues(status).Inc()
}
