package monitor

import (
	"context"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

// Config structure
type Config struct {
	Enabled bool   `mapstructure:"enabled"`
	Host    string `mapstructure:"host"`
	Port    int    `mapstructure:"port"`
}

var (
	TokensIssued = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "economy_tokens_issued_total",
		Help: "Tokens issued into pools",
	}, []string{"space"})
	TokensBurned = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "economy_tokens_burned_total",
		Help: "Tokens burned from circulating supply",
	}, []string{"space"})
	TokensCollected = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "economy_tokens_collected_total",
		Help: "Tokens reclaimed by threshold collection",
	}, []string{"space"})
	RewardsDistributed = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "economy_rewards_distributed_total",
		Help: "Rewards paid out of the reward pool",
	}, []string{"space"})
	TransactionCount = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "economy_transaction_count",
		Help: "Ledger transactions by kind and status",
	}, []string{"kind", "status"})
	VotesCast = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "economy_votes_cast_total",
		Help: "Governance votes cast",
	}, []string{"choice"})
	AiDecisionsGated = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "economy_ai_decisions_gated_total",
		Help: "AI decisions routed to human review",
	}, []string{"decision_type"})
	PoolHealthCheckFailures = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "economy_pool_health_check_failures_total",
		Help: "Supply conservation check failures",
	})
)

func init() {
	prometheus.MustRegister(TokensIssued)
	prometheus.MustRegister(TokensBurned)
	prometheus.MustRegister(TokensCollected)
	prometheus.MustRegister(RewardsDistributed)
	prometheus.MustRegister(TransactionCount)
	prometheus.MustRegister(VotesCast)
	prometheus.MustRegister(AiDecisionsGated)
	prometheus.MustRegister(PoolHealthCheckFailures)
}

var metricsServer *http.Server

// LoopProfilingServer serves the prometheus metrics endpoint until shutdown
func LoopProfilingServer(cfg Config) {
	if !cfg.Enabled {
		return
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	metricsServer = &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler: mux,
	}
	log.Info().Str("section", "monitor").Str("addr", metricsServer.Addr).Msg("Metrics server started")
	if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error().Err(err).Str("section", "monitor").Msg("Metrics server stopped unexpectedly")
	}
}

// ShutdownServer stops the metrics endpoint
func ShutdownServer() {
	if metricsServer == nil {
		return
	}
	if err := metricsServer.Shutdown(context.Background()); err != nil {
		log.Error().Err(err).Str("section", "monitor").Msg("Unable to shutdown metrics server")
	}
}
