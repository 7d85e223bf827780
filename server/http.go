package server

import (
	"fmt"
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"gitlab.com/sfr-tokyo/economy_api/actions"
	"gitlab.com/sfr-tokyo/economy_api/logger"
)

func (srv *server) ListenToRequests() {
	log.Info().Str("worker", "http_listen_to_requests").Str("action", "start").Msg("HTTP Listen to requests - started")
	defer log.Info().Str("worker", "http_listen_to_requests").Str("action", "stop").Msg("1 => HTTP Listen to requests - stopped")

	a := srv.actions

	r := gin.New()

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowCredentials = true
	corsConfig.AllowAllOrigins = true
	corsConfig.AllowHeaders = []string{"Origin", "X-Requested-With", "Content-Length", "Content-Type", "Accept", "X-User-ID", "X-Idempotency-Key"}
	corsConfig.AllowMethods = []string{"GET", "PUT", "POST", "DELETE", "PATCH", "OPTIONS"}

	r.Use(cors.New(corsConfig)) // Allow requests from anywhere
	r.Use(gin.Recovery())       // Recovery middleware recovers from any panics and writes a 500 if there was one.

	r.Use(logger.SetLogger())
	r.Use(a.Identify())

	// setup all routes
	{
		r.GET("/ping", actions.Ping)
		r.GET("/pools", a.GetTokenPools)
	}

	space := r.Group("/spaces/:space_id")

	pool := space.Group("/pool")
	{
		pool.GET("", a.GetTokenPool)
		pool.POST("", a.RequireUser(), a.CreateTokenPool)
		pool.POST("/issue", a.RequireUser(), a.IssueTokens)
		pool.GET("/health", a.CheckPoolHealth)
	}

	balances := space.Group("/balances")
	{
		balances.GET("", a.GetUserBalances)
		balances.GET("/:user_id", a.GetUserBalance)
		balances.GET("/:user_id/history", a.GetBalanceHistory)
		balances.POST("/:user_id/adjust", a.RequireUser(), a.AdjustBalance)
		balances.POST("/:user_id/freeze", a.RequireUser(), a.FreezeAccount)
		balances.POST("/:user_id/unfreeze", a.RequireUser(), a.UnfreezeAccount)
		balances.POST("/:user_id/collection-exempt", a.RequireUser(), a.SetCollectionExempt)
	}

	space.POST("/transfers", a.RequireUser(), a.Transfer)
	space.POST("/purchases", a.RequireUser(), a.PurchasePoints)

	collections := space.Group("/collections")
	{
		collections.GET("", a.GetCollections)
		collections.GET("/:collection_id", a.GetCollection)
		collections.POST("/scan", a.RequireUser(), a.ScanCollectionTargets)
		collections.POST("/:collection_id/approve", a.RequireUser(), a.ApproveCollection)
		collections.POST("/:collection_id/execute", a.RequireUser(), a.ExecuteCollection)
		collections.POST("/:collection_id/cancel", a.RequireUser(), a.CancelCollection)
		collections.POST("/:collection_id/appeal", a.RequireUser(), a.SubmitCollectionAppeal)
		collections.POST("/:collection_id/appeal/resolve", a.RequireUser(), a.ResolveCollectionAppeal)
	}

	burns := space.Group("/burns")
	{
		burns.GET("", a.GetBurnDecisions)
		burns.GET("/:decision_id", a.GetBurnDecision)
		burns.POST("", a.RequireUser(), a.ProposeBurn)
		burns.POST("/:decision_id/votes", a.RequireUser(), a.VoteOnBurn)
		burns.POST("/:decision_id/approve", a.RequireUser(), a.ApproveBurn)
		burns.POST("/:decision_id/schedule", a.RequireUser(), a.ScheduleBurn)
		burns.POST("/:decision_id/execute", a.RequireUser(), a.ExecuteBurn)
		burns.POST("/:decision_id/cancel", a.RequireUser(), a.CancelBurn)
		burns.POST("/:decision_id/rollback", a.RequireUser(), a.RollbackBurn)
	}

	proposals := space.Group("/proposals")
	{
		proposals.GET("", a.GetProposals)
		proposals.GET("/:proposal_id", a.GetProposal)
		proposals.POST("", a.RequireUser(), a.CreateProposal)
		proposals.POST("/:proposal_id/submit", a.RequireUser(), a.SubmitProposal)
		proposals.POST("/:proposal_id/review", a.RequireUser(), a.ReviewProposal)
		proposals.POST("/:proposal_id/start-voting", a.RequireUser(), a.StartProposalVoting)
		proposals.GET("/:proposal_id/votes", a.GetVotes)
		proposals.POST("/:proposal_id/votes", a.RequireUser(), a.CastVote)
		proposals.PUT("/:proposal_id/votes", a.RequireUser(), a.ChangeVote)
		proposals.POST("/:proposal_id/execute", a.RequireUser(), a.ExecuteProposal)
		proposals.POST("/:proposal_id/cancel", a.RequireUser(), a.CancelProposal)
	}

	rewards := space.Group("/rewards")
	{
		rewards.GET("", a.GetRewards)
		rewards.GET("/:reward_id", a.GetReward)
		rewards.POST("", a.RequireUser(), a.GrantReward)
		rewards.POST("/:reward_id/approve", a.RequireUser(), a.ApproveReward)
		rewards.POST("/:reward_id/process", a.RequireUser(), a.ProcessReward)
		rewards.POST("/:reward_id/cancel", a.RequireUser(), a.CancelReward)
	}

	aiDecisions := space.Group("/ai-decisions")
	{
		aiDecisions.GET("", a.GetAiDecisions)
		aiDecisions.GET("/pending-reviews", a.GetPendingReviewDecisions)
		aiDecisions.GET("/:decision_id", a.GetAiDecision)
		aiDecisions.POST("", a.RequireUser(), a.LogAiDecision)
		aiDecisions.POST("/:decision_id/review", a.RequireUser(), a.StartAiReview)
		aiDecisions.POST("/:decision_id/review/complete", a.RequireUser(), a.CompleteAiReview)
		aiDecisions.POST("/:decision_id/execute", a.RequireUser(), a.ExecuteAiDecision)
		aiDecisions.POST("/:decision_id/cancel", a.RequireUser(), a.CancelAiDecision)
		aiDecisions.POST("/:decision_id/feedback", a.RequireUser(), a.RecordAiFeedback)
	}

	transactions := space.Group("/transactions")
	{
		transactions.GET("", a.GetTransactions)
		transactions.GET("/:transaction_id", a.GetTransaction)
		transactions.POST("/:transaction_id/retry", a.RequireUser(), a.RetryTransaction)
		transactions.POST("/:transaction_id/cancel", a.RequireUser(), a.CancelTransaction)
		transactions.POST("/:transaction_id/reverse", a.RequireUser(), a.ReverseTransaction)
	}

	srv.HTTP = &http.Server{
		Addr:    fmt.Sprintf(":%d", srv.config.Server.API.Port),
		Handler: r,
	}

	srv.HTTP.SetKeepAlivesEnabled(srv.config.Server.API.KeepAlive)

	port := srv.config.Server.API.Port
	httpServer := srv.HTTP
	if err := httpServer.ListenAndServe(); err != nil {
		if err != http.ErrServerClosed {
			log.Error().Err(err).Str("section", "server").Str("action", "ListenToRequests").Msgf("Unable to listen %d port", port)
		}
	}
}
