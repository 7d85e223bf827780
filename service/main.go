package service

import (
	"context"
	"encoding/json"

	"github.com/rs/zerolog/log"
	kafkaGo "github.com/segmentio/kafka-go"
	"gitlab.com/sfr-tokyo/economy_api/cache/idempotency"
	"gitlab.com/sfr-tokyo/economy_api/config"
	"gitlab.com/sfr-tokyo/economy_api/crons"
	"gitlab.com/sfr-tokyo/economy_api/net/kafka"
	"gitlab.com/sfr-tokyo/economy_api/net/redis"
	"gitlab.com/sfr-tokyo/economy_api/queries"
	"gitlab.com/sfr-tokyo/economy_api/service/ledger"
)

// Service structure
type Service struct {
	ctx      context.Context
	cfg      config.Config
	repo     *queries.Repo
	redis    *redis.Client
	producer kafka.KafkaProducer

	Ledger *ledger.LedgerEngine
}

// NewService constructor
func NewService(ctx context.Context, cfg config.Config) *Service {
	// connect to the database
	repo := queries.NewRepo(
		cfg.DatabaseCluster.Writer,
		cfg.DatabaseCluster.Reader,
	)

	ledgerEngine := ledger.Init(repo, ctx)
	if err := ledgerEngine.InitAccounts(); err != nil {
		log.Fatal().Err(err).Str("section", "ledger").Msg("Unable to init account ledgers")
	} else {
		log.Warn().Str("section", "ledger").Msg("Account ledgers loaded successfully")
	}

	redisClient := redis.NewClient(cfg.Redis)
	if err := redisClient.Connect(); err != nil {
		log.Error().Err(err).Str("section", "service").Msg("Unable to connect to redis, idempotency falls back to local store")
	} else {
		idempotency.Init(redisClient)
	}

	var producer kafka.KafkaProducer
	if topic, ok := cfg.Kafka.Topics["economy_events"]; ok && len(cfg.Kafka.Brokers) > 0 {
		producer = kafka.NewKafkaProducer(cfg.Kafka.Writer, cfg.Kafka.Brokers, cfg.Kafka.UseTLS, topic)
	}

	return &Service{
		ctx:      ctx,
		cfg:      cfg,
		repo:     repo,
		redis:    redisClient,
		producer: producer,
		Ledger:   ledgerEngine,
	}
}

// GetRepo godoc
func (s *Service) GetRepo() *queries.Repo {
	return s.repo
}

// GetConfig godoc
func (s *Service) GetConfig() config.Config {
	return s.cfg
}

// Start the background jobs
func (s *Service) Start() {
	crons.Start(s.cfg.Crons, s)
}

// CloseCrons godoc
func (s *Service) CloseCrons() {
	crons.Close()
}

func (s *Service) Close() {
	if s.producer != nil {
		if err := s.producer.Close(); err != nil {
			log.Error().Err(err).Str("section", "service").Msg("Unable to close kafka producer")
		}
	}
	if err := s.redis.Disconnect(); err != nil {
		log.Error().Err(err).Str("section", "service").Msg("Unable to close redis connection")
	}
}

// publishEvent pushes a domain event on the economy events topic. Events are
// best effort; the ledger write has already committed.
func (s *Service) publishEvent(kind string, payload interface{}) {
	if s.producer == nil {
		return
	}
	value, err := json.Marshal(payload)
	if err != nil {
		log.Error().Err(err).Str("section", "service").Str("event", kind).Msg("Unable to encode event")
		return
	}
	if err := s.producer.WriteMessages(s.ctx, kafkaGo.Message{Key: []byte(kind), Value: value}); err != nil {
		log.Error().Err(err).Str("section", "service").Str("event", kind).Msg("Unable to publish event")
	}
}
