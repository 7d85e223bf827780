package kafka

import (
	"context"
	"crypto/tls"
	"time"

	kafkaGo "github.com/segmentio/kafka-go"
)

// Config structure
type Config struct {
	Brokers []string          `mapstructure:"brokers"`
	UseTLS  bool              `mapstructure:"use_tls"`
	Writer  WriterConfig      `mapstructure:"writer"`
	Topics  map[string]string `mapstructure:"topics"`
}

// WriterConfig structure
type WriterConfig struct {
	BatchSize    int `mapstructure:"batch_size"`
	BatchTimeout int `mapstructure:"batch_timeout"`
	RequiredAcks int `mapstructure:"required_acks"`
}

// KafkaProducer is a minimal publishing interface over a topic writer
type KafkaProducer interface {
	WriteMessages(ctx context.Context, msgs ...kafkaGo.Message) error
	Close() error
}

type producer struct {
	writer *kafkaGo.Writer
}

// NewKafkaProducer creates a writer bound to a single topic
func NewKafkaProducer(cfg WriterConfig, brokers []string, useTLS bool, topic string) KafkaProducer {
	dialer := &kafkaGo.Dialer{
		Timeout:   10 * time.Second,
		DualStack: true,
	}
	if useTLS {
		dialer.TLS = &tls.Config{}
	}
	batchTimeout := time.Duration(cfg.BatchTimeout) * time.Millisecond
	if batchTimeout == 0 {
		batchTimeout = 10 * time.Millisecond
	}
	writer := kafkaGo.NewWriter(kafkaGo.WriterConfig{
		Brokers:      brokers,
		Topic:        topic,
		Dialer:       dialer,
		BatchSize:    cfg.BatchSize,
		BatchTimeout: batchTimeout,
		RequiredAcks: cfg.RequiredAcks,
		Balancer:     &kafkaGo.LeastBytes{},
	})
	return &producer{writer: writer}
}

func (p *producer) WriteMessages(ctx context.Context, msgs ...kafkaGo.Message) error {
	return p.writer.WriteMessages(ctx, msgs...)
}

func (p *producer) Close() error {
	return p.writer.Close()
}
