package kafka

import (
	"context"
	"time"

	"github.com/segmentio/kafka-go"
)

const DefaultPublishTimeout = 3 * time.Second

// Producer writes to a single topic. Each Publish is one synchronous attempt
// bounded by the producer timeout; there is no retry and no buffering.
type Producer struct {
	w       *kafka.Writer
	timeout time.Duration
}

func NewProducer(brokers []string, topic string, timeout time.Duration) *Producer {
	if timeout <= 0 {
		timeout = DefaultPublishTimeout
	}
	return &Producer{
		w: &kafka.Writer{
			Addr:                   kafka.TCP(brokers...),
			Topic:                  topic,
			Balancer:               &kafka.Hash{},
			RequiredAcks:           kafka.RequireAll,
			MaxAttempts:            1,
			BatchSize:              1,
			WriteTimeout:           timeout,
			ReadTimeout:            timeout,
			AllowAutoTopicCreation: true,
			Transport:              &kafka.Transport{DialTimeout: timeout},
		},
		timeout: timeout,
	}
}

func (p *Producer) Topic() string { return p.w.Topic }

func (p *Producer) Publish(ctx context.Context, key, value []byte, headers ...kafka.Header) error {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()
	return p.w.WriteMessages(ctx, kafka.Message{
		Key:     key,
		Value:   value,
		Time:    time.Now(),
		Headers: headers,
	})
}

func (p *Producer) Close() error { return p.w.Close() }
