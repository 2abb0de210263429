// Package events publishes value updates of the demo application to Kafka.
package events

import (
	"context"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type Publisher struct {
	writer messageWriter
	topic  string
	logger logrus.FieldLogger
}

func NewKafkaPublisher(brokers []string, topic string, logger logrus.FieldLogger) *Publisher {
	w := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireOne,
		AllowAutoTopicCreation: true,
		WriteTimeout:           10 * time.Second,
	}
	return newPublisher(w, topic, logger)
}

func newPublisher(w messageWriter, topic string, logger logrus.FieldLogger) *Publisher {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Publisher{writer: w, topic: topic, logger: logger}
}

// ValueChanged publishes value keyed by key, so updates of one key stay on
// one partition.
func (p *Publisher) ValueChanged(ctx context.Context, key, value string) error {
	err := p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(key),
		Value: []byte(value),
		Time:  time.Now(),
	})
	if err != nil {
		return fmt.Errorf("publish %q to %s: %w", key, p.topic, err)
	}
	p.logger.WithFields(logrus.Fields{"topic": p.topic, "key": key}).Debug("published value update")
	return nil
}

func (p *Publisher) Close() error {
	return p.writer.Close()
}
