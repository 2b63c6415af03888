// Package pubsub publishes freshly-applied pool/token/event state to
// a tip broker so downstream consumers can react without polling the
// store, mirroring original_source/src/pubsub/redpanda.rs but over
// github.com/segmentio/kafka-go instead of rdkafka. Publishing is
// fire-and-forget: a broker outage degrades to store-only delivery,
// it never blocks or fails a chain worker's batch.
package pubsub

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/luxfi/dexindexer/internal/observability"
)

const publishTimeout = 100 * time.Millisecond

// Topic names the four message families a chain emits. Messages are
// keyed by pool or token address so a partitioned topic keeps updates
// for the same entity in order.
type Topic string

const (
	TopicEvents       Topic = "events"
	TopicNewPools     Topic = "new_pools"
	TopicPoolStates   Topic = "pool_states"
	TopicTokenStates  Topic = "token_states"
)

// Publisher sends JSON-encoded payloads to per-chain, per-topic-family
// Kafka/Redpanda topics. A Publisher built with Config.Enabled false
// is inert: Publish returns immediately without writing anywhere.
type Publisher struct {
	writers map[Topic]*kafka.Writer
	prefix  string
	log     observability.Logger
	metrics MetricsRecorder
	enabled bool
}

// MetricsRecorder is the narrow slice of internal/metrics.Registry a
// Publisher needs, kept as an interface so pubsub doesn't import
// metrics directly.
type MetricsRecorder interface {
	ObservePublish(topic string, ok bool)
}

// Config configures broker connectivity. Brokers is a comma-separated
// list of host:port addresses.
type Config struct {
	Enabled     bool
	Brokers     string
	TopicPrefix string
}

// New constructs a Publisher. When cfg.Enabled is false the returned
// Publisher discards every Publish call.
func New(cfg Config, metrics MetricsRecorder) *Publisher {
	p := &Publisher{
		prefix:  cfg.TopicPrefix,
		log:     observability.New("pubsub"),
		metrics: metrics,
		enabled: cfg.Enabled,
	}
	if !cfg.Enabled {
		return p
	}

	brokers := strings.Split(cfg.Brokers, ",")
	p.writers = make(map[Topic]*kafka.Writer, 4)
	for _, topic := range []Topic{TopicEvents, TopicNewPools, TopicPoolStates, TopicTokenStates} {
		p.writers[topic] = &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        "", // set per-message below; base topic name varies by chain
			Balancer:     &kafka.Hash{},
			BatchTimeout: 10 * time.Millisecond,
			RequiredAcks: kafka.RequireOne,
			Async:        true,
		}
	}
	return p
}

func (p *Publisher) topicName(topic Topic, chainID uint64) string {
	return fmt.Sprintf("%s.%s.%d", p.prefix, topic, chainID)
}

// Publish fire-and-forgets payload (marshaled as JSON) to the
// chain/topic-family's Kafka topic, keyed by key (typically a pool or
// token address). Errors are logged, never returned to the caller: a
// chain worker must not stall or abort a batch because the tip broker
// is unreachable.
func (p *Publisher) Publish(ctx context.Context, topic Topic, chainID uint64, key string, payload any) {
	if !p.enabled {
		return
	}
	writer, ok := p.writers[topic]
	if !ok {
		return
	}

	data, err := json.Marshal(payload)
	if err != nil {
		p.log.Warn("pubsub: marshal failed", "topic", topic, "err", err)
		p.recordFailure(topic)
		return
	}

	sendCtx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	msg := kafka.Message{
		Topic: p.topicName(topic, chainID),
		Key:   []byte(key),
		Value: data,
		Time:  time.Now(),
	}

	if err := writer.WriteMessages(sendCtx, msg); err != nil {
		p.log.Warn("pubsub: publish failed", "topic", topic, "chain_id", strconv.FormatUint(chainID, 10), "err", err)
		p.recordFailure(topic)
		return
	}
	p.recordSuccess(topic)
}

func (p *Publisher) recordSuccess(topic Topic) {
	if p.metrics != nil {
		p.metrics.ObservePublish(string(topic), true)
	}
}

func (p *Publisher) recordFailure(topic Topic) {
	if p.metrics != nil {
		p.metrics.ObservePublish(string(topic), false)
	}
}

// Close flushes and closes every broker connection.
func (p *Publisher) Close() error {
	if !p.enabled {
		return nil
	}
	var firstErr error
	for _, w := range p.writers {
		if err := w.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
