// Package kafka publishes audit events to a Kafka topic, keyed by actor so a
// single actor's trail stays ordered within a partition.
package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kerr"
	"github.com/twmb/franz-go/pkg/kgo"

	"journey/internal/audit"
)

// Store implements audit.Store on a Kafka producer.
type Store struct {
	client *kgo.Client
	topic  string
}

func New(brokers []string, topic string) (*Store, error) {
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.DefaultProduceTopic(topic),
		kgo.ProducerBatchCompression(kgo.SnappyCompression()),
	)
	if err != nil {
		return nil, fmt.Errorf("create kafka client: %w", err)
	}
	return &Store{client: client, topic: topic}, nil
}

// EnsureTopic creates the audit topic when it does not exist yet.
func (s *Store) EnsureTopic(ctx context.Context, partitions int32, replicas int16) error {
	admin := kadm.NewClient(s.client)
	resp, err := admin.CreateTopic(ctx, partitions, replicas, nil, s.topic)
	if err != nil {
		return fmt.Errorf("create topic %s: %w", s.topic, err)
	}
	if resp.Err != nil && !errors.Is(resp.Err, kerr.TopicAlreadyExists) {
		return fmt.Errorf("create topic %s: %w", s.topic, resp.Err)
	}
	return nil
}

// payload is the JSON structure published to the topic.
type payload struct {
	ID           string `json:"id"`
	ActorID      string `json:"actorId"`
	EventType    string `json:"eventType"`
	ClientIP     string `json:"clientIp,omitempty"`
	ResourcePath string `json:"resourcePath,omitempty"`
	RequestID    string `json:"requestId,omitempty"`
	Timestamp    string `json:"timestamp"`
}

// Append produces one audit event synchronously so the worker's breaker sees
// broker failures.
func (s *Store) Append(ctx context.Context, event audit.Event) error {
	value, err := json.Marshal(payload{
		ID:           event.ID.String(),
		ActorID:      event.ActorID,
		EventType:    string(event.EventType),
		ClientIP:     event.ClientIP,
		ResourcePath: event.ResourcePath,
		RequestID:    event.RequestID,
		Timestamp:    event.Timestamp.Format(time.RFC3339Nano),
	})
	if err != nil {
		return fmt.Errorf("marshal audit payload: %w", err)
	}

	record := &kgo.Record{
		Topic: s.topic,
		Key:   []byte(event.ActorID),
		Value: value,
	}
	if err := s.client.ProduceSync(ctx, record).FirstErr(); err != nil {
		return fmt.Errorf("produce audit event: %w", err)
	}
	return nil
}

func (s *Store) Close() {
	s.client.Close()
}
