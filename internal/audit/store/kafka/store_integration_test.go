//go:build integration

package kafka

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twmb/franz-go/pkg/kgo"

	"journey/internal/audit"
	"journey/pkg/testutil/containers"
)

func Test_Store_ProducesAuditEvents(t *testing.T) {
	rp := containers.NewRedpandaContainer(t)

	store, err := New(rp.Brokers, "journey.audit.test")
	require.NoError(t, err)
	t.Cleanup(store.Close)

	ctx := context.Background()
	require.NoError(t, store.EnsureTopic(ctx, 1, 1))
	// Creating an existing topic is a no-op.
	require.NoError(t, store.EnsureTopic(ctx, 1, 1))

	event := audit.Event{
		ID:           uuid.New(),
		ActorID:      "user-1",
		EventType:    audit.EventInvalidSignature,
		ClientIP:     "203.0.113.9",
		ResourcePath: "/api/data",
		RequestID:    "corr-9",
		Timestamp:    time.Now().UTC(),
	}
	require.NoError(t, store.Append(ctx, event))

	consumer, err := kgo.NewClient(
		kgo.SeedBrokers(rp.Brokers...),
		kgo.ConsumeTopics("journey.audit.test"),
		kgo.ConsumeResetOffset(kgo.NewOffset().AtStart()),
	)
	require.NoError(t, err)
	t.Cleanup(consumer.Close)

	pollCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()
	fetches := consumer.PollFetches(pollCtx)
	require.NoError(t, fetches.Err())

	records := fetches.Records()
	require.Len(t, records, 1)
	assert.Equal(t, []byte("user-1"), records[0].Key)

	var got map[string]any
	require.NoError(t, json.Unmarshal(records[0].Value, &got))
	assert.Equal(t, event.ID.String(), got["id"])
	assert.Equal(t, "INVALID_SIGNATURE", got["eventType"])
	assert.Equal(t, "corr-9", got["requestId"])
}
