//go:build integration

package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"journey/internal/audit"
	"journey/pkg/testutil/containers"
)

func Test_Store_AppendAndList(t *testing.T) {
	pg := containers.NewPostgresContainer(t)
	store := New(pg.DB)

	ctx := context.Background()
	require.NoError(t, store.EnsureSchema(ctx))

	event := audit.Event{
		ID:           uuid.New(),
		ActorID:      "user-1",
		EventType:    audit.EventAuthSuccess,
		ClientIP:     "203.0.113.9",
		ResourcePath: "/api/users/profile/user-1",
		RequestID:    "corr-1",
		Timestamp:    time.Now().UTC().Truncate(time.Microsecond),
	}
	require.NoError(t, store.Append(ctx, event))

	// Retried appends of the same event must not duplicate.
	require.NoError(t, store.Append(ctx, event))

	events, err := store.ListByActor(ctx, "user-1", 10)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, event.ID, events[0].ID)
	assert.Equal(t, audit.EventAuthSuccess, events[0].EventType)
	assert.Equal(t, "203.0.113.9", events[0].ClientIP)
	assert.Equal(t, "corr-1", events[0].RequestID)
	assert.WithinDuration(t, event.Timestamp, events[0].Timestamp, time.Millisecond)
}

func Test_Store_ListRecentOrdering(t *testing.T) {
	pg := containers.NewPostgresContainer(t)
	store := New(pg.DB)

	ctx := context.Background()
	require.NoError(t, store.EnsureSchema(ctx))

	base := time.Now().UTC().Truncate(time.Microsecond)
	for i := 0; i < 3; i++ {
		require.NoError(t, store.Append(ctx, audit.Event{
			ID:        uuid.New(),
			ActorID:   "user-2",
			EventType: audit.EventTokenExpired,
			Timestamp: base.Add(time.Duration(i) * time.Second),
		}))
	}

	events, err := store.ListRecent(ctx, 2)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.True(t, events[0].Timestamp.After(events[1].Timestamp))
}
