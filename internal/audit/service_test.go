package audit_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	promtestutil "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"golang.org/x/sync/errgroup"

	"journey/internal/audit"
	"journey/internal/audit/mocks"
	"journey/internal/audit/store/memory"
	"journey/pkg/requestcontext"
)

func Test_Service_LogSecurityEvent_FillsEventFromContext(t *testing.T) {
	svc := audit.NewService(16, nil, nil)

	now := time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)
	ctx := requestcontext.WithCorrelationID(context.Background(), "corr-1")
	ctx = requestcontext.WithTime(ctx, now)

	svc.LogSecurityEvent(ctx, "user-1", audit.EventAuthSuccess, "203.0.113.9", "/api/users/profile/user-1")

	batch := svc.Buffer().DequeueBatch(10)
	require.Len(t, batch, 1)
	event := batch[0]
	assert.NotEqual(t, "00000000-0000-0000-0000-000000000000", event.ID.String())
	assert.Equal(t, "user-1", event.ActorID)
	assert.Equal(t, audit.EventAuthSuccess, event.EventType)
	assert.Equal(t, "203.0.113.9", event.ClientIP)
	assert.Equal(t, "/api/users/profile/user-1", event.ResourcePath)
	assert.Equal(t, "corr-1", event.RequestID)
	assert.Equal(t, now, event.Timestamp)
}

func Test_Service_LogSecurityEvent_NeverBlocks(t *testing.T) {
	svc := audit.NewService(2, nil, nil)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 100; i++ {
			svc.LogSecurityEvent(context.Background(), "user-1", audit.EventAuthFailure, "", "/p")
		}
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("emission blocked on a full buffer")
	}
	assert.Equal(t, 2, svc.Buffer().Len())
	assert.Equal(t, int64(98), svc.Buffer().Dropped())
}

func Test_Service_ConcurrentEmitters(t *testing.T) {
	svc := audit.NewService(1024, nil, nil)

	var g errgroup.Group
	for i := 0; i < 8; i++ {
		g.Go(func() error {
			for j := 0; j < 50; j++ {
				svc.LogSecurityEvent(context.Background(), "user", audit.EventAuthSuccess, "", "/p")
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())
	assert.Equal(t, 400, svc.Buffer().Len())
}

func Test_Worker_FlushPersistsToStore(t *testing.T) {
	svc := audit.NewService(16, nil, nil)
	store := memory.New()
	worker := audit.NewWorker(svc.Buffer(), store, nil, nil, nil, time.Second, 4)

	for i := 0; i < 10; i++ {
		svc.LogSecurityEvent(context.Background(), "user-1", audit.EventTokenExpired, "", "/api/x")
	}
	worker.Flush(context.Background())

	assert.Len(t, store.Events(), 10)
	assert.Equal(t, 0, svc.Buffer().Len())
}

func Test_Worker_StoreFailureIsSwallowed(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := mocks.NewMockStore(ctrl)
	store.EXPECT().Append(gomock.Any(), gomock.Any()).Return(errors.New("store down")).Times(3)

	buffer := audit.NewRingBuffer(16)
	metrics := audit.NewMetricsWith(prometheus.NewRegistry())
	worker := audit.NewWorker(buffer, store, nil, metrics, nil, time.Second, 8)

	for i := 0; i < 3; i++ {
		buffer.Enqueue(audit.Event{ActorID: "user-1", EventType: audit.EventAuthFailure})
	}
	worker.Flush(context.Background())

	assert.Equal(t, 0, buffer.Len())
}

func Test_Worker_ReportsBufferDrops(t *testing.T) {
	metrics := audit.NewMetricsWith(prometheus.NewRegistry())
	svc := audit.NewService(2, nil, metrics)
	worker := audit.NewWorker(svc.Buffer(), memory.New(), nil, metrics, nil, time.Second, 8)

	for i := 0; i < 5; i++ {
		svc.LogSecurityEvent(context.Background(), "user-1", audit.EventAuthFailure, "", "/p")
	}
	worker.Flush(context.Background())
	assert.Equal(t, float64(3), promtestutil.ToFloat64(metrics.BufferDropped))

	// A second flush with no new drops must not double count.
	worker.Flush(context.Background())
	assert.Equal(t, float64(3), promtestutil.ToFloat64(metrics.BufferDropped))
}

func Test_Worker_BreakerStopsHammeringDeadStore(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := mocks.NewMockStore(ctrl)
	// Two failures open the breaker; remaining events must not reach the store.
	store.EXPECT().Append(gomock.Any(), gomock.Any()).Return(errors.New("store down")).Times(2)

	buffer := audit.NewRingBuffer(16)
	breaker := audit.NewCircuitBreaker(2, time.Minute)
	worker := audit.NewWorker(buffer, store, breaker, nil, nil, time.Second, 8)

	for i := 0; i < 6; i++ {
		buffer.Enqueue(audit.Event{ActorID: "user-1", EventType: audit.EventAuthFailure})
	}
	worker.Flush(context.Background())

	assert.True(t, breaker.IsOpen())
	assert.Equal(t, 0, buffer.Len())
}

func Test_Worker_RunDrainsOnShutdown(t *testing.T) {
	svc := audit.NewService(16, nil, nil)
	store := memory.New()
	worker := audit.NewWorker(svc.Buffer(), store, nil, nil, nil, 10*time.Millisecond, 8)

	ctx, cancel := context.WithCancel(context.Background())
	var g errgroup.Group
	g.Go(func() error { return worker.Run(ctx) })

	svc.LogSecurityEvent(context.Background(), "user-1", audit.EventUserLogout, "", "/api/auth/logout")
	cancel()

	err := g.Wait()
	require.ErrorIs(t, err, context.Canceled)
	assert.Len(t, store.Events(), 1)
}
