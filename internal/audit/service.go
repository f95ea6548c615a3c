package audit

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"journey/pkg/requestcontext"
)

// Service is the in-process sink for security events. LogSecurityEvent is
// non-blocking and infallible from the caller's point of view: the event goes
// into a bounded ring buffer and a background Worker drains it to a Store.
type Service struct {
	buffer  *RingBuffer
	logger  *slog.Logger
	metrics *Metrics
}

func NewService(bufferSize int, logger *slog.Logger, metrics *Metrics) *Service {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Service{
		buffer:  NewRingBuffer(bufferSize),
		logger:  logger,
		metrics: metrics,
	}
}

// LogSecurityEvent records one security event. Correlation id and timestamp
// come from the request context.
func (s *Service) LogSecurityEvent(ctx context.Context, actorID string, eventType EventType, clientIP, resourcePath string) {
	event := Event{
		ID:           uuid.New(),
		ActorID:      actorID,
		EventType:    eventType,
		ClientIP:     clientIP,
		ResourcePath: resourcePath,
		RequestID:    requestcontext.CorrelationID(ctx),
		Timestamp:    requestcontext.Now(ctx),
	}

	s.buffer.Enqueue(event)
	if s.metrics != nil {
		s.metrics.IncEnqueued()
	}

	s.logger.InfoContext(ctx, "security event",
		"log_type", "audit",
		"event", string(eventType),
		"actor_id", actorID,
		"ip", clientIP,
		"path", resourcePath,
		"request_id", event.RequestID,
	)
}

// Buffer exposes the underlying ring buffer for the worker and for tests.
func (s *Service) Buffer() *RingBuffer {
	return s.buffer
}
