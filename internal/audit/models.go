// Package audit records security-relevant events on a fire-and-forget basis.
// Emission never blocks a request and never surfaces errors to callers;
// persistence happens on a background worker behind a bounded buffer.
package audit

import (
	"time"

	"github.com/google/uuid"
)

// EventType names a class of security event.
type EventType string

const (
	EventAuthSuccess       EventType = "AUTH_SUCCESS"
	EventTokenExpired      EventType = "TOKEN_EXPIRED"
	EventInvalidSignature  EventType = "INVALID_SIGNATURE"
	EventAuthFailure       EventType = "AUTHENTICATION_FAILURE"
	EventTokenRefreshed    EventType = "TOKEN_REFRESHED"
	EventUserLogout        EventType = "USER_LOGOUT"
	EventRateLimitExceeded EventType = "RATE_LIMIT_EXCEEDED"
)

// Event is one append-only security record. Keep it transport-agnostic so
// stores can fan out to different backends.
type Event struct {
	ID           uuid.UUID
	ActorID      string
	EventType    EventType
	ClientIP     string
	ResourcePath string
	RequestID    string
	Timestamp    time.Time
}
