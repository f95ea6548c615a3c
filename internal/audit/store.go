package audit

import "context"

//go:generate mockgen -source=store.go -destination=mocks/store_mock.go -package=mocks

// Store persists audit events. Implementations live under store/.
type Store interface {
	Append(ctx context.Context, event Event) error
}
