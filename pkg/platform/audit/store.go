package audit

import (
	"context"

	"minkyc/pkg/domain"
)

// Store is an append-only audit log.
type Store interface {
	Append(ctx context.Context, event Event) error
	ListByOwner(ctx context.Context, owner domain.OwnerID) ([]Event, error)
}
