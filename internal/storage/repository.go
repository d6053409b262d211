// Package storage persists bills. Every query is scoped by owner.
package storage

import (
	"context"

	"billreminder/internal/core"
)

// Repository is the persistence contract the bill service depends on.
// Lookups of a bill owned by someone else return core.ErrNotFound, exactly
// like a missing bill.
type Repository interface {
	// BillsByOwner returns the owner's bills ordered by due date, then id.
	BillsByOwner(ctx context.Context, ownerID string) ([]core.Bill, error)
	BillByOwnerAndID(ctx context.Context, ownerID string, id int64) (core.Bill, error)
	// Insert stores b and returns it with its assigned id.
	Insert(ctx context.Context, b core.Bill) (core.Bill, error)
	// Replace overwrites every editable field of the bill matching b.OwnerID
	// and b.ID.
	Replace(ctx context.Context, b core.Bill) error
	Delete(ctx context.Context, ownerID string, id int64) error
	Ping(ctx context.Context) error
	Close() error
}
