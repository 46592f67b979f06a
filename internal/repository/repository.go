package repository

import (
	"context"
	"errors"

	"github.com/Fanatic033/shoro-market/internal/domain"
	"github.com/Fanatic033/shoro-market/pkg/pagination"
)

// ErrCorruptSnapshot marks a stored snapshot that can no longer be decoded.
var ErrCorruptSnapshot = errors.New("corrupt cart snapshot")

// SnapshotStore persists cart snapshots keyed by customer.
type SnapshotStore interface {
	// Load returns the stored snapshot, or an ErrNotFound error when the
	// customer has none. An undecodable snapshot yields ErrCorruptSnapshot.
	Load(ctx context.Context, userID string) (domain.Snapshot, error)

	// Save overwrites the customer's snapshot.
	Save(ctx context.Context, userID string, snapshot domain.Snapshot) error

	// Delete removes the customer's snapshot. Deleting a missing key is not an error.
	Delete(ctx context.Context, userID string) error
}

// OrderRepository keeps the local history of placed orders.
type OrderRepository interface {
	Create(ctx context.Context, order *domain.Order) error
	GetByID(ctx context.Context, id string) (*domain.Order, error)

	// ListByUser returns one page of the customer's orders, newest first,
	// and the customer's total order count.
	ListByUser(ctx context.Context, userID string, page pagination.Params) ([]domain.Order, int, error)
}

// AddressRepository keeps customers' saved delivery addresses. Every lookup
// is scoped to the owning customer.
type AddressRepository interface {
	// ListByUser returns the customer's addresses, oldest first.
	ListByUser(ctx context.Context, userID string) ([]domain.Address, error)
	Get(ctx context.Context, userID, id string) (*domain.Address, error)

	// GetDefault returns the default address, or an ErrNotFound error.
	GetDefault(ctx context.Context, userID string) (*domain.Address, error)

	// Create inserts the address. It becomes the default when the customer
	// has none; a.IsDefault reports the outcome.
	Create(ctx context.Context, a *domain.Address) error
	Update(ctx context.Context, a *domain.Address) error

	// Delete removes the address. When it was the default, the oldest
	// remaining address takes over and wasDefault is true.
	Delete(ctx context.Context, userID, id string) (wasDefault bool, err error)
	SetDefault(ctx context.Context, userID, id string) error
}
