package ledger

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned by store lookups for unknown IDs.
var ErrNotFound = errors.New("ledger: not found")

// Store is the persistence boundary for the ledger. Implementations must be
// safe for concurrent use.
//
// AdjustBalance must be atomic: concurrent deltas against the same customer
// may not lose updates. This is what makes the cached Customer.Balance safe
// to mutate from multiple flows (sale posting, collection, reversal).
//
// VoidTransaction must be a guarded state transition: it tombstones the
// transaction only when it is not already voided, and reports whether this
// call performed the transition. Callers use that report to apply the
// balance reversal at most once.
type Store interface {
	CreateCustomer(ctx context.Context, c *Customer) error
	Customer(ctx context.Context, id uuid.UUID) (Customer, error)
	Customers(ctx context.Context) ([]Customer, error)
	UpdateSchedule(ctx context.Context, id uuid.UUID, schedule map[time.Weekday]ScheduleItem) error
	AdjustBalance(ctx context.Context, id uuid.UUID, delta int64) error
	DeleteCustomer(ctx context.Context, id uuid.UUID) error

	CreateProduct(ctx context.Context, p *Product) error
	Products(ctx context.Context) ([]Product, error)
	DeleteProduct(ctx context.Context, id uuid.UUID) error

	AppendTransaction(ctx context.Context, tx *Transaction) error
	Transactions(ctx context.Context) ([]Transaction, error)
	VoidTransaction(ctx context.Context, id uuid.UUID) (tx Transaction, voided bool, err error)
}
