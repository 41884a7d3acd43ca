package ledger

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Compile-time assertion that MemStore satisfies the Store interface.
var _ Store = (*MemStore)(nil)

// MemStore is a thread-safe, in-memory implementation of [Store]. It is
// suitable for tests and single-device offline use. Insertion order is
// preserved for all listings so aggregation is deterministic.
type MemStore struct {
	mu           sync.RWMutex
	customers    []Customer
	products     []Product
	transactions []Transaction
}

// NewMemStore returns an initialised [MemStore].
func NewMemStore() *MemStore {
	return &MemStore{}
}

// CreateCustomer implements [Store.CreateCustomer].
func (s *MemStore) CreateCustomer(_ context.Context, c *Customer) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.customers = append(s.customers, *c)
	return nil
}

// Customer implements [Store.Customer].
func (s *MemStore) Customer(_ context.Context, id uuid.UUID) (Customer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, c := range s.customers {
		if c.ID == id {
			return c, nil
		}
	}
	return Customer{}, ErrNotFound
}

// Customers implements [Store.Customers].
func (s *MemStore) Customers(_ context.Context) ([]Customer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Customer, len(s.customers))
	copy(out, s.customers)
	return out, nil
}

// UpdateSchedule implements [Store.UpdateSchedule].
func (s *MemStore) UpdateSchedule(_ context.Context, id uuid.UUID, schedule map[time.Weekday]ScheduleItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.customers {
		if s.customers[i].ID == id {
			s.customers[i].Schedule = schedule
			return nil
		}
	}
	return ErrNotFound
}

// AdjustBalance implements [Store.AdjustBalance]. The mutex makes the
// read-modify-write atomic.
func (s *MemStore) AdjustBalance(_ context.Context, id uuid.UUID, delta int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.customers {
		if s.customers[i].ID == id {
			s.customers[i].Balance += delta
			return nil
		}
	}
	return ErrNotFound
}

// DeleteCustomer implements [Store.DeleteCustomer].
func (s *MemStore) DeleteCustomer(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.customers {
		if s.customers[i].ID == id {
			s.customers = append(s.customers[:i], s.customers[i+1:]...)
			return nil
		}
	}
	return ErrNotFound
}

// CreateProduct implements [Store.CreateProduct].
func (s *MemStore) CreateProduct(_ context.Context, p *Product) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.products = append(s.products, *p)
	return nil
}

// Products implements [Store.Products].
func (s *MemStore) Products(_ context.Context) ([]Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Product, len(s.products))
	copy(out, s.products)
	return out, nil
}

// DeleteProduct implements [Store.DeleteProduct].
func (s *MemStore) DeleteProduct(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.products {
		if s.products[i].ID == id {
			s.products = append(s.products[:i], s.products[i+1:]...)
			return nil
		}
	}
	return ErrNotFound
}

// AppendTransaction implements [Store.AppendTransaction].
func (s *MemStore) AppendTransaction(_ context.Context, tx *Transaction) error {
	if tx.ID == uuid.Nil {
		tx.ID = uuid.New()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.transactions = append(s.transactions, *tx)
	return nil
}

// Transactions implements [Store.Transactions].
func (s *MemStore) Transactions(_ context.Context) ([]Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Transaction, len(s.transactions))
	copy(out, s.transactions)
	return out, nil
}

// VoidTransaction implements [Store.VoidTransaction]. The tombstone check
// and the mutation happen under one lock, so the transition fires at most
// once.
func (s *MemStore) VoidTransaction(_ context.Context, id uuid.UUID) (Transaction, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.transactions {
		if s.transactions[i].ID != id {
			continue
		}
		if s.transactions[i].Deleted {
			return s.transactions[i], false, nil
		}
		s.transactions[i].Deleted = true
		s.transactions[i].Description += VoidMarker
		return s.transactions[i], true, nil
	}
	return Transaction{}, false, ErrNotFound
}
