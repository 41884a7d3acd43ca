package ledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ErrNonPositiveAmount reports a sale whose computed amount is zero or
// negative. Such sales are rejected without side effects: the guard keeps
// malformed quantity/price combinations out of the ledger.
var ErrNonPositiveAmount = errors.New("ledger: non-positive sale amount")

// ErrAlreadyVoided reports a void attempt on a transaction that is already
// tombstoned. The balance is not re-adjusted.
var ErrAlreadyVoided = errors.New("ledger: transaction already voided")

// Service implements the posting rules on top of a [Store].
type Service struct {
	store Store

	// now is the clock, swappable in tests.
	now func() time.Time
}

// ServiceOption configures a [Service].
type ServiceOption func(*Service)

// WithClock overrides the service clock. Tests pin it to make business
// date grouping deterministic.
func WithClock(now func() time.Time) ServiceOption {
	return func(s *Service) {
		s.now = now
	}
}

// NewService creates a Service backed by store.
func NewService(store Store, opts ...ServiceOption) *Service {
	s := &Service{store: store, now: time.Now}
	for _, o := range opts {
		o(s)
	}
	return s
}

// SaleParams describes one sale to post.
type SaleParams struct {
	// Method is cash or credit.
	Method PaymentMethod

	// Product is the resolved product being sold.
	Product Product

	// Quantity is the unit count. Must be positive to post.
	Quantity int

	// Delivery is the delivery surcharge, 0 when none.
	Delivery int64

	// Customer is the matched credit account. Required when Method is
	// PayCredit, ignored for cash.
	Customer *Customer
}

// PostSale computes the sale amount, builds the ledger description, appends
// the transaction, and (credit mode) increments the customer balance via an
// atomic delta.
//
// A computed amount <= 0 returns [ErrNonPositiveAmount] with no side
// effects; callers treat it as a logged warning, not a user-facing error.
func (s *Service) PostSale(ctx context.Context, p SaleParams) (*Transaction, error) {
	amount := p.Product.Price*int64(p.Quantity) + p.Delivery
	if amount <= 0 {
		slog.Warn("ledger: skipping non-positive sale",
			"product", p.Product.Name,
			"quantity", p.Quantity,
			"amount", amount,
		)
		return nil, ErrNonPositiveAmount
	}

	desc := SaleDetails(p.Quantity, p.Product.Name, p.Delivery)
	switch p.Method {
	case PayCredit:
		if p.Customer == nil {
			return nil, fmt.Errorf("ledger: credit sale without customer")
		}
		// Prefix the customer's name once, never twice.
		if !strings.Contains(desc, p.Customer.Name) {
			desc = "Credit Sale (" + p.Customer.Name + "): " + desc
		}
	default:
		if !strings.Contains(desc, "Cash") {
			desc = "Cash Sale: " + desc
		}
	}

	productID := p.Product.ID
	tx := &Transaction{
		ID:            uuid.New(),
		Type:          TypeSale,
		Amount:        amount,
		Date:          s.now(),
		Description:   desc,
		ProductID:     &productID,
		Quantity:      p.Quantity,
		PaymentMethod: p.Method,
	}
	if p.Method == PayCredit {
		id := p.Customer.ID
		tx.CustomerID = &id
	}

	if err := s.store.AppendTransaction(ctx, tx); err != nil {
		return nil, fmt.Errorf("ledger: append sale: %w", err)
	}

	if p.Method == PayCredit {
		if err := s.store.AdjustBalance(ctx, p.Customer.ID, amount); err != nil {
			// The sale is in the log but the cached balance is stale. Surface
			// it; the operator reconciles by voiding and re-issuing.
			return tx, fmt.Errorf("ledger: sale posted but balance update failed: %w", err)
		}
	}

	slog.Info("ledger: sale posted",
		"tx_id", tx.ID,
		"method", p.Method,
		"amount", amount,
		"product", p.Product.Name,
		"quantity", p.Quantity,
	)
	return tx, nil
}

// SaleDetails renders the human-readable core of a sale description:
// "5x 19 Litre Bottle (+ Rs.20 Del)".
func SaleDetails(quantity int, productName string, delivery int64) string {
	d := strconv.Itoa(quantity) + "x " + productName
	if delivery > 0 {
		d += fmt.Sprintf(" (+ Rs.%d Del)", delivery)
	}
	return d
}

// RecordCollection posts a payment received from a customer and decrements
// the receivable balance.
func (s *Service) RecordCollection(ctx context.Context, customer Customer, amount int64) (*Transaction, error) {
	if amount <= 0 {
		return nil, ErrNonPositiveAmount
	}
	id := customer.ID
	tx := &Transaction{
		ID:          uuid.New(),
		Type:        TypeCollection,
		Amount:      amount,
		Date:        s.now(),
		Description: "Payment from " + customer.Name,
		CustomerID:  &id,
	}
	if err := s.store.AppendTransaction(ctx, tx); err != nil {
		return nil, fmt.Errorf("ledger: append collection: %w", err)
	}
	if err := s.store.AdjustBalance(ctx, customer.ID, -amount); err != nil {
		return tx, fmt.Errorf("ledger: collection posted but balance update failed: %w", err)
	}
	return tx, nil
}

// RecordExpense posts an expense under the given category.
func (s *Service) RecordExpense(ctx context.Context, amount int64, category string) (*Transaction, error) {
	if amount <= 0 {
		return nil, ErrNonPositiveAmount
	}
	tx := &Transaction{
		ID:          uuid.New(),
		Type:        TypeExpense,
		Amount:      amount,
		Date:        s.now(),
		Description: "Expense: " + category,
		Category:    category,
	}
	if err := s.store.AppendTransaction(ctx, tx); err != nil {
		return nil, fmt.Errorf("ledger: append expense: %w", err)
	}
	return tx, nil
}

// Void tombstones a transaction and reverses its balance effect. The
// reversal applies only when this call performed the tombstone transition:
// voiding an already-voided transaction returns [ErrAlreadyVoided] and does
// not touch the balance.
func (s *Service) Void(ctx context.Context, id uuid.UUID) (*Transaction, error) {
	tx, voided, err := s.store.VoidTransaction(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("ledger: void: %w", err)
	}
	if !voided {
		return &tx, ErrAlreadyVoided
	}

	if tx.CustomerID != nil {
		var delta int64
		switch tx.Type {
		case TypeSale:
			delta = -tx.Amount
		case TypeCollection:
			delta = tx.Amount
		}
		if delta != 0 {
			if err := s.store.AdjustBalance(ctx, *tx.CustomerID, delta); err != nil {
				return &tx, fmt.Errorf("ledger: voided but balance reversal failed: %w", err)
			}
		}
	}

	slog.Info("ledger: transaction voided", "tx_id", tx.ID, "type", tx.Type, "amount", tx.Amount)
	return &tx, nil
}

// AddCustomer creates a customer with an optional opening balance.
func (s *Service) AddCustomer(ctx context.Context, name, phone, address string, openingBalance int64) (*Customer, error) {
	if strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("ledger: customer name is required")
	}
	c := &Customer{
		ID:      uuid.New(),
		Name:    strings.TrimSpace(name),
		Phone:   strings.TrimSpace(phone),
		Address: strings.TrimSpace(address),
		Balance: openingBalance,
	}
	if err := s.store.CreateCustomer(ctx, c); err != nil {
		return nil, fmt.Errorf("ledger: create customer: %w", err)
	}
	return c, nil
}

// DeleteCustomer removes a customer. When badDebt is true and the customer
// still owes a balance, the balance is written off as a Bad Debt expense
// before deletion.
func (s *Service) DeleteCustomer(ctx context.Context, c Customer, badDebt bool) error {
	if badDebt && c.Balance > 0 {
		if _, err := s.RecordExpense(ctx, c.Balance, CategoryBadDebt); err != nil {
			return fmt.Errorf("ledger: bad debt write-off: %w", err)
		}
	}
	if err := s.store.DeleteCustomer(ctx, c.ID); err != nil {
		return fmt.Errorf("ledger: delete customer: %w", err)
	}
	return nil
}

// AddProduct creates a product.
func (s *Service) AddProduct(ctx context.Context, name string, price int64, keywords string) (*Product, error) {
	if strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("ledger: product name is required")
	}
	p := &Product{
		ID:       uuid.New(),
		Name:     strings.TrimSpace(name),
		Price:    price,
		Keywords: strings.TrimSpace(keywords),
	}
	if err := s.store.CreateProduct(ctx, p); err != nil {
		return nil, fmt.Errorf("ledger: create product: %w", err)
	}
	return p, nil
}

// DeleteProduct removes a product.
func (s *Service) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	if err := s.store.DeleteProduct(ctx, id); err != nil {
		return fmt.Errorf("ledger: delete product: %w", err)
	}
	return nil
}

// UpdateSchedule replaces a customer's standing weekly order.
func (s *Service) UpdateSchedule(ctx context.Context, id uuid.UUID, schedule map[time.Weekday]ScheduleItem) error {
	if err := s.store.UpdateSchedule(ctx, id, schedule); err != nil {
		return fmt.Errorf("ledger: update schedule: %w", err)
	}
	return nil
}

// ImportCustomers creates customers from CSV-shaped rows of
// [name, phone, address, balance]. Rows without a name are skipped. Returns
// the number of customers added; the import is best-effort and stops at the
// first store error.
func (s *Service) ImportCustomers(ctx context.Context, rows [][]string) (int, error) {
	added := 0
	for _, row := range rows {
		name := csvField(row, 0)
		if name == "" {
			continue
		}
		var balance int64
		if raw := csvField(row, 3); raw != "" {
			if v, err := strconv.ParseInt(raw, 10, 64); err == nil {
				balance = v
			}
		}
		if _, err := s.AddCustomer(ctx, name, csvField(row, 1), csvField(row, 2), balance); err != nil {
			return added, fmt.Errorf("ledger: import row %d: %w", added, err)
		}
		added++
	}
	return added, nil
}

// Store exposes the underlying store for read paths (stats, HTTP listings).
func (s *Service) Store() Store { return s.store }

func csvField(row []string, i int) string {
	if i >= len(row) {
		return ""
	}
	return strings.TrimSpace(strings.Trim(strings.TrimSpace(row[i]), `"`))
}
