// Package schedule drives the daily delivery round. Customers carry a
// weekly schedule; the planner lists who is due on the current business
// day, marks who has already been served, and posts the scheduled credit
// sale when the operator completes a stop.
package schedule

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hbashir/paniwala/internal/dates"
	"github.com/hbashir/paniwala/internal/ledger"
)

var (
	// ErrAlreadyDone reports that the customer already has a sale on the
	// current business day.
	ErrAlreadyDone = errors.New("schedule: already completed today")
	// ErrNotScheduled reports that the customer has no entry for today's
	// weekday.
	ErrNotScheduled = errors.New("schedule: customer not scheduled today")
	// ErrProductNotFound reports that the scheduled variant no longer
	// names a known product.
	ErrProductNotFound = errors.New("schedule: scheduled product not found")
)

// Task is one due stop on today's round.
type Task struct {
	Customer ledger.Customer     `json:"customer"`
	Item     ledger.ScheduleItem `json:"item"`
	Done     bool                `json:"done"`
}

// Planner lists and completes scheduled deliveries.
type Planner struct {
	svc    *ledger.Service
	engine *dates.Engine
	now    func() time.Time
}

// Option configures a [Planner].
type Option func(*Planner)

// WithClock overrides the planner's clock. Tests use this to pin the
// business day.
func WithClock(now func() time.Time) Option {
	return func(p *Planner) {
		p.now = now
	}
}

// New returns a Planner over the given ledger service and date engine.
func New(svc *ledger.Service, engine *dates.Engine, opts ...Option) *Planner {
	p := &Planner{svc: svc, engine: engine, now: time.Now}
	for _, o := range opts {
		o(p)
	}
	return p
}

// Due returns today's tasks sorted by customer name. A task is done when
// the customer has any non-void sale whose business date key matches
// today's.
func (p *Planner) Due(ctx context.Context) ([]Task, error) {
	now := p.now()
	weekday := p.engine.Weekday(now)
	todayKey := p.engine.Key(now)

	customers, err := p.svc.Store().Customers(ctx)
	if err != nil {
		return nil, fmt.Errorf("schedule: list customers: %w", err)
	}
	served, err := p.servedToday(ctx, todayKey)
	if err != nil {
		return nil, err
	}

	var tasks []Task
	for _, c := range customers {
		item, ok := c.Schedule[weekday]
		if !ok {
			continue
		}
		tasks = append(tasks, Task{Customer: c, Item: item, Done: served[c.ID]})
	}
	sort.Slice(tasks, func(i, j int) bool {
		return tasks[i].Customer.Name < tasks[j].Customer.Name
	})
	return tasks, nil
}

// PendingCount returns how many of today's tasks are not yet done.
func (p *Planner) PendingCount(ctx context.Context) (int, error) {
	tasks, err := p.Due(ctx)
	if err != nil {
		return 0, err
	}
	n := 0
	for _, t := range tasks {
		if !t.Done {
			n++
		}
	}
	return n, nil
}

// Complete posts the scheduled credit sale for the customer. The variant
// is looked up by exact product name first, then case-insensitively.
// Completing an already-served customer returns [ErrAlreadyDone] without
// posting.
func (p *Planner) Complete(ctx context.Context, customerID uuid.UUID) (*ledger.Transaction, error) {
	now := p.now()
	weekday := p.engine.Weekday(now)
	todayKey := p.engine.Key(now)

	customer, err := p.svc.Store().Customer(ctx, customerID)
	if err != nil {
		return nil, fmt.Errorf("schedule: load customer: %w", err)
	}
	item, ok := customer.Schedule[weekday]
	if !ok {
		return nil, ErrNotScheduled
	}

	served, err := p.servedToday(ctx, todayKey)
	if err != nil {
		return nil, err
	}
	if served[customer.ID] {
		return nil, ErrAlreadyDone
	}

	product, err := p.findProduct(ctx, item.Variant)
	if err != nil {
		return nil, err
	}

	tx, err := p.svc.PostSale(ctx, ledger.SaleParams{
		Method:   ledger.PayCredit,
		Product:  *product,
		Quantity: item.Quantity,
		Delivery: item.Delivery,
		Customer: &customer,
	})
	if err != nil {
		return nil, err
	}
	slog.Info("schedule: task completed",
		"customer", customer.Name,
		"product", product.Name,
		"quantity", item.Quantity,
	)
	return tx, nil
}

// CompleteAll completes every listed customer, skipping the already-done
// and collecting per-customer failures. Returned transactions are in
// completion order.
func (p *Planner) CompleteAll(ctx context.Context, ids []uuid.UUID) ([]*ledger.Transaction, error) {
	var txs []*ledger.Transaction
	var errs []error
	for _, id := range ids {
		tx, err := p.Complete(ctx, id)
		if errors.Is(err, ErrAlreadyDone) {
			continue
		}
		if err != nil {
			errs = append(errs, fmt.Errorf("customer %s: %w", id, err))
			continue
		}
		txs = append(txs, tx)
	}
	return txs, errors.Join(errs...)
}

func (p *Planner) servedToday(ctx context.Context, todayKey string) (map[uuid.UUID]bool, error) {
	txs, err := p.svc.Store().Transactions(ctx)
	if err != nil {
		return nil, fmt.Errorf("schedule: list transactions: %w", err)
	}
	served := make(map[uuid.UUID]bool)
	for i := range txs {
		t := &txs[i]
		if t.Deleted || t.Type != ledger.TypeSale || t.CustomerID == nil {
			continue
		}
		if p.engine.Key(t.Date) == todayKey {
			served[*t.CustomerID] = true
		}
	}
	return served, nil
}

func (p *Planner) findProduct(ctx context.Context, variant string) (*ledger.Product, error) {
	products, err := p.svc.Store().Products(ctx)
	if err != nil {
		return nil, fmt.Errorf("schedule: list products: %w", err)
	}
	for i := range products {
		if products[i].Name == variant {
			return &products[i], nil
		}
	}
	for i := range products {
		if strings.EqualFold(products[i].Name, variant) {
			return &products[i], nil
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrProductNotFound, variant)
}
