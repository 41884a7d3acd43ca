// Package postgres provides a PostgreSQL-backed [ledger.Store]. All
// operations run against a single [pgxpool.Pool]; balance adjustments and
// void transitions happen inside the database so concurrent writers never
// race on read-modify-write cycles.
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hbashir/paniwala/internal/ledger"
)

// Schema is the SQL DDL for the ledger tables. Execute it via
// [Store.Migrate] or apply it manually during deployment.
const Schema = `
CREATE TABLE IF NOT EXISTS customers (
    id        UUID PRIMARY KEY,
    name      TEXT NOT NULL,
    phone     TEXT NOT NULL DEFAULT '',
    address   TEXT NOT NULL DEFAULT '',
    balance   BIGINT NOT NULL DEFAULT 0,
    schedule  JSONB NOT NULL DEFAULT '{}',
    created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS idx_customers_name ON customers(name);

CREATE TABLE IF NOT EXISTS products (
    id       UUID PRIMARY KEY,
    name     TEXT NOT NULL,
    price    BIGINT NOT NULL,
    keywords TEXT NOT NULL DEFAULT '',
    created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS transactions (
    id             UUID PRIMARY KEY,
    seq            BIGSERIAL,
    type           TEXT NOT NULL,
    amount         BIGINT NOT NULL,
    date           TIMESTAMPTZ NOT NULL,
    description    TEXT NOT NULL DEFAULT '',
    customer_id    UUID,
    product_id     UUID,
    quantity       INT NOT NULL DEFAULT 0,
    category       TEXT NOT NULL DEFAULT '',
    payment_method TEXT NOT NULL DEFAULT '',
    is_deleted     BOOLEAN NOT NULL DEFAULT FALSE
);
CREATE INDEX IF NOT EXISTS idx_transactions_customer ON transactions(customer_id);
CREATE INDEX IF NOT EXISTS idx_transactions_date ON transactions(date);
`

// DB is the database interface used by [Store]. Both *pgxpool.Pool and
// *pgx.Conn satisfy this interface.
type DB interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// Store implements [ledger.Store] on PostgreSQL.
type Store struct {
	db   DB
	pool *pgxpool.Pool
}

var _ ledger.Store = (*Store)(nil)

// New connects a pool to the database at dsn, pings it, and runs
// [Store.Migrate].
func New(ctx context.Context, dsn string) (*Store, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("ledger postgres: create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ledger postgres: ping: %w", err)
	}
	s := &Store{db: pool, pool: pool}
	if err := s.Migrate(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

// NewWithDB wraps an existing connection or pool. The caller is
// responsible for running [Store.Migrate] before issuing queries.
func NewWithDB(db DB) *Store {
	return &Store{db: db}
}

// Migrate executes the [Schema] DDL, creating tables and indexes if they
// do not already exist.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("ledger postgres: migrate: %w", err)
	}
	return nil
}

// Close releases the underlying pool. A no-op for stores created with
// [NewWithDB].
func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// Ping reports database reachability. Used by the readiness probe.
func (s *Store) Ping(ctx context.Context) error {
	if s.pool != nil {
		return s.pool.Ping(ctx)
	}
	_, err := s.db.Exec(ctx, "SELECT 1")
	return err
}

func (s *Store) CreateCustomer(ctx context.Context, c *ledger.Customer) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	schedJSON, err := marshalSchedule(c.Schedule)
	if err != nil {
		return err
	}
	_, err = s.db.Exec(ctx, `
		INSERT INTO customers (id, name, phone, address, balance, schedule)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		c.ID, c.Name, c.Phone, c.Address, c.Balance, schedJSON)
	if err != nil {
		return fmt.Errorf("ledger postgres: create customer: %w", err)
	}
	return nil
}

func (s *Store) Customer(ctx context.Context, id uuid.UUID) (ledger.Customer, error) {
	row := s.db.QueryRow(ctx, `
		SELECT id, name, phone, address, balance, schedule
		FROM customers WHERE id = $1`, id)
	c, err := scanCustomer(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ledger.Customer{}, ledger.ErrNotFound
		}
		return ledger.Customer{}, fmt.Errorf("ledger postgres: get customer: %w", err)
	}
	return c, nil
}

func (s *Store) Customers(ctx context.Context) ([]ledger.Customer, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, name, phone, address, balance, schedule
		FROM customers ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("ledger postgres: list customers: %w", err)
	}
	defer rows.Close()

	var customers []ledger.Customer
	for rows.Next() {
		c, err := scanCustomer(rows)
		if err != nil {
			return nil, fmt.Errorf("ledger postgres: scan customer: %w", err)
		}
		customers = append(customers, c)
	}
	return customers, rows.Err()
}

func (s *Store) UpdateSchedule(ctx context.Context, id uuid.UUID, schedule map[time.Weekday]ledger.ScheduleItem) error {
	schedJSON, err := marshalSchedule(schedule)
	if err != nil {
		return err
	}
	tag, err := s.db.Exec(ctx,
		`UPDATE customers SET schedule = $2 WHERE id = $1`, id, schedJSON)
	if err != nil {
		return fmt.Errorf("ledger postgres: update schedule: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ledger.ErrNotFound
	}
	return nil
}

// AdjustBalance applies delta atomically in the database. Concurrent
// adjustments serialize on the row, never on a stale read.
func (s *Store) AdjustBalance(ctx context.Context, id uuid.UUID, delta int64) error {
	tag, err := s.db.Exec(ctx,
		`UPDATE customers SET balance = balance + $2 WHERE id = $1`, id, delta)
	if err != nil {
		return fmt.Errorf("ledger postgres: adjust balance: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ledger.ErrNotFound
	}
	return nil
}

func (s *Store) DeleteCustomer(ctx context.Context, id uuid.UUID) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM customers WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("ledger postgres: delete customer: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ledger.ErrNotFound
	}
	return nil
}

func (s *Store) CreateProduct(ctx context.Context, p *ledger.Product) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	_, err := s.db.Exec(ctx, `
		INSERT INTO products (id, name, price, keywords)
		VALUES ($1, $2, $3, $4)`,
		p.ID, p.Name, p.Price, p.Keywords)
	if err != nil {
		return fmt.Errorf("ledger postgres: create product: %w", err)
	}
	return nil
}

func (s *Store) Products(ctx context.Context) ([]ledger.Product, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, name, price, keywords
		FROM products ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("ledger postgres: list products: %w", err)
	}
	defer rows.Close()

	var products []ledger.Product
	for rows.Next() {
		var p ledger.Product
		if err := rows.Scan(&p.ID, &p.Name, &p.Price, &p.Keywords); err != nil {
			return nil, fmt.Errorf("ledger postgres: scan product: %w", err)
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

func (s *Store) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("ledger postgres: delete product: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ledger.ErrNotFound
	}
	return nil
}

func (s *Store) AppendTransaction(ctx context.Context, tx *ledger.Transaction) error {
	if tx.ID == uuid.Nil {
		tx.ID = uuid.New()
	}
	_, err := s.db.Exec(ctx, `
		INSERT INTO transactions (
			id, type, amount, date, description,
			customer_id, product_id, quantity, category, payment_method, is_deleted
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)`,
		tx.ID, tx.Type, tx.Amount, tx.Date, tx.Description,
		tx.CustomerID, tx.ProductID, tx.Quantity, tx.Category, tx.PaymentMethod, tx.Deleted)
	if err != nil {
		return fmt.Errorf("ledger postgres: append transaction: %w", err)
	}
	return nil
}

func (s *Store) Transactions(ctx context.Context) ([]ledger.Transaction, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, type, amount, date, description,
		       customer_id, product_id, quantity, category, payment_method, is_deleted
		FROM transactions ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("ledger postgres: list transactions: %w", err)
	}
	defer rows.Close()

	var txs []ledger.Transaction
	for rows.Next() {
		var t ledger.Transaction
		if err := rows.Scan(
			&t.ID, &t.Type, &t.Amount, &t.Date, &t.Description,
			&t.CustomerID, &t.ProductID, &t.Quantity, &t.Category, &t.PaymentMethod, &t.Deleted,
		); err != nil {
			return nil, fmt.Errorf("ledger postgres: scan transaction: %w", err)
		}
		txs = append(txs, t)
	}
	return txs, rows.Err()
}

// VoidTransaction tombstones the transaction. The WHERE NOT is_deleted
// guard makes the transition happen at most once even under concurrent
// voids; voided reports whether this call won the transition.
func (s *Store) VoidTransaction(ctx context.Context, id uuid.UUID) (ledger.Transaction, bool, error) {
	row := s.db.QueryRow(ctx, `
		UPDATE transactions
		SET is_deleted = TRUE, description = description || $2
		WHERE id = $1 AND NOT is_deleted
		RETURNING id, type, amount, date, description,
		          customer_id, product_id, quantity, category, payment_method, is_deleted`,
		id, ledger.VoidMarker)

	t, err := scanTransaction(row)
	if err == nil {
		return t, true, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return ledger.Transaction{}, false, fmt.Errorf("ledger postgres: void transaction: %w", err)
	}

	// Either the transaction does not exist or it is already voided.
	row = s.db.QueryRow(ctx, `
		SELECT id, type, amount, date, description,
		       customer_id, product_id, quantity, category, payment_method, is_deleted
		FROM transactions WHERE id = $1`, id)
	t, err = scanTransaction(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return ledger.Transaction{}, false, ledger.ErrNotFound
	}
	if err != nil {
		return ledger.Transaction{}, false, fmt.Errorf("ledger postgres: load voided transaction: %w", err)
	}
	return t, false, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCustomer(row rowScanner) (ledger.Customer, error) {
	var c ledger.Customer
	var schedJSON []byte
	if err := row.Scan(&c.ID, &c.Name, &c.Phone, &c.Address, &c.Balance, &schedJSON); err != nil {
		return ledger.Customer{}, err
	}
	sched, err := unmarshalSchedule(schedJSON)
	if err != nil {
		return ledger.Customer{}, err
	}
	c.Schedule = sched
	return c, nil
}

func scanTransaction(row rowScanner) (ledger.Transaction, error) {
	var t ledger.Transaction
	err := row.Scan(
		&t.ID, &t.Type, &t.Amount, &t.Date, &t.Description,
		&t.CustomerID, &t.ProductID, &t.Quantity, &t.Category, &t.PaymentMethod, &t.Deleted,
	)
	if err != nil {
		return ledger.Transaction{}, err
	}
	return t, nil
}

// Schedules are stored as JSONB keyed by the integer weekday (0 = Sunday),
// matching [time.Weekday] values.
func marshalSchedule(schedule map[time.Weekday]ledger.ScheduleItem) ([]byte, error) {
	m := make(map[string]ledger.ScheduleItem, len(schedule))
	for day, item := range schedule {
		m[fmt.Sprintf("%d", int(day))] = item
	}
	b, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("ledger postgres: marshal schedule: %w", err)
	}
	return b, nil
}

func unmarshalSchedule(b []byte) (map[time.Weekday]ledger.ScheduleItem, error) {
	if len(b) == 0 {
		return nil, nil
	}
	var m map[string]ledger.ScheduleItem
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, fmt.Errorf("ledger postgres: unmarshal schedule: %w", err)
	}
	if len(m) == 0 {
		return nil, nil
	}
	out := make(map[time.Weekday]ledger.ScheduleItem, len(m))
	for k, item := range m {
		var day int
		if _, err := fmt.Sscanf(k, "%d", &day); err != nil {
			return nil, fmt.Errorf("ledger postgres: bad schedule key %q", k)
		}
		out[time.Weekday(day)] = item
	}
	return out, nil
}
