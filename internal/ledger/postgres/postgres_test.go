package postgres

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/hbashir/paniwala/internal/ledger"
)

// mockRow implements pgx.Row for testing.
type mockRow struct {
	scanFunc func(dest ...any) error
}

func (r *mockRow) Scan(dest ...any) error { return r.scanFunc(dest...) }

// mockDB records executed SQL and returns canned results.
type mockDB struct {
	execSQL  []string
	execArgs [][]any
	execTag  pgconn.CommandTag
	execErr  error

	queryRowSQL []string
	row         pgx.Row
}

func (m *mockDB) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	m.execSQL = append(m.execSQL, sql)
	m.execArgs = append(m.execArgs, args)
	return m.execTag, m.execErr
}

func (m *mockDB) QueryRow(_ context.Context, sql string, _ ...any) pgx.Row {
	m.queryRowSQL = append(m.queryRowSQL, sql)
	if m.row != nil {
		return m.row
	}
	return &mockRow{scanFunc: func(...any) error { return pgx.ErrNoRows }}
}

func (m *mockDB) Query(context.Context, string, ...any) (pgx.Rows, error) {
	return nil, pgx.ErrNoRows
}

func TestAdjustBalance_IsAtomicDelta(t *testing.T) {
	db := &mockDB{execTag: pgconn.NewCommandTag("UPDATE 1")}
	s := NewWithDB(db)

	if err := s.AdjustBalance(context.Background(), uuid.New(), 150); err != nil {
		t.Fatal(err)
	}
	if len(db.execSQL) != 1 {
		t.Fatalf("expected 1 exec, got %d", len(db.execSQL))
	}
	// The delta must be applied in SQL, not via read-modify-write.
	if !strings.Contains(db.execSQL[0], "balance = balance + $2") {
		t.Errorf("AdjustBalance SQL not atomic: %s", db.execSQL[0])
	}
}

func TestAdjustBalance_MissingCustomer(t *testing.T) {
	db := &mockDB{execTag: pgconn.NewCommandTag("UPDATE 0")}
	s := NewWithDB(db)

	err := s.AdjustBalance(context.Background(), uuid.New(), 150)
	if err != ledger.ErrNotFound {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestCustomer_Lookup(t *testing.T) {
	id := uuid.New()
	db := &mockDB{row: &mockRow{scanFunc: func(dest ...any) error {
		*dest[0].(*uuid.UUID) = id
		*dest[1].(*string) = "Akbar Ali"
		*dest[2].(*string) = "0300-1234567"
		*dest[3].(*string) = "C204 Block 2"
		*dest[4].(*int64) = 340
		*dest[5].(*[]byte) = []byte(`{}`)
		return nil
	}}}
	var s ledger.Store = NewWithDB(db)

	c, err := s.Customer(context.Background(), id)
	if err != nil {
		t.Fatal(err)
	}
	if c.ID != id || c.Name != "Akbar Ali" || c.Balance != 340 {
		t.Errorf("customer mismatch: %+v", c)
	}
}

func TestCustomer_Missing(t *testing.T) {
	s := NewWithDB(&mockDB{})

	c, err := s.Customer(context.Background(), uuid.New())
	if err != ledger.ErrNotFound {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
	if c.ID != uuid.Nil {
		t.Errorf("missing customer should be zero, got %+v", c)
	}
}

func TestVoidTransaction_GuardsDeletedRows(t *testing.T) {
	db := &mockDB{}
	s := NewWithDB(db)

	_, _, err := s.VoidTransaction(context.Background(), uuid.New())
	if err != ledger.ErrNotFound {
		t.Fatalf("err = %v, want ErrNotFound for unknown id", err)
	}
	if len(db.queryRowSQL) < 1 {
		t.Fatal("expected void UPDATE to be issued")
	}
	// Only a live row may transition; re-voids must not match.
	if !strings.Contains(db.queryRowSQL[0], "AND NOT is_deleted") {
		t.Errorf("void SQL missing liveness guard: %s", db.queryRowSQL[0])
	}
	if !strings.Contains(db.queryRowSQL[0], "RETURNING") {
		t.Errorf("void SQL must return the updated row: %s", db.queryRowSQL[0])
	}
}

func TestScheduleRoundTrip(t *testing.T) {
	t.Parallel()

	in := map[time.Weekday]ledger.ScheduleItem{
		time.Monday:   {Quantity: 2, Variant: "19 Litre Bottle", Delivery: 20},
		time.Saturday: {Quantity: 1, Variant: "6 Litre Bottle"},
	}
	b, err := marshalSchedule(in)
	if err != nil {
		t.Fatal(err)
	}
	out, err := unmarshalSchedule(b)
	if err != nil {
		t.Fatal(err)
	}
	if len(out) != 2 {
		t.Fatalf("round trip lost entries: %v", out)
	}
	if out[time.Monday].Variant != "19 Litre Bottle" || out[time.Monday].Delivery != 20 {
		t.Errorf("Monday item mismatch: %+v", out[time.Monday])
	}
}

func TestUnmarshalSchedule_Empty(t *testing.T) {
	t.Parallel()

	out, err := unmarshalSchedule([]byte(`{}`))
	if err != nil {
		t.Fatal(err)
	}
	if out != nil {
		t.Errorf("empty schedule should unmarshal to nil, got %v", out)
	}
}
