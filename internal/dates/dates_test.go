package dates_test

import (
	"testing"
	"time"

	"github.com/hbashir/paniwala/internal/dates"
)

func mustEngine(t *testing.T, tz string, cutoff int) *dates.Engine {
	t.Helper()
	e, err := dates.New(tz, cutoff)
	if err != nil {
		t.Fatal(err)
	}
	return e
}

func TestKey(t *testing.T) {
	t.Parallel()

	e := mustEngine(t, "Asia/Karachi", 3)
	loc := e.Location()

	tests := []struct {
		name string
		in   time.Time
		want string
	}{
		{"midday", time.Date(2026, 8, 15, 14, 0, 0, 0, loc), "2026-08-15"},
		{"just before cutoff", time.Date(2026, 8, 15, 2, 30, 0, 0, loc), "2026-08-14"},
		{"at cutoff", time.Date(2026, 8, 15, 3, 0, 0, 0, loc), "2026-08-15"},
		{"just after cutoff", time.Date(2026, 8, 15, 3, 1, 0, 0, loc), "2026-08-15"},
		{"midnight", time.Date(2026, 8, 15, 0, 0, 0, 0, loc), "2026-08-14"},
		{"month boundary rollback", time.Date(2026, 9, 1, 1, 0, 0, 0, loc), "2026-08-31"},
		{"year boundary rollback", time.Date(2026, 1, 1, 2, 59, 0, 0, loc), "2025-12-31"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := e.Key(tc.in); got != tc.want {
				t.Errorf("Key(%v) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestKey_ConvertsFromUTC(t *testing.T) {
	t.Parallel()

	e := mustEngine(t, "Asia/Karachi", 3)

	// 21:30 UTC is 02:30 the next day in Karachi (UTC+5), which is still
	// before the cutoff, so the key stays on the UTC calendar date.
	in := time.Date(2026, 8, 14, 21, 30, 0, 0, time.UTC)
	if got := e.Key(in); got != "2026-08-14" {
		t.Errorf("Key(%v) = %q, want 2026-08-14", in, got)
	}
}

func TestMonthKey(t *testing.T) {
	t.Parallel()

	e := mustEngine(t, "Asia/Karachi", 3)
	loc := e.Location()

	in := time.Date(2026, 9, 1, 1, 0, 0, 0, loc)
	if got := e.MonthKey(in); got != "2026-08" {
		t.Errorf("MonthKey(%v) = %q, want 2026-08", in, got)
	}
}

func TestWeekday(t *testing.T) {
	t.Parallel()

	e := mustEngine(t, "Asia/Karachi", 3)
	loc := e.Location()

	// 2026-08-15 is a Saturday; at 02:00 the business day is still Friday.
	if got := e.Weekday(time.Date(2026, 8, 15, 2, 0, 0, 0, loc)); got != time.Friday {
		t.Errorf("Weekday = %v, want Friday", got)
	}
	if got := e.Weekday(time.Date(2026, 8, 15, 12, 0, 0, 0, loc)); got != time.Saturday {
		t.Errorf("Weekday = %v, want Saturday", got)
	}
}

func TestNew_Validation(t *testing.T) {
	t.Parallel()

	if _, err := dates.New("Not/AZone", 3); err == nil {
		t.Error("expected error for unknown timezone")
	}
	if _, err := dates.New("UTC", 24); err == nil {
		t.Error("expected error for out-of-range cutoff")
	}
}
