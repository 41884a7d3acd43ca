// Package stats builds the dashboard rollups from the transaction log.
// Aggregation is a single linear pass over non-void transactions; every
// grouping is keyed by business date, never the raw calendar date.
package stats

import (
	"github.com/google/uuid"

	"github.com/hbashir/paniwala/internal/dates"
	"github.com/hbashir/paniwala/internal/ledger"
)

// VariantStat tallies one product's sales within a day.
type VariantStat struct {
	ProductID uuid.UUID `json:"productId"`
	Name      string    `json:"name"`
	Count     int       `json:"count"`
	Revenue   int64     `json:"revenue"`
}

// DayStat is one business day's rollup. Variants preserves first-sale
// order so tie-breaks are deterministic.
type DayStat struct {
	Collection int64         `json:"collection"`
	Bottles    int           `json:"bottles"`
	Variants   []VariantStat `json:"variants"`

	byProduct map[uuid.UUID]int // index into Variants
}

// TopVariant returns the day's best-selling variant by count. Ties keep
// the first-encountered variant: the comparison is strictly greater-than
// over insertion order. ok is false when the day had no product sales.
func (d *DayStat) TopVariant() (v VariantStat, ok bool) {
	max := -1
	for i := range d.Variants {
		if d.Variants[i].Count > max {
			max = d.Variants[i].Count
			v = d.Variants[i]
			ok = true
		}
	}
	return v, ok
}

// MonthStat is one business month's rollup. Expenses excludes bad debt;
// bad debt write-offs accumulate separately.
type MonthStat struct {
	Collection   int64 `json:"collection"`
	Expenses     int64 `json:"expenses"`
	CashExpenses int64 `json:"cashExpenses"`
	BadDebt      int64 `json:"badDebt"`
}

// NetIncome is the month's collection minus its non-bad-debt expenses.
func (m *MonthStat) NetIncome() int64 { return m.Collection - m.Expenses }

// Report is the full aggregation output. Maps are keyed by business date
// key ("2006-01-02") and month key ("2006-01").
type Report struct {
	Days            map[string]*DayStat
	Months          map[string]*MonthStat
	CustomerHistory map[uuid.UUID]map[string]int
	LifetimeNet     int64
	TotalReceivable int64
}

// Day returns the rollup for key, or a zero-valued stat when the day has
// no transactions.
func (r *Report) Day(key string) *DayStat {
	if d, ok := r.Days[key]; ok {
		return d
	}
	return &DayStat{}
}

// Month returns the rollup for key, or a zero-valued stat when the month
// has no transactions.
func (r *Report) Month(key string) *MonthStat {
	if m, ok := r.Months[key]; ok {
		return m
	}
	return &MonthStat{}
}

// Aggregate scans the transaction log once and builds the report. Voided
// transactions are skipped entirely. A sale contributes to collection only
// when paid cash; credit sales surface through receivables instead.
func Aggregate(engine *dates.Engine, txs []ledger.Transaction, customers []ledger.Customer, products []ledger.Product) *Report {
	r := &Report{
		Days:            make(map[string]*DayStat),
		Months:          make(map[string]*MonthStat),
		CustomerHistory: make(map[uuid.UUID]map[string]int),
	}

	names := make(map[uuid.UUID]string, len(products))
	for _, p := range products {
		names[p.ID] = p.Name
	}

	var collections, expenses, badDebt int64

	for i := range txs {
		t := &txs[i]
		if t.Deleted {
			continue
		}

		dKey := engine.Key(t.Date)
		mKey := dKey[:7]

		day, ok := r.Days[dKey]
		if !ok {
			day = &DayStat{byProduct: make(map[uuid.UUID]int)}
			r.Days[dKey] = day
		}
		month, ok := r.Months[mKey]
		if !ok {
			month = &MonthStat{}
			r.Months[mKey] = month
		}

		cashSale := t.Type == ledger.TypeSale && t.PaymentMethod == ledger.PayCash

		if t.Type == ledger.TypeCollection || cashSale {
			collections += t.Amount
			day.Collection += t.Amount
			month.Collection += t.Amount
		}

		if t.Type == ledger.TypeExpense {
			if t.Category == ledger.CategoryBadDebt {
				badDebt += t.Amount
				month.BadDebt += t.Amount
			} else {
				expenses += t.Amount
				month.Expenses += t.Amount
				month.CashExpenses += t.Amount
			}
		}

		if t.Type == ledger.TypeSale {
			day.Bottles += t.Quantity

			if t.CustomerID != nil {
				name := ""
				if t.ProductID != nil {
					name = names[*t.ProductID]
				}
				if name == "" {
					name = ProductNameFromDescription(t.Description)
				}
				hist, ok := r.CustomerHistory[*t.CustomerID]
				if !ok {
					hist = make(map[string]int)
					r.CustomerHistory[*t.CustomerID] = hist
				}
				hist[name] += t.Quantity
			}

			if t.ProductID != nil {
				idx, ok := day.byProduct[*t.ProductID]
				if !ok {
					name := names[*t.ProductID]
					if name == "" {
						name = "Unknown"
					}
					day.Variants = append(day.Variants, VariantStat{ProductID: *t.ProductID, Name: name})
					idx = len(day.Variants) - 1
					day.byProduct[*t.ProductID] = idx
				}
				day.Variants[idx].Count += t.Quantity
				day.Variants[idx].Revenue += t.Amount
			}
		}
	}

	for i := range customers {
		r.TotalReceivable += customers[i].Balance
	}
	r.LifetimeNet = collections - (expenses + badDebt)

	return r
}
