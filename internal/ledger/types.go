// Package ledger holds the domain model and posting rules for the delivery
// business: customers with running receivable balances, products with voice
// keywords, and an append-only transaction log.
//
// Transactions are never physically deleted. Voiding sets the Deleted
// tombstone and appends a "[VOID]" marker to the description so that
// aggregation can replay history deterministically.
package ledger

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Type is the business reason for a transaction.
type Type string

const (
	TypeSale       Type = "sale"
	TypeCollection Type = "collection"
	TypeExpense    Type = "expense"
)

// PaymentMethod distinguishes cash sales from credit (customer-linked) sales.
type PaymentMethod string

const (
	PayCash   PaymentMethod = "cash"
	PayCredit PaymentMethod = "credit"
)

// CategoryBadDebt is the expense category used when a customer is deleted
// with an unrecoverable balance. Bad debt is reported separately from
// operating expenses.
const CategoryBadDebt = "Bad Debt"

// VoidMarker is appended to a transaction description when it is voided.
const VoidMarker = " [VOID]"

// ScheduleItem is one weekday entry of a customer's standing delivery order.
type ScheduleItem struct {
	Quantity int    `json:"qty"`
	Variant  string `json:"variant"`
	Delivery int64  `json:"delivery"`
}

// Customer is a credit account holder. Balance is a cached running
// receivable, mutated only through [Store.AdjustBalance], and must stay
// consistent with the transaction log.
type Customer struct {
	ID      uuid.UUID
	Name    string
	Phone   string
	Address string
	Balance int64

	// Schedule maps weekdays to the customer's standing delivery order.
	// Nil when the customer has no schedule.
	Schedule map[time.Weekday]ScheduleItem
}

// AddressIdentity returns the first whitespace-delimited token of the
// address (e.g. "C204" from "C204 Block 2"), the primary voice-matchable
// key. Empty when the address is empty.
func (c Customer) AddressIdentity() string {
	fields := strings.Fields(c.Address)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}

// Product is a sellable item. Keywords is an operator-assigned short voice
// code (e.g. "19") that disambiguates near-identical product names during
// spoken commands. May be empty.
type Product struct {
	ID       uuid.UUID
	Name     string
	Price    int64
	Keywords string
}

// Transaction is one append-only ledger entry.
type Transaction struct {
	ID            uuid.UUID
	Type          Type
	Amount        int64
	Date          time.Time
	Description   string
	CustomerID    *uuid.UUID
	ProductID     *uuid.UUID
	Quantity      int
	Category      string
	PaymentMethod PaymentMethod

	// Deleted is the logical tombstone. A voided transaction stays in the
	// log but is excluded from aggregation.
	Deleted bool
}
