package ledger

import (
	"fmt"
	"net/url"
	"strings"
)

// Receipt is the outbound notification payload for a posted transaction.
// Message composition and delivery happen outside this module; the ledger
// only defines the data crossing that boundary.
type Receipt struct {
	Description string `json:"description"`
	Amount      int64  `json:"amount"`
	Balance     int64  `json:"balance"`
}

// ReceiptFor builds the notification payload for tx against the customer's
// balance after posting.
func ReceiptFor(tx Transaction, balance int64) Receipt {
	return Receipt{
		Description: tx.Description,
		Amount:      tx.Amount,
		Balance:     balance,
	}
}

// Text renders the receipt as a short message body.
func (r Receipt) Text() string {
	return fmt.Sprintf("%s\nAmount: Rs.%d\nBalance: Rs.%d", r.Description, r.Amount, r.Balance)
}

// MessageLink returns a wa.me deep link that opens a chat with phone
// pre-filled with the receipt text. Returns "" when phone is empty.
func (r Receipt) MessageLink(phone string) string {
	digits := strings.Map(func(c rune) rune {
		if c >= '0' && c <= '9' {
			return c
		}
		return -1
	}, phone)
	if digits == "" {
		return ""
	}
	return "https://wa.me/" + digits + "?text=" + url.QueryEscape(r.Text())
}
