// Package match resolves spoken search terms against the customer and
// product books. Resolution is deliberately deterministic: rules are tried
// in a fixed priority order and the first customer or product that
// satisfies a rule wins, scanning in book order. A nil result is a hard
// miss; callers must not guess.
package match

import (
	"strings"

	"github.com/hbashir/paniwala/internal/ledger"
)

// Customer finds the customer a spoken term refers to. The term is usually
// an address identity ("C204", "204") but operators also say names, so the
// rules run broadest-first:
//
//  1. name contains term
//  2. full address contains term
//  3. address identity equals term
//  4. address identity starts with term
//  5. digits-only forms are equal ("204" finds "C204")
//
// All comparisons are case-insensitive on trimmed input. Returns nil when
// no rule matches.
func Customer(customers []ledger.Customer, term string) *ledger.Customer {
	t := strings.ToLower(strings.TrimSpace(term))
	if t == "" {
		return nil
	}

	type rule func(c *ledger.Customer) bool
	rules := []rule{
		func(c *ledger.Customer) bool {
			return strings.Contains(strings.ToLower(c.Name), t)
		},
		func(c *ledger.Customer) bool {
			return strings.Contains(strings.ToLower(c.Address), t)
		},
		func(c *ledger.Customer) bool {
			return strings.ToLower(c.AddressIdentity()) == t
		},
		func(c *ledger.Customer) bool {
			return strings.HasPrefix(strings.ToLower(c.AddressIdentity()), t)
		},
		func(c *ledger.Customer) bool {
			td := digitsOnly(t)
			return td != "" && digitsOnly(c.AddressIdentity()) == td
		},
	}

	for _, r := range rules {
		for i := range customers {
			if r(&customers[i]) {
				return &customers[i]
			}
		}
	}
	return nil
}

// Product finds the product a spoken variant key refers to. Exact keyword
// equality runs before the name-contains fallback so a keyword "1" never
// steals a lookup meant for "19". Keywords are a comma-separated list on
// the product. Returns nil when nothing matches.
func Product(products []ledger.Product, term string) *ledger.Product {
	t := strings.ToLower(strings.TrimSpace(term))
	if t == "" {
		return nil
	}

	for i := range products {
		for _, kw := range strings.Split(products[i].Keywords, ",") {
			if strings.ToLower(strings.TrimSpace(kw)) == t {
				return &products[i]
			}
		}
	}

	for i := range products {
		if strings.Contains(strings.ToLower(products[i].Name), t) {
			return &products[i]
		}
	}
	return nil
}

// digitsOnly strips everything that is not an ASCII digit.
func digitsOnly(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
