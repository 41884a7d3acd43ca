package stats

import (
	"regexp"
	"strings"
)

// Old ledger exports stored no product reference, only descriptions like
// "Credit Sale (Akbar): 5x 19 Litre Bottle + Rs.20 Del". The name sits
// between the quantity's "x" and the delivery charge's "+".
var legacyNameRe = regexp.MustCompile(`x\s(.*?)\s\+`)

// ProductNameFromDescription recovers a product name from a legacy sale
// description. It tries the "x <name> +" shape first, then falls back to
// whatever follows the first "x", and finally to "Item" so history rows
// never carry an empty key.
func ProductNameFromDescription(desc string) string {
	if m := legacyNameRe.FindStringSubmatch(desc); m != nil {
		return strings.TrimSpace(m[1])
	}
	if _, after, ok := strings.Cut(desc, "x"); ok {
		if name := strings.TrimSpace(after); name != "" {
			return name
		}
	}
	return "Item"
}
