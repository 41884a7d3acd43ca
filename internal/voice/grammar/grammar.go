// Package grammar implements the token grammar for spoken sale commands.
//
// A command is a short "and"-separated phrase such as "5 and 19 and 20"
// (cash: quantity, variant, delivery) or "c204 and 3 and 19" (credit:
// address identity, quantity, variant). The package normalises a raw
// recognition transcript into ordered chunks ([Tokenize]), resolves each
// chunk into a number or an identity token ([Resolve], [ResolveAddress]),
// and classifies ambiguous commands as cash or credit ([Classify]).
//
// All functions are pure and safe for concurrent use.
package grammar

import (
	"strconv"
	"strings"
	"unicode"
)

// Mode is the sale mode a command is interpreted under.
type Mode string

const (
	// ModeCash interprets the first chunk as a quantity.
	ModeCash Mode = "cash"

	// ModeCredit interprets the first chunk as a customer address identity.
	ModeCredit Mode = "credit"

	// ModeAuto defers the cash/credit decision to [Classify].
	ModeAuto Mode = "auto"
)

// IsValid reports whether m is a recognised mode.
func (m Mode) IsValid() bool {
	return m == ModeCash || m == ModeCredit || m == ModeAuto
}

// DefaultClassifyThreshold is the numeric boundary used by [Classify] when
// the caller does not configure one. First chunks resolving above it are
// read as address identities: plausible delivery quantities rarely exceed
// 50 while plain numeric addresses often do. It is a heuristic, not a
// guarantee: an address of exactly "45" misclassifies.
const DefaultClassifyThreshold = 50

// conjunction is the literal word that separates command fields.
const conjunction = "and"

// wordDigits maps spoken number words to their numeric value. It covers the
// digits, teens, and tens that operators use for addresses and quantities.
var wordDigits = map[string]int{
	"zero": 0, "oh": 0,
	"one": 1, "two": 2, "three": 3, "four": 4, "five": 5,
	"six": 6, "seven": 7, "eight": 8, "nine": 9,
	"ten": 10, "eleven": 11, "twelve": 12, "thirteen": 13, "fourteen": 14,
	"fifteen": 15, "sixteen": 16, "seventeen": 17, "eighteen": 18, "nineteen": 19,
	"twenty": 20, "thirty": 30, "forty": 40, "fifty": 50,
	"sixty": 60, "seventy": 70, "eighty": 80, "ninety": 90,
	"hundred": 100,
}

// ValueKind discriminates the outcome of [Resolve].
type ValueKind int

const (
	// ValueNone means the chunk could not be resolved.
	ValueNone ValueKind = iota

	// ValueNumber means the chunk resolved to a non-negative integer.
	ValueNumber

	// ValueIdentity means the chunk resolved to an opaque alphanumeric
	// identity token such as "C340".
	ValueIdentity
)

// Value is the resolved form of a single spoken chunk. Immutable once
// produced.
type Value struct {
	Kind     ValueKind
	Number   int
	Identity string
}

// Resolve converts one chunk into a canonical numeric or identity value.
//
// Resolution order:
//
//  1. A pure digit string parses as an integer ("204" → 204).
//  2. A chunk containing both a letter and a digit is an identity token:
//     whitespace stripped, uppercased ("c340" → "C340").
//  3. Word-by-word table mapping with positional concatenation: "two zero
//     four" → "204" → 204 and "nineteen" → 19. Concatenation, not summation:
//     operators speak multi-digit identifiers digit by digit.
//  4. The first contiguous digit run anywhere in the chunk.
//  5. A whole-chunk number-word lookup.
//
// Chunks that survive none of these resolve to a [ValueNone] value.
func Resolve(chunk string) Value {
	clean := strings.ToLower(strings.TrimSpace(chunk))
	if clean == "" {
		return Value{}
	}

	if isDigits(clean) {
		return numberValue(clean)
	}

	if hasLetter(clean) && hasDigit(clean) {
		compact := strings.Join(strings.Fields(clean), "")
		return Value{Kind: ValueIdentity, Identity: strings.ToUpper(compact)}
	}

	parts := strings.Fields(clean)
	mapped := make([]string, 0, len(parts))
	allNumeric := true
	for _, p := range parts {
		switch {
		case isDigits(p):
			mapped = append(mapped, p)
		default:
			d, ok := wordDigits[p]
			if !ok {
				allNumeric = false
			} else {
				mapped = append(mapped, strconv.Itoa(d))
			}
		}
		if !allNumeric {
			break
		}
	}
	if allNumeric && len(mapped) > 0 {
		return numberValue(strings.Join(mapped, ""))
	}

	if run := firstDigitRun(clean); run != "" {
		return numberValue(run)
	}

	if d, ok := wordDigits[clean]; ok {
		return Value{Kind: ValueNumber, Number: d}
	}

	return Value{}
}

// ResolveAddress compacts a spoken address chunk into an identity token.
// Number words become digits, everything is uppercased, and whitespace is
// removed, so "c two zero four" → "C204" and "c340" → "C340". Returns ""
// when the chunk is empty.
func ResolveAddress(chunk string) string {
	fields := strings.Fields(strings.ToLower(strings.TrimSpace(chunk)))
	var b strings.Builder
	for _, f := range fields {
		if d, ok := wordDigits[f]; ok {
			b.WriteString(strconv.Itoa(d))
		} else {
			b.WriteString(f)
		}
	}
	return strings.ToUpper(b.String())
}

// Tokenize normalises a raw transcript and splits it into ordered chunks on
// the conjunction word. "&" and "+" are treated as spoken forms of the
// conjunction. The split only happens on the conjunction as a standalone
// token, so "brandy" is never split and multi-word numeral phrases like
// "two zero four" survive as a single chunk.
//
// Known limitation: "two hundred and four" splits at the conjunction into
// two chunks. The grammar treats "and" strictly as a field separator.
func Tokenize(raw string) []string {
	lower := strings.ToLower(raw)
	lower = strings.ReplaceAll(lower, "&", " "+conjunction+" ")
	lower = strings.ReplaceAll(lower, "+", " "+conjunction+" ")

	var chunks []string
	var cur []string
	flush := func() {
		if len(cur) > 0 {
			chunks = append(chunks, strings.Join(cur, " "))
			cur = cur[:0]
		}
	}
	for _, f := range strings.Fields(lower) {
		if f == conjunction {
			flush()
			continue
		}
		cur = append(cur, f)
	}
	flush()
	return chunks
}

// Classify decides whether a command whose mode is unspecified is a cash or
// a credit sale by inspecting its first chunk. A chunk with letters outside
// the number-word table, or a numeric value above threshold, reads as an
// address identity and classifies as credit; anything else is a cash
// quantity. threshold <= 0 selects [DefaultClassifyThreshold].
func Classify(chunk string, threshold int) Mode {
	if threshold <= 0 {
		threshold = DefaultClassifyThreshold
	}
	switch v := Resolve(chunk); v.Kind {
	case ValueNumber:
		if v.Number > threshold {
			return ModeCredit
		}
		return ModeCash
	case ValueIdentity:
		return ModeCredit
	default:
		// Unresolvable words are plain address text ("block nine kothi").
		return ModeCredit
	}
}

func numberValue(digits string) Value {
	n, err := strconv.Atoi(digits)
	if err != nil {
		// Digit runs longer than an int are useless as quantities or
		// addresses; treat as unresolvable.
		return Value{}
	}
	return Value{Kind: ValueNumber, Number: n}
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func hasLetter(s string) bool {
	for _, r := range s {
		if unicode.IsLetter(r) {
			return true
		}
	}
	return false
}

func hasDigit(s string) bool {
	for _, r := range s {
		if r >= '0' && r <= '9' {
			return true
		}
	}
	return false
}

func firstDigitRun(s string) string {
	start := -1
	for i, r := range s {
		if r >= '0' && r <= '9' {
			if start == -1 {
				start = i
			}
			continue
		}
		if start != -1 {
			return s[start:i]
		}
	}
	if start != -1 {
		return s[start:]
	}
	return ""
}
