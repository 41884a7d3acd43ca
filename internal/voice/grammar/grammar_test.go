package grammar_test

import (
	"reflect"
	"testing"

	"github.com/hbashir/paniwala/internal/voice/grammar"
)

func TestResolve_Numbers(t *testing.T) {
	t.Parallel()

	tests := []struct {
		chunk string
		want  int
	}{
		{"204", 204},
		{"19", 19},
		{" 5 ", 5},
		{"two zero four", 204},
		{"nineteen", 19},
		{"twenty", 20},
		{"two 0 four", 204},
		// Digit-run fallback for chunks that defeat word mapping.
		{"3-4", 3},
	}
	for _, tt := range tests {
		v := grammar.Resolve(tt.chunk)
		if v.Kind != grammar.ValueNumber {
			t.Errorf("Resolve(%q): kind=%v, want ValueNumber", tt.chunk, v.Kind)
			continue
		}
		if v.Number != tt.want {
			t.Errorf("Resolve(%q) = %d, want %d", tt.chunk, v.Number, tt.want)
		}
	}
}

func TestResolve_IdentityToken(t *testing.T) {
	t.Parallel()

	tests := []struct {
		chunk string
		want  string
	}{
		{"c340", "C340"},
		{"c 340", "C340"},
		{"B12", "B12"},
	}
	for _, tt := range tests {
		v := grammar.Resolve(tt.chunk)
		if v.Kind != grammar.ValueIdentity {
			t.Errorf("Resolve(%q): kind=%v, want ValueIdentity", tt.chunk, v.Kind)
			continue
		}
		if v.Identity != tt.want {
			t.Errorf("Resolve(%q) = %q, want %q", tt.chunk, v.Identity, tt.want)
		}
	}
}

func TestResolve_Unresolvable(t *testing.T) {
	t.Parallel()

	for _, chunk := range []string{"", "   ", "hello there", "kothi"} {
		if v := grammar.Resolve(chunk); v.Kind != grammar.ValueNone {
			t.Errorf("Resolve(%q): kind=%v, want ValueNone", chunk, v.Kind)
		}
	}
}

func TestResolveAddress(t *testing.T) {
	t.Parallel()

	tests := []struct {
		chunk string
		want  string
	}{
		{"c two zero four", "C204"},
		{"c204", "C204"},
		{"two zero four", "204"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := grammar.ResolveAddress(tt.chunk); got != tt.want {
			t.Errorf("ResolveAddress(%q) = %q, want %q", tt.chunk, got, tt.want)
		}
	}
}

func TestTokenize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		raw  string
		want []string
	}{
		{"5 and 19 and 20", []string{"5", "19", "20"}},
		{"5 & 19 + 20", []string{"5", "19", "20"}},
		{"two zero four and 3", []string{"two zero four", "3"}},
		// "and" inside another word never splits.
		{"brandy and 3", []string{"brandy", "3"}},
		{"  and and  ", nil},
		{"", nil},
	}
	for _, tt := range tests {
		got := grammar.Tokenize(tt.raw)
		if !reflect.DeepEqual(got, tt.want) {
			t.Errorf("Tokenize(%q) = %q, want %q", tt.raw, got, tt.want)
		}
	}
}

// "two hundred and four" splitting at the conjunction is a documented
// grammar limitation, not a defect to paper over.
func TestTokenize_ConjunctionInsideNumeralPhrase(t *testing.T) {
	t.Parallel()

	got := grammar.Tokenize("two hundred and four")
	want := []string{"two hundred", "four"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Tokenize(%q) = %q, want %q", "two hundred and four", got, want)
	}
}

func TestClassify(t *testing.T) {
	t.Parallel()

	tests := []struct {
		chunk string
		want  grammar.Mode
	}{
		{"5", grammar.ModeCash},
		{"50", grammar.ModeCash},
		{"51", grammar.ModeCredit},
		{"204", grammar.ModeCredit},
		{"two zero four", grammar.ModeCredit},
		{"c204", grammar.ModeCredit},
		{"kothi", grammar.ModeCredit},
	}
	for _, tt := range tests {
		if got := grammar.Classify(tt.chunk, 0); got != tt.want {
			t.Errorf("Classify(%q) = %q, want %q", tt.chunk, got, tt.want)
		}
	}
}

func TestClassify_CustomThreshold(t *testing.T) {
	t.Parallel()

	if got := grammar.Classify("30", 25); got != grammar.ModeCredit {
		t.Errorf("Classify(%q, 25) = %q, want credit", "30", got)
	}
}
