package chainbean

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/shopspring/decimal"
)

// Directive is one posting line of a ledger entry: an account, a signed
// amount in a given asset, and optional cost and price annotations.
type Directive struct {
	Account string
	Amount  decimal.Decimal
	Symbol  string
	Cost    string
	Price   string
	// AmbiguousCost marks the cost basis as unknown; such postings render an
	// empty cost annotation "{}" so the accounting tool infers the lot.
	AmbiguousCost bool
	Metadata      map[string]string
}

// NewDirective creates a posting with an ambiguous cost basis, the default
// until the price enricher resolves it.
func NewDirective(account string, amount decimal.Decimal, symbol string) *Directive {
	return &Directive{
		Account:       account,
		Amount:        amount,
		Symbol:        symbol,
		AmbiguousCost: true,
		Metadata:      make(map[string]string),
	}
}

// String renders the posting as a beancount line, two-space indented.
func (d *Directive) String() string {
	parts := []string{d.Account, d.Amount.String(), d.Symbol}
	if d.Cost != "" || d.AmbiguousCost {
		parts = append(parts, "{"+d.Cost+"}")
	}
	if d.Price != "" {
		parts = append(parts, "@ "+d.Price)
	}
	return strings.TrimRight("  "+strings.Join(parts, " "), " ")
}

// Entry is one ledger transaction: a dated, narrated set of postings that is
// intended to net to zero per asset.
type Entry struct {
	Date       Date
	Flag       string
	Narration  string
	Directives []*Directive
	Metadata   map[string]string
}

// NewEntry creates an empty entry with the usual "*" flag.
func NewEntry(day Date, narration string) *Entry {
	return &Entry{
		Date:      day,
		Flag:      "*",
		Narration: narration,
		Metadata:  make(map[string]string),
	}
}

// String renders the entry as a beancount block: a header line, metadata
// lines in stable key order, then one line per posting.
func (e *Entry) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s %q", e.Date, e.Flag, e.Narration)
	for _, key := range slices.Sorted(maps.Keys(e.Metadata)) {
		fmt.Fprintf(&b, "\n  %s: %q", key, e.Metadata[key])
	}
	for _, d := range e.Directives {
		b.WriteString("\n")
		b.WriteString(d.String())
	}
	return b.String()
}
