package chainbean

import (
	"bufio"
	"io"
)

// Ledger is the final product of a roast: the entries in chronological order
// plus the balance assertions collected per tracked address.
type Ledger struct {
	Entries  []*Entry
	Balances []BalanceAssertion
}

// Encode writes the ledger as beancount text: one blank-line-separated block
// per entry, then the balance assertions one per line. Encoding the same
// ledger twice produces identical text.
func (l *Ledger) Encode(w io.Writer) error {
	bw := bufio.NewWriter(w)
	for i, e := range l.Entries {
		if i > 0 {
			bw.WriteString("\n\n")
		}
		bw.WriteString(e.String())
	}
	if len(l.Balances) > 0 {
		if len(l.Entries) > 0 {
			bw.WriteString("\n\n")
		}
		for i, b := range l.Balances {
			if i > 0 {
				bw.WriteString("\n")
			}
			bw.WriteString(b.String())
		}
	}
	bw.WriteString("\n")
	return bw.Flush()
}
