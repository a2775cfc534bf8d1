package chainbean

import (
	"log"

	"github.com/shopspring/decimal"
)

// BuildEntries converts aggregated transactions into ledger entries, one per
// transaction, in ascending timestamp order. The transactions slice must
// already be sorted (see Aggregator.Transactions).
func BuildEntries(txs []*AggregatedTransaction, conns []Connection, accounts Accounts) []*Entry {
	entries := make([]*Entry, 0, len(txs))
	for _, tx := range txs {
		entries = append(entries, buildEntry(tx, conns, accounts))
	}
	return entries
}

func buildEntry(tx *AggregatedTransaction, conns []Connection, accounts Accounts) *Entry {
	e := NewEntry(DateOfUnix(tx.unix()), tx.Kind.String())
	e.Metadata["tx"] = tx.Hash

	// Gas legs: the sender pays the fee, so they only exist when the sender
	// is a tracked connection.
	if fromConn := FindConnection(tx.From, conns); fromConn != nil {
		gas, err := mulUnits(tx.GasUsed, tx.GasPrice)
		if err != nil {
			log.Printf("tx %s: unreadable gas fields (skipping fee legs): %v", tx.Hash, err)
		} else {
			e.Directives = append(e.Directives,
				NewDirective(accounts.EthTx, gas, nativeSymbol),
				NewDirective(fromConn.AccountPrefix+":"+nativeSymbol, gas.Neg(), nativeSymbol),
			)
		}
	}

	e.Directives = append(e.Directives, tokenDirectives(tx.Legs, conns, accounts)...)

	// Native-value legs.
	if val, err := ScaleUnits(tx.Value, "18"); err != nil {
		log.Printf("tx %s: unreadable native value %q: %v", tx.Hash, tx.Value, err)
	} else if !val.IsZero() {
		fromConn := FindConnection(tx.From, conns)
		toConn := FindConnection(tx.To, conns)
		e.Directives = append(e.Directives,
			legDirective(val.Neg(), fromConn, nativeSymbol, accounts.Deposit),
			legDirective(val, toConn, nativeSymbol, accounts.Withdraw),
		)
	}

	return e
}

// tokenDirectives emits the postings for the token legs of one transaction.
//
// In a multi-leg transaction a leg whose counterpart is not a tracked
// connection is dropped: it is assumed to net against a tracked leg elsewhere
// in the same transaction. For example
//
//	Assets:Crypto:Wallet:SAI  -20 SAI
//	Expenses:Unknown           20 SAI
//	Income:Unknown           -100 CSAI
//	Assets:Crypto:Wallet:CSAI 100 CSAI
//
// collapses to the two wallet postings. A single-leg transaction always keeps
// its leg, falling back to the configured deposit/withdraw accounts.
func tokenDirectives(legs []RawTransfer, conns []Connection, accounts Accounts) []*Directive {
	var dirs []*Directive
	for _, leg := range legs {
		val, err := ScaleUnits(leg.Value, leg.TokenDecimal)
		if err != nil {
			log.Printf("tx %s: unreadable token leg value %q: %v", leg.Hash, leg.Value, err)
			continue
		}
		if val.IsZero() {
			continue
		}
		fromConn := FindConnection(leg.From, conns)
		toConn := FindConnection(leg.To, conns)
		if fromConn != nil || len(legs) <= 1 {
			dirs = append(dirs, legDirective(val.Neg(), fromConn, leg.TokenSymbol, accounts.Deposit))
		}
		if toConn != nil || len(legs) <= 1 {
			dirs = append(dirs, legDirective(val, toConn, leg.TokenSymbol, accounts.Withdraw))
		}
	}
	return dirs
}

// legDirective emits one side of a transfer leg: the connection's
// prefix:symbol account when the counterpart is tracked, else the fallback.
func legDirective(amount decimal.Decimal, conn *Connection, symbol, fallback string) *Directive {
	account := fallback
	if conn != nil {
		account = conn.AccountPrefix + ":" + symbol
	}
	return NewDirective(account, amount, symbol)
}
