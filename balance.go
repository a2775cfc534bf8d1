package chainbean

import (
	"context"
	"fmt"
	"strconv"

	"github.com/shopspring/decimal"
)

// BalanceFetcher queries token balances at a block tag. *Etherscan
// implements it.
type BalanceFetcher interface {
	TokenBalance(ctx context.Context, contract, address, tag string) (string, error)
}

// BalanceAssertion is a point-in-time declared balance for an account/asset
// pair.
type BalanceAssertion struct {
	Date    Date
	Account string
	Amount  decimal.Decimal
	Symbol  string
}

// String renders the assertion as a beancount balance line.
func (b BalanceAssertion) String() string {
	return fmt.Sprintf("%s balance %s %s %s", b.Date, b.Account, b.Amount, b.Symbol)
}

// BuildBalances emits one balance assertion per discovered token for one
// tracked address, queried at the reference block and dated one day after
// the reference date. Queries run in strict sequence; they depend on the
// metadata collected during aggregation, so the caller must only invoke this
// once the token pass for the address has fully joined.
func BuildBalances(ctx context.Context, fetcher BalanceFetcher, conn Connection, tokens []TokenMeta, ref RefPoint) ([]BalanceAssertion, error) {
	tag := strconv.FormatInt(ref.BlockNumber, 16)
	day := DateOfUnix(ref.TimeStamp).AddDays(1)

	assertions := make([]BalanceAssertion, 0, len(tokens))
	for _, token := range tokens {
		raw, err := fetcher.TokenBalance(ctx, token.Info.ContractAddress, conn.Address, tag)
		if err != nil {
			return nil, err
		}
		amount, err := ScaleUnits(raw, token.Info.TokenDecimal)
		if err != nil {
			return nil, fmt.Errorf("balance of %s for %s: %w", token.Symbol, conn.Address, err)
		}
		assertions = append(assertions, BalanceAssertion{
			Date:    day,
			Account: conn.AccountPrefix + ":" + token.Symbol,
			Amount:  amount,
			Symbol:  token.Symbol,
		})
	}
	return assertions, nil
}
