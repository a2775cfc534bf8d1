package chainbean

import (
	"context"
	"errors"
	"testing"
)

type stubBalances struct {
	balances map[string]string // contract → raw units
	tags     []string
	err      error
}

func (s *stubBalances) TokenBalance(_ context.Context, contract, _, tag string) (string, error) {
	s.tags = append(s.tags, tag)
	if s.err != nil {
		return "", s.err
	}
	return s.balances[contract], nil
}

func TestBuildBalances(t *testing.T) {
	conn := Connection{Address: "0xaaa", Type: ChainEthereum, AccountPrefix: "Assets:Crypto:Main"}
	tokens := []TokenMeta{
		{Symbol: "CSAI", Info: TokenInfo{ContractAddress: "0xcsai", TokenDecimal: "8"}},
		{Symbol: "SAI", Info: TokenInfo{ContractAddress: "0xsai", TokenDecimal: "18"}},
	}
	fetcher := &stubBalances{balances: map[string]string{
		"0xcsai": "99700000000",
		"0xsai":  "20500000000000000000",
	}}
	// 2020-03-01 00:00 UTC at block 10025037.
	ref := RefPoint{BlockNumber: 10025037, TimeStamp: 1583020800}

	assertions, err := BuildBalances(context.Background(), fetcher, conn, tokens, ref)
	if err != nil {
		t.Fatal(err)
	}
	// The block tag is hex without a 0x prefix, the date one day after the
	// reference transaction.
	for i, tag := range fetcher.tags {
		if tag != "98fa4d" {
			t.Errorf("query %d used tag %q, want %q", i, tag, "98fa4d")
		}
	}
	wants := []string{
		"2020-03-02 balance Assets:Crypto:Main:CSAI 997 CSAI",
		"2020-03-02 balance Assets:Crypto:Main:SAI 20.5 SAI",
	}
	if len(assertions) != len(wants) {
		t.Fatalf("got %d assertions, want %d", len(assertions), len(wants))
	}
	for i, want := range wants {
		if got := assertions[i].String(); got != want {
			t.Errorf("assertion %d = %q, want %q", i, got, want)
		}
	}
}

func TestBuildBalancesFetchFailure(t *testing.T) {
	boom := errors.New("boom")
	fetcher := &stubBalances{err: boom}
	conn := Connection{Address: "0xaaa", Type: ChainEthereum, AccountPrefix: "Assets:Crypto:Main"}
	tokens := []TokenMeta{{Symbol: "SAI", Info: TokenInfo{ContractAddress: "0xsai", TokenDecimal: "18"}}}

	_, err := BuildBalances(context.Background(), fetcher, conn, tokens, RefPoint{BlockNumber: 1, TimeStamp: 1583020800})
	if !errors.Is(err, boom) {
		t.Errorf("err = %v, want the fetch error surfaced", err)
	}
}
