package chainbean

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

// stubPrices answers lookups from a canned table and records every request.
type stubPrices struct {
	prices map[priceGroup]*HistoricalPrice
	errs   map[priceGroup]error
	asked  []priceGroup
}

func (s *stubPrices) History(_ context.Context, id string, day Date) *Future[*HistoricalPrice] {
	g := priceGroup{day: day, coin: id}
	s.asked = append(s.asked, g)
	f := &Future[*HistoricalPrice]{done: make(chan struct{})}
	f.val, f.err = s.prices[g], s.errs[g]
	close(f.done)
	return f
}

func priceTestConfig() *Config {
	return &Config{
		Fiat: "TWD",
		Coins: []Coin{
			{Symbol: "ETH", ID: "ethereum"},
			{Symbol: "SAI", ID: "sai"},
		},
	}
}

func priceTestEntry(day Date, dirs ...*Directive) *Entry {
	e := NewEntry(day, "ETH Transfer")
	e.Directives = dirs
	return e
}

func TestFillPricesOneLookupPerDateCoinGroup(t *testing.T) {
	day1, day2 := NewDate(2020, 3, 1), NewDate(2020, 3, 2)
	entries := []*Entry{
		priceTestEntry(day1,
			NewDirective("Assets:Crypto:Main:ETH", decimal.NewFromInt(2), "ETH"),
			NewDirective("Assets:Crypto:Main:ETH", decimal.NewFromInt(3), "ETH"),
			NewDirective("Assets:Crypto:Main:SAI", decimal.NewFromInt(5), "SAI"),
			NewDirective("Assets:Crypto:Main:XYZ", decimal.NewFromInt(1), "XYZ"), // no coin id
		),
		priceTestEntry(day1,
			NewDirective("Assets:Crypto:Other:ETH", decimal.NewFromInt(7), "ETH"),
		),
		priceTestEntry(day2,
			NewDirective("Assets:Crypto:Main:ETH", decimal.NewFromInt(1), "ETH"),
		),
	}
	src := &stubPrices{prices: map[priceGroup]*HistoricalPrice{
		{day: day1, coin: "ethereum"}: {ID: "ethereum", Day: day1, Symbol: "eth", Prices: map[string]float64{"twd": 7000}},
		{day: day1, coin: "sai"}:      {ID: "sai", Day: day1, Symbol: "sai", Prices: map[string]float64{"twd": 30.5}},
		{day: day2, coin: "ethereum"}: {ID: "ethereum", Day: day2, Symbol: "eth", Prices: map[string]float64{"twd": 7100}},
	}}

	FillPrices(context.Background(), entries, priceTestConfig(), src)

	want := []priceGroup{
		{day: day1, coin: "ethereum"},
		{day: day1, coin: "sai"},
		{day: day2, coin: "ethereum"},
	}
	if len(src.asked) != len(want) {
		t.Fatalf("issued %d lookups %v, want %d", len(src.asked), src.asked, len(want))
	}
	for i := range want {
		if src.asked[i] != want[i] {
			t.Errorf("lookup %d = %+v, want %+v", i, src.asked[i], want[i])
		}
	}

	if got := entries[0].Directives[0].Cost; got != "7000 TWD" {
		t.Errorf("first ETH cost = %q, want %q", got, "7000 TWD")
	}
	if got := entries[0].Directives[2].Cost; got != "30.5 TWD" {
		t.Errorf("SAI cost = %q, want %q", got, "30.5 TWD")
	}
	if got := entries[1].Directives[0].Cost; got != "7000 TWD" {
		t.Errorf("second entry same-day ETH cost = %q, want shared group price %q", got, "7000 TWD")
	}
	if got := entries[2].Directives[0].Cost; got != "7100 TWD" {
		t.Errorf("next-day ETH cost = %q, want %q", got, "7100 TWD")
	}
	if got := entries[0].Directives[3].Cost; got != "" {
		t.Errorf("unmapped symbol cost = %q, want untouched", got)
	}
}

func TestFillPricesSkipsNegativeAmounts(t *testing.T) {
	day := NewDate(2020, 3, 1)
	out := NewDirective("Assets:Crypto:Main:ETH", decimal.NewFromInt(-2), "ETH")
	in := NewDirective("Assets:Crypto:Other:ETH", decimal.NewFromInt(2), "ETH")
	src := &stubPrices{prices: map[priceGroup]*HistoricalPrice{
		{day: day, coin: "ethereum"}: {ID: "ethereum", Day: day, Symbol: "ETH", Prices: map[string]float64{"twd": 7000}},
	}}

	FillPrices(context.Background(), []*Entry{priceTestEntry(day, out, in)}, priceTestConfig(), src)

	if out.Cost != "" {
		t.Errorf("outgoing cost = %q, want negative amounts left alone", out.Cost)
	}
	if in.Cost != "7000 TWD" {
		t.Errorf("incoming cost = %q, want %q", in.Cost, "7000 TWD")
	}
}

func TestFillPricesFailedGroupLeftUnannotated(t *testing.T) {
	day := NewDate(2020, 3, 1)
	eth := NewDirective("Assets:Crypto:Main:ETH", decimal.NewFromInt(2), "ETH")
	sai := NewDirective("Assets:Crypto:Main:SAI", decimal.NewFromInt(5), "SAI")
	src := &stubPrices{
		prices: map[priceGroup]*HistoricalPrice{
			{day: day, coin: "sai"}: {ID: "sai", Day: day, Symbol: "SAI", Prices: map[string]float64{"twd": 30.5}},
		},
		errs: map[priceGroup]error{
			{day: day, coin: "ethereum"}: errors.New("upstream down"),
		},
	}

	FillPrices(context.Background(), []*Entry{priceTestEntry(day, eth, sai)}, priceTestConfig(), src)

	if eth.Cost != "" {
		t.Errorf("failed group cost = %q, want untouched", eth.Cost)
	}
	if sai.Cost != "30.5 TWD" {
		t.Errorf("healthy group cost = %q, want %q", sai.Cost, "30.5 TWD")
	}
}

func TestFillPricesRerunLeavesAmountsAlone(t *testing.T) {
	// Enrichment only annotates costs; running it again must neither change
	// amounts nor the annotations already applied.
	day := NewDate(2020, 3, 1)
	d := NewDirective("Assets:Crypto:Main:ETH", decimal.RequireFromString("2.5"), "ETH")
	src := &stubPrices{prices: map[priceGroup]*HistoricalPrice{
		{day: day, coin: "ethereum"}: {ID: "ethereum", Day: day, Symbol: "ETH", Prices: map[string]float64{"twd": 7000}},
	}}
	entries := []*Entry{priceTestEntry(day, d)}

	FillPrices(context.Background(), entries, priceTestConfig(), src)
	FillPrices(context.Background(), entries, priceTestConfig(), src)

	if d.Amount.String() != "2.5" {
		t.Errorf("amount = %s, want 2.5 untouched", d.Amount)
	}
	if d.Cost != "7000 TWD" {
		t.Errorf("cost = %q, want %q", d.Cost, "7000 TWD")
	}
}

func TestFillPricesSkipsSymbolMismatch(t *testing.T) {
	// The response's ticker must match the directive symbol; otherwise the
	// price belongs to another listing under the same id and is not applied.
	day := NewDate(2020, 3, 1)
	d := NewDirective("Assets:Crypto:Main:SAI", decimal.NewFromInt(5), "SAI")
	src := &stubPrices{prices: map[priceGroup]*HistoricalPrice{
		{day: day, coin: "sai"}: {ID: "sai", Day: day, Symbol: "dai", Prices: map[string]float64{"twd": 30.5}},
	}}

	FillPrices(context.Background(), []*Entry{priceTestEntry(day, d)}, priceTestConfig(), src)

	if d.Cost != "" {
		t.Errorf("cost = %q, want untouched for a mismatched ticker", d.Cost)
	}
}
