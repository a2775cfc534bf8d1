package chainbean

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
)

// newEtherscanServer serves canned explorer responses keyed on the action
// query parameter and counts the requests per action.
func newEtherscanServer(t *testing.T, responses map[string]string, hits *map[string]*int32) *httptest.Server {
	t.Helper()
	counts := make(map[string]*int32)
	for action := range responses {
		counts[action] = new(int32)
	}
	if hits != nil {
		*hits = counts
	}
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("apikey") == "" {
			t.Errorf("request without apikey: %s", r.URL)
		}
		action := r.URL.Query().Get("action")
		body, ok := responses[action]
		if !ok {
			t.Errorf("unexpected action %q", action)
			http.NotFound(w, r)
			return
		}
		atomic.AddInt32(counts[action], 1)
		fmt.Fprint(w, body)
	}))
}

func newTestEtherscan(t *testing.T, srv *httptest.Server) *Etherscan {
	t.Helper()
	sched := NewScheduler(1, 0)
	t.Cleanup(sched.Close)
	e := NewEtherscan("test-key", sched)
	e.BaseURL = srv.URL
	e.client = srv.Client()
	return e
}

func TestEtherscanNormalTransactions(t *testing.T) {
	srv := newEtherscanServer(t, map[string]string{
		"txlist": `{"status":"1","message":"OK","result":[
			{"hash":"0x1","from":"0xaaa","to":"0xbbb","value":"2000000000000000000","timeStamp":"1500000000","blockNumber":"100","gasUsed":"21000","gasPrice":"50000000000"},
			{"hash":"0x2","from":"0xbbb","to":"0xaaa","value":"0","timeStamp":"1500000100","blockNumber":"101","gasUsed":"40000","gasPrice":"50000000000"}
		]}`,
	}, nil)
	defer srv.Close()

	list, err := newTestEtherscan(t, srv).NormalTransactions(context.Background(), "0xaaa")
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 2 {
		t.Fatalf("got %d transactions, want 2", len(list))
	}
	want := RawTransfer{
		Hash: "0x1", From: "0xaaa", To: "0xbbb", Value: "2000000000000000000",
		TimeStamp: "1500000000", BlockNumber: "100", GasUsed: "21000", GasPrice: "50000000000",
	}
	if list[0] != want {
		t.Errorf("first transaction = %+v, want %+v", list[0], want)
	}
}

func TestEtherscanTokenTransfers(t *testing.T) {
	srv := newEtherscanServer(t, map[string]string{
		"tokentx": `{"status":"1","message":"OK","result":[
			{"hash":"0x1","from":"0xaaa","to":"0xccc","value":"20000000000000000000","tokenSymbol":"SAI","tokenDecimal":"18","contractAddress":"0xsai","timeStamp":"1500000000","blockNumber":"100"}
		]}`,
	}, nil)
	defer srv.Close()

	list, err := newTestEtherscan(t, srv).TokenTransfers(context.Background(), "0xaaa")
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 1 || list[0].TokenSymbol != "SAI" || list[0].ContractAddress != "0xsai" {
		t.Errorf("token transfers = %+v", list)
	}
}

func TestEtherscanTransactionByHash(t *testing.T) {
	var hits map[string]*int32
	srv := newEtherscanServer(t, map[string]string{
		"eth_getTransactionByHash": `{"result":
			{"hash":"0x1","from":"0xAAA","to":"0xBBB","value":"0x1bc16d674ec80000","gasPrice":"0xba43b7400"}
		}`,
		"eth_getTransactionReceipt": `{"result":{"gasUsed":"0x5208"}}`,
	}, &hits)
	defer srv.Close()

	e := newTestEtherscan(t, srv)
	detail, err := e.TransactionByHash(context.Background(), "0x1")
	if err != nil {
		t.Fatal(err)
	}
	want := TxDetail{
		Hash: "0x1", From: "0xAAA", To: "0xBBB",
		Value:    "2000000000000000000", // 0x1bc16d674ec80000
		GasPrice: "50000000000",         // 0xba43b7400
		GasUsed:  "21000",               // 0x5208
	}
	if detail != want {
		t.Errorf("detail = %+v, want %+v", detail, want)
	}

	// The second lookup is served from memory.
	if _, err := e.TransactionByHash(context.Background(), "0x1"); err != nil {
		t.Fatal(err)
	}
	if n := atomic.LoadInt32(hits["eth_getTransactionByHash"]); n != 1 {
		t.Errorf("transaction endpoint hit %d times, want memoized single hit", n)
	}
	if n := atomic.LoadInt32(hits["eth_getTransactionReceipt"]); n != 1 {
		t.Errorf("receipt endpoint hit %d times, want memoized single hit", n)
	}
}

func TestEtherscanTokenBalance(t *testing.T) {
	srv := newEtherscanServer(t, map[string]string{
		"tokenbalance": `{"status":"1","message":"OK","result":"20500000000000000000"}`,
	}, nil)
	defer srv.Close()

	balance, err := newTestEtherscan(t, srv).TokenBalance(context.Background(), "0xsai", "0xaaa", "98fa4d")
	if err != nil {
		t.Fatal(err)
	}
	if balance != "20500000000000000000" {
		t.Errorf("balance = %q", balance)
	}
}

func TestEtherscanMissingResult(t *testing.T) {
	srv := newEtherscanServer(t, map[string]string{
		"txlist": `{"status":"0","message":"NOTOK","result":null}`,
	}, nil)
	defer srv.Close()

	_, err := newTestEtherscan(t, srv).NormalTransactions(context.Background(), "0xaaa")
	if err == nil || !strings.Contains(err.Error(), "no result") {
		t.Errorf("err = %v, want a no-result error", err)
	}
}

func TestParseHex(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"0x5208", "21000", false},
		{"0x1bc16d674ec80000", "2000000000000000000", false},
		{"0x0", "0", false},
		{"0x", "0", false},
		{"0xzz", "", true},
	}
	for _, tc := range tests {
		got, err := parseHex(tc.in)
		if (err != nil) != tc.wantErr {
			t.Errorf("parseHex(%q) err = %v, wantErr %v", tc.in, err, tc.wantErr)
			continue
		}
		if got != tc.want {
			t.Errorf("parseHex(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
