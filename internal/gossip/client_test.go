package gossip

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Klingon-tech/klingnet-ledger/internal/wire"
	"github.com/Klingon-tech/klingnet-ledger/pkg/block"
)

func TestFetchNeighbours(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/neighbours" {
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
		json.NewEncoder(w).Encode(wire.NeighboursResponse{
			Neighbours: []string{"127.0.0.1:5001", "127.0.0.1:5002"},
			Length:     2,
		})
	}))
	defer srv.Close()

	c := New(time.Second)
	got, err := c.FetchNeighbours(context.Background(), strings.TrimPrefix(srv.URL, "http://"))
	if err != nil {
		t.Fatalf("FetchNeighbours: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("FetchNeighbours() = %v, want 2 entries", got)
	}
}

func TestFetchChain(t *testing.T) {
	genesis := block.Genesis()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(wire.ChainResponse{
			Chain:  wire.EncodeBlocks([]block.Block{genesis}),
			Length: 1,
		})
	}))
	defer srv.Close()

	c := New(time.Second)
	got, err := c.FetchChain(context.Background(), strings.TrimPrefix(srv.URL, "http://"))
	if err != nil {
		t.Fatalf("FetchChain: %v", err)
	}
	if len(got) != 1 || !got[0].Equal(genesis) {
		t.Fatalf("FetchChain() = %+v, want [genesis]", got)
	}
}

func TestFetchDataIsUnwrapped(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode([]wire.Envelope{{ID: "abc", Text: "hello"}})
	}))
	defer srv.Close()

	c := New(time.Second)
	got, err := c.FetchData(context.Background(), strings.TrimPrefix(srv.URL, "http://"))
	if err != nil {
		t.Fatalf("FetchData: %v", err)
	}
	if len(got) != 1 || got[0].ID != "abc" || got[0].Text != "hello" {
		t.Fatalf("FetchData() = %+v", got)
	}
}

func TestGetReportsNonOKStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := New(time.Second)
	if _, err := c.FetchNeighbours(context.Background(), strings.TrimPrefix(srv.URL, "http://")); err == nil {
		t.Fatalf("FetchNeighbours against a 500 response returned nil error")
	}
}
