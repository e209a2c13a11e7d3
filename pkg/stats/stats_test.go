package stats

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/agrishield/agrishield-sdk-go/internal/testutil/chainfake"
	"github.com/agrishield/agrishield-sdk-go/pkg/blockchain"
)

type stubSession struct {
	binding *blockchain.Binding
	err     error
}

func (s *stubSession) ReadBinding() (*blockchain.Binding, error) {
	return s.binding, s.err
}

func TestStats_Live(t *testing.T) {
	eth := new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil)
	contract := &chainfake.Contract{
		StatsFn: func() (blockchain.RawStats, error) {
			return blockchain.RawStats{
				TotalCapital:   new(big.Int).Mul(big.NewInt(120), eth),
				ActivePolicies: big.NewInt(42),
				TotalInvestors: big.NewInt(18),
				TotalPayouts:   new(big.Int).Div(eth, big.NewInt(4)), // 0.25 ETH
			}, nil
		},
	}
	a := NewAggregator(&stubSession{binding: &blockchain.Binding{
		Backend:  &chainfake.Backend{},
		Contract: contract,
	}})

	res, err := a.Stats(context.Background())
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if !res.IsLive() {
		t.Fatalf("provenance = %s, want live", res.Provenance)
	}
	if res.Stats.TotalCapital != "120" {
		t.Fatalf("total capital = %q, want 120", res.Stats.TotalCapital)
	}
	if res.Stats.TotalPayouts != "0.25" {
		t.Fatalf("total payouts = %q, want 0.25", res.Stats.TotalPayouts)
	}
	if res.Stats.ActivePolicies != 42 || res.Stats.TotalInvestors != 18 {
		t.Fatalf("counts = %d/%d, want 42/18", res.Stats.ActivePolicies, res.Stats.TotalInvestors)
	}
}

func TestStats_PlaceholderOnRemoteFailure(t *testing.T) {
	contract := &chainfake.Contract{
		StatsFn: func() (blockchain.RawStats, error) {
			return blockchain.RawStats{}, errors.New("connection refused")
		},
	}
	a := NewAggregator(&stubSession{binding: &blockchain.Binding{
		Backend:  &chainfake.Backend{},
		Contract: contract,
	}})

	res, err := a.Stats(context.Background())
	if err != nil {
		t.Fatalf("remote failure must not surface as error, got %v", err)
	}
	if res.IsLive() {
		t.Fatal("failed read must be tagged placeholder")
	}
	if res.Stats != placeholderStats {
		t.Fatalf("payload = %+v, want the fixed placeholder", res.Stats)
	}
}

func TestStats_CapabilityErrorSurfaces(t *testing.T) {
	a := NewAggregator(&stubSession{err: blockchain.ErrCapabilityDenied})

	_, err := a.Stats(context.Background())
	if !errors.Is(err, blockchain.ErrCapabilityDenied) {
		t.Fatalf("expected ErrCapabilityDenied, got %v", err)
	}
}

func TestStats_NeverMixed(t *testing.T) {
	// A partially populated remote payload still counts as success and is
	// served live in full; substitution only happens on outright failure.
	contract := &chainfake.Contract{
		StatsFn: func() (blockchain.RawStats, error) {
			return blockchain.RawStats{
				TotalCapital:   big.NewInt(0),
				ActivePolicies: big.NewInt(0),
				TotalInvestors: big.NewInt(0),
				TotalPayouts:   big.NewInt(0),
			}, nil
		},
	}
	a := NewAggregator(&stubSession{binding: &blockchain.Binding{
		Backend:  &chainfake.Backend{},
		Contract: contract,
	}})

	res, err := a.Stats(context.Background())
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if !res.IsLive() {
		t.Fatal("successful read must be live")
	}
	if res.Stats.TotalCapital == placeholderStats.TotalCapital {
		t.Fatal("live payload must not borrow placeholder fields")
	}
	if res.Stats.TotalCapital != "0" {
		t.Fatalf("total capital = %q, want 0", res.Stats.TotalCapital)
	}
}
