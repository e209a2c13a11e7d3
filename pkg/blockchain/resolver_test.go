package blockchain_test

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"

	"github.com/agrishield/agrishield-sdk-go/internal/testutil/chainfake"
	"github.com/agrishield/agrishield-sdk-go/pkg/blockchain"
	"github.com/agrishield/agrishield-sdk-go/pkg/config"
)

var (
	contractAddr = common.HexToAddress("0x904d791a7D829fB33f5cB066C80Bbd94A075453A")
	sepoliaID    = big.NewInt(11155111)
)

func newPoolResolver(urls []string, dial blockchain.DialFunc) (*blockchain.Resolver, *blockchain.EndpointPool) {
	pool := blockchain.NewEndpointPool(urls)
	r := blockchain.NewResolver(nil, pool, contractAddr, sepoliaID, config.Timeouts{})
	r.SetDial(dial)
	return r, pool
}

func TestResolve_PoolFirstEndpoint(t *testing.T) {
	dials := 0
	r, _ := newPoolResolver([]string{"url-a", "url-b"}, func(ctx context.Context, url string) (blockchain.Backend, error) {
		dials++
		if url != "url-a" {
			t.Fatalf("dialed %q, want url-a", url)
		}
		return &chainfake.Backend{}, nil
	})

	binding, err := r.Resolve(context.Background())
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	defer binding.Close()

	if dials != 1 {
		t.Fatalf("dials = %d, want 1", dials)
	}
	if binding.Endpoint != "url-a" {
		t.Fatalf("endpoint = %q, want url-a", binding.Endpoint)
	}
	if binding.ReadWrite || binding.Signer != nil {
		t.Fatal("pool bindings must be read-only")
	}
	if binding.Contract == nil {
		t.Fatal("contract handle missing")
	}
}

func TestResolve_PoolFailover(t *testing.T) {
	r, pool := newPoolResolver([]string{"url-a", "url-b", "url-c"}, func(ctx context.Context, url string) (blockchain.Backend, error) {
		if url == "url-a" {
			return nil, errors.New("connection refused")
		}
		return &chainfake.Backend{}, nil
	})

	binding, err := r.Resolve(context.Background())
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	defer binding.Close()

	if binding.Endpoint != "url-b" {
		t.Fatalf("endpoint = %q, want url-b", binding.Endpoint)
	}
	// The cursor stays on the working endpoint for the next resolve.
	if pool.Current() != "url-b" {
		t.Fatalf("cursor on %q, want url-b", pool.Current())
	}
}

func TestResolve_PoolExhausted(t *testing.T) {
	dials := 0
	r, _ := newPoolResolver([]string{"url-a", "url-b", "url-c"}, func(ctx context.Context, url string) (blockchain.Backend, error) {
		dials++
		return nil, errors.New("connection refused")
	})

	_, err := r.Resolve(context.Background())
	if !errors.Is(err, blockchain.ErrEndpointsExhausted) {
		t.Fatalf("expected ErrEndpointsExhausted, got %v", err)
	}
	if dials != 3 {
		t.Fatalf("dials = %d, want one per endpoint", dials)
	}
}

func TestResolve_ContractNotFoundIsHardFailure(t *testing.T) {
	dials := 0
	r, _ := newPoolResolver([]string{"url-a", "url-b"}, func(ctx context.Context, url string) (blockchain.Backend, error) {
		dials++
		return &chainfake.Backend{
			CodeAtFn: func(ctx context.Context, account common.Address, blockNumber *big.Int) ([]byte, error) {
				return nil, nil // endpoint works, address is empty
			},
		}, nil
	})

	_, err := r.Resolve(context.Background())
	if !errors.Is(err, blockchain.ErrContractNotFound) {
		t.Fatalf("expected ErrContractNotFound, got %v", err)
	}
	if dials != 1 {
		t.Fatalf("dials = %d; a missing contract must not be retried on other endpoints", dials)
	}
}

func TestResolve_WalletReadWrite(t *testing.T) {
	account := common.HexToAddress("0x00000000000000000000000000000000000000aa")
	wallet := chainfake.NewWallet(account)
	pool := blockchain.NewEndpointPool([]string{"url-a", "url-b"})
	r := blockchain.NewResolver(wallet, pool, contractAddr, sepoliaID, config.Timeouts{})

	binding, err := r.Resolve(context.Background())
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	defer binding.Close()

	if !binding.ReadWrite {
		t.Fatal("wallet binding on the right chain must be read-write")
	}
	if binding.Signer == nil || binding.Signer.From != account {
		t.Fatal("signer missing or bound to the wrong account")
	}
	if binding.Endpoint != "wallet" {
		t.Fatalf("endpoint = %q, want wallet", binding.Endpoint)
	}
	// Wallet resolution must leave the fallback pool untouched.
	if pool.Current() != "url-a" {
		t.Fatalf("pool cursor moved to %q", pool.Current())
	}
}

func TestResolve_WalletWrongChainStaysReadOnly(t *testing.T) {
	account := common.HexToAddress("0x00000000000000000000000000000000000000aa")
	wallet := chainfake.NewWallet(account)
	wallet.BackendV.ChainIDFn = func(ctx context.Context) (*big.Int, error) {
		return big.NewInt(1), nil // mainnet instead of Sepolia
	}
	r := blockchain.NewResolver(wallet, blockchain.NewEndpointPool(nil), contractAddr, sepoliaID, config.Timeouts{})

	binding, err := r.Resolve(context.Background())
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	defer binding.Close()

	if !binding.WrongChain {
		t.Fatal("chain mismatch must be flagged")
	}
	if binding.ReadWrite || binding.Signer != nil {
		t.Fatal("wrong-chain binding must stay read-only")
	}
	if binding.Account != account {
		t.Fatal("account must still be bound for display")
	}
}

func TestResolve_WalletRejection(t *testing.T) {
	wallet := chainfake.NewWallet(common.HexToAddress("0x00000000000000000000000000000000000000aa"))
	wallet.RequestErr = blockchain.ErrUserRejected
	r := blockchain.NewResolver(wallet, blockchain.NewEndpointPool(nil), contractAddr, sepoliaID, config.Timeouts{})

	if _, err := r.Resolve(context.Background()); !errors.Is(err, blockchain.ErrUserRejected) {
		t.Fatalf("expected ErrUserRejected, got %v", err)
	}
}

func TestResolve_WalletNoAccounts(t *testing.T) {
	wallet := chainfake.NewWallet(common.Address{})
	r := blockchain.NewResolver(wallet, blockchain.NewEndpointPool(nil), contractAddr, sepoliaID, config.Timeouts{})

	if _, err := r.Resolve(context.Background()); !errors.Is(err, blockchain.ErrNoWalletAvailable) {
		t.Fatalf("expected ErrNoWalletAvailable, got %v", err)
	}
}

func TestHasWallet(t *testing.T) {
	r := blockchain.NewResolver(nil, blockchain.NewEndpointPool(nil), contractAddr, sepoliaID, config.Timeouts{})
	if r.HasWallet() {
		t.Fatal("HasWallet must be false without a wallet")
	}
	r = blockchain.NewResolver(chainfake.NewWallet(common.Address{}), blockchain.NewEndpointPool(nil), contractAddr, sepoliaID, config.Timeouts{})
	if !r.HasWallet() {
		t.Fatal("HasWallet must be true with a wallet attached")
	}
}
