package blockchain

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	"go.uber.org/zap"

	"github.com/agrishield/agrishield-sdk-go/pkg/config"
)

// DialFunc opens a chain backend for an endpoint URL. The default dials via
// ethclient; tests substitute fakes.
type DialFunc func(ctx context.Context, url string) (Backend, error)

func ethDial(ctx context.Context, url string) (Backend, error) {
	return ethclient.DialContext(ctx, url)
}

// Binding is the provider/signer/contract triple produced by one successful
// resolution. It is owned by the session manager and rebuilt wholesale on
// every account or chain change; the contract handle is never reused across
// chain switches.
type Binding struct {
	Backend  Backend
	Contract Contract
	// Signer is non-nil only for read-write bindings.
	Signer  *bind.TransactOpts
	Account common.Address
	// Endpoint is the bound URL for pool bindings, or "wallet" for
	// wallet-backed ones.
	Endpoint  string
	ReadWrite bool
	// WrongChain marks a wallet binding whose chain id did not match the
	// configured target. Such bindings stay read-only.
	WrongChain bool
}

// Close releases the binding's backend connection. Safe on nil.
func (b *Binding) Close() {
	if b != nil && b.Backend != nil {
		b.Backend.Close()
	}
}

// Resolver decides, at connection time, whether to bind to the attached
// wallet provider (read-write capable) or to the next member of the fallback
// endpoint pool (read-only). Transient pool failures are retried against the
// next endpoint; wallet binding never advances the pool cursor.
type Resolver struct {
	wallet       WalletProvider // nil when no wallet is attached
	pool         *EndpointPool
	contractAddr common.Address
	chainID      *big.Int
	timeouts     config.Timeouts
	dial         DialFunc
}

// NewResolver builds a resolver for the given contract address and target
// chain id. wallet may be nil.
func NewResolver(wallet WalletProvider, pool *EndpointPool, contractAddr common.Address, chainID *big.Int, timeouts config.Timeouts) *Resolver {
	return &Resolver{
		wallet:       wallet,
		pool:         pool,
		contractAddr: contractAddr,
		chainID:      chainID,
		timeouts:     timeouts.WithDefaults(),
		dial:         ethDial,
	}
}

// SetDial overrides the endpoint dialer. Intended for tests.
func (r *Resolver) SetDial(dial DialFunc) {
	r.dial = dial
}

// HasWallet reports whether a wallet provider is attached.
func (r *Resolver) HasWallet() bool {
	return r.wallet != nil
}

// Resolve produces a Binding. With a wallet attached it binds read-write
// through the wallet's backend (read-only if the wallet sits on the wrong
// chain); otherwise it walks the endpoint pool until one endpoint serves the
// contract, failing with ErrEndpointsExhausted when none does. Either path
// verifies contract bytecode at the configured address and fails hard with
// ErrContractNotFound when it is absent.
func (r *Resolver) Resolve(ctx context.Context) (*Binding, error) {
	if r.wallet != nil {
		return r.resolveWallet(ctx)
	}
	return r.resolvePool(ctx)
}

func (r *Resolver) resolveWallet(ctx context.Context) (*Binding, error) {
	accounts, err := r.wallet.RequestAccounts(ctx)
	if err != nil {
		return nil, err
	}
	if len(accounts) == 0 {
		return nil, ErrNoWalletAvailable
	}

	backend, err := r.wallet.Backend(ctx)
	if err != nil {
		return nil, RemoteCall("wallet dial", err)
	}

	if err := r.verifyContract(ctx, backend); err != nil {
		backend.Close()
		return nil, err
	}

	chainID, err := backend.ChainID(ctx)
	if err != nil {
		backend.Close()
		return nil, RemoteCall("chain id", err)
	}

	binding := &Binding{
		Backend:  backend,
		Account:  accounts[0],
		Endpoint: "wallet",
	}
	binding.Contract, err = NewAgriShield(r.contractAddr, backend)
	if err != nil {
		backend.Close()
		return nil, err
	}

	if chainID.Cmp(r.chainID) != 0 {
		// Wrong chain denies write capability; reads still work.
		zap.L().Warn("wallet bound to wrong network, session stays read-only",
			zap.String("got", chainID.String()),
			zap.String("want", r.chainID.String()))
		binding.WrongChain = true
		return binding, nil
	}

	binding.Signer, err = r.wallet.TransactOpts(chainID)
	if err != nil {
		backend.Close()
		return nil, err
	}
	binding.Signer.From = accounts[0]
	binding.ReadWrite = true

	zap.L().Debug("resolved wallet provider",
		zap.String("account", accounts[0].Hex()),
		zap.String("chain", chainID.String()))
	return binding, nil
}

func (r *Resolver) resolvePool(ctx context.Context) (*Binding, error) {
	var lastErr error
	for attempt := 0; attempt < r.pool.Size(); attempt++ {
		url := r.pool.Current()

		dialCtx, cancel := context.WithTimeout(ctx, r.timeouts.Dial)
		backend, err := r.dial(dialCtx, url)
		cancel()
		if err != nil {
			zap.L().Warn("endpoint dial failed, trying next",
				zap.String("endpoint", url), zap.Error(err))
			lastErr = err
			r.pool.Next()
			continue
		}

		if err := r.verifyContract(ctx, backend); err != nil {
			backend.Close()
			if errors.Is(err, ErrContractNotFound) {
				// Hard failure: the endpoint answered and the address is
				// simply empty. Not retried.
				return nil, err
			}
			zap.L().Warn("endpoint read failed, trying next",
				zap.String("endpoint", url), zap.Error(err))
			lastErr = err
			r.pool.Next()
			continue
		}

		contract, err := NewAgriShield(r.contractAddr, backend)
		if err != nil {
			backend.Close()
			return nil, err
		}

		zap.L().Debug("resolved pool endpoint", zap.String("endpoint", url))
		return &Binding{
			Backend:  backend,
			Contract: contract,
			Endpoint: url,
		}, nil
	}

	if lastErr != nil {
		return nil, fmt.Errorf("%w: last error: %v", ErrEndpointsExhausted, lastErr)
	}
	return nil, ErrEndpointsExhausted
}

// verifyContract checks that bytecode exists at the configured contract
// address on the bound endpoint.
func (r *Resolver) verifyContract(ctx context.Context, backend Backend) error {
	readCtx, cancel := context.WithTimeout(ctx, r.timeouts.ChainRead)
	defer cancel()

	code, err := backend.CodeAt(readCtx, r.contractAddr, nil)
	if err != nil {
		return RemoteCall("get code", err)
	}
	if len(code) == 0 {
		return fmt.Errorf("%w: %s", ErrContractNotFound, r.contractAddr.Hex())
	}
	return nil
}
