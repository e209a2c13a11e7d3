// Package chainfake provides in-memory fakes for the chain access surfaces
// (Backend, Contract, WalletProvider) used by package tests across the SDK.
package chainfake

import (
	"context"
	"errors"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/event"

	"github.com/agrishield/agrishield-sdk-go/pkg/blockchain"
)

// ErrNotSupported is returned by fake methods with no behavior installed.
var ErrNotSupported = errors.New("chainfake: not supported")

// Backend is a function-field implementation of blockchain.Backend. Fields
// left nil fall back to permissive defaults (contract code present, Sepolia
// chain id, zero balance).
type Backend struct {
	CodeAtFn            func(ctx context.Context, account common.Address, blockNumber *big.Int) ([]byte, error)
	BalanceAtFn         func(ctx context.Context, account common.Address, blockNumber *big.Int) (*big.Int, error)
	ChainIDFn           func(ctx context.Context) (*big.Int, error)
	TransactionByHashFn func(ctx context.Context, hash common.Hash) (*types.Transaction, bool, error)
	TransactionSenderFn func(ctx context.Context, tx *types.Transaction, block common.Hash, index uint) (common.Address, error)

	mu     sync.Mutex
	closed bool
}

// Closed reports whether Close has been called.
func (b *Backend) Closed() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.closed
}

func (b *Backend) Close() {
	b.mu.Lock()
	b.closed = true
	b.mu.Unlock()
}

func (b *Backend) CodeAt(ctx context.Context, account common.Address, blockNumber *big.Int) ([]byte, error) {
	if b.CodeAtFn != nil {
		return b.CodeAtFn(ctx, account, blockNumber)
	}
	return []byte{0x60, 0x60}, nil
}

func (b *Backend) BalanceAt(ctx context.Context, account common.Address, blockNumber *big.Int) (*big.Int, error) {
	if b.BalanceAtFn != nil {
		return b.BalanceAtFn(ctx, account, blockNumber)
	}
	return big.NewInt(0), nil
}

func (b *Backend) ChainID(ctx context.Context) (*big.Int, error) {
	if b.ChainIDFn != nil {
		return b.ChainIDFn(ctx)
	}
	return big.NewInt(11155111), nil
}

func (b *Backend) TransactionByHash(ctx context.Context, hash common.Hash) (*types.Transaction, bool, error) {
	if b.TransactionByHashFn != nil {
		return b.TransactionByHashFn(ctx, hash)
	}
	return nil, false, ErrNotSupported
}

func (b *Backend) TransactionSender(ctx context.Context, tx *types.Transaction, block common.Hash, index uint) (common.Address, error) {
	if b.TransactionSenderFn != nil {
		return b.TransactionSenderFn(ctx, tx, block, index)
	}
	return common.Address{}, ErrNotSupported
}

func (b *Backend) TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error) {
	return nil, ErrNotSupported
}

func (b *Backend) CallContract(ctx context.Context, call ethereum.CallMsg, blockNumber *big.Int) ([]byte, error) {
	return nil, ErrNotSupported
}

func (b *Backend) HeaderByNumber(ctx context.Context, number *big.Int) (*types.Header, error) {
	return nil, ErrNotSupported
}

func (b *Backend) PendingCodeAt(ctx context.Context, account common.Address) ([]byte, error) {
	return nil, ErrNotSupported
}

func (b *Backend) PendingNonceAt(ctx context.Context, account common.Address) (uint64, error) {
	return 0, nil
}

func (b *Backend) SuggestGasPrice(ctx context.Context) (*big.Int, error) {
	return big.NewInt(1), nil
}

func (b *Backend) SuggestGasTipCap(ctx context.Context) (*big.Int, error) {
	return big.NewInt(1), nil
}

func (b *Backend) EstimateGas(ctx context.Context, call ethereum.CallMsg) (uint64, error) {
	return 21000, nil
}

func (b *Backend) SendTransaction(ctx context.Context, tx *types.Transaction) error {
	return nil
}

func (b *Backend) FilterLogs(ctx context.Context, query ethereum.FilterQuery) ([]types.Log, error) {
	return nil, nil
}

func (b *Backend) SubscribeFilterLogs(ctx context.Context, query ethereum.FilterQuery, ch chan<- types.Log) (ethereum.Subscription, error) {
	return nil, ErrNotSupported
}

var _ blockchain.Backend = (*Backend)(nil)

// Contract is a function-field implementation of blockchain.Contract.
// Read/write fields left nil return ErrNotSupported; watches are always
// accepted (unless WatchErr is set) and fed through the Emit helpers.
type Contract struct {
	Addr common.Address

	StatsFn         func() (blockchain.RawStats, error)
	OwnerFn         func() (common.Address, error)
	UserPolicyIdsFn func(farmer common.Address) ([]*big.Int, error)
	PoliciesFn      func(id *big.Int) (blockchain.RawPolicy, error)
	LocationFn      func(id *big.Int) (string, error)
	SubContractsFn  func() (blockchain.SubContracts, error)

	CreatePolicyFn             func(opts *bind.TransactOpts, cropType string, coverage *big.Int) (*types.Transaction, error)
	CreatePolicyWithLocationFn func(opts *bind.TransactOpts, cropType string, coverage *big.Int, location string) (*types.Transaction, error)
	InvestInPoolFn             func(opts *bind.TransactOpts) (*types.Transaction, error)
	ClaimInvestorRewardsFn     func(opts *bind.TransactOpts) (*types.Transaction, error)

	FilterPolicyFundedFn func(opts *bind.FilterOpts) ([]*blockchain.PolicyFundedEvent, error)

	// WatchErr forces Watch calls to fail.
	WatchErr error

	mu      sync.Mutex
	pfSinks []chan<- *blockchain.PolicyFundedEvent
	cpSinks []chan<- *blockchain.ClaimProcessedEvent
	watches int
}

var _ blockchain.Contract = (*Contract)(nil)

func (c *Contract) Address() common.Address {
	return c.Addr
}

func (c *Contract) GetContractStats(opts *bind.CallOpts) (blockchain.RawStats, error) {
	if c.StatsFn != nil {
		return c.StatsFn()
	}
	return blockchain.RawStats{}, ErrNotSupported
}

func (c *Contract) Owner(opts *bind.CallOpts) (common.Address, error) {
	if c.OwnerFn != nil {
		return c.OwnerFn()
	}
	return common.Address{}, ErrNotSupported
}

func (c *Contract) GetUserPolicyIds(opts *bind.CallOpts, farmer common.Address) ([]*big.Int, error) {
	if c.UserPolicyIdsFn != nil {
		return c.UserPolicyIdsFn(farmer)
	}
	return nil, ErrNotSupported
}

func (c *Contract) Policies(opts *bind.CallOpts, id *big.Int) (blockchain.RawPolicy, error) {
	if c.PoliciesFn != nil {
		return c.PoliciesFn(id)
	}
	return blockchain.RawPolicy{}, ErrNotSupported
}

func (c *Contract) GetPolicyLocation(opts *bind.CallOpts, id *big.Int) (string, error) {
	if c.LocationFn != nil {
		return c.LocationFn(id)
	}
	return "", ErrNotSupported
}

func (c *Contract) GetSubContractAddresses(opts *bind.CallOpts) (blockchain.SubContracts, error) {
	if c.SubContractsFn != nil {
		return c.SubContractsFn()
	}
	return blockchain.SubContracts{}, ErrNotSupported
}

func (c *Contract) CreatePolicy(opts *bind.TransactOpts, cropType string, coverage *big.Int) (*types.Transaction, error) {
	if c.CreatePolicyFn != nil {
		return c.CreatePolicyFn(opts, cropType, coverage)
	}
	return nil, ErrNotSupported
}

func (c *Contract) CreatePolicyWithLocation(opts *bind.TransactOpts, cropType string, coverage *big.Int, location string) (*types.Transaction, error) {
	if c.CreatePolicyWithLocationFn != nil {
		return c.CreatePolicyWithLocationFn(opts, cropType, coverage, location)
	}
	return nil, ErrNotSupported
}

func (c *Contract) InvestInPool(opts *bind.TransactOpts) (*types.Transaction, error) {
	if c.InvestInPoolFn != nil {
		return c.InvestInPoolFn(opts)
	}
	return nil, ErrNotSupported
}

func (c *Contract) ClaimInvestorRewards(opts *bind.TransactOpts) (*types.Transaction, error) {
	if c.ClaimInvestorRewardsFn != nil {
		return c.ClaimInvestorRewardsFn(opts)
	}
	return nil, ErrNotSupported
}

func (c *Contract) FilterPolicyFunded(opts *bind.FilterOpts) ([]*blockchain.PolicyFundedEvent, error) {
	if c.FilterPolicyFundedFn != nil {
		return c.FilterPolicyFundedFn(opts)
	}
	return nil, ErrNotSupported
}

func (c *Contract) WatchPolicyFunded(opts *bind.WatchOpts, sink chan<- *blockchain.PolicyFundedEvent) (event.Subscription, error) {
	if c.WatchErr != nil {
		return nil, c.WatchErr
	}
	c.mu.Lock()
	c.pfSinks = append(c.pfSinks, sink)
	c.watches++
	c.mu.Unlock()
	return c.newSubscription(), nil
}

func (c *Contract) WatchClaimProcessed(opts *bind.WatchOpts, sink chan<- *blockchain.ClaimProcessedEvent) (event.Subscription, error) {
	if c.WatchErr != nil {
		return nil, c.WatchErr
	}
	c.mu.Lock()
	c.cpSinks = append(c.cpSinks, sink)
	c.watches++
	c.mu.Unlock()
	return c.newSubscription(), nil
}

func (c *Contract) newSubscription() event.Subscription {
	return event.NewSubscription(func(quit <-chan struct{}) error {
		<-quit
		c.mu.Lock()
		c.watches--
		c.mu.Unlock()
		return nil
	})
}

// ActiveWatches reports the number of live watch subscriptions.
func (c *Contract) ActiveWatches() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.watches
}

// EmitPolicyFunded delivers a PolicyFunded event to every active watcher.
func (c *Contract) EmitPolicyFunded(ev *blockchain.PolicyFundedEvent) {
	c.mu.Lock()
	sinks := append([]chan<- *blockchain.PolicyFundedEvent(nil), c.pfSinks...)
	c.mu.Unlock()
	for _, sink := range sinks {
		sink <- ev
	}
}

// EmitClaimProcessed delivers a ClaimProcessed event to every active watcher.
func (c *Contract) EmitClaimProcessed(ev *blockchain.ClaimProcessedEvent) {
	c.mu.Lock()
	sinks := append([]chan<- *blockchain.ClaimProcessedEvent(nil), c.cpSinks...)
	c.mu.Unlock()
	for _, sink := range sinks {
		sink <- ev
	}
}

// Wallet is a minimal WalletProvider fake with a controllable account list
// and signal channel.
type Wallet struct {
	Account   common.Address
	BackendV  *Backend
	SignalsCh chan blockchain.WalletSignal

	RequestErr error
}

var _ blockchain.WalletProvider = (*Wallet)(nil)

func NewWallet(account common.Address) *Wallet {
	return &Wallet{
		Account:   account,
		BackendV:  &Backend{},
		SignalsCh: make(chan blockchain.WalletSignal, 8),
	}
}

func (w *Wallet) Backend(ctx context.Context) (blockchain.Backend, error) {
	return w.BackendV, nil
}

func (w *Wallet) Accounts(ctx context.Context) ([]common.Address, error) {
	if (w.Account == common.Address{}) {
		return nil, nil
	}
	return []common.Address{w.Account}, nil
}

func (w *Wallet) RequestAccounts(ctx context.Context) ([]common.Address, error) {
	if w.RequestErr != nil {
		return nil, w.RequestErr
	}
	return w.Accounts(ctx)
}

func (w *Wallet) TransactOpts(chainID *big.Int) (*bind.TransactOpts, error) {
	return &bind.TransactOpts{From: w.Account}, nil
}

func (w *Wallet) Signals() <-chan blockchain.WalletSignal {
	return w.SignalsCh
}

func (w *Wallet) Close() {}
