package blockchain

import (
	"context"
	"crypto/ecdsa"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"go.uber.org/zap"
)

// Backend is the chain access surface a provider binding exposes: contract
// calls/transactions/log filtering plus the direct reads the session layer
// needs. *ethclient.Client satisfies it.
type Backend interface {
	bind.ContractBackend

	BalanceAt(ctx context.Context, account common.Address, blockNumber *big.Int) (*big.Int, error)
	ChainID(ctx context.Context) (*big.Int, error)
	TransactionByHash(ctx context.Context, hash common.Hash) (*types.Transaction, bool, error)
	TransactionSender(ctx context.Context, tx *types.Transaction, block common.Hash, index uint) (common.Address, error)
	TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error)

	Close()
}

var _ Backend = (*ethclient.Client)(nil)

// WalletSignal is an inbound wallet notification. The session manager drains
// these from WalletProvider.Signals instead of the wallet pushing callbacks
// into session state.
type WalletSignal interface {
	walletSignal()
}

// AccountsChanged reports the wallet's new account list. An empty list means
// the user disconnected the wallet.
type AccountsChanged struct {
	Accounts []common.Address
}

// ChainChanged reports that the wallet moved to a different chain.
type ChainChanged struct {
	ChainID *big.Int
}

func (AccountsChanged) walletSignal() {}
func (ChainChanged) walletSignal()    {}

// WalletProvider abstracts an attached wallet: its own backend connection,
// account access, transaction signing, and change notifications. It plays the
// role a browser wallet extension plays for a web client.
type WalletProvider interface {
	// Backend connects the wallet's own chain backend.
	Backend(ctx context.Context) (Backend, error)
	// Accounts returns the wallet's accounts without prompting.
	Accounts(ctx context.Context) ([]common.Address, error)
	// RequestAccounts asks the wallet for account access. Implementations
	// backed by an interactive wallet may return ErrUserRejected.
	RequestAccounts(ctx context.Context) ([]common.Address, error)
	// TransactOpts builds a transactor for the given chain id.
	TransactOpts(chainID *big.Int) (*bind.TransactOpts, error)
	// Signals is the wallet's notification channel. It stays open for the
	// wallet's lifetime; Close closes it.
	Signals() <-chan WalletSignal
	// Close releases wallet resources and closes the signal channel.
	Close()
}

// LocalWallet implements WalletProvider with an in-process ECDSA key and a
// dedicated RPC endpoint. SwitchKey, SwitchEndpoint and Disconnect emit the
// corresponding signals, mirroring the account/chain change notifications an
// interactive wallet would fire.
type LocalWallet struct {
	mu      sync.Mutex
	rpcURL  string
	key     *ecdsa.PrivateKey
	address common.Address

	signals   chan WalletSignal
	closeOnce sync.Once
}

var _ WalletProvider = (*LocalWallet)(nil)

// NewLocalWallet creates a wallet from a hex-encoded private key and the RPC
// endpoint it should bind to.
func NewLocalWallet(hexKey, rpcURL string) (*LocalWallet, error) {
	address, key, err := ParsePrivateKeyECDSA(hexKey)
	if err != nil {
		return nil, err
	}
	return &LocalWallet{
		rpcURL:  rpcURL,
		key:     key,
		address: address,
		signals: make(chan WalletSignal, 8),
	}, nil
}

// Backend dials the wallet's RPC endpoint.
func (w *LocalWallet) Backend(ctx context.Context) (Backend, error) {
	w.mu.Lock()
	url := w.rpcURL
	w.mu.Unlock()
	return ethclient.DialContext(ctx, url)
}

// Accounts returns the single local account.
func (w *LocalWallet) Accounts(ctx context.Context) ([]common.Address, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.key == nil {
		return nil, nil
	}
	return []common.Address{w.address}, nil
}

// RequestAccounts is identical to Accounts for a local key wallet: there is
// no permission prompt to decline.
func (w *LocalWallet) RequestAccounts(ctx context.Context) ([]common.Address, error) {
	return w.Accounts(ctx)
}

// TransactOpts builds a keyed transactor bound to the given chain id.
func (w *LocalWallet) TransactOpts(chainID *big.Int) (*bind.TransactOpts, error) {
	w.mu.Lock()
	key := w.key
	w.mu.Unlock()
	if key == nil {
		return nil, ErrNoWalletAvailable
	}
	opts, err := bind.NewKeyedTransactorWithChainID(key, chainID)
	if err != nil {
		zap.L().Error("failed to create transactor", zap.Error(err))
		return nil, err
	}
	return opts, nil
}

// Signals returns the wallet's notification channel.
func (w *LocalWallet) Signals() <-chan WalletSignal {
	return w.signals
}

// SwitchKey replaces the wallet's key and emits an AccountsChanged signal for
// the new account.
func (w *LocalWallet) SwitchKey(hexKey string) error {
	address, key, err := ParsePrivateKeyECDSA(hexKey)
	if err != nil {
		return err
	}
	w.mu.Lock()
	w.key = key
	w.address = address
	w.mu.Unlock()
	w.emit(AccountsChanged{Accounts: []common.Address{address}})
	return nil
}

// SwitchEndpoint points the wallet at a different RPC endpoint and emits a
// ChainChanged signal with the new chain id.
func (w *LocalWallet) SwitchEndpoint(rpcURL string, chainID *big.Int) {
	w.mu.Lock()
	w.rpcURL = rpcURL
	w.mu.Unlock()
	w.emit(ChainChanged{ChainID: chainID})
}

// Disconnect drops the key and emits an empty AccountsChanged signal, the
// same shape a wallet extension fires when the user disconnects the site.
func (w *LocalWallet) Disconnect() {
	w.mu.Lock()
	w.key = nil
	w.address = common.Address{}
	w.mu.Unlock()
	w.emit(AccountsChanged{})
}

// Close closes the signal channel. Safe to call more than once.
func (w *LocalWallet) Close() {
	w.closeOnce.Do(func() {
		close(w.signals)
	})
}

// emit blocks until the signal is accepted: change signals must not be
// dropped, even when the consumer is mid-init.
func (w *LocalWallet) emit(sig WalletSignal) {
	w.signals <- sig
}
