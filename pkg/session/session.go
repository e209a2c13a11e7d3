// Package session owns the single provider/signer/contract binding and the
// capability state machine built on top of it. All contract access in the SDK
// goes through the Manager's current binding; no other component keeps a
// long-lived handle, so account and chain switches can never leave a caller
// holding a stale contract.
package session

import (
	"context"
	"encoding/json"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"github.com/agrishield/agrishield-sdk-go/pkg/blockchain"
)

// Capability is the session's access level.
type Capability int

const (
	// Disconnected - no provider bound.
	Disconnected Capability = iota
	// ReadOnly - bound to a provider without signing ability.
	ReadOnly
	// ReadWrite - bound to a provider with a signer on the target chain.
	ReadWrite
	// Failed - the last resolve failed; Init retries after falling back
	// through Disconnected.
	Failed
)

// MarshalJSON renders the capability by name.
func (c Capability) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.String())
}

func (c Capability) String() string {
	switch c {
	case Disconnected:
		return "disconnected"
	case ReadOnly:
		return "read-only"
	case ReadWrite:
		return "read-write"
	case Failed:
		return "error"
	default:
		return "unknown"
	}
}

// Resolver produces provider bindings. *blockchain.Resolver is the production
// implementation.
type Resolver interface {
	Resolve(ctx context.Context) (*blockchain.Binding, error)
	HasWallet() bool
}

// Manager is the session state machine. It serializes capability transitions,
// reacts to wallet account/chain signals, and guards every binding access
// behind the capability predicates.
type Manager struct {
	resolver Resolver
	wallet   blockchain.WalletProvider // nil when no wallet is attached
	subs     *Subscriptions

	mu          sync.Mutex
	capability  Capability
	binding     *blockchain.Binding
	account     common.Address
	initialized bool
	// gen is bumped by every teardown and external signal. An Init whose
	// resolve started under an older gen discards its result: the most
	// recent signal always wins, a stale resolve can never clobber fresher
	// handles.
	gen uint64
}

// NewManager creates a session manager over the given resolver. wallet may be
// nil; without one the session can never reach ReadWrite.
func NewManager(resolver Resolver, wallet blockchain.WalletProvider) *Manager {
	m := &Manager{
		resolver: resolver,
		wallet:   wallet,
	}
	m.subs = newSubscriptions(m)
	return m
}

// Subscriptions returns the manager's event subscription set.
func (m *Manager) Subscriptions() *Subscriptions {
	return m.subs
}

// Init resolves a provider binding and settles the session capability.
// It is idempotent: an initialized, non-failed session returns immediately.
// A session in the Failed state falls back to Disconnected and resolves
// again. When an account or chain signal lands while a resolve is in flight,
// the stale result is dropped and the resolve reruns against the new state.
func (m *Manager) Init(ctx context.Context) (Capability, error) {
	for {
		m.mu.Lock()
		if m.initialized && m.capability != Failed {
			cap := m.capability
			m.mu.Unlock()
			return cap, nil
		}
		if m.capability == Failed {
			// Manual retry path: Error -> Disconnected -> resolve.
			m.capability = Disconnected
		}
		gen := m.gen
		m.mu.Unlock()

		binding, err := m.resolver.Resolve(ctx)

		m.mu.Lock()
		if m.gen != gen {
			m.mu.Unlock()
			binding.Close()
			zap.L().Debug("discarding superseded session init")
			continue
		}
		if m.initialized && m.capability != Failed {
			// A concurrent Init at the same generation committed first.
			// Keep its binding and release ours.
			cap := m.capability
			m.mu.Unlock()
			binding.Close()
			return cap, nil
		}
		if err != nil {
			m.capability = Failed
			m.initialized = false
			m.mu.Unlock()
			return Failed, err
		}

		m.binding = binding
		m.account = binding.Account
		m.initialized = true
		if binding.ReadWrite {
			m.capability = ReadWrite
		} else {
			m.capability = ReadOnly
		}
		cap := m.capability
		m.mu.Unlock()

		zap.L().Info("session initialized",
			zap.String("capability", cap.String()),
			zap.String("endpoint", binding.Endpoint))
		return cap, nil
	}
}

// Teardown stops event subscriptions, discards all handles and returns the
// session to Disconnected. Safe to call from any state, including Failed and
// an already-disconnected session.
func (m *Manager) Teardown() {
	m.discard()
	// Stop comes after the state change so a Start racing this teardown
	// either sees the new state or registers watches Stop then removes.
	m.subs.Stop()
}

// AccountsChanged handles a wallet account-change signal. An empty account
// list means the user disconnected: full teardown. Otherwise the signer and
// binding are invalidated and the next Init resolves against the new account.
func (m *Manager) AccountsChanged(accounts []common.Address) {
	if len(accounts) == 0 {
		zap.L().Info("wallet disconnected")
		m.Teardown()
		return
	}
	zap.L().Info("wallet account changed", zap.String("account", accounts[0].Hex()))
	m.invalidate()
}

// ChainChanged handles a wallet chain-change signal: the signer and contract
// handle are bound to the old chain and must never be reused, so the binding
// is discarded and the next Init resolves fresh handles.
func (m *Manager) ChainChanged(chainID *big.Int) {
	if chainID != nil {
		zap.L().Info("wallet chain changed", zap.String("chain", chainID.String()))
	}
	m.invalidate()
}

func (m *Manager) invalidate() {
	m.discard()
	m.subs.Stop()
}

// discard drops the current binding and returns the session to Disconnected,
// bumping the generation so in-flight resolves are superseded.
func (m *Manager) discard() {
	m.mu.Lock()
	m.gen++
	if m.binding != nil {
		m.binding.Close()
	}
	m.binding = nil
	m.account = common.Address{}
	m.initialized = false
	m.capability = Disconnected
	m.mu.Unlock()
}

// Run drains the wallet's signal channel into the change handlers until ctx
// is cancelled or the channel closes. After an account switch or chain
// change the session re-resolves right away, so callers keep their
// capability across wallet changes without reconnecting. No-op without a
// wallet.
func (m *Manager) Run(ctx context.Context) {
	if m.wallet == nil {
		return
	}
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case sig, ok := <-m.wallet.Signals():
				if !ok {
					return
				}
				reinit := false
				switch s := sig.(type) {
				case blockchain.AccountsChanged:
					m.AccountsChanged(s.Accounts)
					reinit = len(s.Accounts) > 0
				case blockchain.ChainChanged:
					m.ChainChanged(s.ChainID)
					reinit = true
				}
				if reinit {
					if _, err := m.Init(ctx); err != nil {
						zap.L().Warn("session re-init after wallet signal failed",
							zap.Error(err))
					}
				}
			}
		}
	}()
}

// Capability returns the current capability.
func (m *Manager) Capability() Capability {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.capability
}

// CanRead reports whether chain reads are possible.
func (m *Manager) CanRead() bool {
	c := m.Capability()
	return c == ReadOnly || c == ReadWrite
}

// CanWrite reports whether signed transactions are possible.
func (m *Manager) CanWrite() bool {
	return m.Capability() == ReadWrite
}

// Account returns the bound signer account, zero when read-only.
func (m *Manager) Account() common.Address {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.account
}

// ReadBinding returns the current binding for read operations. Fails with
// ErrCapabilityDenied before any network I/O when the session cannot read.
func (m *Manager) ReadBinding() (*blockchain.Binding, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.binding == nil || (m.capability != ReadOnly && m.capability != ReadWrite) {
		return nil, blockchain.ErrCapabilityDenied
	}
	return m.binding, nil
}

// WriteBinding returns the current binding for write operations. The failure
// is as specific as the state allows: wrong chain, no wallet, or a plain
// capability denial.
func (m *Manager) WriteBinding() (*blockchain.Binding, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.capability == ReadWrite && m.binding != nil && m.binding.Signer != nil {
		return m.binding, nil
	}
	if m.binding != nil && m.binding.WrongChain {
		return nil, blockchain.ErrWrongNetwork
	}
	if m.wallet == nil {
		return nil, blockchain.ErrNoWalletAvailable
	}
	return nil, blockchain.ErrCapabilityDenied
}

// Balance returns the bound account's balance in wei. Requires a readable
// session and a bound account.
func (m *Manager) Balance(ctx context.Context) (*big.Int, error) {
	m.mu.Lock()
	binding := m.binding
	account := m.account
	readable := m.capability == ReadOnly || m.capability == ReadWrite
	m.mu.Unlock()

	if !readable || binding == nil {
		return nil, blockchain.ErrCapabilityDenied
	}
	if (account == common.Address{}) {
		return nil, blockchain.ErrNoWalletAvailable
	}
	balance, err := binding.Backend.BalanceAt(ctx, account, nil)
	if err != nil {
		return nil, blockchain.RemoteCall("balance", err)
	}
	return balance, nil
}

// HasWallet reports whether a wallet provider is attached to this session.
func (m *Manager) HasWallet() bool {
	return m.wallet != nil
}
