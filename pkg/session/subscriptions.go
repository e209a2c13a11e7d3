package session

import (
	"sync"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/event"
	"go.uber.org/zap"

	"github.com/agrishield/agrishield-sdk-go/pkg/blockchain"
)

// Subscriptions manages the contract event subscriptions of a read-write
// session. It watches exactly the two topics the contract publishes state
// changes on (PolicyFunded, ClaimProcessed) and collapses them into a single
// "state may have changed" notification: event delivery order across the two
// topics is not globally ordered, so callers re-fetch authoritative state
// instead of trusting payloads.
type Subscriptions struct {
	mgr *Manager

	mu   sync.Mutex
	subs []event.Subscription
	quit chan struct{}
}

func newSubscriptions(mgr *Manager) *Subscriptions {
	return &Subscriptions{mgr: mgr}
}

// Start subscribes to the contract's claim-processed and policy-funded
// events, invoking notify once per observed event. Returns false without
// registering anything unless the session is read-write or when the watch
// setup fails. Calling Start on already-running subscriptions is a no-op
// returning true.
func (s *Subscriptions) Start(notify func()) bool {
	if !s.mgr.CanWrite() {
		zap.L().Warn("event subscriptions need a read-write session")
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.subs) > 0 {
		return true
	}
	// Re-fetch the binding under the lock. A teardown landing between the
	// capability check above and here has already discarded the binding, so
	// the gated fetch fails instead of watching a dead handle.
	if !s.mgr.CanWrite() {
		return false
	}
	binding, err := s.mgr.ReadBinding()
	if err != nil {
		return false
	}

	funded := make(chan *blockchain.PolicyFundedEvent)
	claimed := make(chan *blockchain.ClaimProcessedEvent)

	fundedSub, err := binding.Contract.WatchPolicyFunded(&bind.WatchOpts{}, funded)
	if err != nil {
		zap.L().Error("failed to watch PolicyFunded", zap.Error(err))
		return false
	}
	claimedSub, err := binding.Contract.WatchClaimProcessed(&bind.WatchOpts{}, claimed)
	if err != nil {
		zap.L().Error("failed to watch ClaimProcessed", zap.Error(err))
		fundedSub.Unsubscribe()
		return false
	}

	quit := make(chan struct{})
	go func() {
		for {
			select {
			case ev := <-funded:
				zap.L().Debug("policy funded",
					zap.String("policyId", ev.PolicyId.String()))
				notify()
			case ev := <-claimed:
				zap.L().Debug("claim processed",
					zap.String("policyId", ev.PolicyId.String()),
					zap.String("farmer", ev.Farmer.Hex()))
				notify()
			case err := <-fundedSub.Err():
				if err != nil {
					zap.L().Warn("PolicyFunded subscription failed", zap.Error(err))
				}
				return
			case err := <-claimedSub.Err():
				if err != nil {
					zap.L().Warn("ClaimProcessed subscription failed", zap.Error(err))
				}
				return
			case <-quit:
				return
			}
		}
	}()

	s.subs = []event.Subscription{fundedSub, claimedSub}
	s.quit = quit
	return true
}

// Stop unsubscribes every active subscription and clears the set. Safe to
// call when nothing is subscribed; called by the manager before every
// capability transition away from read-write.
func (s *Subscriptions) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.subs) == 0 {
		return
	}
	for _, sub := range s.subs {
		sub.Unsubscribe()
	}
	s.subs = nil
	close(s.quit)
	s.quit = nil
}

// Active reports whether subscriptions are currently registered.
func (s *Subscriptions) Active() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.subs) > 0
}
