package session

import (
	"context"
	"errors"
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/agrishield/agrishield-sdk-go/internal/testutil/chainfake"
	"github.com/agrishield/agrishield-sdk-go/pkg/blockchain"
)

func newWritableManager(t *testing.T) (*Manager, *chainfake.Contract) {
	t.Helper()
	acc := common.HexToAddress("0x00000000000000000000000000000000000000aa")
	binding, _ := newBinding(acc, true)
	contract := binding.Contract.(*chainfake.Contract)
	r := &stubResolver{hasWallet: true, resolve: func(int) (*blockchain.Binding, error) { return binding, nil }}
	m := NewManager(r, chainfake.NewWallet(acc))
	if _, err := m.Init(context.Background()); err != nil {
		t.Fatalf("Init: %v", err)
	}
	return m, contract
}

func TestSubscriptions_StartRequiresReadWrite(t *testing.T) {
	binding, _ := newBinding(common.Address{}, false)
	r := &stubResolver{resolve: func(int) (*blockchain.Binding, error) { return binding, nil }}
	m := NewManager(r, nil)
	if _, err := m.Init(context.Background()); err != nil {
		t.Fatalf("Init: %v", err)
	}

	if m.Subscriptions().Start(func() {}) {
		t.Fatal("Start must refuse on a read-only session")
	}
	if m.Subscriptions().Active() {
		t.Fatal("no subscriptions should be registered")
	}
}

func TestSubscriptions_NotifyPerEvent(t *testing.T) {
	m, contract := newWritableManager(t)

	notified := make(chan struct{}, 4)
	if !m.Subscriptions().Start(func() { notified <- struct{}{} }) {
		t.Fatal("Start failed on a read-write session")
	}
	if contract.ActiveWatches() != 2 {
		t.Fatalf("active watches = %d, want 2", contract.ActiveWatches())
	}

	contract.EmitPolicyFunded(&blockchain.PolicyFundedEvent{
		PolicyId:      big.NewInt(7),
		PremiumAmount: big.NewInt(1),
		Raw:           types.Log{},
	})
	contract.EmitClaimProcessed(&blockchain.ClaimProcessedEvent{
		PolicyId:     big.NewInt(7),
		Farmer:       common.HexToAddress("0x00000000000000000000000000000000000000aa"),
		PayoutAmount: big.NewInt(2),
		Reason:       "drought",
		Raw:          types.Log{},
	})

	for i := 0; i < 2; i++ {
		select {
		case <-notified:
		case <-time.After(2 * time.Second):
			t.Fatalf("notification %d not delivered", i+1)
		}
	}
}

func TestSubscriptions_StartIdempotent(t *testing.T) {
	m, contract := newWritableManager(t)

	if !m.Subscriptions().Start(func() {}) {
		t.Fatal("first Start failed")
	}
	if !m.Subscriptions().Start(func() {}) {
		t.Fatal("second Start must be a no-op returning true")
	}
	if contract.ActiveWatches() != 2 {
		t.Fatalf("active watches = %d, want 2 (no duplicates)", contract.ActiveWatches())
	}
}

func TestSubscriptions_WatchFailureRegistersNothing(t *testing.T) {
	m, contract := newWritableManager(t)
	contract.WatchErr = errors.New("no pubsub support")

	if m.Subscriptions().Start(func() {}) {
		t.Fatal("Start must fail when the watch cannot be established")
	}
	if m.Subscriptions().Active() {
		t.Fatal("failed Start must not leave subscriptions behind")
	}
}

func TestSubscriptions_StoppedOnTeardown(t *testing.T) {
	m, contract := newWritableManager(t)

	if !m.Subscriptions().Start(func() {}) {
		t.Fatal("Start failed")
	}

	m.Teardown()
	if m.Subscriptions().Active() {
		t.Fatal("subscriptions survived teardown")
	}

	deadline := time.After(2 * time.Second)
	for contract.ActiveWatches() != 0 {
		select {
		case <-deadline:
			t.Fatalf("watches still active after teardown: %d", contract.ActiveWatches())
		case <-time.After(5 * time.Millisecond):
		}
	}

	// Stop on an empty set stays a no-op.
	m.Subscriptions().Stop()
}

func TestSubscriptions_StoppedOnAccountSwitch(t *testing.T) {
	m, contract := newWritableManager(t)

	if !m.Subscriptions().Start(func() {}) {
		t.Fatal("Start failed")
	}

	m.AccountsChanged([]common.Address{common.HexToAddress("0x00000000000000000000000000000000000000bb")})
	if m.Subscriptions().Active() {
		t.Fatal("subscriptions survived account switch")
	}

	deadline := time.After(2 * time.Second)
	for contract.ActiveWatches() != 0 {
		select {
		case <-deadline:
			t.Fatalf("watches still active after account switch: %d", contract.ActiveWatches())
		case <-time.After(5 * time.Millisecond):
		}
	}
}

func TestSubscriptions_StartAbortsWhenTeardownRaces(t *testing.T) {
	m, contract := newWritableManager(t)
	s := m.Subscriptions()

	// Hold the registration lock so Start blocks past its capability fast
	// path, then tear the session down underneath it.
	s.mu.Lock()
	started := make(chan bool, 1)
	go func() { started <- s.Start(func() {}) }()

	torndown := make(chan struct{})
	go func() {
		m.Teardown()
		close(torndown)
	}()

	// The teardown's state change lands immediately; only its Stop queues
	// behind the lock we hold.
	deadline := time.After(2 * time.Second)
	for m.Capability() != Disconnected {
		select {
		case <-deadline:
			s.mu.Unlock()
			t.Fatal("teardown blocked on the subscription lock")
		case <-time.After(5 * time.Millisecond):
		}
	}
	s.mu.Unlock()
	<-torndown

	if <-started {
		t.Fatal("Start succeeded against a torn-down session")
	}
	if s.Active() {
		t.Fatal("subscriptions registered after teardown")
	}
	if contract.ActiveWatches() != 0 {
		t.Fatalf("watches registered on a discarded binding: %d", contract.ActiveWatches())
	}
}
