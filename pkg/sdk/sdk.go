// Package sdk exposes the high-level AgriShield client entry points. It wires
// together the endpoint pool, the optional local wallet, provider resolution,
// the session capability state machine, policy discovery and the stats
// aggregator.
package sdk

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"go.uber.org/zap"

	"github.com/agrishield/agrishield-sdk-go/pkg/blockchain"
	"github.com/agrishield/agrishield-sdk-go/pkg/config"
	"github.com/agrishield/agrishield-sdk-go/pkg/discovery"
	"github.com/agrishield/agrishield-sdk-go/pkg/model"
	"github.com/agrishield/agrishield-sdk-go/pkg/session"
	"github.com/agrishield/agrishield-sdk-go/pkg/stats"
)

// AgriShieldSDK is the public client interface. All blocking operations take
// a context; write operations require a read-write session and fail with the
// typed capability errors otherwise.
type AgriShieldSDK interface {
	// Connect resolves a provider binding and settles the session capability.
	Connect(ctx context.Context) (session.Capability, error)
	// Disconnect tears the session down to Disconnected.
	Disconnect()

	CanRead() bool
	CanWrite() bool
	// Account returns the bound signer account, zero for read-only sessions.
	Account() common.Address
	// Balance returns the bound account's balance in wei.
	Balance(ctx context.Context) (*big.Int, error)

	// Stats returns the pool statistics with provenance tagging.
	Stats(ctx context.Context) (model.StatsResult, error)
	// UserPolicies discovers the policies owned by farmer. A zero farmer
	// address means the bound account.
	UserPolicies(ctx context.Context, farmer common.Address) ([]model.PolicyRecord, error)
	// PolicyDetail fetches a single policy record by id.
	PolicyDetail(ctx context.Context, id *big.Int) (model.PolicyRecord, error)
	// Owner returns the contract owner address.
	Owner(ctx context.Context) (common.Address, error)
	// SubContractAddresses returns the deployed sub-contract addresses.
	SubContractAddresses(ctx context.Context) (blockchain.SubContracts, error)

	// CreatePolicy submits a policy creation transaction. The premium (5% of
	// coverage) is computed and attached as the transaction value. Returns
	// the pending transaction without waiting for inclusion.
	CreatePolicy(ctx context.Context, cropType string, coverage *big.Int) (*types.Transaction, error)
	// CreatePolicyWithLocation is CreatePolicy with an explicit farm location.
	CreatePolicyWithLocation(ctx context.Context, cropType string, coverage *big.Int, location string) (*types.Transaction, error)
	// InvestInPool deposits amount wei into the insurance capital pool.
	InvestInPool(ctx context.Context, amount *big.Int) (*types.Transaction, error)
	// ClaimInvestorRewards withdraws the caller's accumulated investor rewards.
	ClaimInvestorRewards(ctx context.Context) (*types.Transaction, error)
	// WaitMined blocks until tx is included and returns its receipt.
	WaitMined(ctx context.Context, tx *types.Transaction) (*types.Receipt, error)

	// SubscribeUpdates starts contract event subscriptions, invoking notify
	// once per observed event. Requires a read-write session.
	SubscribeUpdates(notify func()) bool
	// UnsubscribeUpdates stops all event subscriptions.
	UnsubscribeUpdates()

	// ConnectionInfo describes the current session for display purposes.
	ConnectionInfo() ConnectionInfo

	// Close releases resources associated with the SDK instance.
	Close()
}

// init configures a default global zap logger for the SDK. Applications may
// replace it with zap.ReplaceGlobals(...) if they need custom logging.
func init() {
	c := zap.Config{
		Level:            zap.NewAtomicLevelAt(zap.InfoLevel),
		Development:      false,
		Encoding:         "console",
		EncoderConfig:    zap.NewDevelopmentEncoderConfig(),
		OutputPaths:      []string{"stdout"},
		ErrorOutputPaths: []string{"stderr"},
	}

	logger, err := c.Build()
	if err != nil {
		panic(err)
	}
	zap.ReplaceGlobals(logger)
}

// ConnectionInfo is a snapshot of the current session state.
type ConnectionInfo struct {
	Capability   session.Capability `json:"capability"`
	Account      string             `json:"account,omitempty"`
	ChainID      string             `json:"chain_id"`
	ContractAddr string             `json:"contract_addr"`
	Endpoints    []string           `json:"endpoints"`
}

// Core is the concrete SDK implementation.
type Core struct {
	*config.Config

	wallet    blockchain.WalletProvider // nil without a configured key
	pool      *blockchain.EndpointPool
	mgr       *session.Manager
	discovery *discovery.Engine
	stats     *stats.Aggregator

	runCancel context.CancelFunc
}

// NewSDK initializes the SDK Core with validated configuration. It aborts the
// process if the configuration is invalid. A missing or unparsable private
// key only disables write operations.
func NewSDK(cfg *config.Config) AgriShieldSDK {
	err := cfg.Validate()
	if err != nil {
		zap.L().Fatal("Invalid config", zap.Error(err))
	}

	cfg.Timeouts = cfg.Timeouts.WithDefaults()

	chainID, ok := new(big.Int).SetString(cfg.Network.ChainID, 10)
	if !ok {
		zap.L().Fatal("Invalid chain id", zap.String("chain_id", cfg.Network.ChainID))
	}

	var wallet blockchain.WalletProvider
	if cfg.PrivateKey != "" {
		w, err := blockchain.NewLocalWallet(cfg.PrivateKey, cfg.WalletRPCAddr)
		if err != nil {
			zap.L().Warn("write operations disabled: private key parsing failed", zap.Error(err))
		} else {
			wallet = w
		}
	}

	pool := blockchain.NewEndpointPool(cfg.Endpoints)
	resolver := blockchain.NewResolver(wallet, pool,
		common.HexToAddress(cfg.ContractAddr), chainID, cfg.Timeouts)
	mgr := session.NewManager(resolver, wallet)

	return &Core{
		Config:    cfg,
		wallet:    wallet,
		pool:      pool,
		mgr:       mgr,
		discovery: discovery.NewEngine(mgr, cfg.MaxScanPolicyID),
		stats:     stats.NewAggregator(mgr),
	}
}

// Session exposes the underlying session manager for advanced use.
func (c *Core) Session() *session.Manager {
	return c.mgr
}

// Connect resolves a provider binding, starts the wallet signal loop and
// returns the settled capability. Safe to call repeatedly.
func (c *Core) Connect(ctx context.Context) (session.Capability, error) {
	cap, err := c.mgr.Init(ctx)
	if err != nil {
		return cap, err
	}
	if c.runCancel == nil && c.wallet != nil {
		runCtx, cancel := context.WithCancel(context.Background())
		c.runCancel = cancel
		c.mgr.Run(runCtx)
	}
	return cap, nil
}

// Disconnect tears the session down. A later Connect resolves fresh handles.
func (c *Core) Disconnect() {
	c.mgr.Teardown()
}

func (c *Core) CanRead() bool {
	return c.mgr.CanRead()
}

func (c *Core) CanWrite() bool {
	return c.mgr.CanWrite()
}

func (c *Core) Account() common.Address {
	return c.mgr.Account()
}

func (c *Core) Balance(ctx context.Context) (*big.Int, error) {
	ctx, cancel := context.WithTimeout(ctx, c.Timeouts.ChainRead)
	defer cancel()
	return c.mgr.Balance(ctx)
}

func (c *Core) Stats(ctx context.Context) (model.StatsResult, error) {
	ctx, cancel := context.WithTimeout(ctx, c.Timeouts.ChainRead)
	defer cancel()
	return c.stats.Stats(ctx)
}

// UserPolicies discovers farmer's policies. With a zero farmer address the
// bound account is used; without one the call fails before any network I/O.
func (c *Core) UserPolicies(ctx context.Context, farmer common.Address) ([]model.PolicyRecord, error) {
	if farmer == (common.Address{}) {
		farmer = c.mgr.Account()
		if farmer == (common.Address{}) {
			return nil, blockchain.ErrNoWalletAvailable
		}
	}
	return c.discovery.Policies(ctx, farmer)
}

func (c *Core) PolicyDetail(ctx context.Context, id *big.Int) (model.PolicyRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, c.Timeouts.ChainRead)
	defer cancel()
	return c.discovery.PolicyDetail(ctx, id)
}

func (c *Core) Owner(ctx context.Context) (common.Address, error) {
	binding, err := c.mgr.ReadBinding()
	if err != nil {
		return common.Address{}, err
	}
	ctx, cancel := context.WithTimeout(ctx, c.Timeouts.ChainRead)
	defer cancel()
	owner, err := binding.Contract.Owner(&bind.CallOpts{Context: ctx})
	if err != nil {
		return common.Address{}, blockchain.RemoteCall("owner", err)
	}
	return owner, nil
}

func (c *Core) SubContractAddresses(ctx context.Context) (blockchain.SubContracts, error) {
	binding, err := c.mgr.ReadBinding()
	if err != nil {
		return blockchain.SubContracts{}, err
	}
	ctx, cancel := context.WithTimeout(ctx, c.Timeouts.ChainRead)
	defer cancel()
	subs, err := binding.Contract.GetSubContractAddresses(&bind.CallOpts{Context: ctx})
	if err != nil {
		return blockchain.SubContracts{}, blockchain.RemoteCall("getSubContractAddresses", err)
	}
	return subs, nil
}

// writeOpts prepares per-call transact options from the session's signer.
// The signer is copied so concurrent writes never share mutable options.
func (c *Core) writeOpts(ctx context.Context) (*bind.TransactOpts, *blockchain.Binding, context.CancelFunc, error) {
	binding, err := c.mgr.WriteBinding()
	if err != nil {
		return nil, nil, nil, err
	}
	ctx, cancel := context.WithTimeout(ctx, c.Timeouts.ChainSubmit)
	opts := *binding.Signer
	opts.Context = ctx
	return &opts, binding, cancel, nil
}

// CreatePolicy submits a policy creation transaction with the exact premium
// attached as value. The contract recomputes the premium and rejects any
// other amount.
func (c *Core) CreatePolicy(ctx context.Context, cropType string, coverage *big.Int) (*types.Transaction, error) {
	opts, binding, cancel, err := c.writeOpts(ctx)
	if err != nil {
		return nil, err
	}
	defer cancel()

	opts.Value = model.PremiumFor(coverage)
	tx, err := binding.Contract.CreatePolicy(opts, cropType, coverage)
	if err != nil {
		return nil, blockchain.ClassifySendError("createPolicy", err)
	}
	zap.L().Info("policy creation submitted",
		zap.String("crop", cropType),
		zap.String("coverage", coverage.String()),
		zap.String("premium", opts.Value.String()),
		zap.String("tx", tx.Hash().Hex()))
	return tx, nil
}

// CreatePolicyWithLocation is CreatePolicy with an explicit farm location.
func (c *Core) CreatePolicyWithLocation(ctx context.Context, cropType string, coverage *big.Int, location string) (*types.Transaction, error) {
	opts, binding, cancel, err := c.writeOpts(ctx)
	if err != nil {
		return nil, err
	}
	defer cancel()

	opts.Value = model.PremiumFor(coverage)
	tx, err := binding.Contract.CreatePolicyWithLocation(opts, cropType, coverage, location)
	if err != nil {
		return nil, blockchain.ClassifySendError("createPolicyWithLocation", err)
	}
	zap.L().Info("policy creation submitted",
		zap.String("crop", cropType),
		zap.String("location", location),
		zap.String("tx", tx.Hash().Hex()))
	return tx, nil
}

// InvestInPool deposits amount wei into the insurance capital pool.
func (c *Core) InvestInPool(ctx context.Context, amount *big.Int) (*types.Transaction, error) {
	opts, binding, cancel, err := c.writeOpts(ctx)
	if err != nil {
		return nil, err
	}
	defer cancel()

	opts.Value = amount
	tx, err := binding.Contract.InvestInPool(opts)
	if err != nil {
		return nil, blockchain.ClassifySendError("investInPool", err)
	}
	zap.L().Info("pool investment submitted",
		zap.String("amount", amount.String()),
		zap.String("tx", tx.Hash().Hex()))
	return tx, nil
}

// ClaimInvestorRewards withdraws the caller's accumulated investor rewards.
func (c *Core) ClaimInvestorRewards(ctx context.Context) (*types.Transaction, error) {
	opts, binding, cancel, err := c.writeOpts(ctx)
	if err != nil {
		return nil, err
	}
	defer cancel()

	tx, err := binding.Contract.ClaimInvestorRewards(opts)
	if err != nil {
		return nil, blockchain.ClassifySendError("claimInvestorRewards", err)
	}
	zap.L().Info("reward claim submitted", zap.String("tx", tx.Hash().Hex()))
	return tx, nil
}

// WaitMined blocks until tx is included in a block and returns its receipt.
// Submission and confirmation are separate steps so callers can render the
// pending transaction hash while waiting.
func (c *Core) WaitMined(ctx context.Context, tx *types.Transaction) (*types.Receipt, error) {
	binding, err := c.mgr.ReadBinding()
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(ctx, c.Timeouts.ReceiptWait)
	defer cancel()
	receipt, err := bind.WaitMined(ctx, binding.Backend, tx)
	if err != nil {
		return nil, blockchain.RemoteCall("waitMined", err)
	}
	return receipt, nil
}

func (c *Core) SubscribeUpdates(notify func()) bool {
	return c.mgr.Subscriptions().Start(notify)
}

func (c *Core) UnsubscribeUpdates() {
	c.mgr.Subscriptions().Stop()
}

// ConnectionInfo returns a display snapshot of the session.
func (c *Core) ConnectionInfo() ConnectionInfo {
	info := ConnectionInfo{
		Capability:   c.mgr.Capability(),
		ChainID:      c.Network.ChainID,
		ContractAddr: c.ContractAddr,
		Endpoints:    c.Endpoints,
	}
	if acc := c.mgr.Account(); acc != (common.Address{}) {
		info.Account = acc.Hex()
	}
	return info
}

// Close tears down the session and releases the wallet.
func (c *Core) Close() {
	if c.runCancel != nil {
		c.runCancel()
		c.runCancel = nil
	}
	c.mgr.Teardown()
	if c.wallet != nil {
		c.wallet.Close()
	}
}
