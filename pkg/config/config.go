// Package config defines the runtime configuration for the SDK: target
// network, AgriShield contract address, fallback RPC endpoint pool, optional
// wallet settings, debug mode, and operation timeouts. It also provides
// validation and defaulting helpers.
package config

import (
	"errors"
	"time"
)

// DefaultEndpoints is the public fallback endpoint pool used when no
// endpoints are configured. These serve Sepolia without requiring an API key.
var DefaultEndpoints = []string{
	"https://eth-sepolia.g.alchemy.com/v2/demo",
	"https://sepolia.infura.io/v3/9aa3d95b3bc440fa88ea12eaa4456161",
	"https://rpc2.sepolia.org",
}

// DefaultMaxScanPolicyID bounds the id range of the scanning discovery
// strategy when the contract exposes no enumeration method.
const DefaultMaxScanPolicyID = 100

// Config holds all SDK settings required to initialize the session layer.
// Use Validate to fill implicit defaults and to check for required fields.
type Config struct {
	// Network selects the target chain (chain ID and human-readable name).
	// Write operations are denied when the bound provider reports a
	// different chain ID.
	Network Network `json:"network" yaml:"network"`
	// ContractAddr is the hex address of the AgriShield main contract (required).
	ContractAddr string `json:"contract_addr" yaml:"contract_addr"`
	// Endpoints is the ordered fallback pool of JSON-RPC endpoint URLs used
	// for read-only sessions when no wallet is configured.
	// Default: DefaultEndpoints.
	Endpoints []string `json:"endpoints" yaml:"endpoints"`
	// PrivateKey is the hex-encoded ECDSA private key backing the local
	// wallet (optional; without it the session stays read-only).
	PrivateKey string `json:"private_key" yaml:"private_key"`
	// WalletRPCAddr is the RPC endpoint the wallet binds to. Defaults to the
	// first pool endpoint when empty.
	WalletRPCAddr string `json:"wallet_rpc_addr" yaml:"wallet_rpc_addr"`
	// MaxScanPolicyID bounds the scanning discovery strategy.
	// Default: DefaultMaxScanPolicyID.
	MaxScanPolicyID uint64 `json:"max_scan_policy_id" yaml:"max_scan_policy_id"`
	// Debug enables verbose logging.
	Debug bool `json:"debug" yaml:"debug"`
	// Timeouts configures per-operation timeouts. See Timeouts.WithDefaults for defaults.
	Timeouts Timeouts `json:"timeouts" yaml:"timeouts"`
}

// Network describes a blockchain network (chain ID and name). ChainID is used
// both for EIP-155 signing and for the write-capability network check; Name is
// informational.
type Network struct {
	ChainID string `json:"chain_id"`
	Name    string `json:"network_name"`
}

// Sepolia is a predefined Network for Ethereum Sepolia testnet, where the
// reference AgriShield deployment lives.
var Sepolia = Network{
	ChainID: "11155111",
	Name:    "sepolia",
}

// Main is a predefined Network for Ethereum mainnet.
var Main = Network{
	ChainID: "1",
	Name:    "main",
}

// Timeouts controls SDK operation deadlines.
// Zero values will be replaced by sane defaults in WithDefaults.
type Timeouts struct {
	Dial        time.Duration // RPC dial/connect
	ChainRead   time.Duration // eth_call, balance, getCode etc
	ChainSubmit time.Duration // send tx
	ReceiptWait time.Duration // wait tx
}

// Validate normalizes the configuration by applying implicit defaults for
// Endpoints, Network (defaults to Sepolia), WalletRPCAddr and MaxScanPolicyID,
// and verifies that ContractAddr is provided. Returns an error when
// ContractAddr is empty.
func (c *Config) Validate() error {

	if len(c.Endpoints) == 0 {
		c.Endpoints = DefaultEndpoints
	}

	if c.Network.ChainID == "" {
		c.Network = Sepolia
	}

	if c.WalletRPCAddr == "" {
		c.WalletRPCAddr = c.Endpoints[0]
	}

	if c.MaxScanPolicyID == 0 {
		c.MaxScanPolicyID = DefaultMaxScanPolicyID
	}

	if c.ContractAddr == "" {
		return errors.New("contract address is required")
	}

	return nil
}

// WithDefaults returns a copy of t with zero values replaced by defaults:
//
//	Dial:        5s
//	ChainRead:   12s
//	ChainSubmit: 25s
//	ReceiptWait: 90s
func (t Timeouts) WithDefaults() Timeouts {
	tt := t
	if tt.Dial == 0 {
		tt.Dial = 5 * time.Second
	}
	if tt.ChainRead == 0 {
		tt.ChainRead = 12 * time.Second
	}
	if tt.ChainSubmit == 0 {
		tt.ChainSubmit = 25 * time.Second
	}
	if tt.ReceiptWait == 0 {
		tt.ReceiptWait = 90 * time.Second
	}
	return tt
}
