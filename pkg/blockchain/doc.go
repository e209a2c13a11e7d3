// Package blockchain provides low-level Ethereum access for the AgriShield
// client: the fallback endpoint pool, provider resolution, the wallet
// provider abstraction, and a typed binding for the AgriShield main contract.
//
// # Architecture
//
// The package is organized around three pieces:
//
// EndpointPool and Resolver:
//   - Ordered fallback pool of public JSON-RPC endpoints
//   - Resolution of a provider binding: wallet-backed (read-write) when a
//     wallet is attached, pooled endpoint (read-only) otherwise
//   - Advance-and-retry failover across the pool, bytecode verification at
//     the configured contract address
//
// WalletProvider:
//   - Abstraction over an attached wallet (accounts, signing, change signals)
//   - LocalWallet implementation backed by an in-process ECDSA key
//
// AgriShield:
//   - Typed contract binding over bind.BoundContract: stats, policy reads,
//     policy creation, pool investment, reward claims
//   - Filter/Watch accessors for the PolicyFunded and ClaimProcessed events
//
// Failures surface as the typed sentinels in errors.go; transport-level
// errors arrive wrapped in RemoteCallError.
package blockchain
