// Package model defines the data structures exchanged with the AgriShield
// contract: policy records, policy status derivation, aggregate contract
// statistics, and the provenance tagging that keeps placeholder data
// distinguishable from live chain data.
package model

import (
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// PolicyStatus is the lifecycle state of an insurance policy as derived from
// on-chain fields and wall-clock time.
type PolicyStatus string

const (
	StatusPending PolicyStatus = "Pending"
	StatusActive  PolicyStatus = "Active"
	StatusExpired PolicyStatus = "Expired"
	StatusClaimed PolicyStatus = "Claimed"
)

// DeriveStatus computes a policy's status from its claimed flag and coverage
// window, evaluated at now. Precedence: claimed wins over everything, then
// not-yet-started, then already-ended, otherwise active.
func DeriveStatus(claimed bool, startTime, endTime, now time.Time) PolicyStatus {
	if claimed {
		return StatusClaimed
	}
	if now.Before(startTime) {
		return StatusPending
	}
	if now.After(endTime) {
		return StatusExpired
	}
	return StatusActive
}

// PolicyRecord is a read-only projection of one policy's on-chain state.
// Records are re-fetched wholesale on each discovery call and never mutated
// locally.
//
// Partial marks records synthesized from partial accessors (for example a
// location-only lookup when the per-policy mapping is unavailable): numeric
// fields are zero and Status is assumed active. Callers must check Partial
// before trusting the numbers.
//
// OwnerVerified reports whether ownership by the queried user could actually
// be confirmed. The scanning discovery strategy can surface policies whose
// owner is unknown; those carry OwnerVerified=false rather than a silent
// claim of ownership.
type PolicyRecord struct {
	PolicyID       *big.Int
	CropType       string
	CoverageAmount *big.Int // smallest units (wei)
	Premium        *big.Int // smallest units (wei)
	Location       string
	StartTime      time.Time
	EndTime        time.Time
	Status         PolicyStatus
	Claimed        bool
	ClaimAmount    *big.Int // smallest units (wei)
	TxHash         common.Hash
	BlockNumber    uint64
	Farmer         *common.Address // nil when the discovery path cannot recover it
	Partial        bool
	OwnerVerified  bool
}

// ContractStats are the aggregate AgriShield pool statistics with monetary
// fields already converted to decimal ETH strings.
type ContractStats struct {
	TotalCapital   string `json:"total_capital"`
	ActivePolicies uint64 `json:"active_policies"`
	TotalInvestors uint64 `json:"total_investors"`
	TotalPayouts   string `json:"total_payouts"`
}

// Provenance tags whether a payload was read from the chain or substituted
// locally after a failure.
type Provenance string

const (
	// Live marks data read from the contract.
	Live Provenance = "live"
	// Placeholder marks locally substituted demonstration data.
	Placeholder Provenance = "placeholder"
)

// StatsResult couples contract statistics with their provenance. A result is
// entirely live or entirely placeholder, never a mix.
type StatsResult struct {
	Provenance Provenance    `json:"provenance"`
	Stats      ContractStats `json:"stats"`
}

// IsLive reports whether the payload was read from the chain.
func (r StatsResult) IsLive() bool {
	return r.Provenance == Live
}

// premiumRate is the fixed policy premium: 5% of the coverage amount.
var (
	premiumNum = big.NewInt(5)
	premiumDen = big.NewInt(100)
)

// PremiumFor returns the premium for the given coverage amount in smallest
// units: coverage * 5 / 100, truncating. This exact value must be attached as
// the paid value on policy-creation calls or the contract rejects them.
func PremiumFor(coverage *big.Int) *big.Int {
	p := new(big.Int).Mul(coverage, premiumNum)
	return p.Div(p, premiumDen)
}
