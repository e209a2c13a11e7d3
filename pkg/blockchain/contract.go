package blockchain

import (
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/event"
)

// agriShieldABI is the published interface of the AgriShield main contract.
// getUserPolicyIds and policies are optional: deployments without them revert
// on call, which the discovery layer treats as "unsupported".
const agriShieldABI = `[
  {"inputs":[],"name":"claimInvestorRewards","outputs":[],"stateMutability":"nonpayable","type":"function"},
  {"inputs":[{"internalType":"string","name":"cropType","type":"string"},{"internalType":"uint256","name":"coverageAmount","type":"uint256"}],"name":"createPolicy","outputs":[{"internalType":"uint256","name":"","type":"uint256"}],"stateMutability":"payable","type":"function"},
  {"inputs":[{"internalType":"string","name":"cropType","type":"string"},{"internalType":"uint256","name":"coverageAmount","type":"uint256"},{"internalType":"string","name":"location","type":"string"}],"name":"createPolicyWithLocation","outputs":[{"internalType":"uint256","name":"","type":"uint256"}],"stateMutability":"payable","type":"function"},
  {"inputs":[],"name":"investInPool","outputs":[],"stateMutability":"payable","type":"function"},
  {"inputs":[],"name":"getContractStats","outputs":[{"internalType":"uint256","name":"totalCapital","type":"uint256"},{"internalType":"uint256","name":"activePolicies","type":"uint256"},{"internalType":"uint256","name":"totalInvestors","type":"uint256"},{"internalType":"uint256","name":"totalPayouts","type":"uint256"}],"stateMutability":"view","type":"function"},
  {"inputs":[{"internalType":"uint256","name":"policyId","type":"uint256"}],"name":"getPolicyLocation","outputs":[{"internalType":"string","name":"","type":"string"}],"stateMutability":"view","type":"function"},
  {"inputs":[{"internalType":"address","name":"farmer","type":"address"}],"name":"getUserPolicyIds","outputs":[{"internalType":"uint256[]","name":"","type":"uint256[]"}],"stateMutability":"view","type":"function"},
  {"inputs":[{"internalType":"uint256","name":"","type":"uint256"}],"name":"policies","outputs":[{"internalType":"address","name":"farmer","type":"address"},{"internalType":"string","name":"cropType","type":"string"},{"internalType":"uint256","name":"coverageAmount","type":"uint256"},{"internalType":"uint256","name":"premium","type":"uint256"},{"internalType":"uint256","name":"startTime","type":"uint256"},{"internalType":"uint256","name":"endTime","type":"uint256"},{"internalType":"bool","name":"claimed","type":"bool"},{"internalType":"uint256","name":"claimAmount","type":"uint256"},{"internalType":"string","name":"location","type":"string"}],"stateMutability":"view","type":"function"},
  {"inputs":[],"name":"getSubContractAddresses","outputs":[{"internalType":"address","name":"insurancePoolAddr","type":"address"},{"internalType":"address","name":"policyManagerAddr","type":"address"},{"internalType":"address","name":"weatherOracleAddr","type":"address"}],"stateMutability":"view","type":"function"},
  {"inputs":[],"name":"owner","outputs":[{"internalType":"address","name":"","type":"address"}],"stateMutability":"view","type":"function"},
  {"inputs":[{"internalType":"uint256","name":"policyId","type":"uint256"},{"internalType":"uint256","name":"payoutPercentage","type":"uint256"}],"name":"processWeatherClaim","outputs":[],"stateMutability":"nonpayable","type":"function"},
  {"inputs":[{"internalType":"string","name":"location","type":"string"},{"internalType":"int256","name":"temperature","type":"int256"},{"internalType":"uint256","name":"rainfall","type":"uint256"},{"internalType":"uint256","name":"humidity","type":"uint256"}],"name":"updateWeatherData","outputs":[],"stateMutability":"nonpayable","type":"function"},
  {"anonymous":false,"inputs":[{"indexed":false,"internalType":"uint256","name":"policyId","type":"uint256"},{"indexed":false,"internalType":"uint256","name":"premiumAmount","type":"uint256"}],"name":"PolicyFunded","type":"event"},
  {"anonymous":false,"inputs":[{"indexed":false,"internalType":"uint256","name":"policyId","type":"uint256"},{"indexed":false,"internalType":"address","name":"farmer","type":"address"},{"indexed":false,"internalType":"uint256","name":"payoutAmount","type":"uint256"},{"indexed":false,"internalType":"string","name":"reason","type":"string"}],"name":"ClaimProcessed","type":"event"}
]`

// RawStats mirrors the getContractStats return tuple in smallest units.
type RawStats struct {
	TotalCapital   *big.Int
	ActivePolicies *big.Int
	TotalInvestors *big.Int
	TotalPayouts   *big.Int
}

// RawPolicy mirrors the policies(id) mapping entry as returned by the chain.
type RawPolicy struct {
	Farmer         common.Address
	CropType       string
	CoverageAmount *big.Int
	Premium        *big.Int
	StartTime      *big.Int
	EndTime        *big.Int
	Claimed        bool
	ClaimAmount    *big.Int
	Location       string
}

// SubContracts holds the addresses of the AgriShield sub-contracts.
type SubContracts struct {
	InsurancePool common.Address
	PolicyManager common.Address
	WeatherOracle common.Address
}

// PolicyFundedEvent is the decoded PolicyFunded contract event.
type PolicyFundedEvent struct {
	PolicyId      *big.Int
	PremiumAmount *big.Int
	Raw           types.Log
}

// ClaimProcessedEvent is the decoded ClaimProcessed contract event.
type ClaimProcessedEvent struct {
	PolicyId     *big.Int
	Farmer       common.Address
	PayoutAmount *big.Int
	Reason       string
	Raw          types.Log
}

// Contract is the AgriShield surface consumed by the session, discovery,
// stats and subscription layers. *AgriShield is the production
// implementation; tests substitute fakes.
type Contract interface {
	Address() common.Address

	GetContractStats(opts *bind.CallOpts) (RawStats, error)
	Owner(opts *bind.CallOpts) (common.Address, error)
	GetUserPolicyIds(opts *bind.CallOpts, farmer common.Address) ([]*big.Int, error)
	Policies(opts *bind.CallOpts, policyID *big.Int) (RawPolicy, error)
	GetPolicyLocation(opts *bind.CallOpts, policyID *big.Int) (string, error)
	GetSubContractAddresses(opts *bind.CallOpts) (SubContracts, error)

	CreatePolicy(opts *bind.TransactOpts, cropType string, coverageAmount *big.Int) (*types.Transaction, error)
	CreatePolicyWithLocation(opts *bind.TransactOpts, cropType string, coverageAmount *big.Int, location string) (*types.Transaction, error)
	InvestInPool(opts *bind.TransactOpts) (*types.Transaction, error)
	ClaimInvestorRewards(opts *bind.TransactOpts) (*types.Transaction, error)

	FilterPolicyFunded(opts *bind.FilterOpts) ([]*PolicyFundedEvent, error)
	WatchPolicyFunded(opts *bind.WatchOpts, sink chan<- *PolicyFundedEvent) (event.Subscription, error)
	WatchClaimProcessed(opts *bind.WatchOpts, sink chan<- *ClaimProcessedEvent) (event.Subscription, error)
}

// AgriShield wires the parsed ABI to a bound contract instance.
type AgriShield struct {
	address  common.Address
	abi      abi.ABI
	contract *bind.BoundContract
}

var _ Contract = (*AgriShield)(nil)

// NewAgriShield binds the AgriShield main contract at the given address to
// the backend. The backend serves calls, transactions and log filtering.
func NewAgriShield(address common.Address, backend bind.ContractBackend) (*AgriShield, error) {
	parsed, err := abi.JSON(strings.NewReader(agriShieldABI))
	if err != nil {
		return nil, err
	}
	return &AgriShield{
		address:  address,
		abi:      parsed,
		contract: bind.NewBoundContract(address, parsed, backend, backend, backend),
	}, nil
}

// Address returns the bound contract address.
func (a *AgriShield) Address() common.Address {
	return a.address
}

// GetContractStats reads the aggregate pool statistics.
func (a *AgriShield) GetContractStats(opts *bind.CallOpts) (RawStats, error) {
	var out []interface{}
	if err := a.contract.Call(opts, &out, "getContractStats"); err != nil {
		return RawStats{}, err
	}
	return RawStats{
		TotalCapital:   out[0].(*big.Int),
		ActivePolicies: out[1].(*big.Int),
		TotalInvestors: out[2].(*big.Int),
		TotalPayouts:   out[3].(*big.Int),
	}, nil
}

// Owner returns the contract owner address.
func (a *AgriShield) Owner(opts *bind.CallOpts) (common.Address, error) {
	var out []interface{}
	if err := a.contract.Call(opts, &out, "owner"); err != nil {
		return common.Address{}, err
	}
	return out[0].(common.Address), nil
}

// GetUserPolicyIds returns the policy ids recorded for the given farmer.
// Deployments without this accessor revert.
func (a *AgriShield) GetUserPolicyIds(opts *bind.CallOpts, farmer common.Address) ([]*big.Int, error) {
	var out []interface{}
	if err := a.contract.Call(opts, &out, "getUserPolicyIds", farmer); err != nil {
		return nil, err
	}
	return out[0].([]*big.Int), nil
}

// Policies reads one entry of the public policies mapping. Deployments
// without the mapping accessor revert.
func (a *AgriShield) Policies(opts *bind.CallOpts, policyID *big.Int) (RawPolicy, error) {
	var out []interface{}
	if err := a.contract.Call(opts, &out, "policies", policyID); err != nil {
		return RawPolicy{}, err
	}
	return RawPolicy{
		Farmer:         out[0].(common.Address),
		CropType:       out[1].(string),
		CoverageAmount: out[2].(*big.Int),
		Premium:        out[3].(*big.Int),
		StartTime:      out[4].(*big.Int),
		EndTime:        out[5].(*big.Int),
		Claimed:        out[6].(bool),
		ClaimAmount:    out[7].(*big.Int),
		Location:       out[8].(string),
	}, nil
}

// GetPolicyLocation returns the location string recorded for a policy.
func (a *AgriShield) GetPolicyLocation(opts *bind.CallOpts, policyID *big.Int) (string, error) {
	var out []interface{}
	if err := a.contract.Call(opts, &out, "getPolicyLocation", policyID); err != nil {
		return "", err
	}
	return out[0].(string), nil
}

// GetSubContractAddresses returns the insurance pool, policy manager and
// weather oracle addresses.
func (a *AgriShield) GetSubContractAddresses(opts *bind.CallOpts) (SubContracts, error) {
	var out []interface{}
	if err := a.contract.Call(opts, &out, "getSubContractAddresses"); err != nil {
		return SubContracts{}, err
	}
	return SubContracts{
		InsurancePool: out[0].(common.Address),
		PolicyManager: out[1].(common.Address),
		WeatherOracle: out[2].(common.Address),
	}, nil
}

// CreatePolicy submits a createPolicy transaction. The premium must be
// attached as opts.Value.
func (a *AgriShield) CreatePolicy(opts *bind.TransactOpts, cropType string, coverageAmount *big.Int) (*types.Transaction, error) {
	return a.contract.Transact(opts, "createPolicy", cropType, coverageAmount)
}

// CreatePolicyWithLocation submits a createPolicyWithLocation transaction.
// The premium must be attached as opts.Value.
func (a *AgriShield) CreatePolicyWithLocation(opts *bind.TransactOpts, cropType string, coverageAmount *big.Int, location string) (*types.Transaction, error) {
	return a.contract.Transact(opts, "createPolicyWithLocation", cropType, coverageAmount, location)
}

// InvestInPool deposits opts.Value into the insurance capital pool.
func (a *AgriShield) InvestInPool(opts *bind.TransactOpts) (*types.Transaction, error) {
	return a.contract.Transact(opts, "investInPool")
}

// ClaimInvestorRewards withdraws the caller's accrued investor rewards.
func (a *AgriShield) ClaimInvestorRewards(opts *bind.TransactOpts) (*types.Transaction, error) {
	return a.contract.Transact(opts, "claimInvestorRewards")
}

// FilterPolicyFunded returns the historical PolicyFunded events in the range
// described by opts.
func (a *AgriShield) FilterPolicyFunded(opts *bind.FilterOpts) ([]*PolicyFundedEvent, error) {
	logs, sub, err := a.contract.FilterLogs(opts, "PolicyFunded")
	if err != nil {
		return nil, err
	}
	defer sub.Unsubscribe()

	// The log channel is never closed; the producer signals completion
	// through Err, possibly with logs still buffered.
	var events []*PolicyFundedEvent
	decode := func(log types.Log) error {
		ev := new(PolicyFundedEvent)
		if err := a.contract.UnpackLog(ev, "PolicyFunded", log); err != nil {
			return err
		}
		ev.Raw = log
		events = append(events, ev)
		return nil
	}
	for {
		select {
		case log := <-logs:
			if err := decode(log); err != nil {
				return nil, err
			}
		case err := <-sub.Err():
			if err != nil {
				return nil, err
			}
			for {
				select {
				case log := <-logs:
					if err := decode(log); err != nil {
						return nil, err
					}
				default:
					return events, nil
				}
			}
		}
	}
}

// WatchPolicyFunded subscribes to future PolicyFunded events, delivering them
// to sink until the subscription is cancelled.
func (a *AgriShield) WatchPolicyFunded(opts *bind.WatchOpts, sink chan<- *PolicyFundedEvent) (event.Subscription, error) {
	logs, sub, err := a.contract.WatchLogs(opts, "PolicyFunded")
	if err != nil {
		return nil, err
	}
	return event.NewSubscription(func(quit <-chan struct{}) error {
		defer sub.Unsubscribe()
		for {
			select {
			case log := <-logs:
				ev := new(PolicyFundedEvent)
				if err := a.contract.UnpackLog(ev, "PolicyFunded", log); err != nil {
					return err
				}
				ev.Raw = log
				select {
				case sink <- ev:
				case err := <-sub.Err():
					return err
				case <-quit:
					return nil
				}
			case err := <-sub.Err():
				return err
			case <-quit:
				return nil
			}
		}
	}), nil
}

// WatchClaimProcessed subscribes to future ClaimProcessed events, delivering
// them to sink until the subscription is cancelled.
func (a *AgriShield) WatchClaimProcessed(opts *bind.WatchOpts, sink chan<- *ClaimProcessedEvent) (event.Subscription, error) {
	logs, sub, err := a.contract.WatchLogs(opts, "ClaimProcessed")
	if err != nil {
		return nil, err
	}
	return event.NewSubscription(func(quit <-chan struct{}) error {
		defer sub.Unsubscribe()
		for {
			select {
			case log := <-logs:
				ev := new(ClaimProcessedEvent)
				if err := a.contract.UnpackLog(ev, "ClaimProcessed", log); err != nil {
					return err
				}
				ev.Raw = log
				select {
				case sink <- ev:
				case err := <-sub.Err():
					return err
				case <-quit:
					return nil
				}
			case err := <-sub.Err():
				return err
			case <-quit:
				return nil
			}
		}
	}), nil
}
