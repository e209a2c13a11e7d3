// Package stats reads the aggregate AgriShield pool statistics. A capability
// failure is the caller's problem and surfaces as an error; a remote read
// failure is absorbed into a fixed placeholder payload so dashboards keep
// rendering, with the substitution made explicit through provenance tagging.
package stats

import (
	"context"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"go.uber.org/zap"

	"github.com/agrishield/agrishield-sdk-go/pkg/blockchain"
	"github.com/agrishield/agrishield-sdk-go/pkg/model"
)

// Session is the slice of the session manager the aggregator needs.
type Session interface {
	ReadBinding() (*blockchain.Binding, error)
}

// placeholderStats is the demonstration payload substituted wholesale when
// the chain read fails. Placeholder and live values are never mixed.
var placeholderStats = model.ContractStats{
	TotalCapital:   "15.75",
	ActivePolicies: 5,
	TotalInvestors: 8,
	TotalPayouts:   "3.2",
}

// Aggregator fetches contract statistics through the session's binding.
type Aggregator struct {
	sess Session
}

// NewAggregator creates a stats aggregator over the given session.
func NewAggregator(sess Session) *Aggregator {
	return &Aggregator{sess: sess}
}

// Stats returns the pool statistics with monetary amounts converted to
// decimal ETH strings. The session must be readable; beyond that the call
// cannot fail: a remote error yields the placeholder payload tagged as such.
func (a *Aggregator) Stats(ctx context.Context) (model.StatsResult, error) {
	binding, err := a.sess.ReadBinding()
	if err != nil {
		return model.StatsResult{}, err
	}

	raw, err := binding.Contract.GetContractStats(&bind.CallOpts{Context: ctx})
	if err != nil {
		zap.L().Warn("contract stats read failed, serving placeholder data", zap.Error(err))
		return model.StatsResult{
			Provenance: model.Placeholder,
			Stats:      placeholderStats,
		}, nil
	}

	return model.StatsResult{
		Provenance: model.Live,
		Stats: model.ContractStats{
			TotalCapital:   blockchain.FormatEther(raw.TotalCapital),
			ActivePolicies: raw.ActivePolicies.Uint64(),
			TotalInvestors: raw.TotalInvestors.Uint64(),
			TotalPayouts:   blockchain.FormatEther(raw.TotalPayouts),
		},
	}, nil
}
