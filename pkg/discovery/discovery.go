// Package discovery locates a user's insurance policies on chain. The
// contract offers no single reliable index, so the engine chains three
// strategies from cheapest-and-most-precise to broadest: the PolicyFunded
// event log, the per-user id accessor, and a bounded scan of the policy
// mapping. The first strategy that yields any policies wins.
package discovery

import (
	"context"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"go.uber.org/zap"

	"github.com/agrishield/agrishield-sdk-go/pkg/blockchain"
	"github.com/agrishield/agrishield-sdk-go/pkg/model"
)

// Session is the slice of the session manager the engine needs: a
// capability-gated handle to the current chain binding.
type Session interface {
	ReadBinding() (*blockchain.Binding, error)
}

// Engine discovers policies for an account.
type Engine struct {
	sess      Session
	maxScanID uint64
}

// NewEngine creates a discovery engine. maxScanID bounds the fallback scan
// strategy; zero disables it.
func NewEngine(sess Session, maxScanID uint64) *Engine {
	return &Engine{sess: sess, maxScanID: maxScanID}
}

// Policies returns every policy owned by user that any strategy can find.
// Strategies run in a fixed order and the first non-empty result is returned
// as-is; a failing strategy is logged and the next one tried. When every
// strategy comes up empty the result is an empty slice, not an error: "no
// policies" is an answer, not a failure.
func (e *Engine) Policies(ctx context.Context, user common.Address) ([]model.PolicyRecord, error) {
	binding, err := e.sess.ReadBinding()
	if err != nil {
		return nil, err
	}

	records, err := e.fromEvents(ctx, binding, user)
	if err != nil {
		zap.L().Warn("event-log policy discovery failed", zap.Error(err))
	} else if len(records) > 0 {
		return records, nil
	}

	records, err = e.fromUserIndex(ctx, binding, user)
	if err != nil {
		zap.L().Debug("per-user policy index unavailable", zap.Error(err))
	} else if len(records) > 0 {
		return records, nil
	}

	records, err = e.fromScan(ctx, binding, user)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		zap.L().Warn("policy scan failed", zap.Error(err))
		return []model.PolicyRecord{}, nil
	}
	return records, nil
}

// fromEvents replays all PolicyFunded events and keeps the ones whose funding
// transaction was sent by user. Events whose sender cannot be recovered are
// skipped rather than attributed.
func (e *Engine) fromEvents(ctx context.Context, binding *blockchain.Binding, user common.Address) ([]model.PolicyRecord, error) {
	events, err := binding.Contract.FilterPolicyFunded(&bind.FilterOpts{Context: ctx})
	if err != nil {
		return nil, blockchain.RemoteCall("filter PolicyFunded", err)
	}

	records := make([]model.PolicyRecord, 0, len(events))
	seen := make(map[string]bool)
	for _, ev := range events {
		sender, err := e.txSender(ctx, binding, ev.Raw)
		if err != nil {
			zap.L().Debug("cannot recover event sender",
				zap.String("tx", ev.Raw.TxHash.Hex()), zap.Error(err))
			continue
		}
		if sender != user {
			continue
		}
		id := ev.PolicyId.String()
		if seen[id] {
			continue
		}
		seen[id] = true

		rec, err := e.PolicyDetail(ctx, ev.PolicyId)
		if err != nil {
			zap.L().Warn("policy detail fetch failed",
				zap.String("policyId", id), zap.Error(err))
			continue
		}
		rec.TxHash = ev.Raw.TxHash
		rec.BlockNumber = ev.Raw.BlockNumber
		farmer := user
		rec.Farmer = &farmer
		rec.OwnerVerified = true
		records = append(records, rec)
	}
	return records, nil
}

// txSender recovers the sender of the transaction a log was emitted from.
func (e *Engine) txSender(ctx context.Context, binding *blockchain.Binding, log types.Log) (common.Address, error) {
	tx, _, err := binding.Backend.TransactionByHash(ctx, log.TxHash)
	if err != nil {
		return common.Address{}, err
	}
	return binding.Backend.TransactionSender(ctx, tx, log.BlockHash, log.TxIndex)
}

// fromUserIndex asks the contract's per-user accessor for the policy ids.
func (e *Engine) fromUserIndex(ctx context.Context, binding *blockchain.Binding, user common.Address) ([]model.PolicyRecord, error) {
	ids, err := binding.Contract.GetUserPolicyIds(&bind.CallOpts{Context: ctx}, user)
	if err != nil {
		return nil, blockchain.RemoteCall("getUserPolicyIds", err)
	}

	records := make([]model.PolicyRecord, 0, len(ids))
	for _, id := range ids {
		rec, err := e.PolicyDetail(ctx, id)
		if err != nil {
			zap.L().Warn("policy detail fetch failed",
				zap.String("policyId", id.String()), zap.Error(err))
			continue
		}
		farmer := user
		rec.Farmer = &farmer
		rec.OwnerVerified = true
		records = append(records, rec)
	}
	return records, nil
}

// fromScan walks policy ids 1..maxScanID. Per-id read failures are skipped.
// A policy naming user as farmer is kept verified; a populated policy with no
// farmer on record is kept with OwnerVerified=false because ownership cannot
// be confirmed either way.
func (e *Engine) fromScan(ctx context.Context, binding *blockchain.Binding, user common.Address) ([]model.PolicyRecord, error) {
	records := []model.PolicyRecord{}
	for id := uint64(1); id <= e.maxScanID; id++ {
		select {
		case <-ctx.Done():
			return records, ctx.Err()
		default:
		}

		policyID := new(big.Int).SetUint64(id)
		raw, err := binding.Contract.Policies(&bind.CallOpts{Context: ctx}, policyID)
		if err != nil {
			continue
		}
		if isEmptyPolicy(raw) {
			continue
		}

		rec := recordFromRaw(policyID, raw)
		switch {
		case raw.Farmer == user:
			rec.OwnerVerified = true
		case raw.Farmer == (common.Address{}):
			rec.OwnerVerified = false
			rec.Farmer = nil
		default:
			continue // belongs to someone else
		}
		records = append(records, rec)
	}
	return records, nil
}

// PolicyDetail fetches one policy's full record. The policies mapping is the
// primary source; when it cannot be read the location accessor is tried and a
// Partial record synthesized so callers still get the id and location.
func (e *Engine) PolicyDetail(ctx context.Context, id *big.Int) (model.PolicyRecord, error) {
	binding, err := e.sess.ReadBinding()
	if err != nil {
		return model.PolicyRecord{}, err
	}

	raw, err := binding.Contract.Policies(&bind.CallOpts{Context: ctx}, id)
	if err == nil {
		return recordFromRaw(id, raw), nil
	}
	zap.L().Debug("policies mapping read failed, trying location accessor",
		zap.String("policyId", id.String()), zap.Error(err))

	location, locErr := binding.Contract.GetPolicyLocation(&bind.CallOpts{Context: ctx}, id)
	if locErr != nil {
		return model.PolicyRecord{}, blockchain.RemoteCall("policies", err)
	}
	return model.PolicyRecord{
		PolicyID:       new(big.Int).Set(id),
		Location:       location,
		CoverageAmount: big.NewInt(0),
		Premium:        big.NewInt(0),
		ClaimAmount:    big.NewInt(0),
		Status:         model.StatusActive,
		Partial:        true,
	}, nil
}

func recordFromRaw(id *big.Int, raw blockchain.RawPolicy) model.PolicyRecord {
	start := time.Unix(raw.StartTime.Int64(), 0)
	end := time.Unix(raw.EndTime.Int64(), 0)
	rec := model.PolicyRecord{
		PolicyID:       new(big.Int).Set(id),
		CropType:       raw.CropType,
		CoverageAmount: raw.CoverageAmount,
		Premium:        raw.Premium,
		Location:       raw.Location,
		StartTime:      start,
		EndTime:        end,
		Claimed:        raw.Claimed,
		ClaimAmount:    raw.ClaimAmount,
		Status:         model.DeriveStatus(raw.Claimed, start, end, time.Now()),
	}
	if raw.Farmer != (common.Address{}) {
		farmer := raw.Farmer
		rec.Farmer = &farmer
	}
	return rec
}

// isEmptyPolicy reports whether a mapping entry is the zero value, meaning no
// policy exists under that id.
func isEmptyPolicy(raw blockchain.RawPolicy) bool {
	return raw.Farmer == (common.Address{}) &&
		(raw.CoverageAmount == nil || raw.CoverageAmount.Sign() == 0)
}
