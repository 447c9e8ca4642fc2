package transactor

import (
	"context"
	"fmt"
	"math"

	"github.com/ethereum/go-ethereum"
	"github.com/ruteri/zaph/interfaces"
)

// GasEstimator simulates a call and returns the gas it would use.
type GasEstimator interface {
	EstimateGas(ctx context.Context, call ethereum.CallMsg) (uint64, error)
}

// GasPolicy decides whether and how gas is estimated for a call, and whether
// the operator has to confirm it first.
type GasPolicy struct {
	// GasLimit is used verbatim when set.
	GasLimit *uint64
	// GasBuffer multiplies the estimate when set.
	GasBuffer *float64
	// AutoConfirm skips the interactive confirmation.
	AutoConfirm bool
}

// GasDecision is the outcome of GasPolicy.Decide.
type GasDecision struct {
	// Omit means no gas limit was chosen; the node estimates at submission.
	Omit bool
	// Limit is the gas limit to use when Omit is false.
	Limit uint64
	// Estimate is the raw estimate, zero when no estimation happened.
	Estimate uint64
}

// Validate rejects buffers that are negative or not a number.
func (p GasPolicy) Validate() error {
	if p.GasBuffer != nil && (*p.GasBuffer < 0 || math.IsNaN(*p.GasBuffer) || math.IsInf(*p.GasBuffer, 0)) {
		return interfaces.Validationf("gas buffer must be a finite number >= 0, got %v", *p.GasBuffer)
	}
	return nil
}

// BufferedGas returns floor(estimate * buffer), or estimate when buffer is nil.
func BufferedGas(estimate uint64, buffer *float64) uint64 {
	if buffer == nil {
		return estimate
	}
	return uint64(math.Floor(float64(estimate) * *buffer))
}

// Decide applies the policy:
//  1. an explicit limit is used as is;
//  2. without buffer and with auto-confirm the gas field is omitted;
//  3. otherwise the call is estimated, buffered, and confirmed unless auto-confirm is set.
//
// A declined confirmation returns ErrUserAbort.
func (p GasPolicy) Decide(ctx context.Context, estimator GasEstimator, call ethereum.CallMsg, confirmer interfaces.Confirmer) (GasDecision, error) {
	if err := p.Validate(); err != nil {
		return GasDecision{}, err
	}

	if p.GasLimit != nil {
		return GasDecision{Limit: *p.GasLimit}, nil
	}

	if p.GasBuffer == nil && p.AutoConfirm {
		return GasDecision{Omit: true}, nil
	}

	estimate, err := estimator.EstimateGas(ctx, call)
	if err != nil {
		return GasDecision{}, interfaces.Networkf(err, "gas estimation failed")
	}

	decision := GasDecision{
		Limit:    BufferedGas(estimate, p.GasBuffer),
		Estimate: estimate,
	}

	if !p.AutoConfirm {
		if confirmer == nil {
			return GasDecision{}, fmt.Errorf("%w: confirmation required but no prompt is available, pass --yes", interfaces.ErrUserAbort)
		}
		prompt := fmt.Sprintf("Estimated gas: %d\nBuffered gas limit: %d\nSend transaction?", decision.Estimate, decision.Limit)
		ok, err := confirmer.Confirm(prompt)
		if err != nil {
			return GasDecision{}, fmt.Errorf("%w: confirmation failed: %v", interfaces.ErrUserAbort, err)
		}
		if !ok {
			return GasDecision{}, fmt.Errorf("%w: transaction aborted by user", interfaces.ErrUserAbort)
		}
	}

	return decision, nil
}
