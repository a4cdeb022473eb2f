package trader

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"ContractTrader/internal/account"
	"ContractTrader/internal/client"
	"ContractTrader/internal/metrics"
	"ContractTrader/internal/model"
	"ContractTrader/internal/strategy"
)

// session is one account's pass through one cycle. It is created by the
// orchestrator and discarded when the account is done.
type session struct {
	client  client.Client
	state   *account.State
	policy  strategy.Policy
	listing strategy.ListingPolicy
	emit    *metrics.Emitter
	log     *logrus.Entry
	result  model.AccountResult
	sleep   func(context.Context, time.Duration) error

	// accounts is the size of the cycle, the Healthy Account denominator.
	accounts int
}

// partial records a bulk operation that did not fully succeed.
func (s *session) partial(op string, requested, succeeded int) {
	if requested == succeeded {
		return
	}
	pf := &PartialFailure{Op: op, Requested: requested, Succeeded: succeeded}
	s.log.WithError(pf).Warn("some items failed")
	s.emit.Emit(metrics.PartialFailure, metrics.Dimensions{
		metrics.DimOperation:       op,
		metrics.DimFailureCategory: CategoryPartial,
	}, metrics.Count(requested-succeeded))
}

// contractDims is the dimension set for a single contract type.
func contractDims(t string) metrics.Dimensions {
	return metrics.Dimensions{metrics.DimContractType: t}
}

// sleepCtx waits for d or until ctx is done.
func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
