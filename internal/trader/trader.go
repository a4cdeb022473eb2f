// Package trader runs the per-account trade cycle: inventory and trade-pile
// reconciliation, listing replenishment and bidding.
package trader

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"ContractTrader/internal/account"
	"ContractTrader/internal/client"
	"ContractTrader/internal/metrics"
	"ContractTrader/internal/model"
	"ContractTrader/internal/strategy"
)

// Step names reported in account results.
const (
	StepStart     = "start"
	StepInventory = "inventory"
	StepTradePile = "tradepile"
	StepListing   = "listing"
	StepBid       = "bid"
)

// errUnhealthy marks an account the start step refused to trade.
var errUnhealthy = errors.New("account not healthy")

// Account is one trading account and the client bound to it.
type Account struct {
	Name   string
	Client client.Client
	// Listing overrides the policy's listing settings when set.
	Listing *strategy.ListingPolicy
}

// Trader runs trade cycles over a fixed set of accounts.
type Trader struct {
	accounts []Account
	policy   strategy.Policy
	sink     metrics.Sink
	workers  int

	now   func() time.Time
	sleep func(context.Context, time.Duration) error
}

// New creates a Trader. workers bounds how many accounts run at once; values
// below one run accounts sequentially.
func New(accounts []Account, policy strategy.Policy, sink metrics.Sink, workers int) *Trader {
	return &Trader{
		accounts: accounts,
		policy:   policy,
		sink:     sink,
		workers:  max(workers, 1),
		now:      time.Now,
		sleep:    sleepCtx,
	}
}

// Accounts returns the account names in processing order.
func (t *Trader) Accounts() []string {
	names := make([]string, len(t.accounts))
	for i, a := range t.accounts {
		names[i] = a.Name
	}
	return names
}

// RunCycle processes every account once. A failing account never stops the
// others. After ctx is done no new account or step is started.
func (t *Trader) RunCycle(ctx context.Context) *model.CycleReport {
	rep := &model.CycleReport{ID: uuid.NewString(), StartedAt: t.now()}
	log := logrus.WithField("cycle", rep.ID)
	log.WithField("accounts", len(t.accounts)).Info("trade cycle starts")
	metrics.NewEmitter(t.sink, nil).Emit(metrics.TradeRequest, nil, metrics.Count(1))

	results := make([]model.AccountResult, len(t.accounts))
	var g errgroup.Group
	g.SetLimit(t.workers)
	for i, acct := range t.accounts {
		if ctx.Err() != nil {
			results[i] = model.AccountResult{Account: acct.Name, Status: model.AccountCanceled, Step: StepStart, Category: CategoryCanceled}
			continue
		}
		i, acct := i, acct
		g.Go(func() error {
			results[i] = t.runAccount(ctx, log, i, acct)
			return nil
		})
	}
	_ = g.Wait()

	rep.Accounts = results
	rep.FinishedAt = t.now()
	log.WithFields(logrus.Fields{
		"done":     rep.Count(model.AccountDone),
		"failed":   rep.Count(model.AccountFailed),
		"skipped":  rep.Count(model.AccountSkipped),
		"canceled": rep.Count(model.AccountCanceled),
		"elapsed":  rep.Duration().String(),
	}).Info("trade cycle ends")
	return rep
}

type step struct {
	name string
	run  func(context.Context) error
}

func (t *Trader) runAccount(ctx context.Context, log *logrus.Entry, idx int, acct Account) model.AccountResult {
	emit := metrics.NewEmitter(t.sink, metrics.Dimensions{metrics.DimAccount: acct.Name})
	s := &session{
		client:   acct.Client,
		state:    account.New(acct.Name),
		policy:   t.policy,
		listing:  t.policy.Listing,
		emit:     emit,
		log:      log.WithField("account", acct.Name),
		result:   model.AccountResult{Account: acct.Name, Status: model.AccountDone},
		sleep:    t.sleep,
		accounts: len(t.accounts),
	}
	if acct.Listing != nil {
		s.listing = *acct.Listing
	}

	steps := []step{
		{StepStart, s.start},
		{StepInventory, s.reconcileInventory},
		{StepTradePile, s.reconcileTradePile},
		{StepListing, s.replenishAndValue},
	}
	for n := 0; n < t.policy.Pages; n++ {
		page := t.policy.PageIndex(idx, n)
		steps = append(steps, step{StepBid, func(ctx context.Context) error { return s.bidPage(ctx, page) }})
	}

	started := false
	for _, st := range steps {
		if err := ctx.Err(); err != nil {
			s.stop(st.name, model.AccountCanceled, err)
			break
		}
		s.log.WithField("step", st.name).Debug("step starts")
		err := st.run(ctx)
		if err == nil {
			started = true
			continue
		}

		switch {
		case errors.Is(err, errUnhealthy):
			s.stop(st.name, model.AccountSkipped, err)
		case Category(err) == CategoryCanceled:
			s.stop(st.name, model.AccountCanceled, err)
		default:
			s.stop(st.name, model.AccountFailed, err)
			s.log.WithError(err).WithFields(logrus.Fields{"step": st.name, "category": s.result.Category}).Error("account cycle failed")
			emit.Emit(metrics.CycleFailure, metrics.Dimensions{
				metrics.DimStep:            st.name,
				metrics.DimFailureCategory: s.result.Category,
			}, metrics.Count(1))
		}
		break
	}

	if started {
		s.finish()
	}
	return s.result
}

// stop ends the account's cycle at the named step.
func (s *session) stop(stepName string, status model.AccountStatus, err error) {
	s.result.Status = status
	s.result.Step = stepName
	s.result.Category = Category(err)
	if status == model.AccountSkipped {
		s.result.Category = ""
	}
	s.result.Error = err.Error()
}

// start is the health gate: accounts that cannot report their info or have
// trading disabled are skipped.
func (s *session) start(ctx context.Context) error {
	info, err := s.client.FetchAccountInfo(ctx)
	healthy := err == nil && info.TradeEnabled
	s.emit.Emit(metrics.HealthyAccount, nil, metrics.Average(boolToFloat(healthy), float64(s.accounts)))
	if err != nil {
		if Category(err) == CategoryCanceled {
			return err
		}
		s.log.WithError(err).Error("get account info failed")
		return fmt.Errorf("%w: %v", errUnhealthy, err)
	}
	if !info.TradeEnabled {
		s.log.Warn("trading disabled for account")
		return fmt.Errorf("%w: trading disabled", errUnhealthy)
	}

	s.state.Refresh(account.Snapshot{
		Credits:         info.Credits,
		ListingCapacity: info.ListingCapacity,
		ListedCount:     info.ListedCount,
	})
	s.emit.Emit(metrics.Credits, nil, metrics.Last(float64(info.Credits)))
	s.emit.Emit(metrics.ListingSize, nil, metrics.Average(float64(info.ListingCapacity), 1))
	s.emit.Emit(metrics.TransferListSize, nil, metrics.Average(float64(info.TransferListSize), 1))
	s.log.WithField("credits", info.Credits).Info("account info refreshed")
	return nil
}

// replenishAndValue lists contracts and then records the club value, before
// any credits are spent on bids.
func (s *session) replenishAndValue(ctx context.Context) error {
	if err := s.replenish(ctx); err != nil {
		return err
	}
	s.result.ClubValue = s.state.ClubValue(s.policy.ContractPrice)
	s.emit.Emit(metrics.ClubValue, nil, metrics.Last(float64(s.result.ClubValue)))
	return nil
}

// finish copies the final ledger into the result.
func (s *session) finish() {
	s.result.Credits = s.state.Credits()
	s.result.ListedCount = s.state.ListedCount()
	s.result.ListingCapacity = s.state.ListingCapacity()
}

func boolToFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
