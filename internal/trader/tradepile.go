package trader

import (
	"context"
	"fmt"
	"slices"

	"github.com/sirupsen/logrus"

	"ContractTrader/internal/client"
	"ContractTrader/internal/contract"
	"ContractTrader/internal/metrics"
	"ContractTrader/internal/model"
	"ContractTrader/internal/strategy"
)

// RelistOutcome is the result of a bulk relist attempt.
type RelistOutcome int

const (
	Relisted RelistOutcome = iota
	RelistFailed
)

func (o RelistOutcome) String() string {
	if o == Relisted {
		return "Relisted"
	}
	return "Failed"
}

// reconcileTradePile sweeps sold entries, relists or reclaims expired ones and
// pulls orphaned entries back into the club.
func (s *session) reconcileTradePile(ctx context.Context) error {
	pile, err := s.client.FetchTradePile(ctx)
	if err != nil {
		return fmt.Errorf("fetch trade pile: %w", err)
	}

	tradable := contract.Tradable(pile)
	part := contract.PartitionByState(tradable)
	active := contract.CountByType(part.Active)
	expired := contract.CountByType(part.Expired)
	closed := contract.CountByType(part.Closed)

	s.state.SetTradePile(
		[2]int{active.Players, active.Coaches},
		[2]int{expired.Players, expired.Coaches},
		[2]int{closed.Players, closed.Coaches},
	)
	s.emitTradePile(active, expired, closed)
	s.log.WithFields(logrus.Fields{
		"active":  len(part.Active),
		"expired": len(part.Expired),
		"closed":  len(part.Closed),
	}).Info("trade pile status")

	if len(part.Closed) > 0 {
		if err := s.client.DeleteSoldEntries(ctx); err != nil {
			return fmt.Errorf("delete sold entries: %w", err)
		}
		s.state.AdjustListedCount(-len(part.Closed))
		s.result.Sold += len(part.Closed)
	}

	var reclaimed []int64
	action := strategy.RelistNone
	if len(part.Expired) > 0 {
		action = s.policy.Relist.Decide(len(part.Expired))
	}
	if action == strategy.RelistAll {
		outcome, err := s.relist(ctx)
		if err != nil {
			return err
		}
		if outcome == Relisted {
			s.state.MarkRelisted()
			s.emit.EmitContracts(metrics.ContractsRelisted, nil,
				metrics.Count(expired.Players), metrics.Count(expired.Coaches))
			s.result.Relisted += len(part.Expired)
		} else {
			action = strategy.ReclaimExpired
		}
	}
	if action == strategy.ReclaimExpired {
		if reclaimed, err = s.reclaimExpired(ctx, part.Expired); err != nil {
			return err
		}
	}

	orphans := contract.Filter(contract.Orphans(tradable), func(a model.Auction) bool {
		return !slices.Contains(reclaimed, a.Item.ID)
	})
	if len(orphans) > s.policy.OrphanThreshold {
		ids := contract.ItemIDs(orphans)
		res, err := s.client.MoveToClub(ctx, ids)
		if err != nil {
			return fmt.Errorf("move orphans to club: %w", err)
		}
		n := res.Succeeded()
		s.partial(client.OpMoveToClub, len(ids), n)
		s.state.AdjustListedCount(-n)
		s.emit.Emit(metrics.OrphansReclaimed, nil, metrics.Count(n))
		s.log.WithField("num", n).Info("orphaned entries moved to club")
	}
	return nil
}

// relist attempts a bulk relist. Remote rejections become RelistFailed; only
// cancellation is returned as an error.
func (s *session) relist(ctx context.Context) (RelistOutcome, error) {
	_, err := s.client.RelistAll(ctx)
	if err != nil && ctx.Err() != nil {
		return RelistFailed, fmt.Errorf("relist: %w", err)
	}

	outcome := Relisted
	dims := metrics.Dimensions{}
	if err != nil {
		outcome = RelistFailed
		dims[metrics.DimFailureCategory] = Category(err)
		s.log.WithError(err).Warn("relist failed, reclaiming expired contracts")
	} else {
		s.log.Info("expired contracts relisted")
	}
	dims[metrics.DimRelistOutcome] = outcome.String()
	s.emit.Emit(metrics.Relist, dims, metrics.Count(1))
	return outcome, nil
}

// reclaimExpired moves every expired entry back to the club and returns the
// item ids it asked to move.
func (s *session) reclaimExpired(ctx context.Context, expired []model.Auction) ([]int64, error) {
	if len(expired) == 0 {
		return nil, nil
	}
	ids := contract.ItemIDs(expired)
	counts := contract.CountByType(expired)
	res, err := s.client.MoveToClub(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("reclaim expired: %w", err)
	}
	n := res.Succeeded()
	s.partial(client.OpMoveToClub, len(ids), n)
	s.state.AdjustListedCount(-n)
	s.state.ClearExpired()
	s.emit.EmitContracts(metrics.ContractsReclaimed, nil,
		metrics.Count(counts.Players), metrics.Count(counts.Coaches))
	s.result.Reclaimed += n
	s.log.WithField("num", n).Info("expired contracts moved to club")
	return ids, nil
}

func (s *session) emitTradePile(active, expired, closed contract.Counts) {
	s.emit.EmitContracts(metrics.ContractsListing, nil,
		metrics.Last(float64(active.Players+expired.Players)),
		metrics.Last(float64(active.Coaches+expired.Coaches)))
	s.emit.EmitContracts(metrics.ActiveContractsAverage, nil,
		metrics.Average(float64(active.Players), 1), metrics.Average(float64(active.Coaches), 1))
	s.emit.EmitContracts(metrics.ExpiredContractsAverage, nil,
		metrics.Average(float64(expired.Players), 1), metrics.Average(float64(expired.Coaches), 1))
	s.emit.EmitContracts(metrics.SoldContractsAverage, nil,
		metrics.Average(float64(closed.Players), 1), metrics.Average(float64(closed.Coaches), 1))

	for state, c := range map[model.TradeState]contract.Counts{
		model.TradeActive:  active,
		model.TradeExpired: expired,
		model.TradeClosed:  closed,
	} {
		dims := metrics.Dimensions{metrics.DimTradeState: string(state)}
		if c.Players > 0 {
			s.emit.Emit(metrics.ListingItems, withContract(dims, metrics.ContractGoldPlayer), metrics.Last(float64(c.Players)))
		}
		if c.Coaches > 0 {
			s.emit.Emit(metrics.ListingItems, withContract(dims, metrics.ContractGoldCoach), metrics.Last(float64(c.Coaches)))
		}
	}

	if closed.Total() > 0 {
		s.emit.EmitContracts(metrics.ContractsSold, nil,
			metrics.Count(closed.Players), metrics.Count(closed.Coaches))
	}
}

func withContract(dims metrics.Dimensions, t string) metrics.Dimensions {
	out := metrics.Dimensions{metrics.DimContractType: t}
	for k, v := range dims {
		out[k] = v
	}
	return out
}
