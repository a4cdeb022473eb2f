package trader

import (
	"context"
	"fmt"

	"ContractTrader/internal/client"
	"ContractTrader/internal/contract"
	"ContractTrader/internal/metrics"
)

// reconcileInventory moves freshly bought and won contracts into the club and
// clears outbid entries from the watch list.
func (s *session) reconcileInventory(ctx context.Context) error {
	items, err := s.client.FetchInventory(ctx)
	if err != nil {
		return fmt.Errorf("fetch inventory: %w", err)
	}

	if bought := contract.Tradable(items); len(bought) > 0 {
		counts := contract.CountByType(bought)
		res, err := s.client.MoveToClub(ctx, contract.ItemIDs(bought))
		if err != nil {
			return fmt.Errorf("move purchased to club: %w", err)
		}
		if n := res.Succeeded(); n != len(bought) {
			s.partial(client.OpMoveToClub, len(bought), n)
		} else {
			s.log.WithField("num", n).Info("purchased contracts moved to club")
			s.emit.EmitContracts(metrics.ContractsPurchased, nil,
				metrics.Count(counts.Players), metrics.Count(counts.Coaches))
			s.result.Purchased += n
		}
	}

	watch, err := s.client.FetchWatchList(ctx)
	if err != nil {
		return fmt.Errorf("fetch watch list: %w", err)
	}

	if won := contract.Tradable(contract.Won(watch)); len(won) > 0 {
		counts := contract.CountByType(won)
		res, err := s.client.MoveToClub(ctx, contract.ItemIDs(won))
		if err != nil {
			return fmt.Errorf("move won to club: %w", err)
		}
		s.partial(client.OpMoveToClub, len(won), res.Succeeded())
		s.emit.EmitContracts(metrics.ContractsPurchased, nil,
			metrics.Count(counts.Players), metrics.Count(counts.Coaches))
		s.result.Purchased += res.Succeeded()
	}

	if outbid := contract.Outbid(watch); len(outbid) > 0 {
		counts := contract.CountByType(outbid)
		if err := s.client.DeleteWatchEntries(ctx, contract.TradeIDs(outbid)); err != nil {
			return fmt.Errorf("delete outbid watch entries: %w", err)
		}
		s.emit.EmitContracts(metrics.ContractsOutbid, nil,
			metrics.Count(counts.Players), metrics.Count(counts.Coaches))
		s.result.Outbid += len(outbid)
	}
	return nil
}
