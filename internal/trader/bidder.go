package trader

import (
	"context"
	"fmt"
	"strconv"

	"github.com/sirupsen/logrus"

	"ContractTrader/internal/contract"
	"ContractTrader/internal/metrics"
	"ContractTrader/internal/model"
	"ContractTrader/internal/strategy"
)

// Bid Status dimension values.
const (
	bidSuccess  = "Success"
	bidNoBudget = "No Budget"
	bidError    = "Error"
)

// bidPage searches one market page and bids on every eligible offer the
// local budget allows. A rejected bid ends the page without failing the step.
func (s *session) bidPage(ctx context.Context, page int) error {
	tier, ok := strategy.SelectTier(s.policy.Tiers, s.state.Credits())
	if !ok {
		s.log.WithField("credits", s.state.Credits()).Info("no bid tier for current credits")
		return nil
	}
	log := s.log.WithFields(logrus.Fields{"page": page, "tier": tier.Name})

	results, err := s.client.SearchMarket(ctx, tier.Query(page, s.policy.PageSize))
	if err != nil {
		return fmt.Errorf("search market page %d: %w", page, err)
	}
	total := len(results)
	tierDims := metrics.Dimensions{metrics.DimBidTier: tier.Name}
	s.emit.Emit(metrics.ContractSearched, tierDims, metrics.Count(total))
	if total == 0 {
		log.Info("search returned nothing")
		return nil
	}

	candidates := contract.Filter(contract.Tradable(results), func(a model.Auction) bool {
		return s.policy.Quality.Passes(a)
	})
	eligible := contract.Filter(candidates, tier.Eligible)
	s.emit.Emit(metrics.ContractFound, tierDims, metrics.Count(len(eligible)))
	s.emit.Emit(metrics.ContractsFoundRatio, tierDims, metrics.Average(float64(len(eligible)), float64(total)))
	log.WithFields(logrus.Fields{"total": total, "eligible": len(eligible)}).Info("market searched")

	for _, a := range eligible {
		if !s.state.CanAfford(tier.Price) {
			log.WithField("credits", s.state.Credits()).Warn("not enough budget")
			s.emitBid(a, tier, bidNoBudget, CategoryBudget)
			s.result.BidsSkipped++
			continue
		}

		if _, err := s.client.PlaceBid(ctx, a.TradeID, tier.Price); err != nil {
			if ctx.Err() != nil {
				return fmt.Errorf("bid on trade %d: %w", a.TradeID, err)
			}
			cat := Category(err)
			log.WithError(err).WithFields(logrus.Fields{"trade": a.TradeID, "category": cat}).Error("bid item error")
			s.emitBid(a, tier, bidError, cat)
			return nil
		}
		if err := s.state.ReserveCredits(tier.Price); err != nil {
			return fmt.Errorf("bid on trade %d: %w", a.TradeID, err)
		}
		s.emitBid(a, tier, bidSuccess, "")
		s.result.BidsPlaced++
		log.WithFields(logrus.Fields{"trade": a.TradeID, "price": tier.Price}).Info("bid placed")

		if err := s.sleep(ctx, s.policy.BidCooldown); err != nil {
			return fmt.Errorf("bid cooldown: %w", err)
		}
	}
	return nil
}

func (s *session) emitBid(a model.Auction, tier strategy.Tier, status, category string) {
	dims := contractDims(string(contract.Classify(a)))
	dims[metrics.DimBidStatus] = status
	dims[metrics.DimBidPrice] = strconv.FormatInt(tier.Price, 10)
	dims[metrics.DimBidTier] = tier.Name
	if category != "" {
		dims[metrics.DimFailureCategory] = category
	}
	s.emit.Emit(metrics.Bid, dims, metrics.Count(1))
}
