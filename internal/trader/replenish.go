package trader

import (
	"context"
	"fmt"

	"ContractTrader/internal/client"
	"ContractTrader/internal/contract"
	"ContractTrader/internal/metrics"
	"ContractTrader/internal/model"
	"ContractTrader/internal/strategy"
)

// Listing Status dimension values.
const (
	listingSuccess    = "Success"
	listingFailed     = "Failed"
	listingNoRoom     = "No Room"
	listingMoveFailed = "Move Failed"
)

// replenish lists contracts held in the club until the per-cycle count or the
// listing capacity is reached.
func (s *session) replenish(ctx context.Context) error {
	held, err := s.client.FetchStorageConsumables(ctx)
	if err != nil {
		return fmt.Errorf("fetch club consumables: %w", err)
	}
	counts := contract.CountHeld(held)
	s.state.SetClub(counts.Players, counts.Coaches)
	s.emit.EmitContracts(metrics.ContractsInClub, nil,
		metrics.Last(float64(counts.Players)), metrics.Last(float64(counts.Coaches)))

	kind, available := strategy.ChooseContract(counts)
	if available == 0 {
		s.log.Info("no contracts in club")
		return nil
	}
	typeName := string(kind)

	for i := 0; i < min(s.listing.Count, available); i++ {
		if s.state.Full() {
			s.log.WithField("listed", s.state.ListedCount()).Warn("no room to list")
			s.emitListing(typeName, listingNoRoom)
			return nil
		}
		resourceID, ok := contract.NextHeld(held, kind)
		if !ok {
			return nil
		}
		held[resourceID]--

		moved, err := s.client.MoveToTransferList(ctx, []int64{resourceID})
		if err != nil {
			return fmt.Errorf("move contract to transfer list: %w", err)
		}
		if len(moved.Items) == 0 || !moved.Items[0].Success {
			s.partial(client.OpMoveToTransferList, 1, 0)
			s.emitListing(typeName, listingMoveFailed)
			continue
		}

		itemID := moved.Items[0].ItemID
		_, err = s.client.CreateListing(ctx, model.Listing{
			ItemID:      itemID,
			StartingBid: s.listing.StartingBid,
			BuyNowPrice: s.listing.BuyNowPrice,
			Duration:    s.listing.Duration,
		})
		if err != nil {
			s.emitListing(typeName, listingFailed)
			return fmt.Errorf("list contract %d: %w", itemID, err)
		}
		s.state.AdjustListedCount(1)
		s.result.Listed++
		s.emitListing(typeName, listingSuccess)
		s.log.WithField("item", itemID).Info("contract listed")
	}
	return nil
}

func (s *session) emitListing(contractType, status string) {
	dims := contractDims(contractType)
	dims[metrics.DimListingStatus] = status
	s.emit.Emit(metrics.ListContracts, dims, metrics.Count(1))
}
