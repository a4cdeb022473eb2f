// Package client defines the per-account marketplace capabilities the trade
// engine depends on, with a REST implementation and an in-memory fake.
package client

import (
	"context"

	"ContractTrader/internal/model"
)

// Client is bound to a single account. Implementations own their own
// timeouts and retries.
type Client interface {
	FetchAccountInfo(ctx context.Context) (model.AccountInfo, error)
	FetchInventory(ctx context.Context) ([]model.Item, error)
	FetchTradePile(ctx context.Context) ([]model.Auction, error)
	FetchWatchList(ctx context.Context) ([]model.Auction, error)
	FetchStorageConsumables(ctx context.Context) (model.ItemCounts, error)
	SearchMarket(ctx context.Context, q model.SearchQuery) ([]model.Auction, error)

	MoveToClub(ctx context.Context, itemIDs []int64) (model.MoveResult, error)
	// MoveToTransferList moves one storage unit per resource id. The result
	// carries the new item ids to list.
	MoveToTransferList(ctx context.Context, resourceIDs []int64) (model.MoveResult, error)
	CreateListing(ctx context.Context, l model.Listing) (model.ListingResult, error)
	// RelistAll re-activates every expired listing. Rejections are *RelistError.
	RelistAll(ctx context.Context) (model.RelistResult, error)
	DeleteSoldEntries(ctx context.Context) error
	DeleteWatchEntries(ctx context.Context, tradeIDs []int64) error
	// PlaceBid rejections are *BidError.
	PlaceBid(ctx context.Context, tradeID, price int64) (model.BidResult, error)

	Name() string
}
