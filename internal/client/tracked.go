package client

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"ContractTrader/internal/metrics"
	"ContractTrader/internal/model"
)

// TrackedClient reports an API Status average for every call of the wrapped
// client, dimensioned by operation and response code.
type TrackedClient struct {
	inner Client
	emit  *metrics.Emitter
}

// Track wraps c so every call is metered through emit.
func Track(c Client, emit *metrics.Emitter) *TrackedClient {
	return &TrackedClient{inner: c, emit: emit}
}

// ResponseCode maps a call outcome to the code reported with API Status.
// Failures without a remote code report 0.
func ResponseCode(err error) int {
	if err == nil {
		return http.StatusOK
	}
	var be *BidError
	if errors.As(err, &be) {
		return be.Code
	}
	var te *TransportError
	if errors.As(err, &te) {
		return te.StatusCode
	}
	return 0
}

func (t *TrackedClient) track(op string, err error) {
	ok := 0.0
	if err == nil {
		ok = 1
	}
	t.emit.Emit(metrics.APIStatus, metrics.Dimensions{
		metrics.DimOperation:    op,
		metrics.DimResponseCode: strconv.Itoa(ResponseCode(err)),
	}, metrics.Average(ok, 1))
}

func (t *TrackedClient) Name() string { return t.inner.Name() }

func (t *TrackedClient) FetchAccountInfo(ctx context.Context) (model.AccountInfo, error) {
	info, err := t.inner.FetchAccountInfo(ctx)
	t.track(OpFetchAccountInfo, err)
	return info, err
}

func (t *TrackedClient) FetchInventory(ctx context.Context) ([]model.Item, error) {
	items, err := t.inner.FetchInventory(ctx)
	t.track(OpFetchInventory, err)
	return items, err
}

func (t *TrackedClient) FetchTradePile(ctx context.Context) ([]model.Auction, error) {
	pile, err := t.inner.FetchTradePile(ctx)
	t.track(OpFetchTradePile, err)
	return pile, err
}

func (t *TrackedClient) FetchWatchList(ctx context.Context) ([]model.Auction, error) {
	watch, err := t.inner.FetchWatchList(ctx)
	t.track(OpFetchWatchList, err)
	return watch, err
}

func (t *TrackedClient) FetchStorageConsumables(ctx context.Context) (model.ItemCounts, error) {
	held, err := t.inner.FetchStorageConsumables(ctx)
	t.track(OpFetchStorageConsumables, err)
	return held, err
}

func (t *TrackedClient) SearchMarket(ctx context.Context, q model.SearchQuery) ([]model.Auction, error) {
	res, err := t.inner.SearchMarket(ctx, q)
	t.track(OpSearchMarket, err)
	return res, err
}

func (t *TrackedClient) MoveToClub(ctx context.Context, itemIDs []int64) (model.MoveResult, error) {
	res, err := t.inner.MoveToClub(ctx, itemIDs)
	t.track(OpMoveToClub, err)
	return res, err
}

func (t *TrackedClient) MoveToTransferList(ctx context.Context, resourceIDs []int64) (model.MoveResult, error) {
	res, err := t.inner.MoveToTransferList(ctx, resourceIDs)
	t.track(OpMoveToTransferList, err)
	return res, err
}

func (t *TrackedClient) CreateListing(ctx context.Context, l model.Listing) (model.ListingResult, error) {
	res, err := t.inner.CreateListing(ctx, l)
	t.track(OpCreateListing, err)
	return res, err
}

func (t *TrackedClient) RelistAll(ctx context.Context) (model.RelistResult, error) {
	res, err := t.inner.RelistAll(ctx)
	t.track(OpRelistAll, err)
	return res, err
}

func (t *TrackedClient) DeleteSoldEntries(ctx context.Context) error {
	err := t.inner.DeleteSoldEntries(ctx)
	t.track(OpDeleteSoldEntries, err)
	return err
}

func (t *TrackedClient) DeleteWatchEntries(ctx context.Context, tradeIDs []int64) error {
	err := t.inner.DeleteWatchEntries(ctx, tradeIDs)
	t.track(OpDeleteWatchEntries, err)
	return err
}

func (t *TrackedClient) PlaceBid(ctx context.Context, tradeID, price int64) (model.BidResult, error) {
	res, err := t.inner.PlaceBid(ctx, tradeID, price)
	t.track(OpPlaceBid, err)
	return res, err
}
