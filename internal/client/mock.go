package client

import (
	"context"
	"errors"
	"slices"
	"sync"

	"ContractTrader/internal/model"
)

// Operation names used for call tracking and error injection.
const (
	OpFetchAccountInfo        = "FetchAccountInfo"
	OpFetchInventory          = "FetchInventory"
	OpFetchTradePile          = "FetchTradePile"
	OpFetchWatchList          = "FetchWatchList"
	OpFetchStorageConsumables = "FetchStorageConsumables"
	OpSearchMarket            = "SearchMarket"
	OpMoveToClub              = "MoveToClub"
	OpMoveToTransferList      = "MoveToTransferList"
	OpCreateListing           = "CreateListing"
	OpRelistAll               = "RelistAll"
	OpDeleteSoldEntries       = "DeleteSoldEntries"
	OpDeleteWatchEntries      = "DeleteWatchEntries"
	OpPlaceBid                = "PlaceBid"
)

// MockClient is an in-memory Client for tests and dry runs. Moves and
// listings mutate Storage so consecutive cycles observe their effects.
type MockClient struct {
	mu sync.Mutex

	AccountName string
	Info        model.AccountInfo
	Inventory   []model.Item
	TradePile   []model.Auction
	WatchList   []model.Auction
	Storage     model.ItemCounts
	// Pages maps a search start offset to the results for that page.
	Pages map[int][]model.Auction

	// ErrorOnNext fails the next call of an operation once.
	ErrorOnNext map[string]error
	// Errors fails every call of an operation.
	Errors map[string]error
	// BidErrors rejects bids on specific trade ids.
	BidErrors map[int64]error
	// FailMove marks item or resource ids whose move reports failure.
	FailMove map[int64]bool

	Calls          map[string]int
	Queries        []model.SearchQuery
	Bids           []Bid
	Listings       []model.Listing
	MovedToClub    [][]int64
	DeletedWatches [][]int64

	nextID int64
}

// Bid records one PlaceBid call.
type Bid struct {
	TradeID int64
	Price   int64
}

func NewMockClient(name string) *MockClient {
	return &MockClient{
		AccountName: name,
		Info:        model.AccountInfo{TradeEnabled: true},
		Storage:     model.ItemCounts{},
		Pages:       map[int][]model.Auction{},
		ErrorOnNext: map[string]error{},
		Errors:      map[string]error{},
		BidErrors:   map[int64]error{},
		FailMove:    map[int64]bool{},
		Calls:       map[string]int{},
		nextID:      900000,
	}
}

func (m *MockClient) Name() string { return m.AccountName }

// CallCount returns how often op was called.
func (m *MockClient) CallCount(op string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Calls[op]
}

func (m *MockClient) track(ctx context.Context, op string) error {
	m.Calls[op]++
	if err := ctx.Err(); err != nil {
		return err
	}
	if err, ok := m.ErrorOnNext[op]; ok {
		delete(m.ErrorOnNext, op)
		return err
	}
	if err, ok := m.Errors[op]; ok {
		return err
	}
	return nil
}

func (m *MockClient) FetchAccountInfo(ctx context.Context) (model.AccountInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.track(ctx, OpFetchAccountInfo); err != nil {
		return model.AccountInfo{}, err
	}
	return m.Info, nil
}

func (m *MockClient) FetchInventory(ctx context.Context) ([]model.Item, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.track(ctx, OpFetchInventory); err != nil {
		return nil, err
	}
	return slices.Clone(m.Inventory), nil
}

func (m *MockClient) FetchTradePile(ctx context.Context) ([]model.Auction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.track(ctx, OpFetchTradePile); err != nil {
		return nil, err
	}
	return slices.Clone(m.TradePile), nil
}

func (m *MockClient) FetchWatchList(ctx context.Context) ([]model.Auction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.track(ctx, OpFetchWatchList); err != nil {
		return nil, err
	}
	return slices.Clone(m.WatchList), nil
}

func (m *MockClient) FetchStorageConsumables(ctx context.Context) (model.ItemCounts, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.track(ctx, OpFetchStorageConsumables); err != nil {
		return nil, err
	}
	out := make(model.ItemCounts, len(m.Storage))
	for k, v := range m.Storage {
		out[k] = v
	}
	return out, nil
}

func (m *MockClient) SearchMarket(ctx context.Context, q model.SearchQuery) ([]model.Auction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Queries = append(m.Queries, q)
	if err := m.track(ctx, OpSearchMarket); err != nil {
		return nil, err
	}
	return slices.Clone(m.Pages[q.Start]), nil
}

func (m *MockClient) MoveToClub(ctx context.Context, itemIDs []int64) (model.MoveResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.track(ctx, OpMoveToClub); err != nil {
		return model.MoveResult{}, err
	}
	m.MovedToClub = append(m.MovedToClub, slices.Clone(itemIDs))

	var res model.MoveResult
	for _, id := range itemIDs {
		ok := !m.FailMove[id]
		res.Items = append(res.Items, model.ItemResult{ItemID: id, Success: ok})
	}
	return res, nil
}

func (m *MockClient) MoveToTransferList(ctx context.Context, resourceIDs []int64) (model.MoveResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.track(ctx, OpMoveToTransferList); err != nil {
		return model.MoveResult{}, err
	}

	var res model.MoveResult
	for _, rid := range resourceIDs {
		m.nextID++
		if m.FailMove[rid] || m.Storage[rid] <= 0 {
			res.Items = append(res.Items, model.ItemResult{ItemID: m.nextID, Reason: "not in storage"})
			continue
		}
		m.Storage[rid]--
		res.Items = append(res.Items, model.ItemResult{ItemID: m.nextID, Success: true})
	}
	return res, nil
}

func (m *MockClient) CreateListing(ctx context.Context, l model.Listing) (model.ListingResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.track(ctx, OpCreateListing); err != nil {
		return model.ListingResult{}, err
	}
	m.Listings = append(m.Listings, l)
	m.nextID++
	return model.ListingResult{TradeID: m.nextID}, nil
}

func (m *MockClient) RelistAll(ctx context.Context) (model.RelistResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.track(ctx, OpRelistAll); err != nil {
		var re *RelistError
		if errors.As(err, &re) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return model.RelistResult{}, err
		}
		return model.RelistResult{}, &RelistError{Err: err}
	}

	var res model.RelistResult
	for i, a := range m.TradePile {
		if a.TradeState == model.TradeExpired {
			m.TradePile[i].TradeState = model.TradeActive
			res.TradeIDs = append(res.TradeIDs, a.TradeID)
		}
	}
	return res, nil
}

func (m *MockClient) DeleteSoldEntries(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.track(ctx, OpDeleteSoldEntries); err != nil {
		return err
	}
	m.TradePile = slices.DeleteFunc(m.TradePile, func(a model.Auction) bool {
		return a.TradeState == model.TradeClosed
	})
	return nil
}

func (m *MockClient) DeleteWatchEntries(ctx context.Context, tradeIDs []int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.track(ctx, OpDeleteWatchEntries); err != nil {
		return err
	}
	m.DeletedWatches = append(m.DeletedWatches, slices.Clone(tradeIDs))
	m.WatchList = slices.DeleteFunc(m.WatchList, func(a model.Auction) bool {
		return slices.Contains(tradeIDs, a.TradeID)
	})
	return nil
}

func (m *MockClient) PlaceBid(ctx context.Context, tradeID, price int64) (model.BidResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.track(ctx, OpPlaceBid); err != nil {
		return model.BidResult{}, err
	}
	if err, ok := m.BidErrors[tradeID]; ok {
		return model.BidResult{}, err
	}
	m.Bids = append(m.Bids, Bid{TradeID: tradeID, Price: price})
	m.Info.Credits -= price
	return model.BidResult{TradeID: tradeID, Credits: m.Info.Credits}, nil
}
