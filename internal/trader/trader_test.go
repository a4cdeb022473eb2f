package trader

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ContractTrader/internal/client"
	"ContractTrader/internal/metrics"
	"ContractTrader/internal/model"
	"ContractTrader/internal/strategy"
)

func healthyMock(name string, credits int64) *client.MockClient {
	m := client.NewMockClient(name)
	m.Info = model.AccountInfo{Credits: credits, ListingCapacity: 30, ListedCount: 0, TradeEnabled: true}
	return m
}

func newTestTrader(accounts []Account, sink metrics.Sink, workers int) *Trader {
	tr := New(accounts, strategy.DefaultPolicy(), sink, workers)
	tr.sleep = noSleep
	return tr
}

func TestRunCycle_FullAccountFlow(t *testing.T) {
	m := healthyMock("alice", 300)
	m.Inventory = []model.Item{item(1, player)}
	m.TradePile = pile(2, 100, coach, model.TradeClosed)
	m.Storage[coach] = 2
	m.Pages[0] = market()
	sink := metrics.NewMemorySink(0)

	rep := newTestTrader([]Account{{Name: "alice", Client: m}}, sink, 1).RunCycle(context.Background())

	require.Len(t, rep.Accounts, 1)
	res := rep.Accounts[0]
	assert.Equal(t, model.AccountDone, res.Status, res.Error)
	assert.NotEmpty(t, rep.ID)
	assert.Equal(t, 1, res.Purchased)
	assert.Equal(t, 2, res.Sold)
	assert.Equal(t, 1, res.Listed)
	assert.Equal(t, 2, res.BidsPlaced)
	assert.EqualValues(t, 0, res.Credits)
	assert.Equal(t, 1, res.ListedCount)
	assert.Equal(t, 30, res.ListingCapacity)
	// 300 credits plus two coaches in club at 200 each.
	assert.EqualValues(t, 700, res.ClubValue)

	assert.Equal(t, 1.0, sink.Sum(metrics.TradeRequest, nil))
	assert.Equal(t, 1.0, sink.Sum(metrics.HealthyAccount, metrics.Dimensions{metrics.DimAccount: "alice"}))
	assert.Len(t, sink.Find(metrics.ClubValue, nil), 1)
}

func TestRunCycle_FailureIsolation(t *testing.T) {
	bad := healthyMock("bad", 300)
	bad.Errors[client.OpFetchTradePile] = &client.TransportError{Op: client.OpFetchTradePile, StatusCode: 502, Err: errors.New("bad gateway")}
	good := healthyMock("good", 300)
	good.Pages[50] = market()
	sink := metrics.NewMemorySink(0)

	rep := newTestTrader([]Account{{Name: "bad", Client: bad}, {Name: "good", Client: good}}, sink, 1).
		RunCycle(context.Background())

	require.Len(t, rep.Accounts, 2)
	assert.Equal(t, model.AccountFailed, rep.Accounts[0].Status)
	assert.Equal(t, StepTradePile, rep.Accounts[0].Step)
	assert.Equal(t, CategoryTransport, rep.Accounts[0].Category)
	assert.Zero(t, bad.CallCount(client.OpSearchMarket))

	assert.Equal(t, model.AccountDone, rep.Accounts[1].Status)
	assert.Len(t, good.Bids, 2)

	failures := sink.Find(metrics.CycleFailure, metrics.Dimensions{metrics.DimAccount: "bad"})
	require.Len(t, failures, 1)
	assert.Equal(t, StepTradePile, failures[0].Dimensions[metrics.DimStep])
}

func TestRunCycle_HealthGate(t *testing.T) {
	down := client.NewMockClient("down")
	down.Errors[client.OpFetchAccountInfo] = errors.New("session expired")
	disabled := client.NewMockClient("disabled")
	disabled.Info.TradeEnabled = false
	sink := metrics.NewMemorySink(0)

	rep := newTestTrader([]Account{{Name: "down", Client: down}, {Name: "disabled", Client: disabled}}, sink, 1).
		RunCycle(context.Background())

	for _, res := range rep.Accounts {
		assert.Equal(t, model.AccountSkipped, res.Status, res.Account)
		assert.Equal(t, StepStart, res.Step)
	}
	assert.Zero(t, down.CallCount(client.OpFetchInventory))
	assert.Zero(t, disabled.CallCount(client.OpFetchInventory))
	assert.Equal(t, 0.0, sink.Sum(metrics.HealthyAccount, nil))
	assert.Len(t, sink.Find(metrics.HealthyAccount, nil), 2)
	assert.Empty(t, sink.Find(metrics.CycleFailure, nil))
}

func TestRunCycle_AccountGauges(t *testing.T) {
	up := healthyMock("up", 0)
	up.Info.TransferListSize = 50
	up.TradePile = pile(3, 100, player, model.TradeClosed)
	down := client.NewMockClient("down")
	down.Errors[client.OpFetchAccountInfo] = errors.New("session expired")
	sink := metrics.NewMemorySink(0)

	newTestTrader([]Account{{Name: "up", Client: up}, {Name: "down", Client: down}}, sink, 1).
		RunCycle(context.Background())

	healthy := sink.Find(metrics.HealthyAccount, nil)
	require.Len(t, healthy, 2)
	for _, e := range healthy {
		assert.Equal(t, 2.0, e.Value.Denominator, e.Dimensions[metrics.DimAccount])
	}
	assert.Equal(t, 1.0, sink.Sum(metrics.HealthyAccount, nil))

	size := sink.Find(metrics.TransferListSize, metrics.Dimensions{metrics.DimAccount: "up"})
	require.Len(t, size, 1)
	assert.Equal(t, 50.0, size[0].Value.Ratio())

	sold := sink.Find(metrics.SoldContractsAverage, metrics.Dimensions{metrics.DimContractType: metrics.ContractGoldPlayer})
	require.Len(t, sold, 1)
	assert.Equal(t, 3.0, sold[0].Value.Ratio())
}

func TestRunCycle_CanceledBeforeStart(t *testing.T) {
	m := healthyMock("a", 300)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	rep := newTestTrader([]Account{{Name: "a", Client: m}, {Name: "b", Client: healthyMock("b", 0)}}, metrics.NewMemorySink(0), 1).
		RunCycle(ctx)

	require.Equal(t, 2, rep.Count(model.AccountCanceled))
	assert.Zero(t, m.CallCount(client.OpFetchAccountInfo))
}

func TestRunCycle_NoNewStepAfterCancel(t *testing.T) {
	m := healthyMock("a", 300)
	m.Pages[0] = market()
	ctx, cancel := context.WithCancel(context.Background())
	tr := newTestTrader([]Account{{Name: "a", Client: &cancelAfter{MockClient: m, op: client.OpFetchWatchList, cancel: cancel}}}, metrics.NewMemorySink(0), 1)

	rep := tr.RunCycle(ctx)

	res := rep.Accounts[0]
	assert.Equal(t, model.AccountCanceled, res.Status)
	assert.Equal(t, StepTradePile, res.Step)
	assert.Equal(t, CategoryCanceled, res.Category)
	assert.Zero(t, m.CallCount(client.OpFetchTradePile))
	assert.Zero(t, m.CallCount(client.OpSearchMarket))
}

// cancelAfter cancels the cycle once op has completed.
type cancelAfter struct {
	*client.MockClient
	op     string
	cancel context.CancelFunc
}

func (c *cancelAfter) FetchWatchList(ctx context.Context) ([]model.Auction, error) {
	out, err := c.MockClient.FetchWatchList(ctx)
	if c.op == client.OpFetchWatchList {
		c.cancel()
	}
	return out, err
}

func TestRunCycle_WorkerPoolKeepsAccountsIndependent(t *testing.T) {
	var accounts []Account
	var mocks []*client.MockClient
	for _, name := range []string{"a", "b", "c", "d"} {
		m := healthyMock(name, 300)
		for p := 0; p < 4; p++ {
			m.Pages[p*50] = market()
		}
		mocks = append(mocks, m)
		accounts = append(accounts, Account{Name: name, Client: m})
	}
	sink := metrics.NewMemorySink(0)

	rep := newTestTrader(accounts, sink, 3).RunCycle(context.Background())

	assert.Equal(t, 4, rep.Count(model.AccountDone))
	for i, m := range mocks {
		assert.Len(t, m.Bids, 2, m.Name())
		assert.EqualValues(t, 0, rep.Accounts[i].Credits)
		require.Len(t, m.Queries, 1)
		assert.Equal(t, i*50, m.Queries[0].Start, "pages are staggered by account index")
	}
	assert.Equal(t, 8.0, sink.Sum(metrics.Bid, metrics.Dimensions{metrics.DimBidStatus: bidSuccess}))
}

func TestRunCycle_ListingOverride(t *testing.T) {
	m := healthyMock("a", 0)
	m.Storage[player] = 1
	override := strategy.ListingPolicy{Count: 1, StartingBid: 200, BuyNowPrice: 250, Duration: 3600}

	newTestTrader([]Account{{Name: "a", Client: m, Listing: &override}}, metrics.NewMemorySink(0), 1).
		RunCycle(context.Background())

	require.Len(t, m.Listings, 1)
	assert.EqualValues(t, 200, m.Listings[0].StartingBid)
	assert.EqualValues(t, 250, m.Listings[0].BuyNowPrice)
}

func TestCategory(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{nil, ""},
		{context.Canceled, CategoryCanceled},
		{context.DeadlineExceeded, CategoryCanceled},
		{&client.BidError{Code: client.CodeNotEnoughBudget}, CategoryBudget},
		{&client.BidError{Code: client.CodePermissionDenied}, CategoryPermission},
		{&client.BidError{Code: 478}, CategoryBid},
		{&client.RelistError{Err: &client.TransportError{Op: "relist", Err: errors.New("x")}}, CategoryRelist},
		{&PartialFailure{Op: "move", Requested: 2, Succeeded: 1}, CategoryPartial},
		{&client.TransportError{Op: "fetch", Err: errors.New("x")}, CategoryTransport},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Category(tt.err), "%v", tt.err)
	}
}

func TestRunCycle_ConcurrentSinkWrites(t *testing.T) {
	var mu sync.Mutex
	seen := map[string]int{}
	sink := sinkFunc(func(e metrics.Emission) error {
		mu.Lock()
		defer mu.Unlock()
		seen[e.Dimensions[metrics.DimAccount]]++
		return nil
	})
	var accounts []Account
	for _, name := range []string{"a", "b", "c"} {
		accounts = append(accounts, Account{Name: name, Client: healthyMock(name, 0)})
	}

	newTestTrader(accounts, sink, 3).RunCycle(context.Background())

	for _, name := range []string{"a", "b", "c"} {
		assert.Positive(t, seen[name], name)
	}
}

type sinkFunc func(metrics.Emission) error

func (f sinkFunc) Emit(e metrics.Emission) error { return f(e) }
