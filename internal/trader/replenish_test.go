package trader

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ContractTrader/internal/account"
	"ContractTrader/internal/client"
	"ContractTrader/internal/contract"
	"ContractTrader/internal/metrics"
	"ContractTrader/internal/strategy"
)

func TestReplenish_CapacityBackpressure(t *testing.T) {
	m := client.NewMockClient("a")
	m.Storage[player] = 10
	m.Storage[coach] = 5
	sink := metrics.NewMemorySink(0)
	s := newTestSession(m, sink, account.Snapshot{ListingCapacity: 10, ListedCount: 8})
	s.listing = strategy.ListingPolicy{Count: 5, StartingBid: 250, BuyNowPrice: 300, Duration: 3600}

	require.NoError(t, s.replenish(context.Background()))

	require.Len(t, m.Listings, 2)
	assert.Equal(t, 10, s.state.ListedCount())
	assert.Equal(t, 2, s.result.Listed)
	assert.Equal(t, 3, m.Storage[coach], "coaches are listed first")
	assert.Equal(t, 10, m.Storage[player])
	assert.EqualValues(t, 3600, m.Listings[0].Duration)
	assert.EqualValues(t, 250, m.Listings[0].StartingBid)
	assert.Len(t, sink.Find(metrics.ListContracts, metrics.Dimensions{metrics.DimListingStatus: listingNoRoom}), 1)

	c := s.state.Counters()
	assert.Equal(t, 10, c.PlayersInClub)
	assert.Equal(t, 5, c.CoachesInClub)
}

func TestReplenish_LimitedByHeldAndCount(t *testing.T) {
	m := client.NewMockClient("a")
	m.Storage[player] = 2
	s := newTestSession(m, metrics.NewMemorySink(0), account.Snapshot{ListingCapacity: 30})
	s.listing.Count = 5

	require.NoError(t, s.replenish(context.Background()))
	assert.Len(t, m.Listings, 2)
	assert.Equal(t, 2, m.CallCount(client.OpMoveToTransferList))
}

func TestReplenish_NothingHeld(t *testing.T) {
	m := client.NewMockClient("a")
	s := newTestSession(m, metrics.NewMemorySink(0), account.Snapshot{ListingCapacity: 30})

	require.NoError(t, s.replenish(context.Background()))
	assert.Zero(t, m.CallCount(client.OpMoveToTransferList))
}

func TestReplenish_MoveFailureSkipsUnit(t *testing.T) {
	m := client.NewMockClient("a")
	m.Storage[coach] = 3
	m.FailMove[coach] = true
	sink := metrics.NewMemorySink(0)
	s := newTestSession(m, sink, account.Snapshot{ListingCapacity: 30})
	s.listing.Count = 3

	require.NoError(t, s.replenish(context.Background()))
	assert.Equal(t, 3, m.CallCount(client.OpMoveToTransferList))
	assert.Empty(t, m.Listings)
	assert.Len(t, sink.Find(metrics.ListContracts, metrics.Dimensions{metrics.DimListingStatus: listingMoveFailed}), 3)
}

func TestReplenish_ListingErrorAborts(t *testing.T) {
	m := client.NewMockClient("a")
	m.Storage[coach] = 3
	m.ErrorOnNext[client.OpCreateListing] = &client.TransportError{Op: client.OpCreateListing, StatusCode: 500, Err: errors.New("boom")}
	sink := metrics.NewMemorySink(0)
	s := newTestSession(m, sink, account.Snapshot{ListingCapacity: 30, ListedCount: 1})
	s.listing.Count = 3

	err := s.replenish(context.Background())
	require.Error(t, err)
	assert.Equal(t, 1, m.CallCount(client.OpCreateListing))
	assert.Equal(t, 1, s.state.ListedCount())
	assert.Len(t, sink.Find(metrics.ListContracts, metrics.Dimensions{metrics.DimListingStatus: listingFailed}), 1)
}

func TestReplenish_ListsRegisteredVariant(t *testing.T) {
	const variant int64 = 5001099
	require.NoError(t, contract.RegisterResourceIDs(contract.GoldPlayer, variant))
	m := client.NewMockClient("a")
	m.Storage[player] = 1
	m.Storage[variant] = 2
	s := newTestSession(m, metrics.NewMemorySink(0), account.Snapshot{ListingCapacity: 30})
	s.listing.Count = 5

	require.NoError(t, s.replenish(context.Background()))

	assert.Len(t, m.Listings, 3)
	assert.Zero(t, m.Storage[player])
	assert.Zero(t, m.Storage[variant])
	assert.Equal(t, 3, s.state.Counters().PlayersInClub)
}
