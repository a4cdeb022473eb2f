package trader

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"ContractTrader/internal/account"
	"ContractTrader/internal/client"
	"ContractTrader/internal/contract"
	"ContractTrader/internal/metrics"
	"ContractTrader/internal/model"
	"ContractTrader/internal/strategy"
)

const (
	player = contract.GoldPlayerResourceID
	coach  = contract.GoldCoachResourceID
	junk   = int64(1234)
)

func noSleep(context.Context, time.Duration) error { return nil }

func newTestSession(m *client.MockClient, sink *metrics.MemorySink, snap account.Snapshot) *session {
	st := account.New(m.Name())
	st.Refresh(snap)
	p := strategy.DefaultPolicy()
	return &session{
		client:   m,
		state:    st,
		policy:   p,
		listing:  p.Listing,
		emit:     metrics.NewEmitter(sink, metrics.Dimensions{metrics.DimAccount: m.Name()}),
		log:      logrus.WithField("account", m.Name()),
		result:   model.AccountResult{Account: m.Name(), Status: model.AccountDone},
		sleep:    noSleep,
		accounts: 1,
	}
}

func item(id, resourceID int64) model.Item {
	return model.Item{ID: id, ResourceID: resourceID, DiscardValue: 70, RareFlag: 1}
}

func auction(tradeID, itemID, resourceID int64, ts model.TradeState) model.Auction {
	return model.Auction{Item: item(itemID, resourceID), TradeID: tradeID, TradeState: ts}
}

// pile builds n auctions of one type and state with ids starting at base.
func pile(n int, base, resourceID int64, ts model.TradeState) []model.Auction {
	out := make([]model.Auction, n)
	for i := range out {
		id := base + int64(i)
		out[i] = auction(id, id, resourceID, ts)
	}
	return out
}

func offer(tradeID, resourceID, currentBid int64) model.Auction {
	a := auction(tradeID, tradeID+10000, resourceID, model.TradeActive)
	a.CurrentBid = currentBid
	return a
}
