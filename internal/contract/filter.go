package contract

import "ContractTrader/internal/model"

// Filter returns the elements of xs matching pred, preserving order.
func Filter[T any](xs []T, pred func(T) bool) []T {
	out := make([]T, 0, len(xs))
	for _, x := range xs {
		if pred(x) {
			out = append(out, x)
		}
	}
	return out
}

func Tradable[T model.ItemData](xs []T) []T {
	return Filter(xs, func(x T) bool { return IsTradable(x) })
}

func OfType[T model.ItemData](xs []T, t Type) []T {
	return Filter(xs, func(x T) bool { return Classify(x) == t })
}

func InTradeState(xs []model.Auction, s model.TradeState) []model.Auction {
	return Filter(xs, func(a model.Auction) bool { return a.TradeState == s })
}

// Won returns auctions that closed with the account as highest bidder.
func Won(xs []model.Auction) []model.Auction {
	return Filter(xs, func(a model.Auction) bool {
		return a.TradeState == model.TradeClosed && a.BidState == model.BidHighest
	})
}

// Outbid returns auctions the account was outbid on, in any trade state.
func Outbid(xs []model.Auction) []model.Auction {
	return Filter(xs, func(a model.Auction) bool { return a.BidState == model.BidOutbid })
}

// Orphans returns entries that were never successfully listed.
func Orphans(xs []model.Auction) []model.Auction {
	return Filter(xs, func(a model.Auction) bool { return a.TradeID == 0 })
}

// Partition splits auctions by trade state. Entries in any other state land
// in Other, so the four slices together always cover the input.
type Partition struct {
	Active  []model.Auction
	Expired []model.Auction
	Closed  []model.Auction
	Other   []model.Auction
}

func PartitionByState(xs []model.Auction) Partition {
	var p Partition
	for _, a := range xs {
		switch a.TradeState {
		case model.TradeActive:
			p.Active = append(p.Active, a)
		case model.TradeExpired:
			p.Expired = append(p.Expired, a)
		case model.TradeClosed:
			p.Closed = append(p.Closed, a)
		default:
			p.Other = append(p.Other, a)
		}
	}
	return p
}

func (p Partition) Len() int {
	return len(p.Active) + len(p.Expired) + len(p.Closed) + len(p.Other)
}

// Counts holds a per-contract-type tally.
type Counts struct {
	Players int
	Coaches int
}

func (c Counts) Total() int { return c.Players + c.Coaches }

// Get returns the tally for one type.
func (c Counts) Get(t Type) int {
	switch t {
	case GoldPlayer:
		return c.Players
	case GoldCoach:
		return c.Coaches
	}
	return 0
}

func CountByType[T model.ItemData](xs []T) Counts {
	var c Counts
	for _, x := range xs {
		switch Classify(x) {
		case GoldPlayer:
			c.Players++
		case GoldCoach:
			c.Coaches++
		}
	}
	return c
}

// CountHeld sums storage counts per contract type.
func CountHeld(held model.ItemCounts) Counts {
	var c Counts
	for resourceID, n := range held {
		switch ClassifyResource(resourceID) {
		case GoldPlayer:
			c.Players += n
		case GoldCoach:
			c.Coaches += n
		}
	}
	return c
}

func ItemIDs[T model.ItemData](xs []T) []int64 {
	ids := make([]int64, 0, len(xs))
	for _, x := range xs {
		ids = append(ids, x.Data().ID)
	}
	return ids
}

func TradeIDs(xs []model.Auction) []int64 {
	ids := make([]int64, 0, len(xs))
	for _, a := range xs {
		ids = append(ids, a.TradeID)
	}
	return ids
}
