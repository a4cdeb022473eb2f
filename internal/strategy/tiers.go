package strategy

import (
	"sort"

	"ContractTrader/internal/model"
)

// Tier is a budget-keyed bidding policy. Auctions whose current bid is at or
// below BidCeiling are bid on at Price.
type Tier struct {
	Name          string `yaml:"name" toml:"name"`
	MinCredits    int64  `yaml:"min_credits" toml:"min_credits"`
	Price         int64  `yaml:"price" toml:"price"`
	BidCeiling    int64  `yaml:"bid_ceiling" toml:"bid_ceiling"`
	MaxCurrentBid int64  `yaml:"max_current_bid" toml:"max_current_bid"`
	MaxBuyNow     int64  `yaml:"max_buy_now" toml:"max_buy_now"`
}

// DefaultTiers bid 150 on cheap listings and move up to buy-now hunting once
// the account is rich enough.
var DefaultTiers = []Tier{
	{Name: "BN200", MinCredits: 5000, Price: 200, BidCeiling: 150, MaxBuyNow: 200},
	{Name: "B150", MinCredits: 0, Price: 150, BidCeiling: 100, MaxCurrentBid: 150},
}

// SelectTier returns the richest tier the account qualifies for.
func SelectTier(tiers []Tier, credits int64) (Tier, bool) {
	sorted := make([]Tier, len(tiers))
	copy(sorted, tiers)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].MinCredits > sorted[j].MinCredits
	})
	for _, t := range sorted {
		if credits >= t.MinCredits {
			return t, true
		}
	}
	return Tier{}, false
}

// Eligible reports whether an auction's current bid is within the tier's ceiling.
func (t Tier) Eligible(a model.Auction) bool {
	return a.CurrentBid <= t.BidCeiling
}

// Query builds the market search for one page of this tier.
func (t Tier) Query(page, pageSize int) model.SearchQuery {
	q := model.SearchQuery{
		Start:    page * pageSize,
		Num:      pageSize,
		Type:     "development",
		Category: "contract",
		Level:    "gold",
	}
	if t.MaxBuyNow > 0 {
		q.MaxBuyNow = t.MaxBuyNow
	} else {
		q.MaxCurrentBid = t.MaxCurrentBid
	}
	return q
}
