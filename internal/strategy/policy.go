package strategy

import (
	"fmt"
	"time"

	"ContractTrader/internal/contract"
	"ContractTrader/internal/model"
)

// RelistAction is what the trade-pile reconciler does with expired entries.
type RelistAction int

const (
	RelistNone RelistAction = iota
	RelistAll
	ReclaimExpired
)

func (a RelistAction) String() string {
	switch a {
	case RelistAll:
		return "relist"
	case ReclaimExpired:
		return "reclaim"
	default:
		return "none"
	}
}

// RelistPolicy is the band of expired counts for which a bulk relist is used.
// Below the band entries wait; above it they are reclaimed.
type RelistPolicy struct {
	MinExpired int `yaml:"min_expired" toml:"min_expired"`
	MaxExpired int `yaml:"max_expired" toml:"max_expired"`
}

func (p RelistPolicy) Decide(expired int) RelistAction {
	switch {
	case expired > p.MaxExpired:
		return ReclaimExpired
	case expired >= p.MinExpired:
		return RelistAll
	default:
		return RelistNone
	}
}

// QualityGate filters market offers worth bidding on.
type QualityGate struct {
	RequireRare     bool `yaml:"require_rare" toml:"require_rare"`
	MinDiscardValue int  `yaml:"min_discard_value" toml:"min_discard_value"`
}

func (g QualityGate) Passes(x model.ItemData) bool {
	item := x.Data()
	if g.RequireRare && item.RareFlag != 1 {
		return false
	}
	return item.DiscardValue >= g.MinDiscardValue
}

// ListingPolicy sets how many contracts are listed per cycle and at what price.
type ListingPolicy struct {
	Count       int   `yaml:"count" toml:"count"`
	StartingBid int64 `yaml:"starting_bid" toml:"starting_bid"`
	BuyNowPrice int64 `yaml:"buy_now_price" toml:"buy_now_price"`
	Duration    int   `yaml:"duration_seconds" toml:"duration_seconds"`
}

// ChooseContract picks the contract type to list this cycle. Coaches win when
// both are held.
func ChooseContract(held contract.Counts) (contract.Type, int) {
	switch {
	case held.Coaches > 0:
		return contract.GoldCoach, held.Coaches
	case held.Players > 0:
		return contract.GoldPlayer, held.Players
	default:
		return contract.Unknown, 0
	}
}

// Policy bundles every threshold the trade cycle consults.
type Policy struct {
	Relist          RelistPolicy
	OrphanThreshold int
	Quality         QualityGate
	Tiers           []Tier
	Listing         ListingPolicy
	Pages           int
	PageSize        int
	StaggerPages    bool
	BidCooldown     time.Duration
	ContractPrice   int64
}

// DefaultPolicy returns the thresholds the engine runs with when nothing is configured.
func DefaultPolicy() Policy {
	return Policy{
		Relist:          RelistPolicy{MinExpired: 10, MaxExpired: 20},
		OrphanThreshold: 3,
		Quality:         QualityGate{RequireRare: true, MinDiscardValue: 63},
		Tiers:           DefaultTiers,
		Listing:         ListingPolicy{Count: 1, StartingBid: 250, BuyNowPrice: 300, Duration: 3600},
		Pages:           1,
		PageSize:        50,
		StaggerPages:    true,
		BidCooldown:     time.Second,
		ContractPrice:   200,
	}
}

// PageIndex returns the search page for the n-th bid step of the account at
// position idx. Staggering spreads accounts over disjoint pages.
func (p Policy) PageIndex(idx, n int) int {
	if !p.StaggerPages {
		return n
	}
	return idx*p.Pages + n
}

// Validate checks that the thresholds are coherent.
func (p Policy) Validate() error {
	if p.Relist.MinExpired < 1 || p.Relist.MaxExpired < p.Relist.MinExpired {
		return fmt.Errorf("relist band [%d, %d] is invalid", p.Relist.MinExpired, p.Relist.MaxExpired)
	}
	if p.OrphanThreshold < 0 {
		return fmt.Errorf("orphan threshold must not be negative")
	}
	if p.PageSize <= 0 {
		return fmt.Errorf("page size must be positive")
	}
	if p.Pages < 0 {
		return fmt.Errorf("pages must not be negative")
	}
	if p.Listing.Count < 0 {
		return fmt.Errorf("listing count must not be negative")
	}
	if p.Listing.StartingBid <= 0 || p.Listing.BuyNowPrice < p.Listing.StartingBid {
		return fmt.Errorf("listing prices %d/%d are invalid", p.Listing.StartingBid, p.Listing.BuyNowPrice)
	}
	for _, t := range p.Tiers {
		if t.Price <= 0 {
			return fmt.Errorf("tier %q: price must be positive", t.Name)
		}
		if t.MaxBuyNow <= 0 && t.MaxCurrentBid <= 0 {
			return fmt.Errorf("tier %q: one of max_current_bid or max_buy_now is required", t.Name)
		}
	}
	return nil
}
