package model

// AccountInfo is the authoritative per-cycle snapshot of an account.
type AccountInfo struct {
	Credits         int64 `json:"credits"`
	ListingCapacity int   `json:"listingCapacity"`
	ListedCount     int   `json:"listedCount"`

	// TransferListSize is the transfer list capacity reported with the pile sizes.
	TransferListSize int  `json:"transferListSize"`
	TradeEnabled     bool `json:"tradeEnabled"`
}

// SearchQuery holds market search parameters. Exactly one of MaxCurrentBid and
// MaxBuyNow is normally set.
type SearchQuery struct {
	Start         int    `json:"start"`
	Num           int    `json:"num"`
	Type          string `json:"type"`
	Category      string `json:"cat"`
	Level         string `json:"lev"`
	MaxCurrentBid int64  `json:"macr,omitempty"`
	MaxBuyNow     int64  `json:"maxb,omitempty"`
}

// ItemResult reports the outcome of a bulk operation for one item.
type ItemResult struct {
	ItemID  int64  `json:"id"`
	Success bool   `json:"success"`
	Reason  string `json:"reason,omitempty"`
}

// MoveResult is the per-item outcome of a bulk move.
type MoveResult struct {
	Items []ItemResult `json:"itemData"`
}

// Succeeded returns the number of items that were moved.
func (r MoveResult) Succeeded() int {
	n := 0
	for _, it := range r.Items {
		if it.Success {
			n++
		}
	}
	return n
}

// Listing describes a new market listing.
type Listing struct {
	ItemID      int64 `json:"itemId"`
	StartingBid int64 `json:"startingBid"`
	BuyNowPrice int64 `json:"buyNowPrice"`
	Duration    int   `json:"duration"`
}

type ListingResult struct {
	TradeID int64 `json:"id"`
}

type RelistResult struct {
	TradeIDs []int64 `json:"tradeIds"`
}

type BidResult struct {
	TradeID int64 `json:"tradeId"`
	Credits int64 `json:"credits"`
}
