package model

// TradeState is the lifecycle state of a market listing.
type TradeState string

const (
	TradeActive  TradeState = "active"
	TradeExpired TradeState = "expired"
	TradeClosed  TradeState = "closed"
)

// BidState is the account's standing on an auction it has bid on.
type BidState string

const (
	BidNone    BidState = ""
	BidHighest BidState = "highest"
	BidOutbid  BidState = "outbid"
)

// ItemData is implemented by anything that carries a marketable item.
type ItemData interface {
	Data() Item
}

// Item is a marketable item held by an account or offered on the market.
type Item struct {
	ID           int64 `json:"id"`
	ResourceID   int64 `json:"resourceId"`
	DiscardValue int   `json:"discardValue"`
	RareFlag     int   `json:"rareflag"`
}

func (i Item) Data() Item { return i }

// Auction is a market listing wrapping an item.
type Auction struct {
	Item        Item       `json:"itemData"`
	TradeID     int64      `json:"tradeId"`
	TradeState  TradeState `json:"tradeState"`
	BidState    BidState   `json:"bidState"`
	CurrentBid  int64      `json:"currentBid"`
	StartingBid int64      `json:"startingBid"`
	BuyNowPrice int64      `json:"buyNowPrice"`
	Expires     int        `json:"expires"`
}

func (a Auction) Data() Item { return a.Item }

// ItemCounts maps a resource id to the number of units held in storage.
type ItemCounts map[int64]int
