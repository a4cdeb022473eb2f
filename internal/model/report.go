package model

import "time"

// AccountStatus is the terminal state of an account within one cycle.
type AccountStatus string

const (
	AccountDone     AccountStatus = "done"
	AccountFailed   AccountStatus = "failed"
	AccountSkipped  AccountStatus = "skipped"
	AccountCanceled AccountStatus = "canceled"
)

// AccountResult summarizes what the engine did for one account in one cycle.
type AccountResult struct {
	Account  string        `json:"account"`
	Status   AccountStatus `json:"status"`
	Step     string        `json:"step,omitempty"`
	Category string        `json:"category,omitempty"`
	Error    string        `json:"error,omitempty"`

	Credits         int64 `json:"credits"`
	ListedCount     int   `json:"listed_count"`
	ListingCapacity int   `json:"listing_capacity"`
	ClubValue       int64 `json:"club_value"`

	Purchased   int `json:"purchased"`
	Outbid      int `json:"outbid"`
	Sold        int `json:"sold"`
	Relisted    int `json:"relisted"`
	Reclaimed   int `json:"reclaimed"`
	Listed      int `json:"listed"`
	BidsPlaced  int `json:"bids_placed"`
	BidsSkipped int `json:"bids_skipped"`
}

// CycleReport is the outcome of one trade cycle across all accounts.
type CycleReport struct {
	ID         string          `json:"id"`
	StartedAt  time.Time       `json:"started_at"`
	FinishedAt time.Time       `json:"finished_at"`
	Accounts   []AccountResult `json:"accounts"`
}

// Count returns how many accounts ended in the given status.
func (r *CycleReport) Count(status AccountStatus) int {
	n := 0
	for _, a := range r.Accounts {
		if a.Status == status {
			n++
		}
	}
	return n
}

func (r *CycleReport) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}
