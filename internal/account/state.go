package account

import (
	"errors"
	"fmt"
	"sync"
)

// ErrInsufficientBudget is returned when a reservation exceeds the local credit estimate.
var ErrInsufficientBudget = errors.New("insufficient budget")

// Snapshot is the authoritative account read taken at the start of a cycle.
type Snapshot struct {
	Credits         int64
	ListingCapacity int
	ListedCount     int
}

// Counters tracks per-category contract counts seen during the cycle.
type Counters struct {
	ActivePlayers   int `json:"active_players"`
	ActiveCoaches   int `json:"active_coaches"`
	ExpiredPlayers  int `json:"expired_players"`
	ExpiredCoaches  int `json:"expired_coaches"`
	ClosedPlayers   int `json:"closed_players"`
	ClosedCoaches   int `json:"closed_coaches"`
	RelistedPlayers int `json:"relisted_players"`
	RelistedCoaches int `json:"relisted_coaches"`
	PlayersInClub   int `json:"players_in_club"`
	CoachesInClub   int `json:"coaches_in_club"`
}

// State is the per-account ledger for one cycle. Credits only move down
// between refreshes.
type State struct {
	mu       sync.Mutex
	name     string
	credits  int64
	capacity int
	listed   int
	counters Counters
}

// New creates an empty State for the named account.
func New(name string) *State {
	return &State{name: name}
}

func (s *State) Name() string { return s.name }

// Refresh replaces credits, capacity and listed count wholesale and clears
// the cycle counters.
func (s *State) Refresh(snap Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.credits = snap.Credits
	s.capacity = snap.ListingCapacity
	s.listed = max(snap.ListedCount, 0)
	s.counters = Counters{}
}

// ReserveCredits deducts amount from the local estimate.
func (s *State) ReserveCredits(amount int64) error {
	if amount < 0 {
		return fmt.Errorf("reserve %d credits: negative amount", amount)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if amount > s.credits {
		return fmt.Errorf("reserve %d credits, have %d: %w", amount, s.credits, ErrInsufficientBudget)
	}
	s.credits -= amount
	return nil
}

// AdjustListedCount moves the listed count by delta, never below zero.
func (s *State) AdjustListedCount(delta int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.listed = max(s.listed+delta, 0)
}

func (s *State) Credits() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.credits
}

// CanAfford reports whether price fits in the local estimate.
func (s *State) CanAfford(price int64) bool {
	return s.Credits() >= price
}

func (s *State) ListingCapacity() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.capacity
}

func (s *State) ListedCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.listed
}

// Headroom returns how many more listings fit before capacity is reached.
func (s *State) Headroom() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return max(s.capacity-s.listed, 0)
}

// Full reports whether the listing slots are exhausted.
func (s *State) Full() bool {
	return s.Headroom() == 0
}

// Counters returns a copy of the cycle counters.
func (s *State) Counters() Counters {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.counters
}

// SetTradePile records the trade pile breakdown for the cycle.
func (s *State) SetTradePile(active, expired, closed [2]int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.counters.ActivePlayers, s.counters.ActiveCoaches = active[0], active[1]
	s.counters.ExpiredPlayers, s.counters.ExpiredCoaches = expired[0], expired[1]
	s.counters.ClosedPlayers, s.counters.ClosedCoaches = closed[0], closed[1]
}

// MarkRelisted attributes the current expired counts to a successful relist.
// Expired counters are kept: the entries are active again on the remote side
// but were expired when the pile was read.
func (s *State) MarkRelisted() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.counters.RelistedPlayers = s.counters.ExpiredPlayers
	s.counters.RelistedCoaches = s.counters.ExpiredCoaches
}

// ClearExpired zeroes the expired counters after the entries went back to club.
func (s *State) ClearExpired() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.counters.ExpiredPlayers = 0
	s.counters.ExpiredCoaches = 0
}

// SetClub records the contracts currently held in club storage.
func (s *State) SetClub(players, coaches int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.counters.PlayersInClub = players
	s.counters.CoachesInClub = coaches
}

// ClubValue estimates the account's worth: credits plus every contract it
// holds or has listed, valued at contractPrice.
func (s *State) ClubValue(contractPrice int64) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	c := s.counters
	held := c.ActivePlayers + c.ActiveCoaches +
		c.ExpiredPlayers + c.ExpiredCoaches +
		c.PlayersInClub + c.CoachesInClub
	return s.credits + contractPrice*int64(held)
}
