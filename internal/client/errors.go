package client

import (
	"errors"
	"fmt"
)

// Bid rejection codes returned by the marketplace.
const (
	CodeNotEnoughBudget  = 470
	CodePermissionDenied = 461
)

// TransportError is a network or API failure on a single operation.
type TransportError struct {
	Op         string
	StatusCode int
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: status %d: %v", e.Op, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// BidError is a bid the marketplace refused.
type BidError struct {
	TradeID int64
	Code    int
}

func (e *BidError) Error() string {
	switch e.Code {
	case CodeNotEnoughBudget:
		return fmt.Sprintf("bid on trade %d: not enough budget", e.TradeID)
	case CodePermissionDenied:
		return fmt.Sprintf("bid on trade %d: permission denied", e.TradeID)
	default:
		return fmt.Sprintf("bid on trade %d: rejected with code %d", e.TradeID, e.Code)
	}
}

func (e *BidError) NotEnoughBudget() bool  { return e.Code == CodeNotEnoughBudget }
func (e *BidError) PermissionDenied() bool { return e.Code == CodePermissionDenied }

// RelistError is a relist the marketplace refused.
type RelistError struct {
	Err error
}

func (e *RelistError) Error() string { return fmt.Sprintf("relist: %v", e.Err) }

func (e *RelistError) Unwrap() error { return e.Err }

// IsRelistError reports whether err carries a *RelistError.
func IsRelistError(err error) bool {
	var re *RelistError
	return errors.As(err, &re)
}
