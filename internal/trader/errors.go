package trader

import (
	"context"
	"errors"
	"fmt"

	"ContractTrader/internal/account"
	"ContractTrader/internal/client"
)

// Failure categories attached to logs, metrics and account results.
const (
	CategoryBudget     = "budget"
	CategoryPermission = "permission"
	CategoryBid        = "bid"
	CategoryRelist     = "relist"
	CategoryPartial    = "partial"
	CategoryTransport  = "transport"
	CategoryCanceled   = "canceled"
)

// PartialFailure is a bulk operation where fewer items succeeded than were
// requested. It is recorded, never returned from a step.
type PartialFailure struct {
	Op        string
	Requested int
	Succeeded int
}

func (e *PartialFailure) Error() string {
	return fmt.Sprintf("%s: %d of %d items succeeded", e.Op, e.Succeeded, e.Requested)
}

// Category maps an error to its failure category. Unknown errors are
// attributed to the transport since every remote call goes through it.
func Category(err error) string {
	if err == nil {
		return ""
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return CategoryCanceled
	}
	if errors.Is(err, account.ErrInsufficientBudget) {
		return CategoryBudget
	}

	var bidErr *client.BidError
	if errors.As(err, &bidErr) {
		switch {
		case bidErr.NotEnoughBudget():
			return CategoryBudget
		case bidErr.PermissionDenied():
			return CategoryPermission
		default:
			return CategoryBid
		}
	}
	var relistErr *client.RelistError
	if errors.As(err, &relistErr) {
		return CategoryRelist
	}
	var partial *PartialFailure
	if errors.As(err, &partial) {
		return CategoryPartial
	}
	return CategoryTransport
}
