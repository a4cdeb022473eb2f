// Package contract classifies marketable items into contract types and
// provides the stable filters the trade cycle partitions its inputs with.
package contract

import (
	"fmt"
	"slices"
	"sync"

	"ContractTrader/internal/model"
)

// Type is the contract category derived from an item's resource id.
type Type string

const (
	GoldPlayer Type = "Gold Player"
	GoldCoach  Type = "Gold Coach"
	Unknown    Type = "Unknown"
)

const (
	GoldPlayerResourceID int64 = 5001006
	GoldCoachResourceID  int64 = 5001013
)

var (
	mu          sync.RWMutex
	resourceIDs = map[Type][]int64{
		GoldPlayer: {GoldPlayerResourceID},
		GoldCoach:  {GoldCoachResourceID},
	}
)

// Types lists the tradable contract types in reporting order.
var Types = []Type{GoldPlayer, GoldCoach}

// Classify maps an item to its contract type. Anything outside the known
// resource ids is Unknown.
func Classify(x model.ItemData) Type {
	return ClassifyResource(x.Data().ResourceID)
}

// ClassifyResource maps a resource id to its contract type.
func ClassifyResource(resourceID int64) Type {
	mu.RLock()
	defer mu.RUnlock()
	for _, t := range Types {
		if slices.Contains(resourceIDs[t], resourceID) {
			return t
		}
	}
	return Unknown
}

// RegisterResourceIDs adds resource ids that classify as t, such as a second
// player contract variant. An id already bound to the other type is an error.
func RegisterResourceIDs(t Type, ids ...int64) error {
	if t != GoldPlayer && t != GoldCoach {
		return fmt.Errorf("cannot register resource ids for %q", t)
	}
	mu.Lock()
	defer mu.Unlock()
	for _, id := range ids {
		for other, known := range resourceIDs {
			if other != t && slices.Contains(known, id) {
				return fmt.Errorf("resource id %d is already a %s contract", id, other)
			}
		}
	}
	for _, id := range ids {
		if !slices.Contains(resourceIDs[t], id) {
			resourceIDs[t] = append(resourceIDs[t], id)
		}
	}
	return nil
}

// IsTradable reports whether the item is a contract the engine trades.
func IsTradable(x model.ItemData) bool {
	return Classify(x) != Unknown
}

// ResourceIDs returns the resource ids belonging to a contract type, the
// primary id first.
func ResourceIDs(t Type) []int64 {
	mu.RLock()
	defer mu.RUnlock()
	return slices.Clone(resourceIDs[t])
}

// NextHeld returns the first resource id of type t with stock left in held.
func NextHeld(held model.ItemCounts, t Type) (int64, bool) {
	for _, id := range ResourceIDs(t) {
		if held[id] > 0 {
			return id, true
		}
	}
	return 0, false
}
