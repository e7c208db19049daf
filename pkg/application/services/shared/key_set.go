package shared

import (
	"fmt"
	"strings"

	"github.com/vsinha/lineage/pkg/domain/entities"
	"github.com/vsinha/lineage/pkg/domain/services"
)

// KeySet tracks instance keys already consumed by a matching pass
type KeySet map[entities.InstanceKey]struct{}

// NewKeySet creates a new empty key set
func NewKeySet() KeySet {
	return make(KeySet)
}

// Add inserts key and reports whether it was not present before
func (ks KeySet) Add(key entities.InstanceKey) bool {
	if _, exists := ks[key]; exists {
		return false
	}
	ks[key] = struct{}{}
	return true
}

// Has checks if key is in the set
func (ks KeySet) Has(key entities.InstanceKey) bool {
	_, exists := ks[key]
	return exists
}

// Sorted returns the keys in comparator order
func (ks KeySet) Sorted(sc *services.SerialComparator) []entities.InstanceKey {
	keys := make([]entities.InstanceKey, 0, len(ks))
	for key := range ks {
		keys = append(keys, key)
	}
	sc.SortKeys(keys)
	return keys
}

// String returns a string representation of the key set for debugging
func (ks KeySet) String() string {
	if len(ks) == 0 {
		return "KeySet{empty}"
	}
	keys := ks.Sorted(services.NewSerialComparator())
	parts := make([]string, len(keys))
	for i, key := range keys {
		parts[i] = key.String()
	}
	return fmt.Sprintf("KeySet{%d entries: %s}", len(ks), strings.Join(parts, ", "))
}
