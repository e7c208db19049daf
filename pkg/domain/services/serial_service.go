package services

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/vsinha/lineage/pkg/domain/entities"
)

// SerialComparator orders serial numbers naturally and provides the stable
// comparators every candidate selection sorts by
type SerialComparator struct {
	serialPattern *regexp.Regexp
}

// NewSerialComparator creates a new serial comparator with the default pattern
func NewSerialComparator() *SerialComparator {
	// Pattern matches serials like SN001, 2A1234 is left to plain string order
	pattern := regexp.MustCompile(`^([A-Za-z]*)(\d+)$`)
	return &SerialComparator{
		serialPattern: pattern,
	}
}

// CompareSerials compares two serial numbers with numeric sorting.
// Returns: -1 if serial1 < serial2, 0 if equal, 1 if serial1 > serial2.
// Serials that parse as prefix+number sort naturally and come before every
// other serial; the rest sort as plain strings. Zero is returned only for
// identical strings so the order is total.
func (sc *SerialComparator) CompareSerials(serial1, serial2 string) int {
	if serial1 == serial2 {
		return 0
	}

	prefix1, num1, err1 := sc.parseSerial(serial1)
	prefix2, num2, err2 := sc.parseSerial(serial2)

	switch {
	case err1 != nil && err2 != nil:
		return strings.Compare(serial1, serial2)
	case err1 != nil:
		return 1
	case err2 != nil:
		return -1
	}

	if prefix1 != prefix2 {
		return strings.Compare(prefix1, prefix2)
	}

	if num1 < num2 {
		return -1
	} else if num1 > num2 {
		return 1
	}
	// SN01 vs SN1
	return strings.Compare(serial1, serial2)
}

// parseSerial extracts the prefix and numeric portion from a serial number
func (sc *SerialComparator) parseSerial(serial string) (string, int, error) {
	matches := sc.serialPattern.FindStringSubmatch(serial)
	if len(matches) != 3 {
		return "", 0, fmt.Errorf("invalid serial format: %s", serial)
	}

	prefix := strings.ToUpper(matches[1])
	numStr := matches[2]

	num, err := strconv.Atoi(numStr)
	if err != nil {
		return "", 0, fmt.Errorf("invalid numeric portion in serial %s: %v", serial, err)
	}

	return prefix, num, nil
}

// CompareKeys orders instance keys by serial, then order, then package
func (sc *SerialComparator) CompareKeys(a, b entities.InstanceKey) int {
	if c := sc.CompareSerials(a.Serial, b.Serial); c != 0 {
		return c
	}
	if c := strings.Compare(string(a.OrderID), string(b.OrderID)); c != 0 {
		return c
	}
	return strings.Compare(a.PackageID, b.PackageID)
}

// CompareByShipDate orders instances FIFO: known ship dates first, earliest
// first, ties broken by key
func (sc *SerialComparator) CompareByShipDate(a, b *entities.ShipmentInstance) int {
	if a.HasShipDate() != b.HasShipDate() {
		if a.HasShipDate() {
			return -1
		}
		return 1
	}
	if !a.ShipDate.Equal(b.ShipDate) {
		if a.ShipDate.Before(b.ShipDate) {
			return -1
		}
		return 1
	}
	return sc.CompareKeys(a.Key, b.Key)
}

// CompareByReturnDate orders instances by return date, ties broken by key
func (sc *SerialComparator) CompareByReturnDate(a, b *entities.ShipmentInstance) int {
	if !a.ReturnDate.Equal(b.ReturnDate) {
		if a.ReturnDate.Before(b.ReturnDate) {
			return -1
		}
		return 1
	}
	return sc.CompareKeys(a.Key, b.Key)
}

// SortKeys sorts keys in place with CompareKeys
func (sc *SerialComparator) SortKeys(keys []entities.InstanceKey) {
	sort.SliceStable(keys, func(i, j int) bool {
		return sc.CompareKeys(keys[i], keys[j]) < 0
	})
}

// SortByShipDate sorts instances in place in FIFO order
func (sc *SerialComparator) SortByShipDate(instances []*entities.ShipmentInstance) {
	sort.SliceStable(instances, func(i, j int) bool {
		return sc.CompareByShipDate(instances[i], instances[j]) < 0
	})
}

// SortByReturnDate sorts instances in place by return date
func (sc *SerialComparator) SortByReturnDate(instances []*entities.ShipmentInstance) {
	sort.SliceStable(instances, func(i, j int) bool {
		return sc.CompareByReturnDate(instances[i], instances[j]) < 0
	})
}
