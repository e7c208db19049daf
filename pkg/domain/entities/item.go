package entities

import (
	"fmt"
	"strings"
)

// SKU represents a stock keeping unit identifier
type SKU string

// OrderID identifies a sales order; a cohort shares the id of its agreement order
type OrderID string

// InstanceKey is the composite identity of one shipment of a physical serial.
// The same serial appears under several keys across its life.
type InstanceKey struct {
	Serial    string
	OrderID   OrderID
	PackageID string
}

// NewInstanceKey creates a validated InstanceKey
func NewInstanceKey(serial string, orderID OrderID, packageID string) (InstanceKey, error) {
	if strings.TrimSpace(serial) == "" {
		return InstanceKey{}, fmt.Errorf("serial number cannot be empty")
	}
	if string(orderID) == "" {
		return InstanceKey{}, fmt.Errorf("order id cannot be empty")
	}
	return InstanceKey{
		Serial:    strings.TrimSpace(serial),
		OrderID:   orderID,
		PackageID: packageID,
	}, nil
}

// IsZero reports whether the key is unset
func (k InstanceKey) IsZero() bool {
	return k == InstanceKey{}
}

// String renders the key as serial|order|package
func (k InstanceKey) String() string {
	if k.IsZero() {
		return ""
	}
	return fmt.Sprintf("%s|%s|%s", k.Serial, k.OrderID, k.PackageID)
}

// MarshalText lets keys be used as JSON map keys and values
func (k InstanceKey) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText parses the serial|order|package form
func (k *InstanceKey) UnmarshalText(text []byte) error {
	if len(text) == 0 {
		*k = InstanceKey{}
		return nil
	}
	parts := strings.SplitN(string(text), "|", 3)
	if len(parts) != 3 {
		return fmt.Errorf("invalid instance key %q: expected serial|order|package", string(text))
	}
	*k = InstanceKey{Serial: parts[0], OrderID: OrderID(parts[1]), PackageID: parts[2]}
	return nil
}
