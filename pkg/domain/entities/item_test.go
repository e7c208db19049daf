package entities

import (
	"testing"
)

func TestNewInstanceKey(t *testing.T) {
	tests := []struct {
		name      string
		serial    string
		orderID   OrderID
		packageID string
		wantErr   bool
	}{
		{"valid_key", "SN001", "SO-1", "PKG-1", false},
		{"trims_serial", "  SN001 ", "SO-1", "PKG-1", false},
		{"empty_serial", "", "SO-1", "PKG-1", true},
		{"blank_serial", "   ", "SO-1", "PKG-1", true},
		{"empty_order", "SN001", "", "PKG-1", true},
		{"empty_package_allowed", "SN001", "SO-1", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			key, err := NewInstanceKey(tt.serial, tt.orderID, tt.packageID)
			if tt.wantErr {
				if err == nil {
					t.Errorf("expected error, got key %v", key)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if key.Serial != "SN001" {
				t.Errorf("expected trimmed serial SN001, got %q", key.Serial)
			}
		})
	}
}

func TestInstanceKey_TextRoundTrip(t *testing.T) {
	key := InstanceKey{Serial: "SN001", OrderID: "SO-1", PackageID: "PKG-1"}

	text, err := key.MarshalText()
	if err != nil {
		t.Fatalf("MarshalText failed: %v", err)
	}
	if string(text) != "SN001|SO-1|PKG-1" {
		t.Errorf("unexpected text form %q", string(text))
	}

	var parsed InstanceKey
	if err := parsed.UnmarshalText(text); err != nil {
		t.Fatalf("UnmarshalText failed: %v", err)
	}
	if parsed != key {
		t.Errorf("expected %v, got %v", key, parsed)
	}

	if err := parsed.UnmarshalText([]byte("only-one-part")); err == nil {
		t.Error("expected error for malformed key")
	}
}

func TestInstanceKey_IsZero(t *testing.T) {
	if !(InstanceKey{}).IsZero() {
		t.Error("expected empty key to be zero")
	}
	if (InstanceKey{Serial: "SN001"}).IsZero() {
		t.Error("expected populated key to be non-zero")
	}
	if (InstanceKey{}).String() != "" {
		t.Error("expected zero key to render empty")
	}
}
