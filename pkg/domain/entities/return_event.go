package entities

import (
	"fmt"
	"strings"
	"time"
)

// ReturnEvent is one serial received back on an RMA receipt. It is consumed to
// update a single ShipmentInstance and then discarded.
type ReturnEvent struct {
	Serial    string
	RMAID     string
	ReceiptID string
	Date      time.Time
	Seq       int // position in the input
}

// NewReturnEvent creates a validated ReturnEvent
func NewReturnEvent(serial, rmaID, receiptID string, date time.Time, seq int) (*ReturnEvent, error) {
	serial = strings.TrimSpace(serial)
	if serial == "" {
		return nil, fmt.Errorf("serial number cannot be empty")
	}
	if date.IsZero() {
		return nil, fmt.Errorf("return of %s on %s has no date", serial, rmaID)
	}
	return &ReturnEvent{
		Serial:    serial,
		RMAID:     rmaID,
		ReceiptID: receiptID,
		Date:      date,
		Seq:       seq,
	}, nil
}

// ID returns the identity of the event
func (r ReturnEvent) ID() string {
	return fmt.Sprintf("%s|%s|%s", r.Serial, r.RMAID, r.ReceiptID)
}
