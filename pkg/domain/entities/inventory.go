package entities

import (
	"errors"
	"fmt"
	"time"
)

// InstanceStatus represents the lifecycle state of a shipped instance
type InstanceStatus int

const (
	InField InstanceStatus = iota
	ReturnedReplaced
	ReturnedNoReplacementFound
	ReturnedNoReplacementAvailable
	ReturnedOutsidePeriod
	StatusUnknown
)

// String method for InstanceStatus enum
func (s InstanceStatus) String() string {
	switch s {
	case InField:
		return "InField"
	case ReturnedReplaced:
		return "ReturnedReplaced"
	case ReturnedNoReplacementFound:
		return "ReturnedNoReplacementFound"
	case ReturnedNoReplacementAvailable:
		return "ReturnedNoReplacementAvailable"
	case ReturnedOutsidePeriod:
		return "ReturnedOutsidePeriod"
	default:
		return "Unknown"
	}
}

// Description returns the label used in reports
func (s InstanceStatus) Description() string {
	switch s {
	case InField:
		return "In Field"
	case ReturnedReplaced:
		return "Returned & Replaced"
	case ReturnedNoReplacementFound:
		return "Returned (No Replacement Shipment Found)"
	case ReturnedNoReplacementAvailable:
		return "Returned (No Replacements Left in Cohort)"
	case ReturnedOutsidePeriod:
		return "Returned (Outside Agreement Period)"
	default:
		return "Unknown"
	}
}

// IsReturned reports whether the status is one of the terminal Returned states
func (s InstanceStatus) IsReturned() bool {
	switch s {
	case ReturnedReplaced, ReturnedNoReplacementFound, ReturnedNoReplacementAvailable, ReturnedOutsidePeriod:
		return true
	}
	return false
}

// MarshalText encodes the status by name
func (s InstanceStatus) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText decodes a status name
func (s *InstanceStatus) UnmarshalText(text []byte) error {
	for candidate := InField; candidate <= StatusUnknown; candidate++ {
		if candidate.String() == string(text) {
			*s = candidate
			return nil
		}
	}
	return fmt.Errorf("unknown instance status %q", string(text))
}

var (
	ErrShipDateImmutable = errors.New("ship date is immutable once set")
	ErrAlreadyReturned   = errors.New("return date already recorded")
	ErrCohortConflict    = errors.New("instance already belongs to a different cohort")
	ErrAlreadyLinked     = errors.New("instance already linked")
	ErrInvalidTransition = errors.New("invalid status transition")
)

// ShipmentInstance is one shipment of a serialized unit
type ShipmentInstance struct {
	Key              InstanceKey
	SKU              SKU
	ShipDate         time.Time // zero when the source had no usable date
	CohortID         OrderID   // live membership, set at most once
	OriginalCohortID OrderID   // first cohort the serial ever belonged to
	Status           InstanceStatus
	ReturnDate       time.Time
	RMAID            string
	ReceiptID        string
	ReplacedBy       InstanceKey
	Replaced         InstanceKey
	Seq              int // position in the input, used as the stable comparator
}

// NewShipmentInstance creates a validated in-field ShipmentInstance
func NewShipmentInstance(key InstanceKey, sku SKU, shipDate time.Time, seq int) (*ShipmentInstance, error) {
	if key.IsZero() || key.Serial == "" {
		return nil, fmt.Errorf("instance key cannot be empty")
	}
	if string(sku) == "" {
		return nil, fmt.Errorf("sku cannot be empty for %s", key)
	}
	if seq < 0 {
		return nil, fmt.Errorf("sequence cannot be negative, got %d", seq)
	}

	return &ShipmentInstance{
		Key:      key,
		SKU:      sku,
		ShipDate: shipDate,
		Status:   InField,
		Seq:      seq,
	}, nil
}

// HasShipDate reports whether a ship date is known
func (s *ShipmentInstance) HasShipDate() bool {
	return !s.ShipDate.IsZero()
}

// HasReturnDate reports whether a return has been recorded
func (s *ShipmentInstance) HasReturnDate() bool {
	return !s.ReturnDate.IsZero()
}

// IsOrphan reports whether the instance never joined a cohort
func (s *ShipmentInstance) IsOrphan() bool {
	return s.CohortID == ""
}

// SetShipDate fills a missing ship date; an existing one never changes
func (s *ShipmentInstance) SetShipDate(date time.Time) error {
	if s.HasShipDate() && !s.ShipDate.Equal(date) {
		return fmt.Errorf("%s: %w", s.Key, ErrShipDateImmutable)
	}
	s.ShipDate = date
	return nil
}

// RecordReturn stores the return date and its RMA references exactly once
func (s *ShipmentInstance) RecordReturn(date time.Time, rmaID, receiptID string) error {
	if s.HasReturnDate() {
		return fmt.Errorf("%s returned %s: %w", s.Key, s.ReturnDate.Format(DateLayout), ErrAlreadyReturned)
	}
	if date.IsZero() {
		return fmt.Errorf("%s: return date cannot be empty", s.Key)
	}
	s.ReturnDate = date
	s.RMAID = rmaID
	s.ReceiptID = receiptID
	return nil
}

// AssignCohort sets the live cohort; a conflicting second assignment is rejected
// and the first value kept
func (s *ShipmentInstance) AssignCohort(cohortID OrderID) error {
	if s.CohortID != "" && s.CohortID != cohortID {
		return fmt.Errorf("%s in %s, not %s: %w", s.Key, s.CohortID, cohortID, ErrCohortConflict)
	}
	s.CohortID = cohortID
	return nil
}

// TransitionTo moves the instance through its state machine.
// InField may move anywhere; a provisional ReturnedNoReplacementFound may still
// be upgraded to ReturnedReplaced when an orphan link is found later.
func (s *ShipmentInstance) TransitionTo(next InstanceStatus) error {
	if s.Status == next {
		return nil
	}
	switch {
	case s.Status == InField:
	case s.Status == ReturnedNoReplacementFound && next == ReturnedReplaced:
	default:
		return fmt.Errorf("%s: %s -> %s: %w", s.Key, s.Status, next, ErrInvalidTransition)
	}
	s.Status = next
	return nil
}

// LinkReplacement records that replacement took over the slot of returned.
// Both directions are written together so the links never disagree.
func LinkReplacement(returned, replacement *ShipmentInstance) error {
	if returned == nil || replacement == nil {
		return fmt.Errorf("cannot link nil instance")
	}
	if returned.Key == replacement.Key {
		return fmt.Errorf("%s cannot replace itself", returned.Key)
	}
	if !returned.ReplacedBy.IsZero() {
		return fmt.Errorf("%s already replaced by %s: %w", returned.Key, returned.ReplacedBy, ErrAlreadyLinked)
	}
	if !replacement.Replaced.IsZero() {
		return fmt.Errorf("%s already replaces %s: %w", replacement.Key, replacement.Replaced, ErrAlreadyLinked)
	}
	returned.ReplacedBy = replacement.Key
	replacement.Replaced = returned.Key
	return nil
}
