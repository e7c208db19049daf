package entities

import (
	"errors"
	"fmt"
	"time"
)

// DateLayout is the calendar-day format used in descriptions and reports
const DateLayout = "2006-01-02"

// AgreementLength represents the term of a service agreement
type AgreementLength int

const (
	LengthUnknown AgreementLength = iota
	OneYear
	TwoYear
)

// String method for AgreementLength enum
func (l AgreementLength) String() string {
	switch l {
	case OneYear:
		return "OneYear"
	case TwoYear:
		return "TwoYear"
	default:
		return "Unknown"
	}
}

// Years returns the agreement term in years, zero when unknown
func (l AgreementLength) Years() int {
	switch l {
	case OneYear:
		return 1
	case TwoYear:
		return 2
	default:
		return 0
	}
}

// MarshalText encodes the length by name
func (l AgreementLength) MarshalText() ([]byte, error) {
	return []byte(l.String()), nil
}

// StartSource records where a cohort's start date came from
type StartSource int

const (
	StartUnknown StartSource = iota
	StartFromShipments
	StartFromOrderDate
)

// String method for StartSource enum
func (s StartSource) String() string {
	switch s {
	case StartFromShipments:
		return "Earliest ship/delivery date"
	case StartFromOrderDate:
		return "Order date (fallback)"
	default:
		return "Unknown"
	}
}

// MarshalText encodes the start source label
func (s StartSource) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

var (
	ErrCapacityExhausted = errors.New("cohort replacement capacity exhausted")
	ErrInFieldCapacity   = errors.New("cohort has no in-field capacity left")
)

// Cohort is the capacity-limited replacement entitlement created by one
// agreement order. It references member instances by key only.
type Cohort struct {
	OrderID           OrderID
	StartDate         time.Time
	EndDate           time.Time
	WarningDate       time.Time
	StartSource       StartSource
	Length            AgreementLength
	CapacityTotal     int
	CapacityRemaining int
	MemberKeys        []InstanceKey

	ValidatedInFieldCount int
	AssignedOrphanCount   int

	Failed        bool
	FailureReason string
}

// NewCohort creates a validated Cohort. End and warning dates are derived
// from the start and the agreement length when both are known.
func NewCohort(
	orderID OrderID,
	startDate time.Time,
	startSource StartSource,
	length AgreementLength,
	memberKeys []InstanceKey,
	capacityPerMember, warningDays int,
) (*Cohort, error) {
	if string(orderID) == "" {
		return nil, fmt.Errorf("order id cannot be empty")
	}
	if capacityPerMember <= 0 {
		return nil, fmt.Errorf("capacity per member must be positive, got %d", capacityPerMember)
	}
	if warningDays < 0 {
		return nil, fmt.Errorf("warning days cannot be negative, got %d", warningDays)
	}

	seen := make(map[InstanceKey]bool, len(memberKeys))
	members := make([]InstanceKey, 0, len(memberKeys))
	for _, key := range memberKeys {
		if key.IsZero() || seen[key] {
			continue
		}
		seen[key] = true
		members = append(members, key)
	}
	if len(members) == 0 {
		return nil, fmt.Errorf("cohort %s has no member instances", orderID)
	}

	cohort := &Cohort{
		OrderID:           orderID,
		StartDate:         startDate,
		StartSource:       startSource,
		Length:            length,
		CapacityTotal:     len(members) * capacityPerMember,
		CapacityRemaining: len(members) * capacityPerMember,
		MemberKeys:        members,
	}
	if !startDate.IsZero() && length.Years() > 0 {
		cohort.EndDate = startDate.AddDate(length.Years(), 0, 0)
		cohort.WarningDate = cohort.EndDate.AddDate(0, 0, -warningDays)
	}
	return cohort, nil
}

// HasPeriod reports whether both ends of the agreement period are known
func (c *Cohort) HasPeriod() bool {
	return !c.StartDate.IsZero() && !c.EndDate.IsZero()
}

// InPeriod reports whether date falls inside [StartDate, EndDate]
func (c *Cohort) InPeriod(date time.Time) bool {
	if !c.HasPeriod() {
		return false
	}
	return !date.Before(c.StartDate) && !date.After(c.EndDate)
}

// ConsumeReplacement uses one replacement opportunity
func (c *Cohort) ConsumeReplacement() error {
	if c.CapacityRemaining <= 0 {
		return fmt.Errorf("cohort %s: %w", c.OrderID, ErrCapacityExhausted)
	}
	c.CapacityRemaining--
	return nil
}

// InFieldCapacity is the number of in-field slots not yet taken by validated
// chains or assigned orphan chains
func (c *Cohort) InFieldCapacity() int {
	return c.CapacityTotal - c.ValidatedInFieldCount - c.AssignedOrphanCount
}

// ReserveOrphanSlot claims one in-field slot for an assigned orphan chain.
// Replacement capacity is not touched.
func (c *Cohort) ReserveOrphanSlot() error {
	if c.InFieldCapacity() <= 0 {
		return fmt.Errorf("cohort %s: %w", c.OrderID, ErrInFieldCapacity)
	}
	c.AssignedOrphanCount++
	return nil
}

// MarkFailed isolates the cohort from further processing
func (c *Cohort) MarkFailed(reason string) {
	c.Failed = true
	if c.FailureReason == "" {
		c.FailureReason = reason
	}
}
