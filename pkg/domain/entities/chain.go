package entities

// Unassigned is the cohort label for orphan chains that fit no cohort
const Unassigned OrderID = "Unassigned"

// Chain is the ordered lineage of instances occupying one slot over time.
// It is derived by walking ReplacedBy links and never stored.
type Chain struct {
	Keys        []InstanceKey
	Handoffs    []string
	FinalStatus InstanceStatus
	Speculative bool
	Broken      bool   // walk stopped on a cycle or a data integrity problem
	Error       string // marker describing why the walk stopped
}

// Starter returns the first instance of the chain
func (c Chain) Starter() InstanceKey {
	if len(c.Keys) == 0 {
		return InstanceKey{}
	}
	return c.Keys[0]
}

// Final returns the last instance of the chain
func (c Chain) Final() InstanceKey {
	if len(c.Keys) == 0 {
		return InstanceKey{}
	}
	return c.Keys[len(c.Keys)-1]
}

// LinkEvidence records what justified an orphan handoff
type LinkEvidence int

const (
	EvidenceNone LinkEvidence = iota
	EvidenceExplicitText
	EvidenceTimeWindow
)

// String method for LinkEvidence enum
func (e LinkEvidence) String() string {
	switch e {
	case EvidenceExplicitText:
		return "ExplicitText"
	case EvidenceTimeWindow:
		return "TimeWindow"
	default:
		return "None"
	}
}

// MarshalText encodes the evidence by name
func (e LinkEvidence) MarshalText() ([]byte, error) {
	return []byte(e.String()), nil
}

// AssignmentReason explains an orphan chain's cohort association
type AssignmentReason int

const (
	ReasonNone AssignmentReason = iota
	ReasonSameCohort
	ReasonLatestStartBeforeShip
	ReasonReportingOnly
	ReasonDateTooEarly
	ReasonCapacityExhausted
	ReasonMissingData
	ReasonNotInField
)

// String method for AssignmentReason enum
func (r AssignmentReason) String() string {
	switch r {
	case ReasonSameCohort:
		return "same-cohort"
	case ReasonLatestStartBeforeShip:
		return "latest-start-before-ship"
	case ReasonReportingOnly:
		return "reporting-only"
	case ReasonDateTooEarly:
		return "date-too-early"
	case ReasonCapacityExhausted:
		return "capacity-exhausted"
	case ReasonMissingData:
		return "missing-data"
	case ReasonNotInField:
		return "not-in-field"
	default:
		return "none"
	}
}

// MarshalText encodes the reason by name
func (r AssignmentReason) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

// OrphanChain is a speculative chain of instances with no cohort membership
// together with the cohort it was associated to
type OrphanChain struct {
	Chain
	Evidence       []LinkEvidence // one per handoff
	AssignedCohort OrderID
	Reason         AssignmentReason
	ReasonDetail   string
}

// IsAssigned reports whether the chain landed in a real cohort
func (o OrphanChain) IsAssigned() bool {
	return o.AssignedCohort != "" && o.AssignedCohort != Unassigned
}

// IsolationViolation is an append-only audit record written whenever a chain is
// placed in a cohort other than the serial's original cohort
type IsolationViolation struct {
	Serial         string
	OriginalCohort OrderID
	AssignedCohort OrderID
	Reason         string
}
