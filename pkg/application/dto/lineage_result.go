package dto

import "github.com/shopspring/decimal"

// LineageResult contains the complete output of a lineage resolution run.
// Dates are rendered as YYYY-MM-DD strings ("N/A" when unknown) and every
// slice is deterministically ordered.
type LineageResult struct {
	Cohorts             []CohortSummary      `json:"cohorts"`
	Chains              []ChainView          `json:"chains"`
	OrphanChains        []OrphanChainView    `json:"orphanChains"`
	Summary             GlobalSummary        `json:"summary"`
	IsolationViolations []IsolationViolation `json:"isolationViolations"`
	Diagnostics         []Diagnostic         `json:"diagnostics"`
	Transitions         []Transition         `json:"transitions,omitempty"`
}

// CohortSummary reports one agreement cohort
type CohortSummary struct {
	OrderID               string        `json:"orderId"`
	StartDate             string        `json:"startDate"`
	EndDate               string        `json:"endDate"`
	WarningDate           string        `json:"warningDate"`
	StartSource           string        `json:"startSource"`
	AgreementLength       string        `json:"agreementLength"`
	MemberCount           int           `json:"memberCount"`
	CapacityTotal         int           `json:"capacityTotal"`
	CapacityRemaining     int           `json:"capacityRemaining"`
	ValidatedInFieldCount int           `json:"validatedInFieldCount"`
	AssignedOrphanCount   int           `json:"assignedOrphanCount"`
	Failed                bool          `json:"failed,omitempty"`
	FailureReason         string        `json:"failureReason,omitempty"`
	Metrics               CohortMetrics `json:"metrics"`
}

// CohortMetrics holds agreement performance figures for a cohort
type CohortMetrics struct {
	AccruedYears     decimal.Decimal `json:"accruedYears"`
	TotalReturns     int             `json:"totalReturns"`
	BreakRate        decimal.Decimal `json:"breakRate"`
	Savings          decimal.Decimal `json:"savings"`
	ExtensionCost    decimal.Decimal `json:"extensionCost"`
	AverageItemPrice decimal.Decimal `json:"averageItemPrice"`
	Gaps             GapStats        `json:"gaps"`
}

// GapStats describes the days between a return and its replacement shipment
type GapStats struct {
	Count      int     `json:"count"`
	MeanDays   float64 `json:"meanDays"`
	MedianDays float64 `json:"medianDays"`
	MaxDays    float64 `json:"maxDays"`
}

// ChainView is a chain of instances occupying one slot
type ChainView struct {
	CohortID         string   `json:"cohortId,omitempty"`
	Keys             []string `json:"keys"`
	Serials          []string `json:"serials"`
	Handoffs         []string `json:"handoffs"`
	FinalStatus      string   `json:"finalStatus"`
	FinalDescription string   `json:"finalDescription"`
	Speculative      bool     `json:"speculative,omitempty"`
	Broken           bool     `json:"broken,omitempty"`
	Error            string   `json:"error,omitempty"`
}

// OrphanChainView is a speculative chain with its cohort association
type OrphanChainView struct {
	ChainView
	Evidence       []string `json:"evidence"`
	AssignedCohort string   `json:"assignedCohort"`
	Reason         string   `json:"reason"`
	ReasonDetail   string   `json:"reasonDetail,omitempty"`
}

// GlobalSummary aggregates counters over the whole input
type GlobalSummary struct {
	AsOf              string         `json:"asOf"`
	TotalShipped      int            `json:"totalShipped"`
	TotalReturned     int            `json:"totalReturned"`
	CohortCount       int            `json:"cohortCount"`
	OrphanChainCount  int            `json:"orphanChainCount"`
	SuspectedInField  []string       `json:"suspectedInField"`
	UnassignedInField []string       `json:"unassignedInField"`
	StatusCounts      map[string]int `json:"statusCounts"`
	Metrics           CohortMetrics  `json:"metrics"`
}

// IsolationViolation records a chain placed outside its original cohort
type IsolationViolation struct {
	Serial         string `json:"serial"`
	OriginalCohort string `json:"originalCohort"`
	AssignedCohort string `json:"assignedCohort"`
	Reason         string `json:"reason"`
}

// Diagnostic is a non-fatal data problem met during the run
type Diagnostic struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Key     string `json:"key,omitempty"`
	Cohort  string `json:"cohort,omitempty"`
}

// Transition is one journaled instance state change
type Transition struct {
	Sequence int    `json:"sequence"`
	Key      string `json:"key"`
	From     string `json:"from"`
	To       string `json:"to"`
	Cohort   string `json:"cohort,omitempty"`
	Detail   string `json:"detail,omitempty"`
}
