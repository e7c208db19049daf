package aggregate

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/vsinha/lineage/pkg/application/dto"
	"github.com/vsinha/lineage/pkg/application/services/cohort"
	"github.com/vsinha/lineage/pkg/application/services/shared"
	"github.com/vsinha/lineage/pkg/domain/entities"
	"github.com/vsinha/lineage/pkg/domain/repositories"
	"github.com/vsinha/lineage/pkg/domain/services"
	"github.com/vsinha/lineage/pkg/infrastructure/events"
)

// Input is everything a finished run hands to the aggregator
type Input struct {
	Instances    repositories.InstanceRepository
	Cohorts      repositories.CohortRepository
	Validated    map[entities.OrderID][]entities.Chain
	OrphanChains []entities.OrphanChain
	Violations   []entities.IsolationViolation
	Pricing      map[entities.OrderID]cohort.Pricing
	Diagnostics  *shared.Diagnostics
	Journal      *events.Journal
	AsOf         time.Time
}

// Aggregator turns the resolved instance graph into the result contract
type Aggregator struct {
	config     Config
	comparator *services.SerialComparator
	logger     *zap.Logger
}

// NewAggregator creates an aggregator
func NewAggregator(config Config, logger *zap.Logger) *Aggregator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Aggregator{
		config:     config,
		comparator: services.NewSerialComparator(),
		logger:     logger,
	}
}

// chainTotals accumulates returns and handoff gaps over a set of chains
type chainTotals struct {
	returns int
	gaps    []float64
}

func (t *chainTotals) add(chain entities.Chain, instances repositories.InstanceRepository) {
	t.returns += len(chain.Handoffs)
	if chain.FinalStatus.IsReturned() {
		t.returns++
	}
	for i := 0; i+1 < len(chain.Keys); i++ {
		returned, okR := instances.Get(chain.Keys[i])
		replacement, okC := instances.Get(chain.Keys[i+1])
		if !okR || !okC || !returned.HasReturnDate() || !replacement.HasShipDate() {
			continue
		}
		t.gaps = append(t.gaps, float64(services.DaysBetween(returned.ReturnDate, replacement.ShipDate)))
	}
}

// Aggregate builds the result. Cohorts are reported in start-date order,
// validated chains follow their cohort and orphan chains keep builder order.
func (a *Aggregator) Aggregate(in Input) *dto.LineageResult {
	result := &dto.LineageResult{
		Cohorts:             []dto.CohortSummary{},
		Chains:              []dto.ChainView{},
		OrphanChains:        []dto.OrphanChainView{},
		IsolationViolations: []dto.IsolationViolation{},
		Diagnostics:         in.Diagnostics.Entries(),
	}

	assigned := make(map[entities.OrderID][]entities.OrphanChain)
	for _, oc := range in.OrphanChains {
		if oc.IsAssigned() {
			assigned[oc.AssignedCohort] = append(assigned[oc.AssignedCohort], oc)
		}
	}

	var (
		globalAccrued = decimal.Zero
		globalTotals  chainTotals
		priceSum      = decimal.Zero
		inField       = make(map[string]bool)
	)

	cohorts := in.Cohorts.All()
	for _, c := range cohorts {
		var totals chainTotals
		for _, chain := range in.Validated[c.OrderID] {
			totals.add(chain, in.Instances)
			result.Chains = append(result.Chains, chainView(c.OrderID, chain))
			if chain.FinalStatus == entities.InField {
				inField[serialOf(chain.Final())] = true
			}
		}
		for _, oc := range assigned[c.OrderID] {
			totals.add(oc.Chain, in.Instances)
			if oc.FinalStatus == entities.InField {
				inField[serialOf(oc.Final())] = true
			}
		}

		accrued := AccruedYears(c, in.AsOf)
		price := in.Pricing[c.OrderID].Average()
		globalAccrued = globalAccrued.Add(accrued)
		priceSum = priceSum.Add(price)

		result.Cohorts = append(result.Cohorts, cohortSummary(c, metrics(accrued, totals.returns, a.config.ReturnPrice, price, totals.gaps)))
	}

	unassigned := make(map[string]bool)
	for _, oc := range in.OrphanChains {
		result.OrphanChains = append(result.OrphanChains, orphanView(oc))
		if oc.FinalStatus == entities.InField && !oc.IsAssigned() {
			unassigned[serialOf(oc.Final())] = true
		}
	}

	// global returns and gaps both cover every validated and orphan chain
	for _, c := range cohorts {
		for _, chain := range in.Validated[c.OrderID] {
			globalTotals.add(chain, in.Instances)
		}
	}
	for _, oc := range in.OrphanChains {
		globalTotals.add(oc.Chain, in.Instances)
	}

	for _, v := range in.Violations {
		result.IsolationViolations = append(result.IsolationViolations, dto.IsolationViolation{
			Serial:         v.Serial,
			OriginalCohort: string(v.OriginalCohort),
			AssignedCohort: string(v.AssignedCohort),
			Reason:         v.Reason,
		})
	}

	averagePrice := decimal.Zero
	if len(cohorts) > 0 {
		averagePrice = priceSum.Div(decimal.NewFromInt(int64(len(cohorts))))
	}
	result.Summary = a.globalSummary(in, len(cohorts), inField, unassigned)
	result.Summary.Metrics = metrics(globalAccrued, globalTotals.returns, a.config.ReturnPrice, averagePrice, globalTotals.gaps)
	result.Transitions = transitions(in.Journal)

	a.logger.Info("lineage aggregated",
		zap.Int("cohorts", len(result.Cohorts)),
		zap.Int("chains", len(result.Chains)),
		zap.Int("orphan_chains", len(result.OrphanChains)),
		zap.Int("violations", len(result.IsolationViolations)),
		zap.Int("diagnostics", len(result.Diagnostics)),
	)
	return result
}

func (a *Aggregator) globalSummary(in Input, cohortCount int, inField, unassigned map[string]bool) dto.GlobalSummary {
	summary := dto.GlobalSummary{
		AsOf:              services.FormatDate(in.AsOf),
		TotalShipped:      in.Instances.Len(),
		CohortCount:       cohortCount,
		OrphanChainCount:  len(in.OrphanChains),
		SuspectedInField:  a.sortedSerials(inField),
		UnassignedInField: a.sortedSerials(unassigned),
		StatusCounts:      make(map[string]int),
	}
	for _, instance := range in.Instances.All() {
		if instance.HasReturnDate() {
			summary.TotalReturned++
		}
		summary.StatusCounts[instance.Status.String()]++
	}
	return summary
}

func (a *Aggregator) sortedSerials(set map[string]bool) []string {
	serials := make([]string, 0, len(set))
	for serial := range set {
		serials = append(serials, serial)
	}
	sort.SliceStable(serials, func(i, j int) bool {
		return a.comparator.CompareSerials(serials[i], serials[j]) < 0
	})
	return serials
}

func serialOf(key entities.InstanceKey) string {
	return key.Serial
}

func cohortSummary(c *entities.Cohort, m dto.CohortMetrics) dto.CohortSummary {
	return dto.CohortSummary{
		OrderID:               string(c.OrderID),
		StartDate:             services.FormatDate(c.StartDate),
		EndDate:               services.FormatDate(c.EndDate),
		WarningDate:           services.FormatDate(c.WarningDate),
		StartSource:           c.StartSource.String(),
		AgreementLength:       c.Length.String(),
		MemberCount:           len(c.MemberKeys),
		CapacityTotal:         c.CapacityTotal,
		CapacityRemaining:     c.CapacityRemaining,
		ValidatedInFieldCount: c.ValidatedInFieldCount,
		AssignedOrphanCount:   c.AssignedOrphanCount,
		Failed:                c.Failed,
		FailureReason:         c.FailureReason,
		Metrics:               m,
	}
}

func chainView(cohortID entities.OrderID, chain entities.Chain) dto.ChainView {
	view := dto.ChainView{
		CohortID:         string(cohortID),
		Keys:             make([]string, len(chain.Keys)),
		Serials:          make([]string, len(chain.Keys)),
		Handoffs:         append([]string{}, chain.Handoffs...),
		FinalStatus:      chain.FinalStatus.String(),
		FinalDescription: chain.FinalStatus.Description(),
		Speculative:      chain.Speculative,
		Broken:           chain.Broken,
		Error:            chain.Error,
	}
	for i, key := range chain.Keys {
		view.Keys[i] = key.String()
		view.Serials[i] = key.Serial
	}
	return view
}

func orphanView(oc entities.OrphanChain) dto.OrphanChainView {
	view := dto.OrphanChainView{
		ChainView:      chainView("", oc.Chain),
		Evidence:       make([]string, len(oc.Evidence)),
		AssignedCohort: string(oc.AssignedCohort),
		Reason:         oc.Reason.String(),
		ReasonDetail:   oc.ReasonDetail,
	}
	for i, ev := range oc.Evidence {
		view.Evidence[i] = ev.String()
	}
	return view
}

// transitions lists the journaled status changes in append order
func transitions(journal *events.Journal) []dto.Transition {
	var out []dto.Transition
	for _, ev := range journal.Events() {
		change, ok := ev.Data().(events.InstanceStatusChanged)
		if !ok {
			continue
		}
		out = append(out, dto.Transition{
			Sequence: ev.Sequence(),
			Key:      change.Key.String(),
			From:     change.From.String(),
			To:       change.To.String(),
			Cohort:   string(change.Cohort),
			Detail:   change.To.Description(),
		})
	}
	return out
}
