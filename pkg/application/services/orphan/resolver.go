package orphan

import (
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/vsinha/lineage/pkg/application/services/shared"
	"github.com/vsinha/lineage/pkg/domain/entities"
	"github.com/vsinha/lineage/pkg/domain/repositories"
	"github.com/vsinha/lineage/pkg/domain/services"
	"github.com/vsinha/lineage/pkg/infrastructure/events"
)

// Resolver associates orphan chains with cohorts
type Resolver struct {
	logger *zap.Logger
}

// NewResolver creates an orphan chain resolver
func NewResolver(logger *zap.Logger) *Resolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{logger: logger}
}

// Resolve assigns every chain in order. Chains still in the field take an
// in-field slot, preferring the starter's original cohort and otherwise the
// latest cohort that had started by the starter's ship date. Returned chains
// are labelled with their original cohort for reporting and take no slot.
// An in-field chain that does not land in its original cohort, including one
// left unassigned, produces an isolation violation.
func (r *Resolver) Resolve(
	chains []entities.OrphanChain,
	instances repositories.InstanceRepository,
	cohorts repositories.CohortRepository,
	diags *shared.Diagnostics,
	journal *events.Journal,
) ([]entities.OrphanChain, []entities.IsolationViolation) {
	resolved := make([]entities.OrphanChain, len(chains))
	var violations []entities.IsolationViolation

	for i, oc := range chains {
		starter, ok := instances.Get(oc.Starter())
		switch {
		case !ok:
			oc.AssignedCohort = entities.Unassigned
			oc.Reason = entities.ReasonMissingData
			oc.ReasonDetail = "chain has no starting instance"
		case oc.FinalStatus == entities.InField:
			if v := r.assignInField(&oc, starter, cohorts); v != nil {
				violations = append(violations, *v)
			}
		default:
			r.assignReturned(&oc, starter, cohorts)
		}

		if err := journal.OrphanAssigned(oc); err != nil {
			diags.Record(err, oc.Starter(), oc.AssignedCohort)
		}
		r.logger.Debug("orphan chain resolved",
			zap.Stringer("starter", oc.Starter()),
			zap.String("cohort", string(oc.AssignedCohort)),
			zap.Stringer("reason", oc.Reason),
		)
		resolved[i] = oc
	}

	return resolved, violations
}

func (r *Resolver) assignInField(
	oc *entities.OrphanChain,
	starter *entities.ShipmentInstance,
	cohorts repositories.CohortRepository,
) *entities.IsolationViolation {
	original := starter.OriginalCohortID
	if original != "" {
		if cohort, ok := cohorts.Get(original); ok && !cohort.Failed && cohort.InFieldCapacity() > 0 {
			if err := cohort.ReserveOrphanSlot(); err == nil {
				oc.AssignedCohort = cohort.OrderID
				oc.Reason = entities.ReasonSameCohort
				return nil
			}
		}
	}

	r.assignLatestStarted(oc, starter, cohorts)
	if original == "" || oc.AssignedCohort == original {
		return nil
	}
	return &entities.IsolationViolation{
		Serial:         starter.Key.Serial,
		OriginalCohort: original,
		AssignedCohort: oc.AssignedCohort,
		Reason:         fmt.Sprintf("original cohort %s had no in-field capacity", original),
	}
}

// assignLatestStarted reserves a slot in the latest cohort that had started
// by the starter's ship date and still has in-field capacity
func (r *Resolver) assignLatestStarted(
	oc *entities.OrphanChain,
	starter *entities.ShipmentInstance,
	cohorts repositories.CohortRepository,
) {
	oc.AssignedCohort = entities.Unassigned
	if !starter.HasShipDate() {
		oc.Reason = entities.ReasonMissingData
		oc.ReasonDetail = fmt.Sprintf("%s has no ship date", starter.Key)
		return
	}

	eligible := startedBy(starter.ShipDate, cohorts)
	if len(eligible) == 0 {
		oc.Reason = entities.ReasonDateTooEarly
		oc.ReasonDetail = fmt.Sprintf("no cohort started on or before %s", services.FormatDate(starter.ShipDate))
		return
	}

	for _, cohort := range eligible {
		if cohort.InFieldCapacity() <= 0 {
			continue
		}
		if err := cohort.ReserveOrphanSlot(); err != nil {
			continue
		}
		oc.AssignedCohort = cohort.OrderID
		oc.Reason = entities.ReasonLatestStartBeforeShip
		return
	}

	oc.Reason = entities.ReasonCapacityExhausted
	oc.ReasonDetail = fmt.Sprintf("%d cohort(s) started on or before %s, none with in-field capacity",
		len(eligible), services.FormatDate(starter.ShipDate))
}

func (r *Resolver) assignReturned(oc *entities.OrphanChain, starter *entities.ShipmentInstance, cohorts repositories.CohortRepository) {
	if original := starter.OriginalCohortID; original != "" {
		if _, ok := cohorts.Get(original); ok {
			oc.AssignedCohort = original
			oc.Reason = entities.ReasonReportingOnly
			return
		}
	}
	oc.AssignedCohort = entities.Unassigned
	oc.Reason = entities.ReasonNotInField
	oc.ReasonDetail = fmt.Sprintf("chain ended %s", oc.FinalStatus.Description())
}

// startedBy returns the live cohorts that started on or before date, latest
// start first and then by order id
func startedBy(date time.Time, cohorts repositories.CohortRepository) []*entities.Cohort {
	var eligible []*entities.Cohort
	for _, cohort := range cohorts.All() {
		if cohort.Failed || cohort.StartDate.IsZero() || cohort.StartDate.After(date) {
			continue
		}
		eligible = append(eligible, cohort)
	}
	sort.SliceStable(eligible, func(i, j int) bool {
		if !eligible[i].StartDate.Equal(eligible[j].StartDate) {
			return eligible[i].StartDate.After(eligible[j].StartDate)
		}
		return eligible[i].OrderID < eligible[j].OrderID
	})
	return eligible
}
