package matching

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/vsinha/lineage/pkg/application/services/shared"
	"github.com/vsinha/lineage/pkg/domain/entities"
	apperrors "github.com/vsinha/lineage/pkg/domain/errors"
	"github.com/vsinha/lineage/pkg/domain/repositories"
	"github.com/vsinha/lineage/pkg/domain/services"
	"github.com/vsinha/lineage/pkg/infrastructure/events"
)

// Outcome counts what happened to each return event
type Outcome struct {
	Processed              int
	Replaced               int
	NoReplacementFound     int
	NoReplacementAvailable int
	OutsidePeriod          int
	Unknown                int
	OrphanReturns          int
	Unresolved             int
	SkippedFailedCohort    int
}

// Engine applies return events to instances and finds FIFO replacements
// inside each cohort's scope
type Engine struct {
	comparator *services.SerialComparator
	logger     *zap.Logger
}

// NewEngine creates a matching engine
func NewEngine(logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		comparator: services.NewSerialComparator(),
		logger:     logger,
	}
}

// Process applies returns in order. Each return is resolved to the latest
// in-field shipment of its serial; cohort members are matched against the pool
// of shipments that belong to no cohort, while orphan returns are only recorded
// for the orphan chain builder. A cohort whose processing fails is marked
// failed and its later returns are skipped.
func (e *Engine) Process(
	ctx context.Context,
	returns []*entities.ReturnEvent,
	instances repositories.InstanceRepository,
	cohorts repositories.CohortRepository,
	diags *shared.Diagnostics,
	journal *events.Journal,
) (Outcome, error) {
	var outcome Outcome

	// The pool order is fixed up front; eligibility is re-checked per return
	pool := instances.All()
	e.comparator.SortByShipDate(pool)
	used := shared.NewKeySet()

	for _, ret := range returns {
		if err := ctx.Err(); err != nil {
			return outcome, err
		}
		outcome.Processed++

		instance := e.resolve(ret, instances)
		if instance == nil {
			outcome.Unresolved++
			diags.DataIntegrity(entities.InstanceKey{Serial: ret.Serial}, "",
				"return of %s on %s (%s) matches no in-field shipment", ret.Serial, services.FormatDate(ret.Date), ret.RMAID)
			continue
		}

		var cohort *entities.Cohort
		if !instance.IsOrphan() {
			c, ok := cohorts.Get(instance.CohortID)
			if !ok {
				diags.DataIntegrity(instance.Key, instance.CohortID, "instance refers to unknown cohort")
				continue
			}
			if c.Failed {
				outcome.SkippedFailedCohort++
				continue
			}
			cohort = c
		}

		if err := instance.RecordReturn(ret.Date, ret.RMAID, ret.ReceiptID); err != nil {
			diags.DataIntegrity(instance.Key, instance.CohortID, "%v", err)
			continue
		}
		if err := journal.Returned(instance); err != nil {
			diags.Record(err, instance.Key, instance.CohortID)
		}

		if cohort == nil {
			outcome.OrphanReturns++
			if err := e.transition(instance, entities.ReturnedNoReplacementFound, journal); err != nil {
				diags.DataIntegrity(instance.Key, "", "%v", err)
			}
			continue
		}

		if err := e.processCohortReturn(instance, cohort, pool, used, &outcome, diags, journal); err != nil {
			e.failCohort(cohort, err, instance.Key, diags, journal)
		}
	}

	e.logger.Info("returns processed",
		zap.Int("processed", outcome.Processed),
		zap.Int("replaced", outcome.Replaced),
		zap.Int("orphan_returns", outcome.OrphanReturns),
		zap.Int("unresolved", outcome.Unresolved),
	)
	return outcome, nil
}

// resolve picks the latest-shipped in-field shipment of the serial that left
// on or before the return date
func (e *Engine) resolve(ret *entities.ReturnEvent, instances repositories.InstanceRepository) *entities.ShipmentInstance {
	var found *entities.ShipmentInstance
	for _, candidate := range instances.BySerial(ret.Serial) {
		if candidate.Status != entities.InField || candidate.HasReturnDate() {
			continue
		}
		if !candidate.HasShipDate() || candidate.ShipDate.After(ret.Date) {
			continue
		}
		found = candidate
	}
	return found
}

// processCohortReturn runs the cohort state machine for one return
func (e *Engine) processCohortReturn(
	instance *entities.ShipmentInstance,
	cohort *entities.Cohort,
	pool []*entities.ShipmentInstance,
	used shared.KeySet,
	outcome *Outcome,
	diags *shared.Diagnostics,
	journal *events.Journal,
) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = apperrors.Newf(apperrors.CodeInternalError, "panic while processing return of %s: %v", instance.Key, r)
		}
	}()

	switch {
	case !cohort.HasPeriod():
		outcome.Unknown++
		diags.MissingDate(instance.Key, cohort.OrderID,
			"cohort %s has no agreement period; return on %s left unresolved", cohort.OrderID, services.FormatDate(instance.ReturnDate))
		return e.transition(instance, entities.StatusUnknown, journal)

	case cohort.CapacityRemaining == 0:
		outcome.NoReplacementAvailable++
		e.logger.Debug("cohort capacity exhausted", zap.String("cohort", string(cohort.OrderID)), zap.Stringer("instance", instance.Key))
		return e.transition(instance, entities.ReturnedNoReplacementAvailable, journal)

	case !cohort.InPeriod(instance.ReturnDate):
		outcome.OutsidePeriod++
		e.logger.Debug("return outside agreement period", zap.String("cohort", string(cohort.OrderID)), zap.Stringer("instance", instance.Key))
		return e.transition(instance, entities.ReturnedOutsidePeriod, journal)
	}

	if err := cohort.ConsumeReplacement(); err != nil {
		return apperrors.WithCode(apperrors.CodeCapacityInvariant, err)
	}

	replacement := e.findReplacement(instance, pool, used)
	if replacement == nil {
		outcome.NoReplacementFound++
		e.logger.Debug("no replacement found", zap.String("cohort", string(cohort.OrderID)), zap.Stringer("instance", instance.Key))
		return e.transition(instance, entities.ReturnedNoReplacementFound, journal)
	}

	if err := entities.LinkReplacement(instance, replacement); err != nil {
		return apperrors.Wrap(err, "linking replacement")
	}
	used.Add(replacement.Key)
	if err := replacement.AssignCohort(cohort.OrderID); err != nil {
		return apperrors.WithCode(apperrors.CodeDataIntegrity, err)
	}
	if replacement.OriginalCohortID == "" {
		replacement.OriginalCohortID = cohort.OrderID
	}
	if err := journal.Replaced(instance.Key, replacement.Key, cohort.OrderID, entities.EvidenceNone); err != nil {
		return err
	}
	outcome.Replaced++
	return e.transition(instance, entities.ReturnedReplaced, journal)
}

// findReplacement returns the earliest unused in-field shipment of the same
// SKU and a different serial that belongs to no cohort and left on or after the
// return date
func (e *Engine) findReplacement(
	returned *entities.ShipmentInstance,
	pool []*entities.ShipmentInstance,
	used shared.KeySet,
) *entities.ShipmentInstance {
	for _, candidate := range pool {
		if used.Has(candidate.Key) || !candidate.IsOrphan() || candidate.Status != entities.InField {
			continue
		}
		if !candidate.Replaced.IsZero() || !candidate.HasShipDate() {
			continue
		}
		if candidate.SKU != returned.SKU || candidate.Key.Serial == returned.Key.Serial {
			continue
		}
		if candidate.ShipDate.Before(returned.ReturnDate) {
			continue
		}
		return candidate
	}
	return nil
}

func (e *Engine) transition(instance *entities.ShipmentInstance, next entities.InstanceStatus, journal *events.Journal) error {
	from := instance.Status
	if err := instance.TransitionTo(next); err != nil {
		return err
	}
	return journal.StatusChanged(instance.Key, from, next, instance.CohortID)
}

func (e *Engine) failCohort(
	cohort *entities.Cohort,
	err error,
	key entities.InstanceKey,
	diags *shared.Diagnostics,
	journal *events.Journal,
) {
	reason := fmt.Sprintf("processing return of %s: %v", key, err)
	cohort.MarkFailed(reason)
	diags.Record(apperrors.Wrap(err, reason), key, cohort.OrderID)
	if jerr := journal.CohortFailed(cohort.OrderID, reason); jerr != nil {
		diags.Record(jerr, key, cohort.OrderID)
	}
	e.logger.Error("cohort processing failed",
		zap.String("cohort", string(cohort.OrderID)),
		zap.Error(err),
	)
}
