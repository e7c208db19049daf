package orphan

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vsinha/lineage/pkg/application/services/shared"
	"github.com/vsinha/lineage/pkg/domain/entities"
	"github.com/vsinha/lineage/pkg/infrastructure/events"
	th "github.com/vsinha/lineage/pkg/infrastructure/testing"
)

func single(instance *entities.ShipmentInstance) entities.OrphanChain {
	return entities.OrphanChain{Chain: entities.Chain{
		Keys:        []entities.InstanceKey{instance.Key},
		FinalStatus: instance.Status,
		Speculative: true,
	}}
}

func TestResolver_Assignments(t *testing.T) {
	tests := []struct {
		name          string
		setup         func() (*entities.ShipmentInstance, []*entities.ShipmentInstance, []*entities.Cohort)
		wantCohort    entities.OrderID
		wantReason    entities.AssignmentReason
		wantViolation bool
	}{
		{
			name: "returned orphan without history is not in field",
			setup: func() (*entities.ShipmentInstance, []*entities.ShipmentInstance, []*entities.Cohort) {
				s9 := th.MustReturn(th.MustInstance("S9", "SO-9", "2023-02-01"), "2023-02-20")
				return s9, nil, nil
			},
			wantCohort: entities.Unassigned,
			wantReason: entities.ReasonNotInField,
		},
		{
			name: "returned orphan keeps its original cohort for reporting",
			setup: func() (*entities.ShipmentInstance, []*entities.ShipmentInstance, []*entities.Cohort) {
				member := th.MustInstance("S1", "SO-C1", "2023-01-01")
				cohort := th.MustCohort("SO-C1", "2023-01-01", entities.OneYear, member)
				again := th.MustReturn(th.MustInstance("S1", "SO-7", "2023-08-01"), "2023-09-01")
				again.OriginalCohortID = cohort.OrderID
				return again, []*entities.ShipmentInstance{member}, []*entities.Cohort{cohort}
			},
			wantCohort: "SO-C1",
			wantReason: entities.ReasonReportingOnly,
		},
		{
			name: "in-field orphan returns to its original cohort",
			setup: func() (*entities.ShipmentInstance, []*entities.ShipmentInstance, []*entities.Cohort) {
				member := th.MustInstance("S1", "SO-C1", "2023-01-01")
				cohort := th.MustCohort("SO-C1", "2023-01-01", entities.OneYear, member)
				again := th.MustInstance("S1", "SO-7", "2023-08-01")
				again.OriginalCohortID = cohort.OrderID
				return again, []*entities.ShipmentInstance{member}, []*entities.Cohort{cohort}
			},
			wantCohort: "SO-C1",
			wantReason: entities.ReasonSameCohort,
		},
		{
			name: "full original cohort moves the chain and records a violation",
			setup: func() (*entities.ShipmentInstance, []*entities.ShipmentInstance, []*entities.Cohort) {
				m1 := th.MustInstance("S1", "SO-C1", "2023-01-01")
				c1 := th.MustCohort("SO-C1", "2023-01-01", entities.OneYear, m1)
				c1.ValidatedInFieldCount = c1.CapacityTotal
				m5 := th.MustInstance("S5", "SO-C2", "2023-02-01")
				c2 := th.MustCohort("SO-C2", "2023-02-01", entities.OneYear, m5)
				again := th.MustInstance("S1", "SO-7", "2023-06-01")
				again.OriginalCohortID = c1.OrderID
				return again, []*entities.ShipmentInstance{m1, m5}, []*entities.Cohort{c1, c2}
			},
			wantCohort:    "SO-C2",
			wantReason:    entities.ReasonLatestStartBeforeShip,
			wantViolation: true,
		},
		{
			name: "latest cohort started before ship wins",
			setup: func() (*entities.ShipmentInstance, []*entities.ShipmentInstance, []*entities.Cohort) {
				m1 := th.MustInstance("S1", "SO-C1", "2023-01-01")
				c1 := th.MustCohort("SO-C1", "2023-01-01", entities.OneYear, m1)
				m2 := th.MustInstance("S2", "SO-C2", "2023-03-01")
				c2 := th.MustCohort("SO-C2", "2023-03-01", entities.OneYear, m2)
				m3 := th.MustInstance("S3", "SO-C3", "2023-09-01")
				c3 := th.MustCohort("SO-C3", "2023-09-01", entities.OneYear, m3)
				orphan := th.MustInstance("S8", "SO-8", "2023-06-01")
				return orphan, []*entities.ShipmentInstance{m1, m2, m3}, []*entities.Cohort{c1, c2, c3}
			},
			wantCohort: "SO-C2",
			wantReason: entities.ReasonLatestStartBeforeShip,
		},
		{
			name: "shipped before any cohort started",
			setup: func() (*entities.ShipmentInstance, []*entities.ShipmentInstance, []*entities.Cohort) {
				m1 := th.MustInstance("S1", "SO-C1", "2023-01-01")
				c1 := th.MustCohort("SO-C1", "2023-01-01", entities.OneYear, m1)
				orphan := th.MustInstance("S8", "SO-8", "2022-06-01")
				return orphan, []*entities.ShipmentInstance{m1}, []*entities.Cohort{c1}
			},
			wantCohort: entities.Unassigned,
			wantReason: entities.ReasonDateTooEarly,
		},
		{
			name: "every eligible cohort is full",
			setup: func() (*entities.ShipmentInstance, []*entities.ShipmentInstance, []*entities.Cohort) {
				m1 := th.MustInstance("S1", "SO-C1", "2023-01-01")
				c1 := th.MustCohort("SO-C1", "2023-01-01", entities.OneYear, m1)
				c1.AssignedOrphanCount = c1.CapacityTotal
				orphan := th.MustInstance("S8", "SO-8", "2023-06-01")
				return orphan, []*entities.ShipmentInstance{m1}, []*entities.Cohort{c1}
			},
			wantCohort: entities.Unassigned,
			wantReason: entities.ReasonCapacityExhausted,
		},
		{
			name: "undated in-field orphan",
			setup: func() (*entities.ShipmentInstance, []*entities.ShipmentInstance, []*entities.Cohort) {
				m1 := th.MustInstance("S1", "SO-C1", "2023-01-01")
				c1 := th.MustCohort("SO-C1", "2023-01-01", entities.OneYear, m1)
				orphan := th.MustInstance("S8", "SO-8", "")
				return orphan, []*entities.ShipmentInstance{m1}, []*entities.Cohort{c1}
			},
			wantCohort: entities.Unassigned,
			wantReason: entities.ReasonMissingData,
		},
		{
			name: "cohort membership sku does not restrict assignment",
			setup: func() (*entities.ShipmentInstance, []*entities.ShipmentInstance, []*entities.Cohort) {
				m1 := th.MustInstanceOfSKU("S1", "SO-C1", "DEV-A", "2023-01-01")
				c1 := th.MustCohort("SO-C1", "2023-01-01", entities.OneYear, m1)
				orphan := th.MustInstanceOfSKU("S8", "SO-8", "DEV-B", "2023-06-01")
				return orphan, []*entities.ShipmentInstance{m1}, []*entities.Cohort{c1}
			},
			wantCohort: "SO-C1",
			wantReason: entities.ReasonLatestStartBeforeShip,
		},
		{
			name: "full original cohort with nowhere else to go records a violation",
			setup: func() (*entities.ShipmentInstance, []*entities.ShipmentInstance, []*entities.Cohort) {
				m1 := th.MustInstance("S1", "SO-C1", "2023-01-01")
				c1 := th.MustCohort("SO-C1", "2023-01-01", entities.OneYear, m1)
				c1.ValidatedInFieldCount = c1.CapacityTotal
				again := th.MustInstance("S1", "SO-7", "2023-06-01")
				again.OriginalCohortID = c1.OrderID
				return again, []*entities.ShipmentInstance{m1}, []*entities.Cohort{c1}
			},
			wantCohort:    entities.Unassigned,
			wantReason:    entities.ReasonCapacityExhausted,
			wantViolation: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			starter, others, cohortList := tt.setup()
			instances := th.BuildInstanceTable(append(others, starter)...)
			cohorts := th.BuildCohortTable(cohortList...)
			journal := events.NewJournal(nil)

			resolved, violations := NewResolver(nil).Resolve(
				[]entities.OrphanChain{single(starter)}, instances, cohorts, shared.NewDiagnostics(nil), journal)

			require.Len(t, resolved, 1)
			assert.Equal(t, tt.wantCohort, resolved[0].AssignedCohort)
			assert.Equal(t, tt.wantReason, resolved[0].Reason)
			if tt.wantViolation {
				require.Len(t, violations, 1)
				assert.Equal(t, starter.Key.Serial, violations[0].Serial)
				assert.Equal(t, starter.OriginalCohortID, violations[0].OriginalCohort)
				assert.Equal(t, tt.wantCohort, violations[0].AssignedCohort)
			} else {
				assert.Empty(t, violations)
			}
			if !resolved[0].IsAssigned() {
				assert.NotEmpty(t, resolved[0].ReasonDetail)
			}

			logged := journal.Events()
			require.NotEmpty(t, logged)
			assert.Equal(t, "orphan.assigned", logged[len(logged)-1].Type())
		})
	}
}

func TestResolver_ReservesInFieldSlots(t *testing.T) {
	m1 := th.MustInstance("S1", "SO-C1", "2023-01-01")
	c1 := th.MustCohort("SO-C1", "2023-01-01", entities.OneYear, m1)
	c1.ValidatedInFieldCount = 1

	var chains []entities.OrphanChain
	all := []*entities.ShipmentInstance{m1}
	for _, serial := range []string{"S21", "S22", "S23", "S24"} {
		orphan := th.MustInstance(serial, "SO-"+serial, "2023-03-01")
		all = append(all, orphan)
		chains = append(chains, single(orphan))
	}

	resolved, _ := NewResolver(nil).Resolve(chains, th.BuildInstanceTable(all...), th.BuildCohortTable(c1),
		shared.NewDiagnostics(nil), nil)

	assigned := 0
	for _, oc := range resolved {
		if oc.IsAssigned() {
			assigned++
		}
	}
	assert.Equal(t, 3, assigned)
	assert.Equal(t, entities.ReasonCapacityExhausted, resolved[3].Reason)
	assert.Equal(t, 3, c1.AssignedOrphanCount)
	assert.Equal(t, 0, c1.InFieldCapacity())
	assert.Equal(t, 4, c1.CapacityRemaining)
}

func TestResolver_SkipsFailedCohorts(t *testing.T) {
	m1 := th.MustInstance("S1", "SO-C1", "2023-01-01")
	c1 := th.MustCohort("SO-C1", "2023-01-01", entities.OneYear, m1)
	c1.MarkFailed("boom")
	orphan := th.MustInstance("S8", "SO-8", "2023-06-01")

	resolved, _ := NewResolver(nil).Resolve([]entities.OrphanChain{single(orphan)},
		th.BuildInstanceTable(m1, orphan), th.BuildCohortTable(c1), shared.NewDiagnostics(nil), nil)

	assert.Equal(t, entities.Unassigned, resolved[0].AssignedCohort)
	assert.Equal(t, entities.ReasonDateTooEarly, resolved[0].Reason)
}
