package chain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vsinha/lineage/pkg/application/services/shared"
	"github.com/vsinha/lineage/pkg/domain/entities"
	apperrors "github.com/vsinha/lineage/pkg/domain/errors"
	th "github.com/vsinha/lineage/pkg/infrastructure/testing"
)

func link(t *testing.T, returned, replacement *entities.ShipmentInstance) {
	t.Helper()
	require.NoError(t, entities.LinkReplacement(returned, replacement))
	require.NoError(t, returned.TransitionTo(entities.ReturnedReplaced))
}

func TestAssembler_WalkThreeHops(t *testing.T) {
	s1 := th.MustReturn(th.MustInstance("S1", "SO-1", "2023-01-01"), "2023-06-01")
	s2 := th.MustReturn(th.MustInstance("S2", "SO-2", "2023-06-05"), "2023-09-01")
	s3 := th.MustInstance("S3", "SO-3", "2023-09-03")
	link(t, s1, s2)
	link(t, s2, s3)

	diags := shared.NewDiagnostics(nil)
	chain := NewAssembler(nil).Walk(s1.Key, false, th.BuildInstanceTable(s1, s2, s3), diags)

	assert.Equal(t, []entities.InstanceKey{s1.Key, s2.Key, s3.Key}, chain.Keys)
	assert.Equal(t, []string{
		"Returned S1 on 2023-06-01, replaced by S2 shipped 2023-06-05",
		"Returned S2 on 2023-09-01, replaced by S3 shipped 2023-09-03",
	}, chain.Handoffs)
	assert.Equal(t, entities.InField, chain.FinalStatus)
	assert.False(t, chain.Broken)
	assert.Equal(t, 0, diags.Len())
}

func TestAssembler_SpeculativeWording(t *testing.T) {
	s1 := th.MustReturn(th.MustInstance("S1", "SO-1", "2023-01-01"), "2023-06-01")
	s2 := th.MustInstance("S2", "SO-2", "2023-06-05")
	link(t, s1, s2)

	chain := NewAssembler(nil).Walk(s1.Key, true, th.BuildInstanceTable(s1, s2), shared.NewDiagnostics(nil))
	require.Len(t, chain.Handoffs, 1)
	assert.Contains(t, chain.Handoffs[0], "potentially replaced by S2")
	assert.True(t, chain.Speculative)
}

func TestAssembler_DetectsInjectedCycle(t *testing.T) {
	a := th.MustInstance("S1", "SO-1", "2023-01-01")
	b := th.MustInstance("S2", "SO-2", "2023-02-01")
	a.ReplacedBy, b.Replaced = b.Key, a.Key
	b.ReplacedBy, a.Replaced = a.Key, b.Key

	diags := shared.NewDiagnostics(nil)
	chain := NewAssembler(nil).Walk(a.Key, false, th.BuildInstanceTable(a, b), diags)

	assert.True(t, chain.Broken)
	assert.Contains(t, chain.Error, "cycle detected")
	assert.Len(t, chain.Keys, 2)
	assert.Equal(t, 1, diags.Count(apperrors.CodeCycleDetected))
}

func TestAssembler_DanglingLink(t *testing.T) {
	a := th.MustInstance("S1", "SO-1", "2023-01-01")
	a.ReplacedBy = th.Key("S404", "SO-404")

	diags := shared.NewDiagnostics(nil)
	chain := NewAssembler(nil).Walk(a.Key, false, th.BuildInstanceTable(a), diags)

	assert.True(t, chain.Broken)
	assert.Equal(t, []entities.InstanceKey{a.Key}, chain.Keys)
	assert.Equal(t, 1, diags.Count(apperrors.CodeDataIntegrity))
}

func TestAssembler_CohortChainsCountsInField(t *testing.T) {
	m1 := th.MustInstance("S1", "SO-C1", "2023-01-01")
	m2 := th.MustInstance("S2", "SO-C1", "2023-01-01")
	m3 := th.MustInstance("S3", "SO-C1", "2023-01-01")
	cohort := th.MustCohort("SO-C1", "2023-01-01", entities.OneYear, m3, m1, m2)
	th.MustReturn(m2, "2023-03-01")
	replacement := th.MustInstance("S7", "SO-7", "2023-03-02")
	link(t, m2, replacement)
	th.MustReturn(m3, "2023-04-01")

	chains := NewAssembler(nil).CohortChains(cohort, th.BuildInstanceTable(m1, m2, m3, replacement), shared.NewDiagnostics(nil))

	require.Len(t, chains, 3)
	assert.Equal(t, m1.Key, chains[0].Starter())
	assert.Equal(t, replacement.Key, chains[1].Final())
	assert.Equal(t, entities.ReturnedNoReplacementFound, chains[2].FinalStatus)
	assert.Equal(t, 2, cohort.ValidatedInFieldCount)
}
