package events

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vsinha/lineage/pkg/domain/entities"
)

func TestInMemoryEventStore_SequencesAndVersions(t *testing.T) {
	store := NewInMemoryEventStore()

	require.NoError(t, store.AppendEvent("a", NewEvent("x", "", 1)))
	require.NoError(t, store.AppendEvent("b", NewEvent("x", "", 2)))
	require.NoError(t, store.AppendEvent("a", NewEvent("y", "", 3)))
	assert.Error(t, store.AppendEvent("", NewEvent("x", "", 4)))

	all, err := store.ReadAllEvents(0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, 1, all[0].Version())
	assert.Equal(t, 1, all[1].Version())
	assert.Equal(t, 2, all[2].Version())
	assert.Equal(t, 3, all[2].Sequence())
	assert.Equal(t, 3, all[2].Data())

	tail, err := store.ReadAllEvents(1)
	require.NoError(t, err)
	require.Len(t, tail, 2)
	assert.Equal(t, "b", tail[0].StreamID())

	none, err := store.ReadAllEvents(5)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestJournal_SkipsUnchangedStatus(t *testing.T) {
	journal := NewJournal(nil)
	key := entities.InstanceKey{Serial: "S1", OrderID: "SO-1", PackageID: "PKG-1"}

	require.NoError(t, journal.StatusChanged(key, entities.InField, entities.ReturnedReplaced, "SO-1"))
	require.NoError(t, journal.StatusChanged(key, entities.InField, entities.InField, "SO-1"))

	events := journal.Events()
	require.Len(t, events, 1)
	assert.Equal(t, InstanceStatusEvent, events[0].Type())
}

func TestJournal_NilIsNoop(t *testing.T) {
	var journal *Journal
	assert.NoError(t, journal.CohortFailed("SO-1", "x"))
	assert.Nil(t, journal.Events())
}

func TestJournal_StreamsByInstance(t *testing.T) {
	journal := NewJournal(nil)
	returned := entities.InstanceKey{Serial: "S1", OrderID: "SO-1", PackageID: "PKG-1"}
	replacement := entities.InstanceKey{Serial: "S2", OrderID: "SO-2", PackageID: "PKG-2"}

	require.NoError(t, journal.Replaced(returned, replacement, "SO-1", entities.EvidenceTimeWindow))

	events := journal.Events()
	require.Len(t, events, 1)
	assert.Equal(t, InstanceStream(returned), events[0].StreamID())
	data, ok := events[0].Data().(InstanceReplaced)
	require.True(t, ok)
	assert.Equal(t, replacement, data.Replacement)
}
