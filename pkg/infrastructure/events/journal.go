package events

import (
	"github.com/vsinha/lineage/pkg/domain/entities"
)

// Journal appends typed lineage events to a store. A nil Journal drops events.
type Journal struct {
	store EventStore
}

// NewJournal creates a journal over store, or over a fresh in-memory store
func NewJournal(store EventStore) *Journal {
	if store == nil {
		store = NewInMemoryEventStore()
	}
	return &Journal{store: store}
}

func (j *Journal) CohortCreated(cohort *entities.Cohort) error {
	if j == nil {
		return nil
	}
	return j.store.AppendEvent(CohortStream(cohort.OrderID), NewEvent(CohortCreatedEvent, "", CohortCreated{
		OrderID:       cohort.OrderID,
		CapacityTotal: cohort.CapacityTotal,
		Members:       len(cohort.MemberKeys),
	}))
}

func (j *Journal) CohortFailed(orderID entities.OrderID, reason string) error {
	if j == nil {
		return nil
	}
	return j.store.AppendEvent(CohortStream(orderID), NewEvent(CohortFailedEvent, "", CohortFailed{
		OrderID: orderID,
		Reason:  reason,
	}))
}

func (j *Journal) Returned(instance *entities.ShipmentInstance) error {
	if j == nil {
		return nil
	}
	return j.store.AppendEvent(InstanceStream(instance.Key), NewEvent(InstanceReturnedEvent, "", InstanceReturned{
		Key:       instance.Key,
		RMAID:     instance.RMAID,
		ReceiptID: instance.ReceiptID,
	}))
}

func (j *Journal) StatusChanged(key entities.InstanceKey, from, to entities.InstanceStatus, cohort entities.OrderID) error {
	if j == nil || from == to {
		return nil
	}
	return j.store.AppendEvent(InstanceStream(key), NewEvent(InstanceStatusEvent, "", InstanceStatusChanged{
		Key:    key,
		From:   from,
		To:     to,
		Cohort: cohort,
	}))
}

func (j *Journal) Replaced(returned, replacement entities.InstanceKey, cohort entities.OrderID, evidence entities.LinkEvidence) error {
	if j == nil {
		return nil
	}
	return j.store.AppendEvent(InstanceStream(returned), NewEvent(InstanceReplacedEvent, "", InstanceReplaced{
		Returned:    returned,
		Replacement: replacement,
		Cohort:      cohort,
		Evidence:    evidence,
	}))
}

func (j *Journal) OrphanAssigned(chain entities.OrphanChain) error {
	if j == nil {
		return nil
	}
	return j.store.AppendEvent(InstanceStream(chain.Starter()), NewEvent(OrphanChainAssignedEvent, "", OrphanChainAssigned{
		Starter: chain.Starter(),
		Cohort:  chain.AssignedCohort,
		Reason:  chain.Reason,
	}))
}

// Events returns every journaled event in append order
func (j *Journal) Events() []Event {
	if j == nil {
		return nil
	}
	all, _ := j.store.ReadAllEvents(0)
	return all
}
