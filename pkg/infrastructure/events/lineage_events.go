package events

import (
	"github.com/vsinha/lineage/pkg/domain/entities"
)

const (
	CohortCreatedEvent = "cohort.created"
	CohortFailedEvent  = "cohort.failed"

	InstanceReturnedEvent = "instance.returned"
	InstanceStatusEvent   = "instance.status_changed"
	InstanceReplacedEvent = "instance.replaced"

	OrphanChainAssignedEvent = "orphan.assigned"
)

type CohortCreated struct {
	OrderID       entities.OrderID `json:"order_id"`
	CapacityTotal int              `json:"capacity_total"`
	Members       int              `json:"members"`
}

type CohortFailed struct {
	OrderID entities.OrderID `json:"order_id"`
	Reason  string           `json:"reason"`
}

type InstanceReturned struct {
	Key       entities.InstanceKey `json:"key"`
	RMAID     string               `json:"rma_id"`
	ReceiptID string               `json:"receipt_id"`
}

type InstanceStatusChanged struct {
	Key    entities.InstanceKey    `json:"key"`
	From   entities.InstanceStatus `json:"from"`
	To     entities.InstanceStatus `json:"to"`
	Cohort entities.OrderID        `json:"cohort,omitempty"`
}

type InstanceReplaced struct {
	Returned    entities.InstanceKey  `json:"returned"`
	Replacement entities.InstanceKey  `json:"replacement"`
	Cohort      entities.OrderID      `json:"cohort,omitempty"`
	Evidence    entities.LinkEvidence `json:"evidence"`
}

type OrphanChainAssigned struct {
	Starter entities.InstanceKey      `json:"starter"`
	Cohort  entities.OrderID          `json:"cohort"`
	Reason  entities.AssignmentReason `json:"reason"`
}

// InstanceStream is the stream id used for events about one instance
func InstanceStream(key entities.InstanceKey) string {
	return "instance:" + key.String()
}

// CohortStream is the stream id used for events about one cohort
func CohortStream(orderID entities.OrderID) string {
	return "cohort:" + string(orderID)
}
