package repositories

import "github.com/vsinha/lineage/pkg/domain/entities"

// InstanceRepository is the owned table of shipment instances keyed by
// composite key. Returned slices are freshly allocated and deterministically
// ordered; the instances they point to are the table's own records.
type InstanceRepository interface {
	Get(key entities.InstanceKey) (*entities.ShipmentInstance, bool)
	Add(instance *entities.ShipmentInstance) error
	LoadInstances(instances []*entities.ShipmentInstance) error

	// All returns every instance ordered by key
	All() []*entities.ShipmentInstance

	// BySerial returns every shipment of a serial in FIFO order
	BySerial(serial string) []*entities.ShipmentInstance

	Len() int
}
