package memory

import (
	"fmt"

	"github.com/vsinha/lineage/pkg/domain/entities"
	"github.com/vsinha/lineage/pkg/domain/repositories"
	"github.com/vsinha/lineage/pkg/domain/services"
)

// InstanceRepository provides in-memory shipment instance storage.
// It is not safe for concurrent use.
type InstanceRepository struct {
	instances  []*entities.ShipmentInstance
	byKey      map[entities.InstanceKey]int
	bySerial   map[string][]int
	comparator *services.SerialComparator
}

// NewInstanceRepository creates a new in-memory instance repository
func NewInstanceRepository(expectedInstances int) *InstanceRepository {
	return &InstanceRepository{
		instances:  make([]*entities.ShipmentInstance, 0, expectedInstances),
		byKey:      make(map[entities.InstanceKey]int, expectedInstances),
		bySerial:   make(map[string][]int, expectedInstances),
		comparator: services.NewSerialComparator(),
	}
}

// Verify interface compliance
var _ repositories.InstanceRepository = (*InstanceRepository)(nil)

// LoadInstances loads instances into the repository, stopping at the first duplicate
func (r *InstanceRepository) LoadInstances(instances []*entities.ShipmentInstance) error {
	for _, inst := range instances {
		if err := r.Add(inst); err != nil {
			return err
		}
	}
	return nil
}

// Add stores an instance; a second instance with the same key is rejected
func (r *InstanceRepository) Add(instance *entities.ShipmentInstance) error {
	if instance == nil {
		return fmt.Errorf("cannot add nil instance")
	}
	if _, exists := r.byKey[instance.Key]; exists {
		return fmt.Errorf("duplicate instance key: %s", instance.Key)
	}
	idx := len(r.instances)
	r.instances = append(r.instances, instance)
	r.byKey[instance.Key] = idx
	r.bySerial[instance.Key.Serial] = append(r.bySerial[instance.Key.Serial], idx)
	return nil
}

// Get returns the instance stored under key
func (r *InstanceRepository) Get(key entities.InstanceKey) (*entities.ShipmentInstance, bool) {
	idx, exists := r.byKey[key]
	if !exists {
		return nil, false
	}
	return r.instances[idx], true
}

// All returns every instance ordered by key
func (r *InstanceRepository) All() []*entities.ShipmentInstance {
	all := make([]*entities.ShipmentInstance, len(r.instances))
	copy(all, r.instances)
	sortByKey(r.comparator, all)
	return all
}

// BySerial returns every shipment of a serial in FIFO order
func (r *InstanceRepository) BySerial(serial string) []*entities.ShipmentInstance {
	indexes := r.bySerial[serial]
	shipments := make([]*entities.ShipmentInstance, 0, len(indexes))
	for _, idx := range indexes {
		shipments = append(shipments, r.instances[idx])
	}
	r.comparator.SortByShipDate(shipments)
	return shipments
}

// Len returns the number of stored instances
func (r *InstanceRepository) Len() int {
	return len(r.instances)
}

func sortByKey(sc *services.SerialComparator, instances []*entities.ShipmentInstance) {
	keys := make([]entities.InstanceKey, len(instances))
	byKey := make(map[entities.InstanceKey]*entities.ShipmentInstance, len(instances))
	for i, inst := range instances {
		keys[i] = inst.Key
		byKey[inst.Key] = inst
	}
	sc.SortKeys(keys)
	for i, key := range keys {
		instances[i] = byKey[key]
	}
}
