package testing

import (
	"time"

	"github.com/vsinha/lineage/pkg/domain/entities"
	"github.com/vsinha/lineage/pkg/infrastructure/repositories/memory"
)

// DeviceSKU is the SKU instances get unless a test says otherwise
const DeviceSKU entities.SKU = "P313N00"

// Date parses a YYYY-MM-DD date and panics on bad input
func Date(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse(entities.DateLayout, s)
	if err != nil {
		panic(err)
	}
	return t
}

// Key builds the key used by MustInstance for serial in order
func Key(serial, orderID string) entities.InstanceKey {
	return entities.InstanceKey{Serial: serial, OrderID: entities.OrderID(orderID), PackageID: "PKG-" + orderID}
}

// MustInstance creates an in-field device instance shipped on ship ("" for unknown)
func MustInstance(serial, orderID, ship string) *entities.ShipmentInstance {
	return MustInstanceOfSKU(serial, orderID, DeviceSKU, ship)
}

// MustInstanceOfSKU creates an in-field instance of sku
func MustInstanceOfSKU(serial, orderID string, sku entities.SKU, ship string) *entities.ShipmentInstance {
	instance, err := entities.NewShipmentInstance(Key(serial, orderID), sku, Date(ship), 0)
	if err != nil {
		panic(err)
	}
	return instance
}

// MustReturn records a return on instance and marks it provisionally unreplaced
func MustReturn(instance *entities.ShipmentInstance, date string) *entities.ShipmentInstance {
	if err := instance.RecordReturn(Date(date), "RMA-"+instance.Key.Serial, "R-"+instance.Key.Serial); err != nil {
		panic(err)
	}
	if err := instance.TransitionTo(entities.ReturnedNoReplacementFound); err != nil {
		panic(err)
	}
	return instance
}

// MustCohort creates a cohort over members with the default capacity rules
func MustCohort(orderID, start string, length entities.AgreementLength, members ...*entities.ShipmentInstance) *entities.Cohort {
	keys := make([]entities.InstanceKey, len(members))
	for i, member := range members {
		keys[i] = member.Key
	}
	source := entities.StartFromShipments
	if start == "" {
		source = entities.StartUnknown
	}
	cohort, err := entities.NewCohort(entities.OrderID(orderID), Date(start), source, length, keys, 4, 60)
	if err != nil {
		panic(err)
	}
	for _, member := range members {
		if err := member.AssignCohort(cohort.OrderID); err != nil {
			panic(err)
		}
		member.OriginalCohortID = cohort.OrderID
	}
	return cohort
}

// BuildInstanceTable loads instances into a fresh in-memory table
func BuildInstanceTable(instances ...*entities.ShipmentInstance) *memory.InstanceRepository {
	repo := memory.NewInstanceRepository(len(instances))
	if err := repo.LoadInstances(instances); err != nil {
		panic(err)
	}
	return repo
}

// BuildCohortTable loads cohorts into a fresh in-memory table
func BuildCohortTable(cohorts ...*entities.Cohort) *memory.CohortRepository {
	repo := memory.NewCohortRepository(len(cohorts))
	for _, cohort := range cohorts {
		if err := repo.Add(cohort); err != nil {
			panic(err)
		}
	}
	return repo
}
