package matching

import (
	"time"

	"github.com/vsinha/lineage/pkg/domain/entities"
	"github.com/vsinha/lineage/pkg/domain/services"
)

// Window bounds how far a replacement shipment may sit from a return.
// The first hop of a chain accepts [return-grace, return+days]; later hops
// accept [return+1, return+days] unless GraceAllHops is set.
type Window struct {
	Days         int
	GraceDays    int
	GraceAllHops bool
}

// Bounds returns the inclusive ship-date range for a return on returnDate
func (w Window) Bounds(returnDate time.Time, firstHop bool) (time.Time, time.Time) {
	from := returnDate.AddDate(0, 0, 1)
	if firstHop || w.GraceAllHops {
		from = returnDate.AddDate(0, 0, -w.GraceDays)
	}
	return from, returnDate.AddDate(0, 0, w.Days)
}

// Feasible reports whether candidate may replace returned
func (w Window) Feasible(returned, candidate *entities.ShipmentInstance, firstHop bool) bool {
	if !returned.HasReturnDate() || !candidate.HasShipDate() {
		return false
	}
	if returned.SKU != candidate.SKU || returned.Key.Serial == candidate.Key.Serial {
		return false
	}
	from, to := w.Bounds(returned.ReturnDate, firstHop)
	return !candidate.ShipDate.Before(from) && !candidate.ShipDate.After(to)
}

// Gap returns the signed days from the return to the replacement shipment
func Gap(returned, candidate *entities.ShipmentInstance) int {
	return services.DaysBetween(returned.ReturnDate, candidate.ShipDate)
}
