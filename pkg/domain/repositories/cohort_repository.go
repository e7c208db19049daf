package repositories

import "github.com/vsinha/lineage/pkg/domain/entities"

// CohortRepository provides access to the cohort table
type CohortRepository interface {
	Get(orderID entities.OrderID) (*entities.Cohort, bool)
	Add(cohort *entities.Cohort) error

	// All returns cohorts ordered by start date (undated last), then order id
	All() []*entities.Cohort

	Len() int
}
