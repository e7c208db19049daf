package memory

import (
	"fmt"
	"sort"

	"github.com/vsinha/lineage/pkg/domain/entities"
	"github.com/vsinha/lineage/pkg/domain/repositories"
)

// CohortRepository provides in-memory cohort storage
type CohortRepository struct {
	cohorts    []*entities.Cohort
	cohortsMap map[entities.OrderID]int
}

// NewCohortRepository creates a new in-memory cohort repository
func NewCohortRepository(expectedCohorts int) *CohortRepository {
	return &CohortRepository{
		cohorts:    make([]*entities.Cohort, 0, expectedCohorts),
		cohortsMap: make(map[entities.OrderID]int, expectedCohorts),
	}
}

// Verify interface compliance
var _ repositories.CohortRepository = (*CohortRepository)(nil)

// Add stores a cohort; cohorts are created once and never replaced
func (r *CohortRepository) Add(cohort *entities.Cohort) error {
	if cohort == nil {
		return fmt.Errorf("cannot add nil cohort")
	}
	if _, exists := r.cohortsMap[cohort.OrderID]; exists {
		return fmt.Errorf("cohort already exists: %s", cohort.OrderID)
	}
	r.cohortsMap[cohort.OrderID] = len(r.cohorts)
	r.cohorts = append(r.cohorts, cohort)
	return nil
}

// Get returns the cohort created by an agreement order
func (r *CohortRepository) Get(orderID entities.OrderID) (*entities.Cohort, bool) {
	index, exists := r.cohortsMap[orderID]
	if !exists {
		return nil, false
	}
	return r.cohorts[index], true
}

// All returns cohorts ordered by start date (undated last), then order id
func (r *CohortRepository) All() []*entities.Cohort {
	all := make([]*entities.Cohort, len(r.cohorts))
	copy(all, r.cohorts)
	sort.SliceStable(all, func(i, j int) bool {
		a, b := all[i], all[j]
		if a.StartDate.IsZero() != b.StartDate.IsZero() {
			return !a.StartDate.IsZero()
		}
		if !a.StartDate.Equal(b.StartDate) {
			return a.StartDate.Before(b.StartDate)
		}
		return a.OrderID < b.OrderID
	})
	return all
}

// Len returns the number of cohorts
func (r *CohortRepository) Len() int {
	return len(r.cohorts)
}
