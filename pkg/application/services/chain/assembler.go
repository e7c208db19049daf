package chain

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/vsinha/lineage/pkg/application/services/shared"
	"github.com/vsinha/lineage/pkg/domain/entities"
	apperrors "github.com/vsinha/lineage/pkg/domain/errors"
	"github.com/vsinha/lineage/pkg/domain/repositories"
	"github.com/vsinha/lineage/pkg/domain/services"
)

// Assembler materializes chains by walking ReplacedBy links
type Assembler struct {
	comparator *services.SerialComparator
	logger     *zap.Logger
}

// NewAssembler creates a chain assembler
func NewAssembler(logger *zap.Logger) *Assembler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Assembler{
		comparator: services.NewSerialComparator(),
		logger:     logger,
	}
}

// Walk follows forward links from start until an instance without a
// replacement. A revisited key or a dangling link stops the walk and marks the
// chain broken instead of looping.
func (a *Assembler) Walk(
	start entities.InstanceKey,
	speculative bool,
	instances repositories.InstanceRepository,
	diags *shared.Diagnostics,
) entities.Chain {
	chain := entities.Chain{Speculative: speculative}
	visited := shared.NewKeySet()

	var previous *entities.ShipmentInstance
	current := start
	for {
		instance, ok := instances.Get(current)
		if !ok {
			chain.Broken = true
			chain.Error = fmt.Sprintf("missing instance %s", current)
			diags.DataIntegrity(current, "", "chain from %s links to an instance that does not exist", start)
			break
		}
		if !visited.Add(current) {
			chain.Broken = true
			chain.Error = fmt.Sprintf("cycle detected at %s", current)
			diags.Record(apperrors.CycleDetected("chain from %s revisits %s", start, current), current, instance.CohortID)
			break
		}

		if previous != nil {
			if instance.Replaced != previous.Key {
				diags.DataIntegrity(current, instance.CohortID, "backward link %s disagrees with %s", instance.Replaced, previous.Key)
			}
			if instance.SKU != previous.SKU {
				diags.DataIntegrity(current, instance.CohortID, "sku changes mid-chain from %s to %s", previous.SKU, instance.SKU)
			}
			chain.Handoffs = append(chain.Handoffs, Handoff(previous, instance, speculative))
		}

		chain.Keys = append(chain.Keys, current)
		chain.FinalStatus = instance.Status
		if instance.ReplacedBy.IsZero() {
			break
		}
		previous = instance
		current = instance.ReplacedBy
	}

	if chain.Broken {
		a.logger.Warn("chain walk stopped",
			zap.Stringer("start", start),
			zap.String("reason", chain.Error),
		)
	}
	return chain
}

// CohortChains walks one chain per cohort member in key order and records how
// many of them are still in field
func (a *Assembler) CohortChains(
	cohort *entities.Cohort,
	instances repositories.InstanceRepository,
	diags *shared.Diagnostics,
) []entities.Chain {
	members := make([]entities.InstanceKey, len(cohort.MemberKeys))
	copy(members, cohort.MemberKeys)
	a.comparator.SortKeys(members)

	chains := make([]entities.Chain, 0, len(members))
	inField := 0
	for _, key := range members {
		chain := a.Walk(key, false, instances, diags)
		if !chain.Broken && chain.FinalStatus == entities.InField {
			inField++
		}
		chains = append(chains, chain)
	}
	cohort.ValidatedInFieldCount = inField
	return chains
}

// Handoff describes one transition between consecutive chain members
func Handoff(returned, replacement *entities.ShipmentInstance, speculative bool) string {
	verb := "replaced by"
	if speculative {
		verb = "potentially replaced by"
	}
	return fmt.Sprintf("Returned %s on %s, %s %s shipped %s",
		returned.Key.Serial,
		services.FormatDate(returned.ReturnDate),
		verb,
		replacement.Key.Serial,
		services.FormatDate(replacement.ShipDate),
	)
}
