package orphan

import (
	"context"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/vsinha/lineage/pkg/application/dto"
	"github.com/vsinha/lineage/pkg/application/services/chain"
	"github.com/vsinha/lineage/pkg/application/services/matching"
	"github.com/vsinha/lineage/pkg/application/services/shared"
	"github.com/vsinha/lineage/pkg/domain/entities"
	"github.com/vsinha/lineage/pkg/domain/repositories"
	"github.com/vsinha/lineage/pkg/domain/services"
	"github.com/vsinha/lineage/pkg/infrastructure/events"
)

// Builder links instances that belong to no cohort into speculative chains.
// Explicit references in order free text are applied first; the remaining
// returns go through the window matcher.
type Builder struct {
	matcher    matching.Matcher
	assembler  *chain.Assembler
	comparator *services.SerialComparator
	logger     *zap.Logger
}

// NewBuilder creates an orphan chain builder
func NewBuilder(matcher matching.Matcher, assembler *chain.Assembler, logger *zap.Logger) *Builder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Builder{
		matcher:    matcher,
		assembler:  assembler,
		comparator: services.NewSerialComparator(),
		logger:     logger,
	}
}

// Build links orphan returns to orphan shipments and returns one chain per
// orphan that has no predecessor, in FIFO order of the chain starter
func (b *Builder) Build(
	ctx context.Context,
	instances repositories.InstanceRepository,
	agreementOrders map[entities.OrderID]bool,
	freeText map[entities.OrderID]dto.FreeText,
	diags *shared.Diagnostics,
	journal *events.Journal,
) ([]entities.OrphanChain, error) {
	orphans := b.orphans(instances, agreementOrders)
	evidence := make(map[entities.InstanceKey]entities.LinkEvidence)

	explicit := b.linkExplicit(orphans, instances, freeText, evidence, diags, journal)

	pairs, err := b.matcher.Match(ctx, openReturns(orphans), orphans)
	if err != nil {
		return nil, err
	}
	windowed := 0
	for _, pair := range pairs {
		returned, okR := instances.Get(pair.Returned)
		replacement, okC := instances.Get(pair.Replacement)
		if !okR || !okC {
			diags.DataIntegrity(pair.Returned, "", "matcher proposed unknown instance %s", pair.Replacement)
			continue
		}
		if b.commit(returned, replacement, entities.EvidenceTimeWindow, instances, evidence, diags, journal) {
			windowed++
		}
	}

	var chains []entities.OrphanChain
	for _, instance := range orphans {
		if !instance.Replaced.IsZero() {
			continue
		}
		walked := b.assembler.Walk(instance.Key, true, instances, diags)
		oc := entities.OrphanChain{Chain: walked}
		for i := 0; i+1 < len(walked.Keys); i++ {
			oc.Evidence = append(oc.Evidence, evidence[walked.Keys[i]])
		}
		chains = append(chains, oc)
	}

	b.logger.Info("orphan chains built",
		zap.String("matcher", b.matcher.Name()),
		zap.Int("orphans", len(orphans)),
		zap.Int("explicit_links", explicit),
		zap.Int("window_links", windowed),
		zap.Int("chains", len(chains)),
	)
	return chains, nil
}

// orphans returns every instance outside any cohort and outside agreement
// orders, FIFO
func (b *Builder) orphans(instances repositories.InstanceRepository, agreementOrders map[entities.OrderID]bool) []*entities.ShipmentInstance {
	var orphans []*entities.ShipmentInstance
	for _, instance := range instances.All() {
		if instance.IsOrphan() && !agreementOrders[instance.Key.OrderID] {
			orphans = append(orphans, instance)
		}
	}
	b.comparator.SortByShipDate(orphans)
	return orphans
}

func openReturns(orphans []*entities.ShipmentInstance) []*entities.ShipmentInstance {
	var open []*entities.ShipmentInstance
	for _, instance := range orphans {
		if instance.HasReturnDate() && instance.ReplacedBy.IsZero() {
			open = append(open, instance)
		}
	}
	return open
}

// linkExplicit proposes, for every open return, the candidates whose order
// free text names the returned serial or its RMA, then commits the first
// usable proposal per return in return-date order. Text evidence ignores the
// replacement window but a candidate never ships before the returned unit.
func (b *Builder) linkExplicit(
	orphans []*entities.ShipmentInstance,
	instances repositories.InstanceRepository,
	freeText map[entities.OrderID]dto.FreeText,
	evidence map[entities.InstanceKey]entities.LinkEvidence,
	diags *shared.Diagnostics,
	journal *events.Journal,
) int {
	rows := openReturns(orphans)
	b.comparator.SortByReturnDate(rows)

	proposals := make([][]*entities.ShipmentInstance, len(rows))
	for i, row := range rows {
		pattern := referencePattern(row)
		for _, candidate := range orphans {
			if !candidate.HasShipDate() || !candidate.Replaced.IsZero() {
				continue
			}
			if candidate.SKU != row.SKU || candidate.Key.Serial == row.Key.Serial {
				continue
			}
			if row.HasShipDate() && candidate.ShipDate.Before(row.ShipDate) {
				continue
			}
			if mentions(pattern, freeText[candidate.Key.OrderID]) {
				proposals[i] = append(proposals[i], candidate)
			}
		}
	}

	linked := 0
	for i, row := range rows {
		for _, candidate := range proposals[i] {
			if b.commit(row, candidate, entities.EvidenceExplicitText, instances, evidence, diags, journal) {
				linked++
				break
			}
		}
	}
	return linked
}

// referencePattern matches the returned serial or its RMA id as a whole word
func referencePattern(returned *entities.ShipmentInstance) *regexp.Regexp {
	terms := []string{regexp.QuoteMeta(returned.Key.Serial)}
	if rma := strings.TrimSpace(returned.RMAID); rma != "" {
		terms = append(terms, regexp.QuoteMeta(rma))
	}
	return regexp.MustCompile(`(?i)\b(?:` + strings.Join(terms, "|") + `)\b`)
}

func mentions(pattern *regexp.Regexp, text dto.FreeText) bool {
	for _, field := range text.Fields() {
		if pattern.MatchString(field) {
			return true
		}
	}
	return false
}

// commit links returned to replacement when both sides are still free and the
// link does not close a loop
func (b *Builder) commit(
	returned, replacement *entities.ShipmentInstance,
	ev entities.LinkEvidence,
	instances repositories.InstanceRepository,
	evidence map[entities.InstanceKey]entities.LinkEvidence,
	diags *shared.Diagnostics,
	journal *events.Journal,
) bool {
	if !returned.ReplacedBy.IsZero() || !replacement.Replaced.IsZero() {
		return false
	}
	if reaches(replacement, returned.Key, instances) {
		b.logger.Debug("skipping link that would close a loop",
			zap.Stringer("returned", returned.Key),
			zap.Stringer("replacement", replacement.Key),
		)
		return false
	}
	if err := entities.LinkReplacement(returned, replacement); err != nil {
		diags.DataIntegrity(returned.Key, "", "%v", err)
		return false
	}
	evidence[returned.Key] = ev

	from := returned.Status
	if err := returned.TransitionTo(entities.ReturnedReplaced); err != nil {
		diags.DataIntegrity(returned.Key, "", "%v", err)
	} else if err := journal.StatusChanged(returned.Key, from, returned.Status, ""); err != nil {
		diags.Record(err, returned.Key, "")
	}
	if err := journal.Replaced(returned.Key, replacement.Key, "", ev); err != nil {
		diags.Record(err, returned.Key, "")
	}
	return true
}

// reaches reports whether target lies on the forward path starting at from
func reaches(from *entities.ShipmentInstance, target entities.InstanceKey, instances repositories.InstanceRepository) bool {
	visited := shared.NewKeySet()
	current := from
	for current != nil && visited.Add(current.Key) {
		if current.Key == target {
			return true
		}
		if current.ReplacedBy.IsZero() {
			return false
		}
		next, ok := instances.Get(current.ReplacedBy)
		if !ok {
			return false
		}
		current = next
	}
	return false
}
