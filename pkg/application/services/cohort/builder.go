package cohort

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/vsinha/lineage/pkg/application/dto"
	"github.com/vsinha/lineage/pkg/application/services/shared"
	"github.com/vsinha/lineage/pkg/domain/entities"
	"github.com/vsinha/lineage/pkg/domain/repositories"
	"github.com/vsinha/lineage/pkg/domain/services"
	"github.com/vsinha/lineage/pkg/infrastructure/events"
)

// Pricing accumulates the paid device line items of an agreement order
type Pricing struct {
	Cost     decimal.Decimal
	Quantity int64
}

// Add folds another order's pricing into p
func (p Pricing) Add(other Pricing) Pricing {
	return Pricing{Cost: p.Cost.Add(other.Cost), Quantity: p.Quantity + other.Quantity}
}

// Average returns the mean unit price, or zero when nothing was paid for
func (p Pricing) Average() decimal.Decimal {
	if p.Quantity == 0 {
		return decimal.Zero
	}
	return p.Cost.Div(decimal.NewFromInt(p.Quantity)).Round(2)
}

// Result is what the builder derived from the raw input besides the
// instance and cohort tables it filled
type Result struct {
	AgreementOrders map[entities.OrderID]bool
	FreeText        map[entities.OrderID]dto.FreeText
	Pricing         map[entities.OrderID]Pricing
	Returns         []*entities.ReturnEvent // by date, then input order
	LatestEventDate time.Time
}

// Builder registers shipment instances and creates agreement cohorts
type Builder struct {
	agreement AgreementConfig
	targets   map[entities.SKU]bool
	detector  *services.AgreementDetector
	logger    *zap.Logger
}

// NewBuilder creates a cohort builder
func NewBuilder(agreement AgreementConfig, tracking TrackingConfig, logger *zap.Logger) *Builder {
	if logger == nil {
		logger = zap.NewNop()
	}
	targets := make(map[entities.SKU]bool, len(tracking.TargetSKUs))
	for _, sku := range tracking.TargetSKUs {
		if sku = strings.TrimSpace(sku); sku != "" {
			targets[entities.SKU(sku)] = true
		}
	}
	return &Builder{
		agreement: agreement,
		targets:   targets,
		detector:  services.NewAgreementDetector(agreement.SKUKeywords, agreement.NameKeywords),
		logger:    logger,
	}
}

// Build fills instances and cohorts from input. Data problems are recorded in
// diags and never abort the build; only a cancelled context does.
func (b *Builder) Build(
	ctx context.Context,
	input dto.BatchInput,
	instances repositories.InstanceRepository,
	cohorts repositories.CohortRepository,
	diags *shared.Diagnostics,
	journal *events.Journal,
) (*Result, error) {
	result := &Result{
		AgreementOrders: make(map[entities.OrderID]bool),
		FreeText:        make(map[entities.OrderID]dto.FreeText),
		Pricing:         make(map[entities.OrderID]Pricing),
	}

	orderInstances, err := b.registerInstances(ctx, input.Orders, instances, diags, result)
	if err != nil {
		return nil, err
	}

	considered := make(map[entities.OrderID]bool, len(orderInstances))
	for _, order := range input.Orders {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		orderID := entities.OrderID(strings.TrimSpace(order.OrderID))
		if _, registered := orderInstances[orderID]; !registered || considered[orderID] {
			continue
		}
		considered[orderID] = true
		if !b.detector.HasAgreement(agreementLines(order)) {
			continue
		}
		result.AgreementOrders[orderID] = true
		b.createCohort(order, orderID, orderInstances[orderID], instances, cohorts, diags, journal, result)
	}

	b.recordMembershipHistory(instances, cohorts)

	result.Returns = b.collectReturns(input.Returns, diags, result)

	b.logger.Info("cohorts built",
		zap.Int("instances", instances.Len()),
		zap.Int("cohorts", cohorts.Len()),
		zap.Int("returns", len(result.Returns)),
	)
	return result, nil
}

func (b *Builder) tracks(sku entities.SKU) bool {
	return len(b.targets) == 0 || b.targets[sku]
}

func (b *Builder) registerInstances(
	ctx context.Context,
	orders []dto.OrderInput,
	instances repositories.InstanceRepository,
	diags *shared.Diagnostics,
	result *Result,
) (map[entities.OrderID][]entities.InstanceKey, error) {
	orderInstances := make(map[entities.OrderID][]entities.InstanceKey, len(orders))
	seq := 0

	for _, order := range orders {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		orderID := entities.OrderID(strings.TrimSpace(order.OrderID))
		if orderID == "" {
			diags.DataIntegrity(entities.InstanceKey{}, "", "order without an id skipped")
			continue
		}
		if _, seen := orderInstances[orderID]; seen {
			diags.DataIntegrity(entities.InstanceKey{}, orderID, "order %s appears more than once; later copy ignored", orderID)
			continue
		}
		orderInstances[orderID] = nil
		result.FreeText[orderID] = order.FreeText
		if orderDate, err := services.ParseFlexibleDate(order.Date); err == nil {
			result.observe(orderDate)
		}

		for _, pkg := range order.Packages {
			shipDate, dateErr := packageDate(pkg)
			for _, line := range pkg.LineItems {
				sku := entities.SKU(strings.TrimSpace(line.SKU))
				if sku == "" || !b.tracks(sku) {
					continue
				}
				for _, serial := range line.Serials {
					key, err := entities.NewInstanceKey(serial, orderID, pkg.PackageID)
					if err != nil {
						diags.DataIntegrity(entities.InstanceKey{}, orderID, "package %s: %v", pkg.PackageID, err)
						continue
					}
					instance, err := entities.NewShipmentInstance(key, sku, shipDate, seq)
					if err != nil {
						diags.DataIntegrity(key, "", "%v", err)
						continue
					}
					if err := instances.Add(instance); err != nil {
						diags.DataIntegrity(key, "", "%v", err)
						continue
					}
					seq++
					orderInstances[orderID] = append(orderInstances[orderID], key)
					if dateErr != nil {
						diags.Record(dateErr, key, "")
					} else {
						result.observe(shipDate)
					}
				}
			}
		}
	}
	return orderInstances, nil
}

// packageDate prefers the delivery date and falls back to the ship date
func packageDate(pkg dto.PackageInput) (time.Time, error) {
	if delivered, err := services.ParseFlexibleDate(pkg.DeliveryDate); err == nil {
		return delivered, nil
	}
	return services.ParseFlexibleDate(pkg.ShipDate)
}

func agreementLines(order dto.OrderInput) []services.AgreementLine {
	lines := make([]services.AgreementLine, len(order.LineItems))
	for i, item := range order.LineItems {
		lines[i] = services.AgreementLine{SKU: item.SKU, Name: item.Name}
	}
	return lines
}

func (b *Builder) createCohort(
	order dto.OrderInput,
	orderID entities.OrderID,
	memberKeys []entities.InstanceKey,
	instances repositories.InstanceRepository,
	cohorts repositories.CohortRepository,
	diags *shared.Diagnostics,
	journal *events.Journal,
	result *Result,
) {
	if len(memberKeys) == 0 {
		diags.DataIntegrity(entities.InstanceKey{}, orderID, "agreement order %s shipped no tracked instances", orderID)
		return
	}

	length := b.detector.DetectLength(agreementLines(order))
	if length == entities.LengthUnknown {
		diags.DataIntegrity(entities.InstanceKey{}, orderID, "agreement length of %s could not be determined", orderID)
	}

	start, source := b.startDate(order, memberKeys, instances)
	if source == entities.StartUnknown {
		diags.MissingDate(entities.InstanceKey{}, orderID, "cohort %s has no shipment or order date", orderID)
	}

	cohort, err := entities.NewCohort(orderID, start, source, length, memberKeys, b.agreement.CapacityPerMember, b.agreement.WarningDays)
	if err != nil {
		diags.DataIntegrity(entities.InstanceKey{}, orderID, "%v", err)
		return
	}
	if err := cohorts.Add(cohort); err != nil {
		diags.DataIntegrity(entities.InstanceKey{}, orderID, "%v", err)
		return
	}

	for _, key := range cohort.MemberKeys {
		instance, ok := instances.Get(key)
		if !ok {
			diags.DataIntegrity(key, orderID, "member instance missing from instance table")
			continue
		}
		if err := instance.AssignCohort(orderID); err != nil {
			diags.DataIntegrity(key, orderID, "%v", err)
		}
	}

	pricing := Pricing{Cost: decimal.Zero}
	memberSKUs := make(map[entities.SKU]bool)
	for _, key := range cohort.MemberKeys {
		if instance, ok := instances.Get(key); ok {
			memberSKUs[instance.SKU] = true
		}
	}
	for _, item := range order.LineItems {
		sku := entities.SKU(strings.TrimSpace(item.SKU))
		if !memberSKUs[sku] || !item.Rate.IsPositive() || item.Quantity <= 0 {
			continue
		}
		qty := int64(item.Quantity)
		pricing.Cost = pricing.Cost.Add(item.Rate.Mul(decimal.NewFromInt(qty)))
		pricing.Quantity += qty
	}
	result.Pricing[orderID] = pricing

	if err := journal.CohortCreated(cohort); err != nil {
		diags.Record(err, entities.InstanceKey{}, orderID)
	}

	b.logger.Debug("cohort created",
		zap.String("cohort", string(orderID)),
		zap.String("start", services.FormatDate(cohort.StartDate)),
		zap.Stringer("length", cohort.Length),
		zap.Int("capacity", cohort.CapacityTotal),
	)
}

// startDate is the earliest member ship date, else the order date
func (b *Builder) startDate(
	order dto.OrderInput,
	memberKeys []entities.InstanceKey,
	instances repositories.InstanceRepository,
) (time.Time, entities.StartSource) {
	var earliest time.Time
	for _, key := range memberKeys {
		instance, ok := instances.Get(key)
		if !ok || !instance.HasShipDate() {
			continue
		}
		if earliest.IsZero() || instance.ShipDate.Before(earliest) {
			earliest = instance.ShipDate
		}
	}
	if !earliest.IsZero() {
		return earliest, entities.StartFromShipments
	}
	if orderDate, err := services.ParseFlexibleDate(order.Date); err == nil {
		return orderDate, entities.StartFromOrderDate
	}
	return time.Time{}, entities.StartUnknown
}

// recordMembershipHistory stamps every instance with the first cohort its serial
// joined. Members carry their own cohort; other shipments of the serial inherit
// the first cohort when they were shipped on or after the member shipment.
func (b *Builder) recordMembershipHistory(instances repositories.InstanceRepository, cohorts repositories.CohortRepository) {
	type membership struct {
		cohort   entities.OrderID
		shipDate time.Time
	}
	first := make(map[string]membership)

	for _, cohort := range cohorts.All() {
		for _, key := range cohort.MemberKeys {
			instance, ok := instances.Get(key)
			if !ok {
				continue
			}
			instance.OriginalCohortID = cohort.OrderID
			if _, seen := first[key.Serial]; !seen {
				first[key.Serial] = membership{cohort: cohort.OrderID, shipDate: instance.ShipDate}
			}
		}
	}

	for _, instance := range instances.All() {
		if instance.OriginalCohortID != "" {
			continue
		}
		m, ok := first[instance.Key.Serial]
		if !ok {
			continue
		}
		if m.shipDate.IsZero() || !instance.HasShipDate() || !instance.ShipDate.Before(m.shipDate) {
			instance.OriginalCohortID = m.cohort
		}
	}
}

func (b *Builder) collectReturns(returns []dto.ReturnInput, diags *shared.Diagnostics, result *Result) []*entities.ReturnEvent {
	var collected []*entities.ReturnEvent
	seen := make(map[string]bool)
	seq := 0

	for _, rma := range returns {
		for _, receipt := range rma.Receipts {
			date, dateErr := services.ParseFlexibleDate(receipt.Date)
			for _, line := range receipt.LineItems {
				for _, serial := range line.Serials {
					if dateErr != nil {
						diags.MissingDate(entities.InstanceKey{}, "", "return of %s on %s receipt %s has no usable date", serial, rma.RMAID, receipt.ReceiptID)
						continue
					}
					event, err := entities.NewReturnEvent(serial, rma.RMAID, receipt.ReceiptID, date, seq)
					if err != nil {
						diags.DataIntegrity(entities.InstanceKey{}, "", "%v", err)
						continue
					}
					if seen[event.ID()] {
						diags.DataIntegrity(entities.InstanceKey{}, "", "return %s listed more than once", event.ID())
						continue
					}
					seen[event.ID()] = true
					seq++
					collected = append(collected, event)
					result.observe(date)
				}
			}
		}
	}

	sort.SliceStable(collected, func(i, j int) bool {
		if !collected[i].Date.Equal(collected[j].Date) {
			return collected[i].Date.Before(collected[j].Date)
		}
		return collected[i].Seq < collected[j].Seq
	})
	return collected
}

func (r *Result) observe(date time.Time) {
	if date.After(r.LatestEventDate) {
		r.LatestEventDate = date
	}
}
