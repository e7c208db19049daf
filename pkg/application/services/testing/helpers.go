package testing

import (
	"github.com/shopspring/decimal"

	"github.com/vsinha/lineage/pkg/application/dto"
)

// DeviceSKU is the serialized device used across lineage test scenarios
const DeviceSKU = "P313N00"

// AgreementSKU is a one-year agreement line item recognized by the default config
const AgreementSKU = "HIFCSA-1YR"

// InputBuilder assembles a BatchInput order by order for tests
type InputBuilder struct {
	input  dto.BatchInput
	orders map[string]int
}

// NewInputBuilder creates an empty builder
func NewInputBuilder() *InputBuilder {
	return &InputBuilder{orders: make(map[string]int)}
}

func (b *InputBuilder) order(orderID, date string) *dto.OrderInput {
	if idx, ok := b.orders[orderID]; ok {
		return &b.input.Orders[idx]
	}
	b.orders[orderID] = len(b.input.Orders)
	b.input.Orders = append(b.input.Orders, dto.OrderInput{OrderID: orderID, Date: date})
	return &b.input.Orders[len(b.input.Orders)-1]
}

// Order adds a plain sales order
func (b *InputBuilder) Order(orderID, date string) *InputBuilder {
	b.order(orderID, date)
	return b
}

// Agreement adds an order carrying an agreement line item named name
func (b *InputBuilder) Agreement(orderID, date, name string) *InputBuilder {
	o := b.order(orderID, date)
	o.LineItems = append(o.LineItems, dto.LineItemInput{
		SKU:      AgreementSKU,
		Name:     name,
		Quantity: 1,
		Rate:     decimal.NewFromInt(2500),
	})
	return b
}

// Priced adds a device line item with a unit rate to an order
func (b *InputBuilder) Priced(orderID, sku string, quantity int, rate string) *InputBuilder {
	o := b.order(orderID, "")
	o.LineItems = append(o.LineItems, dto.LineItemInput{
		SKU:      sku,
		Name:     "Device " + sku,
		Quantity: quantity,
		Rate:     decimal.RequireFromString(rate),
	})
	return b
}

// Ship adds a package of serials shipped on shipDate
func (b *InputBuilder) Ship(orderID, packageID, shipDate, sku string, serials ...string) *InputBuilder {
	o := b.order(orderID, "")
	o.Packages = append(o.Packages, dto.PackageInput{
		PackageID: packageID,
		ShipDate:  shipDate,
		LineItems: []dto.PackageLineInput{{SKU: sku, Serials: serials}},
	})
	return b
}

// Notes sets the free-text notes of an order
func (b *InputBuilder) Notes(orderID, notes string) *InputBuilder {
	b.order(orderID, "").FreeText.Notes = notes
	return b
}

// Return adds an RMA with a single receipt for serials
func (b *InputBuilder) Return(rmaID, date string, serials ...string) *InputBuilder {
	b.input.Returns = append(b.input.Returns, dto.ReturnInput{
		RMAID: rmaID,
		Receipts: []dto.ReceiptInput{{
			ReceiptID: rmaID + "-R1",
			Date:      date,
			LineItems: []dto.ReceiptLineInput{{Serials: serials}},
		}},
	})
	return b
}

// Build returns the assembled input
func (b *InputBuilder) Build() dto.BatchInput {
	return b.input
}

// ReplacementScenario is a one-year cohort whose only member S1 is returned
// and replaced by S2 shipped four days later
func ReplacementScenario() *InputBuilder {
	return NewInputBuilder().
		Agreement("SO-C1", "2023-01-01", "1 Year CSA Prepaid").
		Ship("SO-C1", "PKG-C1", "2023-01-01", DeviceSKU, "S1").
		Ship("SO-2", "PKG-2", "2023-06-05", DeviceSKU, "S2").
		Return("RMA-1", "2023-06-01", "S1")
}

// OutsidePeriodScenario extends the replacement scenario with a return of the
// replacement after the agreement ended
func OutsidePeriodScenario() *InputBuilder {
	return ReplacementScenario().Return("RMA-2", "2024-03-01", "S2")
}

// LoneOrphanScenario is an orphan returned with nothing shipped after it
func LoneOrphanScenario() *InputBuilder {
	return NewInputBuilder().
		Order("SO-9", "2023-02-01").
		Ship("SO-9", "PKG-9", "2023-02-01", DeviceSKU, "S9").
		Return("RMA-9", "2023-02-20", "S9")
}

// CrossedOrphansScenario has two orphan returns and two later shipments whose
// optimal pairing differs from matching each return to any open shipment
func CrossedOrphansScenario() *InputBuilder {
	return NewInputBuilder().
		Order("SO-10", "2023-04-01").
		Ship("SO-10", "PKG-10", "2023-04-01", DeviceSKU, "S10", "S11").
		Ship("SO-12", "PKG-12", "2023-05-02", DeviceSKU, "S12").
		Ship("SO-13", "PKG-13", "2023-05-04", DeviceSKU, "S13").
		Return("RMA-10", "2023-05-01", "S10").
		Return("RMA-11", "2023-05-03", "S11")
}
