package dto

import "github.com/shopspring/decimal"

// BatchInput is one customer group's materialized shipment and return history.
// Dates are kept as the raw strings the source system produced; they are parsed
// leniently by the cohort builder.
type BatchInput struct {
	GroupID string        `json:"groupId,omitempty" yaml:"groupId,omitempty"`
	Orders  []OrderInput  `json:"orders" yaml:"orders"`
	Returns []ReturnInput `json:"returns" yaml:"returns"`
}

// OrderInput is a sales order with its line items and shipped packages
type OrderInput struct {
	OrderID   string          `json:"orderId" yaml:"orderId"`
	Date      string          `json:"date" yaml:"date"`
	LineItems []LineItemInput `json:"lineItems" yaml:"lineItems"`
	Packages  []PackageInput  `json:"packages" yaml:"packages"`
	FreeText  FreeText        `json:"freeText" yaml:"freeText"`
}

// LineItemInput is an ordered product line
type LineItemInput struct {
	SKU      string          `json:"sku" yaml:"sku"`
	Name     string          `json:"name" yaml:"name"`
	Quantity int             `json:"quantity" yaml:"quantity"`
	Rate     decimal.Decimal `json:"rate" yaml:"rate"`
}

// PackageInput is one shipment of an order
type PackageInput struct {
	PackageID    string             `json:"packageId" yaml:"packageId"`
	ShipDate     string             `json:"shipDate" yaml:"shipDate"`
	DeliveryDate string             `json:"deliveryDate" yaml:"deliveryDate"`
	LineItems    []PackageLineInput `json:"lineItems" yaml:"lineItems"`
}

// PackageLineInput lists the serials of one SKU inside a package
type PackageLineInput struct {
	SKU     string   `json:"sku" yaml:"sku"`
	Serials []string `json:"serials" yaml:"serials"`
}

// FreeText holds the order fields searched for explicit replacement references
type FreeText struct {
	Terms           string `json:"terms" yaml:"terms"`
	Notes           string `json:"notes" yaml:"notes"`
	ReferenceNumber string `json:"referenceNumber" yaml:"referenceNumber"`
}

// Fields returns the non-empty free-text fields in a fixed order
func (f FreeText) Fields() []string {
	fields := make([]string, 0, 3)
	for _, v := range []string{f.Terms, f.Notes, f.ReferenceNumber} {
		if v != "" {
			fields = append(fields, v)
		}
	}
	return fields
}

// ReturnInput is an RMA with the receipts that brought units back
type ReturnInput struct {
	RMAID    string         `json:"rmaId" yaml:"rmaId"`
	Receipts []ReceiptInput `json:"receipts" yaml:"receipts"`
}

// ReceiptInput is one receiving event of an RMA
type ReceiptInput struct {
	ReceiptID string             `json:"receiptId" yaml:"receiptId"`
	Date      string             `json:"date" yaml:"date"`
	LineItems []ReceiptLineInput `json:"lineItems" yaml:"lineItems"`
}

// ReceiptLineInput lists the serials received on a receipt line
type ReceiptLineInput struct {
	Serials []string `json:"serials" yaml:"serials"`
}

// IsEmpty reports whether the input carries no orders and no returns
func (b BatchInput) IsEmpty() bool {
	return len(b.Orders) == 0 && len(b.Returns) == 0
}
