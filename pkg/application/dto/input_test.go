package dto

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBatchInput_DecodesContract(t *testing.T) {
	raw := `{
		"orders": [{
			"orderId": "SO-1",
			"date": "2023-01-01",
			"lineItems": [{"sku": "HIFCSA-1YR", "name": "1 Year CSA", "quantity": 1, "rate": "1499.50"}],
			"packages": [{"packageId": "PKG-1", "shipDate": "01/02/2023", "deliveryDate": "",
				"lineItems": [{"sku": "P313N00", "serials": ["S1", "S2"]}]}],
			"freeText": {"terms": "", "notes": "replaces S0", "referenceNumber": "RMA-7"}
		}],
		"returns": [{"rmaId": "RMA-1", "receipts": [{"receiptId": "R-1", "date": "2023-06-01",
			"lineItems": [{"serials": ["S1"]}]}]}]
	}`

	var input BatchInput
	require.NoError(t, json.Unmarshal([]byte(raw), &input))

	require.Len(t, input.Orders, 1)
	order := input.Orders[0]
	assert.Equal(t, "SO-1", order.OrderID)
	assert.True(t, order.LineItems[0].Rate.Equal(decimal.RequireFromString("1499.5")))
	assert.Equal(t, []string{"S1", "S2"}, order.Packages[0].LineItems[0].Serials)
	assert.Equal(t, []string{"replaces S0", "RMA-7"}, order.FreeText.Fields())

	require.Len(t, input.Returns, 1)
	assert.Equal(t, "R-1", input.Returns[0].Receipts[0].ReceiptID)
	assert.False(t, input.IsEmpty())
	assert.True(t, BatchInput{}.IsEmpty())
}
