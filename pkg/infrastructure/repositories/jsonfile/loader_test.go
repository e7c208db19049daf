package jsonfile

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const groupJSON = `{
  "orders": [{
    "orderId": "SO-C1",
    "date": "2023-01-01",
    "lineItems": [{"sku": "HIFCSA-1YR", "name": "1 Year CSA Prepaid", "quantity": 1, "rate": "1100"}],
    "packages": [{"packageId": "PKG-C1", "shipDate": "2023-01-01", "deliveryDate": "",
      "lineItems": [{"sku": "P313N00", "serials": ["S1"]}]}],
    "freeText": {"terms": "", "notes": "", "referenceNumber": ""}
  }],
  "returns": []
}`

func write(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoader_LoadInputJSON(t *testing.T) {
	input, err := NewLoader().LoadInput(write(t, "acme.json", groupJSON))
	require.NoError(t, err)

	assert.Equal(t, "acme", input.GroupID)
	require.Len(t, input.Orders, 1)
	assert.Equal(t, "SO-C1", input.Orders[0].OrderID)
	assert.Equal(t, "1100", input.Orders[0].LineItems[0].Rate.String())
	assert.Equal(t, []string{"S1"}, input.Orders[0].Packages[0].LineItems[0].Serials)
}

func TestLoader_LoadInputYAML(t *testing.T) {
	doc := `
groupId: beta
orders:
  - orderId: SO-1
    date: "2023-01-01"
    packages:
      - packageId: PKG-1
        shipDate: "2023-01-02"
        lineItems:
          - sku: P313N00
            serials: [S1, S2]
returns:
  - rmaId: RMA-1
    receipts:
      - receiptId: R-1
        date: "2023-03-01"
        lineItems:
          - serials: [S1]
`
	input, err := NewLoader().LoadInput(write(t, "beta.yaml", doc))
	require.NoError(t, err)

	assert.Equal(t, "beta", input.GroupID)
	assert.Equal(t, []string{"S1", "S2"}, input.Orders[0].Packages[0].LineItems[0].Serials)
	assert.Equal(t, "2023-03-01", input.Returns[0].Receipts[0].Date)
}

func TestLoader_LoadBatch(t *testing.T) {
	t.Run("json_list", func(t *testing.T) {
		inputs, err := NewLoader().LoadBatch(write(t, "groups.json", "["+groupJSON+","+groupJSON+"]"))
		require.NoError(t, err)
		assert.Len(t, inputs, 2)
	})

	t.Run("single_group", func(t *testing.T) {
		inputs, err := NewLoader().LoadBatch(write(t, "one.json", groupJSON))
		require.NoError(t, err)
		require.Len(t, inputs, 1)
		assert.Equal(t, "one", inputs[0].GroupID)
	})

	t.Run("yaml_list", func(t *testing.T) {
		inputs, err := NewLoader().LoadBatch(write(t, "groups.yml", "- groupId: a\n  orders: []\n- groupId: b\n  orders: []\n"))
		require.NoError(t, err)
		require.Len(t, inputs, 2)
		assert.Equal(t, "b", inputs[1].GroupID)
	})
}

func TestLoader_Errors(t *testing.T) {
	loader := NewLoader()

	_, err := loader.LoadInput(filepath.Join(t.TempDir(), "missing.json"))
	assert.ErrorContains(t, err, "failed to read")

	_, err = loader.LoadInput(write(t, "bad.json", `{"orders": [`))
	assert.ErrorContains(t, err, "failed to parse JSON")

	_, err = loader.LoadInput(write(t, "unknown.json", `{"orderz": []}`))
	assert.ErrorContains(t, err, "unknown field")
}
