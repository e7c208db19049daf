package csv

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/vsinha/lineage/pkg/application/dto"
)

// Scenario file names inside a scenario directory
const (
	OrdersFile     = "orders.csv"
	OrderLinesFile = "order_lines.csv"
	ShipmentsFile  = "shipments.csv"
	ReturnsFile    = "returns.csv"
)

var (
	ordersHeader     = []string{"order_id", "date", "terms", "notes", "reference_number"}
	orderLinesHeader = []string{"order_id", "sku", "name", "quantity", "rate"}
	shipmentsHeader  = []string{"order_id", "package_id", "ship_date", "delivery_date", "sku", "serial"}
	returnsHeader    = []string{"rma_id", "receipt_id", "date", "serial"}
)

// Loader reads a scenario directory of flat CSV exports into a batch input.
// orders.csv and shipments.csv are required; order_lines.csv and returns.csv
// may be absent.
type Loader struct{}

// NewLoader creates a new CSV loader
func NewLoader() *Loader {
	return &Loader{}
}

// LoadScenario loads every file of the scenario in dir
func (l *Loader) LoadScenario(dir string) (dto.BatchInput, error) {
	input := dto.BatchInput{GroupID: filepath.Base(filepath.Clean(dir))}
	orderIndex := make(map[string]int)

	orders, err := readRecords(filepath.Join(dir, OrdersFile), ordersHeader, true)
	if err != nil {
		return dto.BatchInput{}, err
	}
	for _, row := range orders {
		id := strings.TrimSpace(row[0])
		if _, dup := orderIndex[id]; dup {
			return dto.BatchInput{}, fmt.Errorf("%s: order %s listed more than once", OrdersFile, id)
		}
		orderIndex[id] = len(input.Orders)
		input.Orders = append(input.Orders, dto.OrderInput{
			OrderID: id,
			Date:    row[1],
			FreeText: dto.FreeText{
				Terms:           row[2],
				Notes:           row[3],
				ReferenceNumber: row[4],
			},
		})
	}

	lines, err := readRecords(filepath.Join(dir, OrderLinesFile), orderLinesHeader, false)
	if err != nil {
		return dto.BatchInput{}, err
	}
	for i, row := range lines {
		order, err := lookupOrder(&input, orderIndex, row[0], OrderLinesFile, i)
		if err != nil {
			return dto.BatchInput{}, err
		}
		item, err := parseLineItem(row)
		if err != nil {
			return dto.BatchInput{}, fmt.Errorf("%s row %d: %w", OrderLinesFile, i+2, err)
		}
		order.LineItems = append(order.LineItems, item)
	}

	shipments, err := readRecords(filepath.Join(dir, ShipmentsFile), shipmentsHeader, true)
	if err != nil {
		return dto.BatchInput{}, err
	}
	for i, row := range shipments {
		order, err := lookupOrder(&input, orderIndex, row[0], ShipmentsFile, i)
		if err != nil {
			return dto.BatchInput{}, err
		}
		addShipment(order, row)
	}

	returns, err := readRecords(filepath.Join(dir, ReturnsFile), returnsHeader, false)
	if err != nil {
		return dto.BatchInput{}, err
	}
	input.Returns = groupReturns(returns)

	return input, nil
}

// readRecords reads a CSV file and returns its data rows after checking the
// header. A missing optional file yields no rows.
func readRecords(filename string, expectedHeader []string, required bool) ([][]string, error) {
	file, err := os.Open(filename)
	if err != nil {
		if !required && errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to open %s: %w", filename, err)
	}
	defer file.Close()

	return parseRecords(file, filepath.Base(filename), expectedHeader)
}

func parseRecords(r io.Reader, name string, expectedHeader []string) ([][]string, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = len(expectedHeader)
	reader.TrimLeadingSpace = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", name, err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%s must have a header row", name)
	}
	if !validateHeader(records[0], expectedHeader) {
		return nil, fmt.Errorf("%s header mismatch. Expected: %v, Got: %v", name, expectedHeader, records[0])
	}
	return records[1:], nil
}

func validateHeader(actual, expected []string) bool {
	if len(actual) != len(expected) {
		return false
	}
	for i, col := range expected {
		if strings.TrimSpace(strings.ToLower(actual[i])) != col {
			return false
		}
	}
	return true
}

func lookupOrder(input *dto.BatchInput, index map[string]int, id, file string, row int) (*dto.OrderInput, error) {
	idx, ok := index[strings.TrimSpace(id)]
	if !ok {
		return nil, fmt.Errorf("%s row %d: unknown order %q", file, row+2, id)
	}
	return &input.Orders[idx], nil
}

func parseLineItem(record []string) (dto.LineItemInput, error) {
	quantity := 0
	if raw := strings.TrimSpace(record[3]); raw != "" {
		q, err := strconv.Atoi(raw)
		if err != nil {
			return dto.LineItemInput{}, fmt.Errorf("invalid quantity: %s", record[3])
		}
		quantity = q
	}

	rate := decimal.Zero
	if raw := strings.TrimSpace(record[4]); raw != "" {
		r, err := decimal.NewFromString(raw)
		if err != nil {
			return dto.LineItemInput{}, fmt.Errorf("invalid rate: %s", record[4])
		}
		rate = r
	}

	return dto.LineItemInput{
		SKU:      record[1],
		Name:     record[2],
		Quantity: quantity,
		Rate:     rate,
	}, nil
}

// addShipment places one serial row into its package and SKU line, creating
// them in first-seen order
func addShipment(order *dto.OrderInput, record []string) {
	packageID, sku, serial := strings.TrimSpace(record[1]), strings.TrimSpace(record[4]), strings.TrimSpace(record[5])

	var pkg *dto.PackageInput
	for i := range order.Packages {
		if order.Packages[i].PackageID == packageID {
			pkg = &order.Packages[i]
			break
		}
	}
	if pkg == nil {
		order.Packages = append(order.Packages, dto.PackageInput{
			PackageID:    packageID,
			ShipDate:     record[2],
			DeliveryDate: record[3],
		})
		pkg = &order.Packages[len(order.Packages)-1]
	}

	for i := range pkg.LineItems {
		if pkg.LineItems[i].SKU == sku {
			pkg.LineItems[i].Serials = append(pkg.LineItems[i].Serials, serial)
			return
		}
	}
	pkg.LineItems = append(pkg.LineItems, dto.PackageLineInput{SKU: sku, Serials: []string{serial}})
}

// groupReturns folds returns.csv rows into RMAs and receipts in first-seen order
func groupReturns(records [][]string) []dto.ReturnInput {
	var returns []dto.ReturnInput
	rmaIndex := make(map[string]int)

	for _, row := range records {
		rmaID, receiptID, date, serial := strings.TrimSpace(row[0]), strings.TrimSpace(row[1]), row[2], strings.TrimSpace(row[3])

		idx, ok := rmaIndex[rmaID]
		if !ok {
			idx = len(returns)
			rmaIndex[rmaID] = idx
			returns = append(returns, dto.ReturnInput{RMAID: rmaID})
		}
		rma := &returns[idx]

		var receipt *dto.ReceiptInput
		for i := range rma.Receipts {
			if rma.Receipts[i].ReceiptID == receiptID {
				receipt = &rma.Receipts[i]
				break
			}
		}
		if receipt == nil {
			rma.Receipts = append(rma.Receipts, dto.ReceiptInput{ReceiptID: receiptID, Date: date})
			receipt = &rma.Receipts[len(rma.Receipts)-1]
		}

		if len(receipt.LineItems) == 0 {
			receipt.LineItems = append(receipt.LineItems, dto.ReceiptLineInput{})
		}
		receipt.LineItems[0].Serials = append(receipt.LineItems[0].Serials, serial)
	}
	return returns
}
