package dataset

import (
	"fmt"
	"strconv"
	"strings"

	"gochurn/domain/core"
	"gochurn/domain/customer"
)

// RawRowData represents a row of raw dataset values keyed by column name
type RawRowData map[string]string

// RawData represents a complete tabular dataset
type RawData struct {
	Headers []string
	Rows    []RawRowData
}

var requiredColumns = []string{
	customer.ColAge, customer.ColGender, customer.ColTenure, customer.ColUsageFrequency,
	customer.ColSupportCalls, customer.ColSubscriptionType, customer.ColContractLength,
	customer.ColTotalSpend, customer.ColChurn,
}

// missingMarkers are cell values treated as empty
var missingMarkers = map[string]bool{
	"": true, "na": true, "n/a": true, "nan": true, "null": true, "none": true,
}

// ToRecords converts raw rows into historical records. Excluded columns are
// ignored; Tenure becomes the duration and Churn the event flag.
func (d *RawData) ToRecords() ([]customer.HistoricalRecord, error) {
	if err := d.checkColumns(); err != nil {
		return nil, err
	}
	records := make([]customer.HistoricalRecord, 0, len(d.Rows))
	for i, row := range d.Rows {
		rec, err := row.toRecord(i)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, nil
}

func (d *RawData) checkColumns() error {
	present := make(map[string]bool, len(d.Headers))
	for _, h := range d.Headers {
		present[h] = true
	}
	var missing []string
	for _, col := range requiredColumns {
		if !present[col] {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("dataset is missing required columns: %s", strings.Join(missing, ", "))
	}
	return nil
}

func (r RawRowData) toRecord(row int) (customer.HistoricalRecord, error) {
	rec := customer.HistoricalRecord{
		CustomerID:       r[customer.ColCustomerID],
		Gender:           r.text(customer.ColGender),
		SubscriptionType: r.text(customer.ColSubscriptionType),
		ContractLength:   r.text(customer.ColContractLength),
	}
	numeric := []struct {
		col string
		dst **float64
	}{
		{customer.ColAge, &rec.Age},
		{customer.ColUsageFrequency, &rec.UsageFrequency},
		{customer.ColSupportCalls, &rec.SupportCalls},
		{customer.ColTotalSpend, &rec.TotalSpend},
		{customer.ColTenure, &rec.Duration},
		{customer.ColChurn, &rec.Event},
	}
	for _, f := range numeric {
		v, err := r.number(row, f.col)
		if err != nil {
			return rec, err
		}
		*f.dst = v
	}
	if rec.Duration != nil && *rec.Duration < 0 {
		return rec, &core.EncodingError{Row: row, Field: customer.ColTenure, Value: r[customer.ColTenure], Reason: "tenure must be >= 0"}
	}
	if rec.Event != nil && *rec.Event != 0 && *rec.Event != 1 {
		return rec, &core.EncodingError{Row: row, Field: customer.ColChurn, Value: r[customer.ColChurn], Reason: "churn must be 0 or 1"}
	}
	return rec, nil
}

func (r RawRowData) text(col string) *string {
	v := strings.TrimSpace(r[col])
	if missingMarkers[strings.ToLower(v)] {
		return nil
	}
	return &v
}

func (r RawRowData) number(row int, col string) (*float64, error) {
	raw := strings.TrimSpace(r[col])
	if missingMarkers[strings.ToLower(raw)] {
		return nil, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, &core.EncodingError{Row: row, Field: col, Value: raw, Reason: "not a number"}
	}
	return &v, nil
}
