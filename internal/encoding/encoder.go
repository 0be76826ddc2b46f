package encoding

import (
	"encoding/binary"
	"fmt"
	"math"
	"sort"
	"strings"

	"gochurn/domain/core"
	"gochurn/domain/customer"
	"gochurn/domain/model"

	"github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/mat"
)

// numericColumns are mean-imputed at training time. Gender sits between Age and
// Usage Frequency in the feature layout but is categorical in the raw data.
var numericColumns = []string{
	customer.ColAge,
	customer.ColUsageFrequency,
	customer.ColSupportCalls,
	customer.ColTotalSpend,
}

// baseColumns is the layout of the non one-hot part of the schema
var baseColumns = []string{
	customer.ColAge,
	customer.ColGender,
	customer.ColUsageFrequency,
	customer.ColSupportCalls,
	customer.ColTotalSpend,
}

// categoricalColumns are one-hot encoded with the first level (alphabetical) dropped
var categoricalColumns = []string{
	customer.ColSubscriptionType,
	customer.ColContractLength,
}

// DummyColumn names the indicator column for a categorical level
func DummyColumn(field, level string) string {
	return field + "_" + level
}

// TrainingSet is the encoded training matrix with its survival targets
type TrainingSet struct {
	X         *mat.Dense
	Durations []float64
	Events    []float64
	Levels    map[string][]string
	Prep      PrepStats
}

// PrepStats describes what the encoder did to the raw dataset
type PrepStats struct {
	RowsRead    int                `json:"rows_read"`
	RowsDropped int                `json:"rows_dropped"`
	RowsUsed    int                `json:"rows_used"`
	Means       map[string]float64 `json:"means"`
	Imputed     map[string]int     `json:"imputed"`
}

// fields is the typed, already-imputed content of one record
type fields struct {
	age              float64
	gender           string
	usageFrequency   float64
	supportCalls     float64
	totalSpend       float64
	subscriptionType string
	contractLength   string
}

// encodeInto writes the record into vec. One-hot levels without a schema column
// (the baseline, or a level never seen in training) stay 0.
func (f fields) encodeInto(ix *SchemaIndex, vec FeatureVector, row int) error {
	gender, err := EncodeGender(f.gender, row)
	if err != nil {
		return err
	}
	ix.set(vec, customer.ColAge, f.age)
	ix.set(vec, customer.ColGender, gender)
	ix.set(vec, customer.ColUsageFrequency, f.usageFrequency)
	ix.set(vec, customer.ColSupportCalls, f.supportCalls)
	ix.set(vec, customer.ColTotalSpend, f.totalSpend)
	if f.subscriptionType != "" {
		ix.set(vec, DummyColumn(customer.ColSubscriptionType, f.subscriptionType), 1)
	}
	if f.contractLength != "" {
		ix.set(vec, DummyColumn(customer.ColContractLength, f.contractLength), 1)
	}
	return nil
}

// EncodeGender maps Male to 1 and Female to 0. Anything else is an encoding error.
func EncodeGender(value string, row int) (float64, error) {
	switch strings.TrimSpace(value) {
	case customer.GenderMale:
		return 1, nil
	case customer.GenderFemale:
		return 0, nil
	case "":
		return 0, core.NewMissingFieldError(row, customer.ColGender)
	default:
		return 0, &core.EncodingError{
			Row:    row,
			Field:  customer.ColGender,
			Value:  value,
			Reason: fmt.Sprintf("expected %q or %q", customer.GenderMale, customer.GenderFemale),
		}
	}
}

// EncodeTraining turns historical records into the training matrix and the schema
// the fitted model will expect. Rows without duration or event are dropped, missing
// numeric values are filled with the column mean of the remaining rows, and
// categorical levels are sorted so the same dataset always yields the same schema.
func EncodeTraining(records []customer.HistoricalRecord) (*TrainingSet, model.Schema, error) {
	prep := PrepStats{
		RowsRead: len(records),
		Means:    make(map[string]float64, len(numericColumns)),
		Imputed:  make(map[string]int, len(numericColumns)),
	}

	kept := make([]customer.HistoricalRecord, 0, len(records))
	for _, rec := range records {
		if !present(rec.Duration) || !present(rec.Event) {
			prep.RowsDropped++
			continue
		}
		kept = append(kept, rec)
	}
	prep.RowsUsed = len(kept)
	if len(kept) == 0 {
		return nil, nil, fmt.Errorf("%w: no rows with both duration and event", core.ErrInsufficientData)
	}

	for _, col := range numericColumns {
		observed := make([]float64, 0, len(kept))
		for i := range kept {
			if v := numericField(&kept[i], col); present(v) {
				observed = append(observed, *v)
			}
		}
		if len(observed) == 0 {
			return nil, nil, fmt.Errorf("%w: column %q has no observed values", core.ErrInsufficientData, col)
		}
		mean, err := stats.Mean(observed)
		if err != nil {
			return nil, nil, fmt.Errorf("mean of %q: %w", col, err)
		}
		prep.Means[col] = mean
		prep.Imputed[col] = len(kept) - len(observed)
	}

	levels := observedLevels(kept)
	schema := buildSchema(levels)
	ix, err := NewSchemaIndex(schema)
	if err != nil {
		return nil, nil, err
	}

	x := mat.NewDense(len(kept), len(schema), nil)
	durations := make([]float64, len(kept))
	events := make([]float64, len(kept))
	vec := ix.NewVector()
	for i := range kept {
		rec := &kept[i]
		for j := range vec {
			vec[j] = 0
		}
		f := fields{
			age:              valueOr(rec.Age, prep.Means[customer.ColAge]),
			gender:           stringOr(rec.Gender),
			usageFrequency:   valueOr(rec.UsageFrequency, prep.Means[customer.ColUsageFrequency]),
			supportCalls:     valueOr(rec.SupportCalls, prep.Means[customer.ColSupportCalls]),
			totalSpend:       valueOr(rec.TotalSpend, prep.Means[customer.ColTotalSpend]),
			subscriptionType: stringOr(rec.SubscriptionType),
			contractLength:   stringOr(rec.ContractLength),
		}
		if err := f.encodeInto(ix, vec, i); err != nil {
			return nil, nil, err
		}
		x.SetRow(i, vec)
		durations[i] = *rec.Duration
		events[i] = *rec.Event
	}

	return &TrainingSet{
		X:         x,
		Durations: durations,
		Events:    events,
		Levels:    levels,
		Prep:      prep,
	}, schema, nil
}

// EncodeInference encodes one raw customer record against a persisted schema.
// No imputation happens here: a missing numeric field is an encoding error.
func EncodeInference(in customer.Input, ix *SchemaIndex) (FeatureVector, error) {
	const row = -1

	numeric := []struct {
		name  string
		value *float64
	}{
		{customer.ColAge, in.Age},
		{customer.ColUsageFrequency, in.UsageFrequency},
		{customer.ColSupportCalls, in.SupportCalls},
		{customer.ColTotalSpend, in.TotalSpend},
	}
	for _, n := range numeric {
		if n.value == nil {
			return nil, core.NewMissingFieldError(row, n.name)
		}
		if math.IsNaN(*n.value) || math.IsInf(*n.value, 0) {
			return nil, &core.EncodingError{Row: row, Field: n.name, Value: fmt.Sprint(*n.value), Reason: "value is not finite"}
		}
	}
	if *in.Age <= 0 {
		return nil, &core.EncodingError{Row: row, Field: customer.ColAge, Value: fmt.Sprint(*in.Age), Reason: "age must be positive"}
	}

	subscription := strings.TrimSpace(in.SubscriptionType)
	if subscription == "" {
		return nil, core.NewMissingFieldError(row, customer.ColSubscriptionType)
	}
	contract := strings.TrimSpace(in.ContractLength)
	if contract == "" {
		return nil, core.NewMissingFieldError(row, customer.ColContractLength)
	}

	f := fields{
		age:              *in.Age,
		gender:           in.Gender,
		usageFrequency:   *in.UsageFrequency,
		supportCalls:     *in.SupportCalls,
		totalSpend:       *in.TotalSpend,
		subscriptionType: subscription,
		contractLength:   contract,
	}
	vec := ix.NewVector()
	if err := f.encodeInto(ix, vec, row); err != nil {
		return nil, err
	}
	return vec, nil
}

// Fingerprint hashes the encoded matrix and targets, so two runs on the same data
// can be recognised in the registry.
func (ts *TrainingSet) Fingerprint() core.Hash {
	rows, cols := ts.X.Dims()
	buf := make([]byte, 0, (rows*(cols+2))*8)
	var word [8]byte
	put := func(v float64) {
		binary.LittleEndian.PutUint64(word[:], math.Float64bits(v))
		buf = append(buf, word[:]...)
	}
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			put(ts.X.At(i, j))
		}
		put(ts.Durations[i])
		put(ts.Events[i])
	}
	return core.NewHash(buf)
}

func buildSchema(levels map[string][]string) model.Schema {
	schema := make(model.Schema, 0, len(baseColumns)+8)
	schema = append(schema, baseColumns...)
	for _, col := range categoricalColumns {
		lv := levels[col]
		if len(lv) < 2 {
			continue
		}
		for _, level := range lv[1:] {
			schema = append(schema, DummyColumn(col, level))
		}
	}
	return schema
}

func observedLevels(records []customer.HistoricalRecord) map[string][]string {
	seen := make(map[string]map[string]bool, len(categoricalColumns))
	for _, col := range categoricalColumns {
		seen[col] = make(map[string]bool)
	}
	for i := range records {
		if v := stringOr(records[i].SubscriptionType); v != "" {
			seen[customer.ColSubscriptionType][v] = true
		}
		if v := stringOr(records[i].ContractLength); v != "" {
			seen[customer.ColContractLength][v] = true
		}
	}

	levels := make(map[string][]string, len(categoricalColumns))
	for _, col := range categoricalColumns {
		lv := make([]string, 0, len(seen[col]))
		for level := range seen[col] {
			lv = append(lv, level)
		}
		sort.Strings(lv)
		levels[col] = lv
	}
	return levels
}

func numericField(rec *customer.HistoricalRecord, col string) *float64 {
	switch col {
	case customer.ColAge:
		return rec.Age
	case customer.ColUsageFrequency:
		return rec.UsageFrequency
	case customer.ColSupportCalls:
		return rec.SupportCalls
	case customer.ColTotalSpend:
		return rec.TotalSpend
	}
	return nil
}

func present(v *float64) bool {
	return v != nil && !math.IsNaN(*v)
}

func valueOr(v *float64, fallback float64) float64 {
	if present(v) {
		return *v
	}
	return fallback
}

func stringOr(s *string) string {
	if s == nil {
		return ""
	}
	return strings.TrimSpace(*s)
}
