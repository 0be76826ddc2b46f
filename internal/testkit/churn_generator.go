package testkit

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"math/rand"
	"strconv"

	"gochurn/domain/customer"
)

// ChurnGeneratorConfig configures the synthetic churn dataset generator
type ChurnGeneratorConfig struct {
	CustomerCount int `json:"customer_count"`
	// BaseHazard is the monthly churn hazard of a reference customer
	BaseHazard float64 `json:"base_hazard"`
	// MaxTenure is the observation window; customers still active are censored
	MaxTenure int `json:"max_tenure"`
	// MissingRate is the share of numeric cells left empty
	MissingRate float64 `json:"missing_rate"`
	Seed        int64   `json:"seed"`
}

// DefaultChurnConfig returns the defaults shared by tests and the synth command
func DefaultChurnConfig() ChurnGeneratorConfig {
	return ChurnGeneratorConfig{
		CustomerCount: 1000,
		BaseHazard:    0.01,
		MaxTenure:     60,
		MissingRate:   0,
		Seed:          42,
	}
}

// Log-hazard effects used to simulate churn. Exported so tests can check
// that a fit recovers their signs.
var (
	EffectSupportCall = 0.15
	EffectUsage       = -0.04
	EffectSpendPer100 = -0.08
	EffectMale        = 0.1
	EffectMonthly     = 0.8
	EffectQuarterly   = 0.3
	EffectPremium     = -0.3
	EffectStandard    = -0.1
)

var (
	subscriptionLevels = []string{"Basic", "Standard", "Premium"}
	contractLevels     = []string{"Monthly", "Quarterly", "Annual"}

	churnDatasetColumns = []string{
		customer.ColCustomerID, customer.ColAge, customer.ColGender, customer.ColTenure,
		customer.ColUsageFrequency, customer.ColSupportCalls, customer.ColPaymentDelay,
		customer.ColSubscriptionType, customer.ColContractLength, customer.ColTotalSpend,
		customer.ColLastInteraction, customer.ColChurn,
	}
)

// ChurnRow is one generated customer, including the columns that are never features
type ChurnRow struct {
	Record          customer.HistoricalRecord
	PaymentDelay    int
	LastInteraction int
}

// ChurnDataGenerator produces customer tenure data from a known proportional-hazards process
type ChurnDataGenerator struct {
	config ChurnGeneratorConfig
	rng    *rand.Rand
}

// NewChurnDataGenerator creates a new generator
func NewChurnDataGenerator(config ChurnGeneratorConfig) *ChurnDataGenerator {
	if config.MaxTenure <= 0 {
		config.MaxTenure = DefaultChurnConfig().MaxTenure
	}
	if config.BaseHazard <= 0 {
		config.BaseHazard = DefaultChurnConfig().BaseHazard
	}
	return &ChurnDataGenerator{
		config: config,
		rng:    rand.New(rand.NewSource(config.Seed)),
	}
}

// Generate returns CustomerCount rows
func (g *ChurnDataGenerator) Generate() []ChurnRow {
	rows := make([]ChurnRow, g.config.CustomerCount)
	for i := range rows {
		rows[i] = g.generateCustomer(i)
	}
	return rows
}

// Records returns only the historical records of Generate
func (g *ChurnDataGenerator) Records() []customer.HistoricalRecord {
	rows := g.Generate()
	records := make([]customer.HistoricalRecord, len(rows))
	for i, r := range rows {
		records[i] = r.Record
	}
	return records
}

func (g *ChurnDataGenerator) generateCustomer(i int) ChurnRow {
	age := float64(18 + g.rng.Intn(48))
	gender := customer.GenderFemale
	if g.rng.Float64() < 0.5 {
		gender = customer.GenderMale
	}
	usage := float64(1 + g.rng.Intn(30))
	calls := float64(g.rng.Intn(11))
	spend := float64(100 + g.rng.Intn(901))
	subscription := subscriptionLevels[g.rng.Intn(len(subscriptionLevels))]
	contract := contractLevels[g.rng.Intn(len(contractLevels))]

	lp := EffectSupportCall*calls + EffectUsage*(usage-15) + EffectSpendPer100*(spend-550)/100
	if gender == customer.GenderMale {
		lp += EffectMale
	}
	switch subscription {
	case "Premium":
		lp += EffectPremium
	case "Standard":
		lp += EffectStandard
	}
	switch contract {
	case "Monthly":
		lp += EffectMonthly
	case "Quarterly":
		lp += EffectQuarterly
	}

	// exponential time to churn, observed on whole months
	churnAt := g.rng.ExpFloat64() / (g.config.BaseHazard * math.Exp(lp))
	tenure := math.Ceil(churnAt)
	event := 1.0
	if tenure > float64(g.config.MaxTenure) {
		tenure = float64(g.config.MaxTenure)
		event = 0
	}

	rec := customer.HistoricalRecord{
		CustomerID:       strconv.Itoa(i + 1),
		Age:              g.maybe(age),
		Gender:           customer.String(gender),
		UsageFrequency:   g.maybe(usage),
		SupportCalls:     g.maybe(calls),
		TotalSpend:       g.maybe(spend),
		SubscriptionType: customer.String(subscription),
		ContractLength:   customer.String(contract),
		Duration:         customer.Float(tenure),
		Event:            customer.Float(event),
	}
	return ChurnRow{
		Record:          rec,
		PaymentDelay:    g.rng.Intn(31),
		LastInteraction: 1 + g.rng.Intn(30),
	}
}

func (g *ChurnDataGenerator) maybe(v float64) *float64 {
	if g.config.MissingRate > 0 && g.rng.Float64() < g.config.MissingRate {
		return nil
	}
	return customer.Float(v)
}

// Table renders rows in the dataset column layout. Missing values are empty cells.
func Table(rows []ChurnRow) ([]string, [][]string) {
	cells := make([][]string, len(rows))
	for i, r := range rows {
		rec := r.Record
		cells[i] = []string{
			rec.CustomerID,
			formatFloat(rec.Age),
			formatString(rec.Gender),
			formatFloat(rec.Duration),
			formatFloat(rec.UsageFrequency),
			formatFloat(rec.SupportCalls),
			strconv.Itoa(r.PaymentDelay),
			formatString(rec.SubscriptionType),
			formatString(rec.ContractLength),
			formatFloat(rec.TotalSpend),
			strconv.Itoa(r.LastInteraction),
			formatFloat(rec.Event),
		}
	}
	return append([]string(nil), churnDatasetColumns...), cells
}

// WriteCSV writes rows as CSV with a header line
func WriteCSV(w io.Writer, rows []ChurnRow) error {
	header, cells := Table(rows)
	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	if err := cw.WriteAll(cells); err != nil {
		return fmt.Errorf("failed to write rows: %w", err)
	}
	return nil
}

func formatFloat(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}

func formatString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
