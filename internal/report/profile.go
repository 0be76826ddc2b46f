package report

import (
	"sort"

	"gochurn/domain/customer"

	"github.com/montanaflynn/stats"
)

// ColumnProfile summarizes one numeric column over the raw records
type ColumnProfile struct {
	Name    string  `json:"name"`
	Count   int     `json:"count"`
	Missing int     `json:"missing"`
	Mean    float64 `json:"mean"`
	StdDev  float64 `json:"std_dev"`
	Min     float64 `json:"min"`
	Median  float64 `json:"median"`
	Max     float64 `json:"max"`
}

// LevelCount is the frequency of one categorical level
type LevelCount struct {
	Level string `json:"level"`
	Count int    `json:"count"`
}

// Profile describes a raw training dataset
type Profile struct {
	Rows        int                     `json:"rows"`
	ChurnRate   float64                 `json:"churn_rate"`
	Numeric     []ColumnProfile         `json:"numeric"`
	Categorical map[string][]LevelCount `json:"categorical"`
}

// BuildProfile computes per-column statistics over the records as read, before any imputation
func BuildProfile(records []customer.HistoricalRecord) *Profile {
	p := &Profile{Rows: len(records), Categorical: make(map[string][]LevelCount)}

	numeric := []struct {
		name string
		get  func(r *customer.HistoricalRecord) *float64
	}{
		{customer.ColAge, func(r *customer.HistoricalRecord) *float64 { return r.Age }},
		{customer.ColUsageFrequency, func(r *customer.HistoricalRecord) *float64 { return r.UsageFrequency }},
		{customer.ColSupportCalls, func(r *customer.HistoricalRecord) *float64 { return r.SupportCalls }},
		{customer.ColTotalSpend, func(r *customer.HistoricalRecord) *float64 { return r.TotalSpend }},
		{customer.ColTenure, func(r *customer.HistoricalRecord) *float64 { return r.Duration }},
	}
	for _, col := range numeric {
		values := make([]float64, 0, len(records))
		for i := range records {
			if v := col.get(&records[i]); v != nil {
				values = append(values, *v)
			}
		}
		p.Numeric = append(p.Numeric, profileColumn(col.name, values, len(records)))
	}

	churned, withEvent := 0, 0
	for _, r := range records {
		if r.Event != nil {
			withEvent++
			if *r.Event == 1 {
				churned++
			}
		}
	}
	if withEvent > 0 {
		p.ChurnRate = float64(churned) / float64(withEvent)
	}

	categorical := []struct {
		name string
		get  func(r *customer.HistoricalRecord) *string
	}{
		{customer.ColGender, func(r *customer.HistoricalRecord) *string { return r.Gender }},
		{customer.ColSubscriptionType, func(r *customer.HistoricalRecord) *string { return r.SubscriptionType }},
		{customer.ColContractLength, func(r *customer.HistoricalRecord) *string { return r.ContractLength }},
	}
	for _, col := range categorical {
		counts := make(map[string]int)
		for i := range records {
			if v := col.get(&records[i]); v != nil {
				counts[*v]++
			}
		}
		levels := make([]LevelCount, 0, len(counts))
		for level, n := range counts {
			levels = append(levels, LevelCount{Level: level, Count: n})
		}
		sort.Slice(levels, func(i, j int) bool { return levels[i].Level < levels[j].Level })
		p.Categorical[col.name] = levels
	}
	return p
}

func profileColumn(name string, values []float64, total int) ColumnProfile {
	cp := ColumnProfile{Name: name, Count: len(values), Missing: total - len(values)}
	if len(values) == 0 {
		return cp
	}
	data := stats.Float64Data(values)
	cp.Mean, _ = data.Mean()
	cp.StdDev, _ = data.StandardDeviationSample()
	cp.Min, _ = data.Min()
	cp.Median, _ = data.Median()
	cp.Max, _ = data.Max()
	return cp
}
