package model

import (
	"fmt"
	"math"
	"sort"
)

// FittedModel is a Cox proportional-hazards fit. It is immutable once produced by training
// and safe to share across goroutines.
//
// Partial hazards are relative to the mean covariate vector: exp((x - Means) . Coefficients).
// BaselineCumHazard[i] is the cumulative baseline hazard at Timeline[i].
type FittedModel struct {
	Covariates        []string   `json:"covariates"`
	Coefficients      []float64  `json:"coefficients"`
	Means             []float64  `json:"means"`
	Timeline          []float64  `json:"timeline"`
	BaselineCumHazard []float64  `json:"baseline_cumulative_hazard"`
	Summary           FitSummary `json:"summary"`
}

// FitSummary holds the diagnostics of a fit, for reporting only
type FitSummary struct {
	Observations      int                  `json:"observations"`
	Events            int                  `json:"events"`
	Iterations        int                  `json:"iterations"`
	LogLikelihood     float64              `json:"log_likelihood"`
	NullLogLikelihood float64              `json:"null_log_likelihood"`
	LRTestStatistic   float64              `json:"lr_test_statistic"`
	LRTestPValue      float64              `json:"lr_test_p_value"`
	Concordance       float64              `json:"concordance"`
	Coefficients      []CoefficientSummary `json:"coefficients"`
}

// CoefficientSummary describes one covariate's estimate
type CoefficientSummary struct {
	Name        string  `json:"name"`
	Coef        float64 `json:"coef"`
	HazardRatio float64 `json:"hazard_ratio"`
	StdErr      float64 `json:"std_err"`
	Z           float64 `json:"z"`
	PValue      float64 `json:"p_value"`
	LowerCI     float64 `json:"lower_95"`
	UpperCI     float64 `json:"upper_95"`
}

// Dim returns the number of covariates
func (m *FittedModel) Dim() int {
	return len(m.Covariates)
}

// LinearPredictor returns (x - Means) . Coefficients
func (m *FittedModel) LinearPredictor(x []float64) (float64, error) {
	if len(x) != len(m.Coefficients) {
		return 0, fmt.Errorf("feature vector has %d values, model expects %d", len(x), len(m.Coefficients))
	}
	lp := 0.0
	for j, beta := range m.Coefficients {
		if math.IsNaN(x[j]) || math.IsInf(x[j], 0) {
			return 0, fmt.Errorf("feature %s is not finite", m.Covariates[j])
		}
		lp += (x[j] - m.Means[j]) * beta
	}
	return lp, nil
}

// PartialHazard returns exp(LinearPredictor(x)); always finite and positive on success
func (m *FittedModel) PartialHazard(x []float64) (float64, error) {
	lp, err := m.LinearPredictor(x)
	if err != nil {
		return 0, err
	}
	ph := math.Exp(lp)
	if math.IsInf(ph, 0) || ph <= 0 {
		return 0, fmt.Errorf("partial hazard out of range for linear predictor %g", lp)
	}
	return ph, nil
}

// SurvivalFunction returns S(t|x) for every time in Timeline
func (m *FittedModel) SurvivalFunction(x []float64) ([]float64, error) {
	ph, err := m.PartialHazard(x)
	if err != nil {
		return nil, err
	}
	return m.SurvivalForPartialHazard(ph), nil
}

// SurvivalForPartialHazard returns exp(-H0(t) * ph) over the timeline
func (m *FittedModel) SurvivalForPartialHazard(ph float64) []float64 {
	surv := make([]float64, len(m.Timeline))
	for i, h0 := range m.BaselineCumHazard {
		surv[i] = math.Exp(-h0 * ph)
	}
	return surv
}

// MedianSurvivalTime returns the smallest time with S(t|x) <= 0.5, or nil when the
// curve never drops that low within the timeline.
func (m *FittedModel) MedianSurvivalTime(x []float64) (*float64, error) {
	surv, err := m.SurvivalFunction(x)
	if err != nil {
		return nil, err
	}
	return QuantileTime(m.Timeline, surv, 0.5), nil
}

// QuantileTime returns the first timeline value where surv <= q, or nil.
// surv must be non-increasing.
func QuantileTime(timeline, surv []float64, q float64) *float64 {
	i := sort.Search(len(surv), func(i int) bool { return surv[i] <= q })
	if i == len(surv) {
		return nil
	}
	t := timeline[i]
	return &t
}

// Validate checks the internal consistency of a fitted model
func (m *FittedModel) Validate() error {
	p := len(m.Covariates)
	if len(m.Coefficients) != p || len(m.Means) != p {
		return fmt.Errorf("model has %d covariates, %d coefficients and %d means", p, len(m.Coefficients), len(m.Means))
	}
	if len(m.Timeline) == 0 || len(m.Timeline) != len(m.BaselineCumHazard) {
		return fmt.Errorf("model timeline has %d points, baseline hazard has %d", len(m.Timeline), len(m.BaselineCumHazard))
	}
	for j := range m.Coefficients {
		if math.IsNaN(m.Coefficients[j]) || math.IsInf(m.Coefficients[j], 0) {
			return fmt.Errorf("coefficient for %s is not finite", m.Covariates[j])
		}
	}
	for i := 1; i < len(m.Timeline); i++ {
		if m.Timeline[i] <= m.Timeline[i-1] {
			return fmt.Errorf("timeline is not strictly increasing at index %d", i)
		}
		if m.BaselineCumHazard[i] < m.BaselineCumHazard[i-1] {
			return fmt.Errorf("baseline cumulative hazard decreases at index %d", i)
		}
	}
	return nil
}
