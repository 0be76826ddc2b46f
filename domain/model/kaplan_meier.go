package model

// KaplanMeier is the unconditional survival estimate of a training dataset.
// It is kept with the artifact for reporting and is never used for inference.
type KaplanMeier struct {
	Timeline []float64 `json:"timeline"`
	Survival []float64 `json:"survival"`
	AtRisk   []int     `json:"at_risk"`
	Events   []int     `json:"events"`
	Median   *float64  `json:"median"`
}

// SurvivalAt returns the step-function value at t (1.0 before the first event time)
func (km *KaplanMeier) SurvivalAt(t float64) float64 {
	s := 1.0
	for i, ti := range km.Timeline {
		if ti > t {
			break
		}
		s = km.Survival[i]
	}
	return s
}
