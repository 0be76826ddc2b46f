package model

import (
	"math"
	"strconv"
)

// DefaultHorizons are the tenure points reported in survival_at_horizons
var DefaultHorizons = []int{30, 90, 180}

// CurvePoint is one step of a predicted survival curve
type CurvePoint struct {
	Time        int     `json:"time"`
	Probability float64 `json:"probability"`
}

// Prediction holds full-precision inference results
type Prediction struct {
	MedianSurvivalTime *float64
	RiskScore          float64
	SurvivalAtHorizons map[string]float64
	SurvivalCurve      []CurvePoint
}

// PredictionResponse is the wire shape returned to callers
type PredictionResponse struct {
	MedianSurvivalTime *float64           `json:"median_survival_time"`
	RiskScore          float64            `json:"risk_score"`
	SurvivalAtHorizons map[string]float64 `json:"survival_at_horizons"`
	SurvivalCurve      []CurvePoint       `json:"survival_curve"`
}

// ToResponse rounds the median to 2 decimals and the risk score to 3.
// Rounding is presentation only; p is not modified.
func (p *Prediction) ToResponse() PredictionResponse {
	resp := PredictionResponse{
		RiskScore:          Round(p.RiskScore, 3),
		SurvivalAtHorizons: make(map[string]float64, len(p.SurvivalAtHorizons)),
		SurvivalCurve:      make([]CurvePoint, len(p.SurvivalCurve)),
	}
	if p.MedianSurvivalTime != nil {
		m := Round(*p.MedianSurvivalTime, 2)
		resp.MedianSurvivalTime = &m
	}
	for k, v := range p.SurvivalAtHorizons {
		resp.SurvivalAtHorizons[k] = v
	}
	copy(resp.SurvivalCurve, p.SurvivalCurve)
	return resp
}

// HorizonKey formats a horizon as a survival_at_horizons key
func HorizonKey(h int) string {
	return strconv.Itoa(h)
}

// Round rounds half away from zero to the given number of decimals
func Round(v float64, decimals int) float64 {
	pow := math.Pow(10, float64(decimals))
	return math.Round(v*pow) / pow
}
