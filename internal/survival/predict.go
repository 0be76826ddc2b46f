package survival

import (
	"fmt"
	"sort"

	"gochurn/domain/model"
)

// Predict evaluates a fitted model for one encoded feature vector.
// Horizons that are not exact points of the model's timeline are omitted.
func Predict(fm *model.FittedModel, x []float64, horizons []int) (*model.Prediction, error) {
	if fm == nil {
		return nil, fmt.Errorf("no fitted model")
	}
	ph, err := fm.PartialHazard(x)
	if err != nil {
		return nil, err
	}
	surv := fm.SurvivalForPartialHazard(ph)

	curve := make([]model.CurvePoint, len(fm.Timeline))
	for i, t := range fm.Timeline {
		curve[i] = model.CurvePoint{Time: int(t), Probability: surv[i]}
	}

	atHorizons := make(map[string]float64, len(horizons))
	for _, h := range horizons {
		ht := float64(h)
		i := sort.SearchFloat64s(fm.Timeline, ht)
		if i < len(fm.Timeline) && fm.Timeline[i] == ht {
			atHorizons[model.HorizonKey(h)] = surv[i]
		}
	}

	return &model.Prediction{
		MedianSurvivalTime: model.QuantileTime(fm.Timeline, surv, 0.5),
		RiskScore:          ph,
		SurvivalAtHorizons: atHorizons,
		SurvivalCurve:      curve,
	}, nil
}
