package survival

import (
	"fmt"
	"sort"

	"gochurn/domain/core"
	"gochurn/domain/model"
)

// FitKaplanMeier computes the product-limit estimator over all distinct durations.
func FitKaplanMeier(durations, events []float64) (*model.KaplanMeier, error) {
	n := len(durations)
	if n == 0 {
		return nil, fmt.Errorf("%w: no observations for Kaplan-Meier", core.ErrInsufficientData)
	}
	if len(events) != n {
		return nil, fmt.Errorf("%d durations but %d events", n, len(events))
	}

	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool { return durations[order[a]] < durations[order[b]] })

	km := &model.KaplanMeier{}
	atRisk := n
	s := 1.0
	for k := 0; k < n; {
		t := durations[order[k]]
		deaths, leaving := 0, 0
		for k < n && durations[order[k]] == t {
			if events[order[k]] == 1 {
				deaths++
			}
			leaving++
			k++
		}
		s *= 1 - float64(deaths)/float64(atRisk)
		km.Timeline = append(km.Timeline, t)
		km.Survival = append(km.Survival, s)
		km.AtRisk = append(km.AtRisk, atRisk)
		km.Events = append(km.Events, deaths)
		atRisk -= leaving
	}
	km.Median = model.QuantileTime(km.Timeline, km.Survival, 0.5)
	return km, nil
}
