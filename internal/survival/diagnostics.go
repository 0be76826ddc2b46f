package survival

import (
	"fmt"
	"math"
	"sort"

	"gochurn/domain/model"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"
)

// summarize computes Wald statistics from the information matrix at the optimum.
// beta is on the standardized scale; sds converts back to the original one.
func summarize(info *mat.SymDense, beta, sds []float64, names []string) (model.FitSummary, error) {
	var chol mat.Cholesky
	if ok := chol.Factorize(info); !ok {
		return model.FitSummary{}, fmt.Errorf("information matrix is singular at the optimum")
	}
	var cov mat.SymDense
	if err := chol.InverseTo(&cov); err != nil {
		return model.FitSummary{}, fmt.Errorf("inverting information matrix: %w", err)
	}

	zCrit := distuv.UnitNormal.Quantile(0.975)
	coefs := make([]model.CoefficientSummary, len(beta))
	for j := range beta {
		coef := beta[j] / sds[j]
		se := math.Sqrt(cov.At(j, j)) / sds[j]
		z := coef / se
		coefs[j] = model.CoefficientSummary{
			Name:        names[j],
			Coef:        coef,
			HazardRatio: math.Exp(coef),
			StdErr:      se,
			Z:           z,
			PValue:      2 * distuv.UnitNormal.Survival(math.Abs(z)),
			LowerCI:     coef - zCrit*se,
			UpperCI:     coef + zCrit*se,
		}
	}
	return model.FitSummary{Coefficients: coefs}, nil
}

// likelihoodRatioTest compares the fitted model against beta = 0
func likelihoodRatioTest(ll, nullLL float64, df int) (float64, float64) {
	stat := 2 * (ll - nullLL)
	if stat < 0 {
		stat = 0
	}
	chi := distuv.ChiSquared{K: float64(df)}
	return stat, chi.Survival(stat)
}

// ConcordanceIndex is Harrell's C: among comparable pairs (the earlier duration is an
// observed event), the share where the earlier subject has the higher risk.
// Ties in risk count one half. Returns 0.5 when no pair is comparable.
func ConcordanceIndex(durations, risk, events []float64) float64 {
	n := len(durations)
	if n == 0 {
		return 0.5
	}

	// rank-compress risk scores for the Fenwick tree
	sorted := append([]float64(nil), risk...)
	sort.Float64s(sorted)
	unique := sorted[:0]
	for i, v := range sorted {
		if i == 0 || v != unique[len(unique)-1] {
			unique = append(unique, v)
		}
	}
	rankOf := func(v float64) int {
		return sort.SearchFloat64s(unique, v) + 1
	}

	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool { return durations[order[a]] > durations[order[b]] })

	tree := newFenwick(len(unique))
	var concordant, tied, comparable float64
	inserted := 0
	for k := 0; k < n; {
		t := durations[order[k]]
		end := k
		for end < n && durations[order[end]] == t {
			end++
		}
		// tree holds every subject with a strictly longer duration
		for g := k; g < end; g++ {
			i := order[g]
			if events[i] != 1 {
				continue
			}
			r := rankOf(risk[i])
			below := tree.sum(r - 1)
			equal := tree.sum(r) - below
			concordant += float64(below)
			tied += float64(equal)
			comparable += float64(inserted)
		}
		for g := k; g < end; g++ {
			tree.add(rankOf(risk[order[g]]))
			inserted++
		}
		k = end
	}
	if comparable == 0 {
		return 0.5
	}
	return (concordant + 0.5*tied) / comparable
}

type fenwick struct {
	counts []int
}

func newFenwick(size int) *fenwick {
	return &fenwick{counts: make([]int, size+1)}
}

func (f *fenwick) add(i int) {
	for ; i < len(f.counts); i += i & -i {
		f.counts[i]++
	}
}

func (f *fenwick) sum(i int) int {
	s := 0
	for ; i > 0; i -= i & -i {
		s += f.counts[i]
	}
	return s
}
