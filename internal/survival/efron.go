package survival

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"
)

// riskSet holds standardized covariates ordered by descending duration, so the
// risk set of each time is a running sum over the rows seen so far.
type riskSet struct {
	z     [][]float64
	t     []float64
	event []bool
	p     int
}

func newRiskSet(z *mat.Dense, durations, events []float64) *riskSet {
	n, p := z.Dims()
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool { return durations[order[a]] > durations[order[b]] })

	rs := &riskSet{
		z:     make([][]float64, n),
		t:     make([]float64, n),
		event: make([]bool, n),
		p:     p,
	}
	for k, i := range order {
		rs.z[k] = z.RawRowView(i)
		rs.t[k] = durations[i]
		rs.event[k] = events[i] == 1
	}
	return rs
}

// efron returns the Efron log partial likelihood at beta, its gradient and the
// observed information matrix (negative Hessian).
func (rs *riskSet) efron(beta []float64) (float64, []float64, *mat.SymDense) {
	p := rs.p
	n := len(rs.t)

	ll := 0.0
	grad := make([]float64, p)
	info := make([]float64, p*p)

	riskPhi := 0.0
	riskPhiX := make([]float64, p)
	riskPhiXX := make([]float64, p*p)

	tiePhiX := make([]float64, p)
	tiePhiXX := make([]float64, p*p)
	num := make([]float64, p)

	for i := 0; i < n; {
		t := rs.t[i]
		tiePhi := 0.0
		for a := range tiePhiX {
			tiePhiX[a] = 0
		}
		for a := range tiePhiXX {
			tiePhiXX[a] = 0
		}
		deaths := 0

		for ; i < n && rs.t[i] == t; i++ {
			xi := rs.z[i]
			lp := dot(xi, beta)
			phi := math.Exp(lp)

			riskPhi += phi
			for a := 0; a < p; a++ {
				riskPhiX[a] += phi * xi[a]
				for b := a; b < p; b++ {
					riskPhiXX[a*p+b] += phi * xi[a] * xi[b]
				}
			}

			if rs.event[i] {
				deaths++
				ll += lp
				tiePhi += phi
				for a := 0; a < p; a++ {
					grad[a] += xi[a]
					tiePhiX[a] += phi * xi[a]
					for b := a; b < p; b++ {
						tiePhiXX[a*p+b] += phi * xi[a] * xi[b]
					}
				}
			}
		}
		if deaths == 0 {
			continue
		}

		for l := 0; l < deaths; l++ {
			c := float64(l) / float64(deaths)
			denom := riskPhi - c*tiePhi
			ll -= math.Log(denom)
			for a := 0; a < p; a++ {
				num[a] = riskPhiX[a] - c*tiePhiX[a]
				grad[a] -= num[a] / denom
			}
			for a := 0; a < p; a++ {
				for b := a; b < p; b++ {
					second := riskPhiXX[a*p+b] - c*tiePhiXX[a*p+b]
					info[a*p+b] += second/denom - num[a]*num[b]/(denom*denom)
				}
			}
		}
	}

	// only the upper triangle was accumulated
	for a := 0; a < p; a++ {
		for b := 0; b < a; b++ {
			info[a*p+b] = info[b*p+a]
		}
	}
	return ll, grad, mat.NewSymDense(p, info)
}

func dot(x, y []float64) float64 {
	s := 0.0
	for i := range x {
		s += x[i] * y[i]
	}
	return s
}
