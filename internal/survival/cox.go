package survival

import (
	"fmt"
	"math"
	"sort"

	"gochurn/domain/core"
	"gochurn/domain/model"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// FitOptions controls the Newton-Raphson fit
type FitOptions struct {
	MaxIterations   int
	Tolerance       float64 // converged when the largest coefficient update is below this
	MaxStepHalvings int
	// MaxCoefficient bounds standardized coefficients; beyond it the fit is treated
	// as diverging (typically perfect separation)
	MaxCoefficient float64
	// OnIteration, if set, is called after every accepted Newton step
	OnIteration func(iteration int, logLikelihood float64)
}

// DefaultFitOptions returns the settings used by the training pipeline
func DefaultFitOptions() FitOptions {
	return FitOptions{
		MaxIterations:   50,
		Tolerance:       1e-9,
		MaxStepHalvings: 20,
		MaxCoefficient:  30,
	}
}

func (o FitOptions) withDefaults() FitOptions {
	d := DefaultFitOptions()
	if o.MaxIterations <= 0 {
		o.MaxIterations = d.MaxIterations
	}
	if o.Tolerance <= 0 {
		o.Tolerance = d.Tolerance
	}
	if o.MaxStepHalvings <= 0 {
		o.MaxStepHalvings = d.MaxStepHalvings
	}
	if o.MaxCoefficient <= 0 {
		o.MaxCoefficient = d.MaxCoefficient
	}
	return o
}

// Fit estimates a Cox proportional-hazards model, h(t|x) = h0(t) exp((x - mean) . beta),
// using the Efron partial likelihood for tied event times. Covariates are standardized
// during optimisation; the returned coefficients are on the original scale.
func Fit(x mat.Matrix, durations, events []float64, covariates []string, opts FitOptions) (*model.FittedModel, error) {
	opts = opts.withDefaults()

	n, p := x.Dims()
	if err := validateInputs(x, durations, events, covariates); err != nil {
		return nil, err
	}

	eventCount := 0
	for _, e := range events {
		if e == 1 {
			eventCount++
		}
	}
	if eventCount == 0 {
		return nil, fmt.Errorf("%w: no churn events observed", core.ErrInsufficientData)
	}

	means := make([]float64, p)
	sds := make([]float64, p)
	col := make([]float64, n)
	for j := 0; j < p; j++ {
		mat.Col(col, j, x)
		means[j], sds[j] = stat.MeanStdDev(col, nil)
		if sds[j] == 0 || math.IsNaN(sds[j]) {
			return nil, &core.ConvergenceError{Reason: fmt.Sprintf("column %q has zero variance", covariates[j])}
		}
	}

	z := mat.NewDense(n, p, nil)
	z.Apply(func(i, j int, v float64) float64 {
		return (v - means[j]) / sds[j]
	}, x)

	rs := newRiskSet(z, durations, events)

	beta := make([]float64, p)
	ll, grad, info := rs.efron(beta)
	nullLL := ll

	converged := false
	iteration := 0
	for iteration = 1; iteration <= opts.MaxIterations; iteration++ {
		delta, err := newtonDirection(info, grad)
		if err != nil {
			return nil, &core.ConvergenceError{Iterations: iteration, Reason: err.Error()}
		}

		step := 1.0
		accepted := false
		candidate := make([]float64, p)
		for h := 0; h <= opts.MaxStepHalvings; h++ {
			for j := range beta {
				candidate[j] = beta[j] + step*delta[j]
			}
			cll, cgrad, cinfo := rs.efron(candidate)
			if !math.IsNaN(cll) && !math.IsInf(cll, 0) && cll >= ll-1e-10 {
				copy(beta, candidate)
				ll, grad, info = cll, cgrad, cinfo
				accepted = true
				break
			}
			step /= 2
		}
		if !accepted {
			return nil, &core.ConvergenceError{Iterations: iteration, Reason: "log-likelihood could not be improved by step halving"}
		}
		if opts.OnIteration != nil {
			opts.OnIteration(iteration, ll)
		}

		largest := 0.0
		for j := range beta {
			if math.Abs(beta[j]) > opts.MaxCoefficient {
				return nil, &core.ConvergenceError{
					Iterations: iteration,
					Reason:     fmt.Sprintf("coefficient for %q diverged (possible perfect separation)", covariates[j]),
				}
			}
			largest = math.Max(largest, math.Abs(step*delta[j]))
		}
		if largest < opts.Tolerance {
			converged = true
			break
		}
	}
	if !converged {
		return nil, &core.ConvergenceError{
			Iterations: opts.MaxIterations,
			Reason:     fmt.Sprintf("no convergence within %d iterations", opts.MaxIterations),
		}
	}
	coefs := make([]float64, p)
	for j := range beta {
		coefs[j] = beta[j] / sds[j]
	}

	linear := make([]float64, n)
	for i := 0; i < n; i++ {
		linear[i] = dot(z.RawRowView(i), beta)
	}
	timeline, cumHazard := breslowBaseline(durations, events, linear)

	summary, err := summarize(info, beta, sds, covariates)
	if err != nil {
		return nil, &core.ConvergenceError{Iterations: iteration, Reason: err.Error()}
	}
	summary.Observations = n
	summary.Events = eventCount
	summary.Iterations = iteration
	summary.LogLikelihood = ll
	summary.NullLogLikelihood = nullLL
	summary.LRTestStatistic, summary.LRTestPValue = likelihoodRatioTest(ll, nullLL, p)
	summary.Concordance = ConcordanceIndex(durations, linear, events)

	return &model.FittedModel{
		Covariates:        append([]string(nil), covariates...),
		Coefficients:      coefs,
		Means:             means,
		Timeline:          timeline,
		BaselineCumHazard: cumHazard,
		Summary:           summary,
	}, nil
}

func validateInputs(x mat.Matrix, durations, events []float64, covariates []string) error {
	n, p := x.Dims()
	if n == 0 || p == 0 {
		return fmt.Errorf("%w: empty feature matrix", core.ErrInsufficientData)
	}
	if len(durations) != n || len(events) != n {
		return fmt.Errorf("matrix has %d rows but %d durations and %d events", n, len(durations), len(events))
	}
	if len(covariates) != p {
		return fmt.Errorf("matrix has %d columns but %d covariate names", p, len(covariates))
	}
	for i := 0; i < n; i++ {
		if d := durations[i]; math.IsNaN(d) || math.IsInf(d, 0) || d < 0 {
			return fmt.Errorf("row %d: duration %v must be finite and >= 0", i, d)
		}
		if e := events[i]; e != 0 && e != 1 {
			return fmt.Errorf("row %d: event %v must be 0 or 1", i, e)
		}
		for j := 0; j < p; j++ {
			if v := x.At(i, j); math.IsNaN(v) || math.IsInf(v, 0) {
				return fmt.Errorf("row %d: column %q is not finite", i, covariates[j])
			}
		}
	}
	return nil
}

// newtonDirection solves info . delta = grad. info is the observed information
// (negative Hessian of the log partial likelihood), positive definite at a regular point.
func newtonDirection(info *mat.SymDense, grad []float64) ([]float64, error) {
	var chol mat.Cholesky
	if ok := chol.Factorize(info); !ok {
		return nil, fmt.Errorf("information matrix is singular or not positive definite")
	}
	if c := chol.Cond(); c > 1e14 || math.IsInf(c, 0) {
		return nil, fmt.Errorf("information matrix is ill-conditioned (cond %.3g)", c)
	}
	var delta mat.VecDense
	if err := chol.SolveVecTo(&delta, mat.NewVecDense(len(grad), grad)); err != nil {
		return nil, fmt.Errorf("solving Newton step: %w", err)
	}
	return delta.RawVector().Data, nil
}

// breslowBaseline returns the distinct durations (ascending) and the Breslow
// cumulative baseline hazard at each, given per-row linear predictors.
func breslowBaseline(durations, events, linear []float64) ([]float64, []float64) {
	n := len(durations)
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool { return durations[order[a]] < durations[order[b]] })

	// risk[i] = sum of exp(linear) over rows with duration >= durations[order[i]]
	risk := make([]float64, n+1)
	for k := n - 1; k >= 0; k-- {
		risk[k] = risk[k+1] + math.Exp(linear[order[k]])
	}

	var timeline, cumHazard []float64
	cum := 0.0
	for k := 0; k < n; {
		t := durations[order[k]]
		atRisk := risk[k]
		deaths := 0.0
		for k < n && durations[order[k]] == t {
			deaths += events[order[k]]
			k++
		}
		cum += deaths / atRisk
		timeline = append(timeline, t)
		cumHazard = append(cumHazard, cum)
	}
	return timeline, cumHazard
}
