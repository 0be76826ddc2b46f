package report

import (
	"strings"
	"testing"

	"gochurn/domain/customer"
	"gochurn/domain/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func records() []customer.HistoricalRecord {
	return []customer.HistoricalRecord{
		{Age: customer.Float(30), Gender: customer.String("Male"), SubscriptionType: customer.String("Basic"), Duration: customer.Float(5), Event: customer.Float(1)},
		{Age: customer.Float(50), Gender: customer.String("Female"), SubscriptionType: customer.String("Premium"), Duration: customer.Float(20), Event: customer.Float(0)},
		{Age: nil, Gender: customer.String("Female"), SubscriptionType: customer.String("Basic"), Duration: customer.Float(9), Event: customer.Float(1)},
	}
}

func TestBuildProfile(t *testing.T) {
	p := BuildProfile(records())

	assert.Equal(t, 3, p.Rows)
	assert.InDelta(t, 2.0/3, p.ChurnRate, 1e-12)

	age := p.Numeric[0]
	assert.Equal(t, customer.ColAge, age.Name)
	assert.Equal(t, 2, age.Count)
	assert.Equal(t, 1, age.Missing)
	assert.InDelta(t, 40.0, age.Mean, 1e-12)
	assert.Equal(t, 30.0, age.Min)
	assert.Equal(t, 50.0, age.Max)

	// no usage values at all
	assert.Equal(t, 0, p.Numeric[1].Count)
	assert.Equal(t, 3, p.Numeric[1].Missing)

	assert.Equal(t, []LevelCount{{"Female", 2}, {"Male", 1}}, p.Categorical[customer.ColGender])
	assert.Equal(t, []LevelCount{{"Basic", 2}, {"Premium", 1}}, p.Categorical[customer.ColSubscriptionType])
}

func testArtifact() *model.Artifact {
	fitted := &model.FittedModel{
		Covariates:        []string{"Age"},
		Coefficients:      []float64{0.03},
		Means:             []float64{40},
		Timeline:          []float64{5, 9, 20},
		BaselineCumHazard: []float64{0.2, 0.5, 0.9},
		Summary: model.FitSummary{
			Observations: 3, Events: 2, Iterations: 4, Concordance: 0.75,
			Coefficients: []model.CoefficientSummary{{Name: "Age", Coef: 0.03, HazardRatio: 1.03}},
		},
	}
	km := &model.KaplanMeier{Timeline: []float64{5, 9}, Survival: []float64{0.67, 0.33}, AtRisk: []int{3, 2}, Events: []int{1, 1}}
	return model.NewArtifact(model.Schema{"Age"}, fitted, km, model.Manifest{DatasetSource: "churn.csv", RowsRead: 3, RowsUsed: 3})
}

func TestMarkdown(t *testing.T) {
	md := Markdown(testArtifact(), BuildProfile(records()))

	assert.Contains(t, md, "# Churn model ")
	assert.Contains(t, md, "`churn.csv`")
	assert.Contains(t, md, "| Age | 0.0300 | 1.0300 |")
	assert.Contains(t, md, "Concordance: 0.750")
	assert.Contains(t, md, "not reached")
	assert.Contains(t, md, "**Gender**: Female (2), Male (1)")
}

func TestHTML(t *testing.T) {
	page := string(HTML(testArtifact(), nil))

	require.True(t, strings.Contains(page, "<html"))
	assert.Contains(t, page, "<table>")
	assert.Contains(t, page, "Cox proportional-hazards fit")
	assert.NotContains(t, page, "Dataset profile")
}
