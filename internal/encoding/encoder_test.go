package encoding

import (
	"testing"

	"gochurn/domain/core"
	"gochurn/domain/customer"
	"gochurn/domain/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func record(age float64, gender, subscription, contract string, tenure, churn float64) customer.HistoricalRecord {
	return customer.HistoricalRecord{
		Age:              customer.Float(age),
		Gender:           customer.String(gender),
		UsageFrequency:   customer.Float(10),
		SupportCalls:     customer.Float(2),
		TotalSpend:       customer.Float(500),
		SubscriptionType: customer.String(subscription),
		ContractLength:   customer.String(contract),
		Duration:         customer.Float(tenure),
		Event:            customer.Float(churn),
	}
}

func sampleRecords() []customer.HistoricalRecord {
	return []customer.HistoricalRecord{
		record(30, "Male", "Basic", "Monthly", 10, 1),
		record(45, "Female", "Standard", "Annual", 40, 0),
		record(52, "Female", "Premium", "Quarterly", 25, 1),
		record(28, "Male", "Standard", "Monthly", 5, 1),
		record(61, "Female", "Basic", "Annual", 60, 0),
	}
}

var expectedSchema = model.Schema{
	"Age", "Gender", "Usage Frequency", "Support Calls", "Total Spend",
	"Subscription Type_Premium", "Subscription Type_Standard",
	"Contract Length_Monthly", "Contract Length_Quarterly",
}

func TestEncodeTraining_SchemaLayout(t *testing.T) {
	ts, schema, err := EncodeTraining(sampleRecords())
	require.NoError(t, err)

	assert.Equal(t, expectedSchema, schema)
	assert.NotContains(t, schema, "Subscription Type_Basic")
	assert.NotContains(t, schema, "Contract Length_Annual")

	rows, cols := ts.X.Dims()
	assert.Equal(t, 5, rows)
	assert.Equal(t, len(schema), cols)
	assert.Equal(t, []float64{10, 40, 25, 5, 60}, ts.Durations)
	assert.Equal(t, []float64{1, 0, 1, 1, 0}, ts.Events)
}

func TestEncodeTraining_SchemaStable(t *testing.T) {
	_, first, err := EncodeTraining(sampleRecords())
	require.NoError(t, err)

	// same data in a different row order still pins the same levels
	shuffled := sampleRecords()
	shuffled[0], shuffled[4] = shuffled[4], shuffled[0]
	shuffled[1], shuffled[3] = shuffled[3], shuffled[1]
	_, second, err := EncodeTraining(shuffled)
	require.NoError(t, err)

	_, third, err := EncodeTraining(sampleRecords())
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, first, third)
	assert.Equal(t, first.Fingerprint(), third.Fingerprint())
}

func TestEncodeTraining_DropsUnusableRowsAndImputesMean(t *testing.T) {
	records := sampleRecords()
	records[1].Age = nil
	records[2].Duration = nil
	records[3].Event = nil

	ts, schema, err := EncodeTraining(records)
	require.NoError(t, err)

	assert.Equal(t, 5, ts.Prep.RowsRead)
	assert.Equal(t, 2, ts.Prep.RowsDropped)
	assert.Equal(t, 3, ts.Prep.RowsUsed)

	// mean over surviving rows with an observed age: (30 + 61) / 2
	assert.InDelta(t, 45.5, ts.Prep.Means["Age"], 1e-12)
	assert.Equal(t, 1, ts.Prep.Imputed["Age"])

	ix, err := NewSchemaIndex(schema)
	require.NoError(t, err)
	agePos, ok := ix.Position("Age")
	require.True(t, ok)
	assert.InDelta(t, 45.5, ts.X.At(1, agePos), 1e-12)
}

func TestEncodeTraining_IndicatorsAreBinary(t *testing.T) {
	ts, schema, err := EncodeTraining(sampleRecords())
	require.NoError(t, err)

	rows, _ := ts.X.Dims()
	for j, name := range schema {
		if j < len(baseColumns) {
			continue
		}
		for i := 0; i < rows; i++ {
			v := ts.X.At(i, j)
			assert.True(t, v == 0 || v == 1, "column %s row %d = %f", name, i, v)
		}
	}

	// row 0 is Basic/Monthly: only the Monthly indicator is set
	assert.Equal(t, []float64{0, 0, 1, 0}, ts.X.RawRowView(0)[5:])
}

func TestEncodeTraining_InvalidGender(t *testing.T) {
	records := sampleRecords()
	records[2].Gender = customer.String("Other")

	_, _, err := EncodeTraining(records)
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrEncoding)

	var encErr *core.EncodingError
	require.ErrorAs(t, err, &encErr)
	assert.Equal(t, 2, encErr.Row)
	assert.Equal(t, "Gender", encErr.Field)
}

func TestEncodeTraining_NoUsableRows(t *testing.T) {
	records := sampleRecords()
	for i := range records {
		records[i].Duration = nil
	}
	_, _, err := EncodeTraining(records)
	assert.ErrorIs(t, err, core.ErrInsufficientData)
}

func input(gender, subscription, contract string) customer.Input {
	return customer.Input{
		Age:              customer.Float(40),
		Gender:           gender,
		UsageFrequency:   customer.Float(10),
		SupportCalls:     customer.Float(2),
		TotalSpend:       customer.Float(500),
		SubscriptionType: subscription,
		ContractLength:   contract,
	}
}

func TestEncodeInference_ShapeMatchesSchema(t *testing.T) {
	ix, err := NewSchemaIndex(expectedSchema)
	require.NoError(t, err)

	cases := []customer.Input{
		input("Female", "Standard", "Monthly"),
		input("Male", "Basic", "Annual"),
		input("Male", "Premium", "Quarterly"),
		input("Female", "Enterprise", "Biennial"),
	}
	for _, in := range cases {
		vec, err := EncodeInference(in, ix)
		require.NoError(t, err)
		assert.Len(t, vec, len(expectedSchema))
	}
}

func TestEncodeInference_Values(t *testing.T) {
	ix, err := NewSchemaIndex(expectedSchema)
	require.NoError(t, err)

	vec, err := EncodeInference(input("Female", "Standard", "Monthly"), ix)
	require.NoError(t, err)
	assert.Equal(t, FeatureVector{40, 0, 10, 2, 500, 0, 1, 1, 0}, vec)
}

func TestEncodeInference_BaselineLevelEncodesToZeros(t *testing.T) {
	ix, err := NewSchemaIndex(expectedSchema)
	require.NoError(t, err)

	vec, err := EncodeInference(input("Male", "Basic", "Annual"), ix)
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 0, 0, 0}, []float64(vec[5:]))
	assert.Equal(t, 1.0, vec[1])
}

func TestEncodeInference_UnseenLevelEncodesAsBaseline(t *testing.T) {
	ix, err := NewSchemaIndex(expectedSchema)
	require.NoError(t, err)

	unseen, err := EncodeInference(input("Male", "Enterprise", "Biennial"), ix)
	require.NoError(t, err)
	baseline, err := EncodeInference(input("Male", "Basic", "Annual"), ix)
	require.NoError(t, err)
	assert.Equal(t, baseline, unseen)
}

func TestEncodeInference_InvalidGender(t *testing.T) {
	ix, err := NewSchemaIndex(expectedSchema)
	require.NoError(t, err)

	for _, g := range []string{"Other", "male", "F"} {
		_, err := EncodeInference(input(g, "Basic", "Monthly"), ix)
		require.Error(t, err, "gender %q", g)
		assert.True(t, core.IsEncodingError(err))
	}
}

func TestEncodeInference_MissingFields(t *testing.T) {
	ix, err := NewSchemaIndex(expectedSchema)
	require.NoError(t, err)

	noAge := input("Male", "Basic", "Monthly")
	noAge.Age = nil
	_, err = EncodeInference(noAge, ix)
	var encErr *core.EncodingError
	require.ErrorAs(t, err, &encErr)
	assert.Equal(t, "Age", encErr.Field)
	assert.Equal(t, -1, encErr.Row)

	noSpend := input("Male", "Basic", "Monthly")
	noSpend.TotalSpend = nil
	_, err = EncodeInference(noSpend, ix)
	assert.ErrorIs(t, err, core.ErrEncoding)

	noContract := input("Male", "Basic", "")
	_, err = EncodeInference(noContract, ix)
	assert.ErrorIs(t, err, core.ErrEncoding)

	negativeAge := input("Male", "Basic", "Monthly")
	negativeAge.Age = customer.Float(-3)
	_, err = EncodeInference(negativeAge, ix)
	assert.ErrorIs(t, err, core.ErrEncoding)
}

func TestEncodeInference_DropsColumnsOutsideSchema(t *testing.T) {
	// a schema trained without any contract variation has no Contract Length columns
	narrow := model.Schema{"Age", "Gender", "Usage Frequency", "Support Calls", "Total Spend", "Subscription Type_Premium"}
	ix, err := NewSchemaIndex(narrow)
	require.NoError(t, err)

	vec, err := EncodeInference(input("Male", "Premium", "Monthly"), ix)
	require.NoError(t, err)
	assert.Equal(t, FeatureVector{40, 1, 10, 2, 500, 1}, vec)
}

func TestNewSchemaIndex_RejectsDuplicates(t *testing.T) {
	_, err := NewSchemaIndex(model.Schema{"Age", "Age"})
	assert.Error(t, err)

	_, err = NewSchemaIndex(nil)
	assert.Error(t, err)
}
