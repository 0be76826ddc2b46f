package testkit

import (
	"bytes"
	"encoding/csv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChurnDataGenerator_Deterministic(t *testing.T) {
	config := DefaultChurnConfig()
	config.CustomerCount = 50

	first := NewChurnDataGenerator(config).Records()
	second := NewChurnDataGenerator(config).Records()
	assert.Equal(t, first, second)
}

func TestChurnDataGenerator_Shape(t *testing.T) {
	config := DefaultChurnConfig()
	config.CustomerCount = 500

	records := NewChurnDataGenerator(config).Records()
	require.Len(t, records, 500)

	churned := 0
	for _, r := range records {
		require.NotNil(t, r.Duration)
		require.NotNil(t, r.Event)
		assert.GreaterOrEqual(t, *r.Duration, 1.0)
		assert.LessOrEqual(t, *r.Duration, float64(config.MaxTenure))
		if *r.Event == 1 {
			churned++
		} else {
			assert.Equal(t, float64(config.MaxTenure), *r.Duration, "censored rows sit at the window end")
		}
		assert.Contains(t, []string{"Male", "Female"}, *r.Gender)
	}
	assert.Greater(t, churned, 100)
	assert.Less(t, churned, 490)
}

func TestChurnDataGenerator_MissingRate(t *testing.T) {
	config := DefaultChurnConfig()
	config.CustomerCount = 400
	config.MissingRate = 0.2

	missing := 0
	for _, r := range NewChurnDataGenerator(config).Records() {
		if r.Age == nil {
			missing++
		}
	}
	assert.Greater(t, missing, 40)
	assert.Less(t, missing, 130)
}

func TestWriteCSV(t *testing.T) {
	config := DefaultChurnConfig()
	config.CustomerCount = 5
	config.MissingRate = 0.5

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, NewChurnDataGenerator(config).Generate()))

	lines, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, lines, 6)
	assert.Equal(t, churnDatasetColumns, lines[0])
	for _, line := range lines[1:] {
		assert.Len(t, line, len(churnDatasetColumns))
	}
}
