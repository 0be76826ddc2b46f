package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"gochurn/domain/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := newRootCmd()
	root.SetArgs(append(args, "--log-level", "ERROR"))
	root.SetOut(&out)
	root.SetErr(io.Discard)
	root.SetIn(strings.NewReader(stdin))
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestSynthTrainPredict(t *testing.T) {
	t.Setenv("MODEL_STORE", "")
	dir := t.TempDir()
	data := filepath.Join(dir, "churn.csv")
	models := filepath.Join(dir, "models")
	reportPath := filepath.Join(dir, "report.md")

	out, err := run(t, "", "synth", "--rows", "800", "--out", data)
	require.NoError(t, err)
	assert.Contains(t, out, "Wrote 800 customers")

	out, err = run(t, "", "train", "--data", data, "--out", models, "--report", reportPath, "--quiet")
	require.NoError(t, err)
	assert.Contains(t, out, "Concordance:")
	assert.Contains(t, out, "Contract Length_Monthly")

	md, err := os.ReadFile(reportPath)
	require.NoError(t, err)
	assert.Contains(t, string(md), "## Dataset profile")

	customer := `{"Age":40,"Gender":"Female","Usage_Frequency":10,"Support_Calls":2,
		"Total_Spend":500,"Subscription_Type":"Standard","Contract_Length":"Monthly"}`
	out, err = run(t, customer, "predict", "--out", models)
	require.NoError(t, err)

	var resp model.PredictionResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.NotEmpty(t, resp.SurvivalCurve)
	assert.Contains(t, resp.SurvivalAtHorizons, "30")

	out, err = run(t, "["+customer+`,{"Age":40}]`, "predict", "--out", models)
	require.NoError(t, err)
	var batch []map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(out), &batch))
	require.Len(t, batch, 2)
	assert.Contains(t, batch[0], "risk_score")
	assert.Equal(t, "ENCODING_ERROR", batch[1]["code"])

	out, err = run(t, "", "models", "list", "--out", models)
	require.NoError(t, err)
	assert.Contains(t, out, "MODEL ID")
	assert.Contains(t, out, "churn.csv")
}

func TestTrain_RequiresDataset(t *testing.T) {
	_, err := run(t, "", "train", "--out", t.TempDir(), "--quiet")
	assert.ErrorContains(t, err, "--data or --sql-dsn")
}

func TestTrain_UnknownStore(t *testing.T) {
	dir := t.TempDir()
	data := filepath.Join(dir, "churn.csv")
	_, err := run(t, "", "synth", "--rows", "50", "--out", data)
	require.NoError(t, err)

	_, err = run(t, "", "train", "--data", data, "--store", "s3", "--quiet")
	assert.ErrorContains(t, err, "unknown store")
}

func TestReadInputs(t *testing.T) {
	inputs, single, err := readInputs(strings.NewReader(` {"Age": 30} `), "-")
	require.NoError(t, err)
	assert.True(t, single)
	require.Len(t, inputs, 1)
	assert.Equal(t, 30.0, *inputs[0].Age)

	_, _, err = readInputs(strings.NewReader("[]"), "-")
	assert.Error(t, err)

	_, _, err = readInputs(strings.NewReader(""), "-")
	assert.Error(t, err)
}

func TestSynth_RejectsBadMissingRate(t *testing.T) {
	_, err := run(t, "", "synth", "--missing", "1.5", "--out", filepath.Join(t.TempDir(), "x.csv"))
	assert.Error(t, err)
}
