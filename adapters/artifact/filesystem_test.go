package artifact

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"gochurn/domain/core"
	"gochurn/domain/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleArtifact(created time.Time) *model.Artifact {
	schema := model.Schema{"Age", "Gender"}
	fitted := &model.FittedModel{
		Covariates:        []string{"Age", "Gender"},
		Coefficients:      []float64{0.02, -0.4},
		Means:             []float64{41.5, 0.5},
		Timeline:          []float64{1, 5, 12},
		BaselineCumHazard: []float64{0.05, 0.2, 0.6},
		Summary:           model.FitSummary{Observations: 10, Events: 6, Concordance: 0.71},
	}
	median := 5.0
	km := &model.KaplanMeier{
		Timeline: []float64{1, 5, 12},
		Survival: []float64{0.9, 0.5, 0.2},
		AtRisk:   []int{10, 8, 3},
		Events:   []int{1, 3, 2},
		Median:   &median,
	}
	return model.NewArtifact(schema, fitted, km, model.Manifest{DatasetSource: "test.csv", CreatedAt: created})
}

func TestFileStore_SaveGetRoundTrip(t *testing.T) {
	ctx := context.Background()
	store, err := NewFileStore(t.TempDir(), nil)
	require.NoError(t, err)

	a := sampleArtifact(time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC))
	require.NoError(t, store.Save(ctx, a))

	got, err := store.Get(ctx, a.Manifest.ModelID)
	require.NoError(t, err)
	assert.Equal(t, a, got)
	require.NoError(t, got.Validate())
}

func TestFileStore_GetMissing(t *testing.T) {
	store, err := NewFileStore(t.TempDir(), nil)
	require.NoError(t, err)

	_, err = store.Get(context.Background(), core.NewModelID())
	assert.True(t, core.IsNotFoundError(err))

	_, err = store.Latest(context.Background())
	assert.ErrorIs(t, err, core.ErrArtifactNotFound)
}

func TestFileStore_LatestAndActivate(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	store, err := NewFileStore(dir, nil)
	require.NoError(t, err)

	older := sampleArtifact(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	newer := sampleArtifact(time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, store.Save(ctx, older))
	require.NoError(t, store.Save(ctx, newer))

	manifests, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, manifests, 2)
	assert.Equal(t, newer.Manifest.ModelID, manifests[0].ModelID)

	latest, err := store.Latest(ctx)
	require.NoError(t, err)
	assert.Equal(t, newer.Manifest.ModelID, latest.Manifest.ModelID)

	require.NoError(t, store.Activate(ctx, older.Manifest.ModelID))
	latest, err = store.Latest(ctx)
	require.NoError(t, err)
	assert.Equal(t, older.Manifest.ModelID, latest.Manifest.ModelID)

	assert.True(t, core.IsNotFoundError(store.Activate(ctx, core.NewModelID())))
}

func TestFileStore_ListSkipsCorruptFiles(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	store, err := NewFileStore(dir, nil)
	require.NoError(t, err)

	require.NoError(t, store.Save(ctx, sampleArtifact(time.Now().UTC())))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken"+artifactSuffix), []byte("not gzip"), 0o644))

	manifests, err := store.List(ctx)
	require.NoError(t, err)
	assert.Len(t, manifests, 1)
}
