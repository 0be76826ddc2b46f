package container

import (
	"context"
	"io"
	"testing"

	"gochurn/adapters/artifact"
	"gochurn/internal"
	"gochurn/internal/config"
	"gochurn/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(dir string) *config.Config {
	return &config.Config{
		Store:     config.StoreConfig{Kind: config.StoreFilesystem, Dir: dir},
		Inference: config.InferenceConfig{Horizons: []int{30}, BatchConcurrency: 2},
	}
}

func TestNew_RequiresConfig(t *testing.T) {
	_, err := New(nil, nil)
	assert.Error(t, err)
}

func TestInitStore_Filesystem(t *testing.T) {
	logger := internal.NewLoggerWithOutput(internal.LogLevelError, io.Discard)
	c, err := New(testConfig(t.TempDir()), logger)
	require.NoError(t, err)

	require.NoError(t, c.InitStore(context.Background()))
	assert.IsType(t, &artifact.FileStore{}, c.Artifacts)
	assert.Nil(t, c.DB)
	assert.NotNil(t, c.TrainingService())

	// an empty store has nothing to serve
	_, err = c.PredictionService(context.Background())
	require.Error(t, err)
	assert.Equal(t, errors.CodeModelLoadError, errors.GetCode(err))
	assert.NoError(t, c.Shutdown(context.Background()))
}

func TestPredictionService_RequiresStore(t *testing.T) {
	c, err := New(testConfig(t.TempDir()), nil)
	require.NoError(t, err)
	_, err = c.PredictionService(context.Background())
	assert.Error(t, err)
}

func TestOpenDatabase_RequiresURL(t *testing.T) {
	_, err := OpenDatabase(context.Background(), "")
	require.Error(t, err)
	assert.Equal(t, errors.CodeConfigInvalid, errors.GetCode(err))
}
