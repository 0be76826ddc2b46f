package postgres

import (
	"context"
	"os"
	"testing"
	"time"

	"gochurn/domain/core"
	"gochurn/domain/model"
	"gochurn/internal/migration"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testDB(t *testing.T) *sqlx.DB {
	t.Helper()
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	db, err := sqlx.Connect("postgres", dsn)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, migration.NewRunner().Run(context.Background(), db))
	return db
}

func artifactAt(created time.Time) *model.Artifact {
	fitted := &model.FittedModel{
		Covariates:        []string{"Age"},
		Coefficients:      []float64{0.03},
		Means:             []float64{40},
		Timeline:          []float64{1, 2},
		BaselineCumHazard: []float64{0.1, 0.4},
	}
	return model.NewArtifact(model.Schema{"Age"}, fitted, nil, model.Manifest{CreatedAt: created})
}

func TestModelRepository_RoundTrip(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	repo := NewModelRepository(db)

	a := artifactAt(time.Now().UTC().Truncate(time.Microsecond))
	t.Cleanup(func() { db.Exec(`DELETE FROM churn_models WHERE id = $1`, a.Manifest.ModelID.String()) })

	require.NoError(t, repo.Save(ctx, a))

	got, err := repo.Get(ctx, a.Manifest.ModelID)
	require.NoError(t, err)
	assert.Equal(t, a.Schema, got.Schema)
	assert.Equal(t, a.Model.Coefficients, got.Model.Coefficients)
	require.NoError(t, got.Validate())

	require.NoError(t, repo.Activate(ctx, a.Manifest.ModelID))
	latest, err := repo.Latest(ctx)
	require.NoError(t, err)
	assert.Equal(t, a.Manifest.ModelID, latest.Manifest.ModelID)

	manifests, err := repo.List(ctx)
	require.NoError(t, err)
	assert.NotEmpty(t, manifests)
}

func TestModelRepository_NotFound(t *testing.T) {
	db := testDB(t)
	repo := NewModelRepository(db)

	_, err := repo.Get(context.Background(), core.NewModelID())
	assert.True(t, core.IsNotFoundError(err))
	assert.True(t, core.IsNotFoundError(repo.Activate(context.Background(), core.NewModelID())))
}
