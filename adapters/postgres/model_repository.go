package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"gochurn/domain/core"
	"gochurn/domain/model"
	"gochurn/ports"

	"github.com/jmoiron/sqlx"
)

// modelRepository implements ports.ArtifactRepository on the churn_models table
type modelRepository struct {
	db *sqlx.DB
}

// NewModelRepository creates a new model registry backed by Postgres
func NewModelRepository(db *sqlx.DB) ports.ArtifactRepository {
	return &modelRepository{db: db}
}

// Save inserts a new artifact. Artifacts are immutable; saving an existing id fails.
func (r *modelRepository) Save(ctx context.Context, a *model.Artifact) error {
	manifestJSON, err := json.Marshal(a.Manifest)
	if err != nil {
		return fmt.Errorf("failed to marshal manifest: %w", err)
	}
	artifactJSON, err := json.Marshal(a)
	if err != nil {
		return fmt.Errorf("failed to marshal artifact: %w", err)
	}

	var concordance sql.NullFloat64
	if a.Model != nil {
		concordance = sql.NullFloat64{Float64: a.Model.Summary.Concordance, Valid: true}
	}

	query := `INSERT INTO churn_models (
		id, schema_fingerprint, dataset_fingerprint, dataset_source, rows_used,
		concordance, code_version, manifest, artifact, created_at
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	_, err = r.db.ExecContext(ctx, query,
		a.Manifest.ModelID.String(), a.Manifest.SchemaFingerprint.String(), a.Manifest.DatasetFingerprint.String(),
		a.Manifest.DatasetSource, a.Manifest.RowsUsed, concordance, a.Manifest.CodeVersion,
		manifestJSON, artifactJSON, a.Manifest.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save model: %w", err)
	}
	return nil
}

// Get retrieves an artifact by id
func (r *modelRepository) Get(ctx context.Context, id core.ModelID) (*model.Artifact, error) {
	return r.getOne(ctx, `SELECT artifact FROM churn_models WHERE id = $1`, id.String())
}

// Latest returns the active model, or the newest when none is active
func (r *modelRepository) Latest(ctx context.Context) (*model.Artifact, error) {
	a, err := r.getOne(ctx, `SELECT artifact FROM churn_models ORDER BY is_active DESC, created_at DESC LIMIT 1`)
	if core.IsNotFoundError(err) {
		return nil, core.ErrArtifactNotFound
	}
	return a, err
}

func (r *modelRepository) getOne(ctx context.Context, query string, args ...interface{}) (*model.Artifact, error) {
	var artifactJSON []byte
	err := r.db.QueryRowContext(ctx, query, args...).Scan(&artifactJSON)
	if err != nil {
		if err == sql.ErrNoRows {
			id := "latest"
			if len(args) > 0 {
				id = fmt.Sprint(args[0])
			}
			return nil, core.NewNotFoundError("model artifact", id)
		}
		return nil, fmt.Errorf("failed to get model: %w", err)
	}

	var a model.Artifact
	if err := json.Unmarshal(artifactJSON, &a); err != nil {
		return nil, fmt.Errorf("failed to unmarshal artifact: %w", err)
	}
	return &a, nil
}

// List returns every manifest, newest first
func (r *modelRepository) List(ctx context.Context) ([]model.Manifest, error) {
	var rows [][]byte
	if err := r.db.SelectContext(ctx, &rows, `SELECT manifest FROM churn_models ORDER BY created_at DESC`); err != nil {
		return nil, fmt.Errorf("failed to list models: %w", err)
	}
	manifests := make([]model.Manifest, 0, len(rows))
	for _, raw := range rows {
		var m model.Manifest
		if err := json.Unmarshal(raw, &m); err != nil {
			return nil, fmt.Errorf("failed to unmarshal manifest: %w", err)
		}
		manifests = append(manifests, m)
	}
	return manifests, nil
}

// Activate marks one model active and clears the flag on all others
func (r *modelRepository) Activate(ctx context.Context, id core.ModelID) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `UPDATE churn_models SET is_active = false WHERE is_active`); err != nil {
		return fmt.Errorf("failed to clear active model: %w", err)
	}
	res, err := tx.ExecContext(ctx, `UPDATE churn_models SET is_active = true WHERE id = $1`, id.String())
	if err != nil {
		return fmt.Errorf("failed to activate model: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return core.NewNotFoundError("model artifact", id.String())
	}
	return tx.Commit()
}
