package ports

import (
	"context"

	"gochurn/domain/core"
	"gochurn/domain/model"
)

// ArtifactRepository persists trained model artifacts
type ArtifactRepository interface {
	Save(ctx context.Context, artifact *model.Artifact) error
	Get(ctx context.Context, id core.ModelID) (*model.Artifact, error)
	// Latest returns the active artifact, or the most recently created one when none is marked active
	Latest(ctx context.Context) (*model.Artifact, error)
	List(ctx context.Context) ([]model.Manifest, error)
	Activate(ctx context.Context, id core.ModelID) error
}
