package model

import (
	"fmt"
	"time"

	"gochurn/domain/core"
)

// CodeVersion is stamped into every manifest produced by this build
const CodeVersion = "gochurn/1.0.0"

// Manifest records where an artifact came from. SchemaFingerprint ties the persisted
// schema to the fitted model produced in the same training run.
type Manifest struct {
	ModelID            core.ModelID `json:"model_id"`
	SchemaFingerprint  core.Hash    `json:"schema_fingerprint"`
	DatasetFingerprint core.Hash    `json:"dataset_fingerprint"`
	DatasetSource      string       `json:"dataset_source"`
	RowsRead           int          `json:"rows_read"`
	RowsUsed           int          `json:"rows_used"`
	RowsDropped        int          `json:"rows_dropped"`
	CodeVersion        string       `json:"code_version"`
	CreatedAt          time.Time    `json:"created_at"`
}

// Artifact is the persisted output of a training run
type Artifact struct {
	Manifest    Manifest     `json:"manifest"`
	Schema      Schema       `json:"schema"`
	Model       *FittedModel `json:"model"`
	KaplanMeier *KaplanMeier `json:"kaplan_meier,omitempty"`
}

// NewArtifact assembles an artifact and stamps its manifest
func NewArtifact(schema Schema, fitted *FittedModel, km *KaplanMeier, manifest Manifest) *Artifact {
	manifest.SchemaFingerprint = schema.Fingerprint()
	if manifest.ModelID == "" {
		manifest.ModelID = core.NewModelID()
	}
	if manifest.CodeVersion == "" {
		manifest.CodeVersion = CodeVersion
	}
	if manifest.CreatedAt.IsZero() {
		manifest.CreatedAt = time.Now().UTC()
	}
	return &Artifact{
		Manifest:    manifest,
		Schema:      schema.Clone(),
		Model:       fitted,
		KaplanMeier: km,
	}
}

// Validate checks that the schema and the fitted model come from the same training run.
// It is called once at load time, before any inference.
func (a *Artifact) Validate() error {
	if a.Model == nil {
		return core.NewSchemaMismatchError("artifact has no fitted model")
	}
	if len(a.Schema) == 0 {
		return core.NewSchemaMismatchError("artifact has an empty schema")
	}
	if fp := a.Schema.Fingerprint(); !fp.Equals(a.Manifest.SchemaFingerprint) {
		return core.NewSchemaMismatchError(fmt.Sprintf("schema fingerprint %s does not match manifest %s",
			fp.Short(), a.Manifest.SchemaFingerprint.Short()))
	}
	if len(a.Schema) != a.Model.Dim() {
		return core.NewSchemaMismatchError(fmt.Sprintf("schema has %d columns, model expects %d",
			len(a.Schema), a.Model.Dim()))
	}
	if !a.Schema.Equal(a.Model.Covariates) {
		for i := range a.Schema {
			if a.Schema[i] != a.Model.Covariates[i] {
				return core.NewSchemaMismatchError(fmt.Sprintf("column %d is %q in schema but %q in model",
					i, a.Schema[i], a.Model.Covariates[i]))
			}
		}
	}
	if err := a.Model.Validate(); err != nil {
		return fmt.Errorf("invalid fitted model: %w", err)
	}
	return nil
}
