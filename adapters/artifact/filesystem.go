package artifact

import (
	"compress/gzip"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gochurn/domain/core"
	"gochurn/domain/model"
	"gochurn/internal"
)

const (
	artifactSuffix = ".json.gz"
	activeFile     = "ACTIVE"
)

// FileStore keeps one gzip-compressed JSON artifact per model in a directory.
// The ACTIVE file, when present, holds the id of the artifact served by default.
type FileStore struct {
	dir    string
	logger *internal.Logger
}

// NewFileStore creates the directory if needed
func NewFileStore(dir string, logger *internal.Logger) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create model directory: %w", err)
	}
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &FileStore{dir: dir, logger: logger.WithPrefix("ArtifactStore")}, nil
}

func (s *FileStore) path(id core.ModelID) string {
	return filepath.Join(s.dir, id.String()+artifactSuffix)
}

// Save writes the artifact atomically (temp file then rename)
func (s *FileStore) Save(ctx context.Context, a *model.Artifact) error {
	if a == nil || a.Manifest.ModelID == "" {
		return fmt.Errorf("artifact has no model id")
	}
	tmp, err := os.CreateTemp(s.dir, ".artifact-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	zw := gzip.NewWriter(tmp)
	if err := json.NewEncoder(zw).Encode(a); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to encode artifact: %w", err)
	}
	if err := zw.Close(); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to compress artifact: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write artifact: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path(a.Manifest.ModelID)); err != nil {
		return fmt.Errorf("failed to store artifact: %w", err)
	}
	s.logger.Info("Saved model %s (schema %s)", a.Manifest.ModelID, a.Manifest.SchemaFingerprint.Short())
	return nil
}

// Get reads one artifact by id
func (s *FileStore) Get(ctx context.Context, id core.ModelID) (*model.Artifact, error) {
	return s.readFile(s.path(id), id.String())
}

func (s *FileStore) readFile(path, id string) (*model.Artifact, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, core.NewNotFoundError("model artifact", id)
		}
		return nil, fmt.Errorf("failed to open artifact: %w", err)
	}
	defer f.Close()

	zr, err := gzip.NewReader(f)
	if err != nil {
		return nil, fmt.Errorf("failed to decompress artifact %s: %w", id, err)
	}
	defer zr.Close()

	var a model.Artifact
	if err := json.NewDecoder(zr).Decode(&a); err != nil {
		return nil, fmt.Errorf("failed to decode artifact %s: %w", id, err)
	}
	return &a, nil
}

// List returns the manifests of every stored artifact, newest first
func (s *FileStore) List(ctx context.Context) ([]model.Manifest, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list model directory: %w", err)
	}
	var manifests []model.Manifest
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, artifactSuffix) {
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		a, err := s.readFile(filepath.Join(s.dir, name), strings.TrimSuffix(name, artifactSuffix))
		if err != nil {
			s.logger.Warn("Skipping unreadable artifact %s: %v", name, err)
			continue
		}
		manifests = append(manifests, a.Manifest)
	}
	sort.Slice(manifests, func(i, j int) bool {
		if manifests[i].CreatedAt.Equal(manifests[j].CreatedAt) {
			return manifests[i].ModelID > manifests[j].ModelID
		}
		return manifests[i].CreatedAt.After(manifests[j].CreatedAt)
	})
	return manifests, nil
}

// Activate marks id as the artifact returned by Latest
func (s *FileStore) Activate(ctx context.Context, id core.ModelID) error {
	if _, err := os.Stat(s.path(id)); err != nil {
		if os.IsNotExist(err) {
			return core.NewNotFoundError("model artifact", id.String())
		}
		return err
	}
	if err := os.WriteFile(filepath.Join(s.dir, activeFile), []byte(id.String()+"\n"), 0o644); err != nil {
		return fmt.Errorf("failed to mark model active: %w", err)
	}
	return nil
}

// Latest returns the active artifact, else the newest one
func (s *FileStore) Latest(ctx context.Context) (*model.Artifact, error) {
	if raw, err := os.ReadFile(filepath.Join(s.dir, activeFile)); err == nil {
		id, err := core.ParseModelID(string(raw))
		if err != nil {
			return nil, fmt.Errorf("invalid ACTIVE file: %w", err)
		}
		return s.Get(ctx, id)
	}

	manifests, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	if len(manifests) == 0 {
		return nil, core.ErrArtifactNotFound
	}
	return s.Get(ctx, manifests[0].ModelID)
}
