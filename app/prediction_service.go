package app

import (
	"context"
	"fmt"

	"gochurn/domain/core"
	"gochurn/domain/customer"
	"gochurn/domain/model"
	"gochurn/internal"
	"gochurn/internal/encoding"
	"gochurn/internal/errors"
	"gochurn/internal/survival"
	"gochurn/ports"

	"golang.org/x/sync/errgroup"
)

// PredictionService is the serving context: one validated artifact and its
// schema index, loaded once and shared read-only by every request
type PredictionService struct {
	artifact    *model.Artifact
	index       *encoding.SchemaIndex
	horizons    []int
	concurrency int
	logger      *internal.Logger
}

// PredictionOptions configures inference
type PredictionOptions struct {
	Horizons         []int
	BatchConcurrency int
}

// BatchItem is the outcome of one record in a batch
type BatchItem struct {
	Prediction *model.Prediction
	Err        error
}

// NewPredictionService validates the artifact and builds the serving context
func NewPredictionService(a *model.Artifact, opts PredictionOptions, logger *internal.Logger) (*PredictionService, error) {
	if a == nil {
		return nil, errors.ModelLoadError(fmt.Errorf("no artifact"))
	}
	if err := a.Validate(); err != nil {
		return nil, errors.ModelLoadError(err)
	}
	index, err := encoding.NewSchemaIndex(a.Schema)
	if err != nil {
		return nil, errors.ModelLoadError(err)
	}
	if len(opts.Horizons) == 0 {
		opts.Horizons = model.DefaultHorizons
	}
	if opts.BatchConcurrency <= 0 {
		opts.BatchConcurrency = 1
	}
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &PredictionService{
		artifact:    a,
		index:       index,
		horizons:    append([]int(nil), opts.Horizons...),
		concurrency: opts.BatchConcurrency,
		logger:      logger.WithPrefix("Predictor"),
	}, nil
}

// LoadPredictionService fetches the requested model (or the latest when modelID is empty)
// and builds the serving context
func LoadPredictionService(ctx context.Context, repo ports.ArtifactRepository, modelID string, opts PredictionOptions, logger *internal.Logger) (*PredictionService, error) {
	var (
		a   *model.Artifact
		err error
	)
	if modelID == "" {
		a, err = repo.Latest(ctx)
	} else {
		var id core.ModelID
		id, err = core.ParseModelID(modelID)
		if err != nil {
			return nil, errors.WithCode(errors.CodeConfigInvalid, err)
		}
		a, err = repo.Get(ctx, id)
	}
	if err != nil {
		return nil, errors.ModelLoadError(err)
	}

	svc, err := NewPredictionService(a, opts, logger)
	if err != nil {
		return nil, err
	}
	svc.logger.Info("Serving model %s (%d columns, schema %s)",
		a.Manifest.ModelID, len(a.Schema), a.Manifest.SchemaFingerprint.Short())
	return svc, nil
}

// Artifact returns the served artifact
func (s *PredictionService) Artifact() *model.Artifact {
	return s.artifact
}

// Horizons returns the configured survival horizons
func (s *PredictionService) Horizons() []int {
	return append([]int(nil), s.horizons...)
}

// Predict scores one customer record
func (s *PredictionService) Predict(ctx context.Context, in customer.Input) (*model.Prediction, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	vec, err := encoding.EncodeInference(in, s.index)
	if err != nil {
		return nil, errors.EncodingError(err)
	}
	pred, err := survival.Predict(s.artifact.Model, vec, s.horizons)
	if err != nil {
		// only out-of-range inputs can make a validated model fail
		return nil, errors.WithCode(errors.CodeInvalidInput, errors.Wrap(err, "prediction failed"))
	}
	return pred, nil
}

// PredictBatch scores records concurrently. Results keep input order; a failing
// record does not stop the others.
func (s *PredictionService) PredictBatch(ctx context.Context, inputs []customer.Input) ([]BatchItem, error) {
	items := make([]BatchItem, len(inputs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for i := range inputs {
		i := i
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			pred, err := s.Predict(gctx, inputs[i])
			items[i] = BatchItem{Prediction: pred, Err: err}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return items, nil
}
