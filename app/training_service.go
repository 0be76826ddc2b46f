package app

import (
	"context"
	"time"

	"gochurn/domain/model"
	"gochurn/internal"
	"gochurn/internal/encoding"
	"gochurn/internal/errors"
	"gochurn/internal/report"
	"gochurn/internal/survival"
	"gochurn/ports"
)

// TrainingService runs the offline pipeline: read, encode, fit, persist
type TrainingService struct {
	repo   ports.ArtifactRepository
	logger *internal.Logger
}

// TrainingRequest defines the inputs of one training run
type TrainingRequest struct {
	Reader ports.DatasetReader
	// Activate marks the new model as the one served by default
	Activate bool
	Fit      survival.FitOptions
}

// TrainingResult contains the persisted artifact and its dataset profile
type TrainingResult struct {
	Artifact *model.Artifact
	Profile  *report.Profile
	Runtime  time.Duration
}

// NewTrainingService creates a training service. A nil repo skips persistence.
func NewTrainingService(repo ports.ArtifactRepository, logger *internal.Logger) *TrainingService {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &TrainingService{repo: repo, logger: logger.WithPrefix("Trainer")}
}

// Train fits a model on the reader's dataset. Nothing is persisted when any step fails.
func (s *TrainingService) Train(ctx context.Context, req TrainingRequest) (*TrainingResult, error) {
	startTime := time.Now()

	records, err := req.Reader.ReadRecords(ctx)
	if err != nil {
		return nil, errors.WithCode(errors.CodeInvalidInput, errors.Wrapf(err, "failed to read dataset %s", req.Reader.Source()))
	}
	s.logger.Info("Read %d records from %s", len(records), req.Reader.Source())
	profile := report.BuildProfile(records)

	ts, schema, err := encoding.EncodeTraining(records)
	if err != nil {
		return nil, errors.TrainingError("failed to encode dataset", err)
	}
	s.logger.Info("Encoded %d rows into %d columns (%d dropped)", ts.Prep.RowsUsed, len(schema), ts.Prep.RowsDropped)
	for col, n := range ts.Prep.Imputed {
		if n > 0 {
			s.logger.Debug("Imputed %d missing %s values with mean %.3f", n, col, ts.Prep.Means[col])
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	fitted, err := survival.Fit(ts.X, ts.Durations, ts.Events, schema, req.Fit)
	if err != nil {
		return nil, errors.TrainingError("failed to fit proportional-hazards model", err)
	}
	s.logger.Info("Fit converged in %d iterations (concordance %.3f)", fitted.Summary.Iterations, fitted.Summary.Concordance)

	km, err := survival.FitKaplanMeier(ts.Durations, ts.Events)
	if err != nil {
		return nil, errors.TrainingError("failed to fit Kaplan-Meier estimate", err)
	}

	artifact := model.NewArtifact(schema, fitted, km, model.Manifest{
		DatasetFingerprint: ts.Fingerprint(),
		DatasetSource:      req.Reader.Source(),
		RowsRead:           ts.Prep.RowsRead,
		RowsUsed:           ts.Prep.RowsUsed,
		RowsDropped:        ts.Prep.RowsDropped,
	})
	if err := artifact.Validate(); err != nil {
		return nil, errors.TrainingError("trained artifact is inconsistent", err)
	}

	if s.repo != nil {
		if err := s.repo.Save(ctx, artifact); err != nil {
			return nil, errors.Wrap(err, "failed to save model artifact")
		}
		if req.Activate {
			if err := s.repo.Activate(ctx, artifact.Manifest.ModelID); err != nil {
				return nil, errors.Wrap(err, "failed to activate model")
			}
		}
		s.logger.Info("Stored model %s", artifact.Manifest.ModelID)
	}

	return &TrainingResult{
		Artifact: artifact,
		Profile:  profile,
		Runtime:  time.Since(startTime),
	}, nil
}
