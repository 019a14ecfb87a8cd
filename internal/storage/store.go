package storage

import (
	"context"

	"namegen/internal/model"
)

// Store persists the training-run ledger: run summaries, averaged loss
// curves and post-training samples.
type Store interface {
	Init(ctx context.Context) error
	SaveRun(ctx context.Context, run model.RunRecord) error
	GetRun(ctx context.Context, id string) (model.RunRecord, bool, error)
	// ListRuns returns runs newest first.
	ListRuns(ctx context.Context) ([]model.RunRecord, error)
	SaveLossHistory(ctx context.Context, runID string, history []float64) error
	GetLossHistory(ctx context.Context, runID string) ([]float64, bool, error)
	SaveSamples(ctx context.Context, runID string, samples []model.SampleRecord) error
	GetSamples(ctx context.Context, runID string) ([]model.SampleRecord, bool, error)
}
