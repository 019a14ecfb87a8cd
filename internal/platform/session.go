// Package platform owns one training session: corpus, encoder, model,
// optimizer, trainer, example generator and sampler.
package platform

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"sync"
	"time"

	"namegen/internal/corpus"
	"namegen/internal/examples"
	"namegen/internal/model"
	"namegen/internal/optim"
	"namegen/internal/sampler"
	"namegen/internal/seqmodel"
	"namegen/internal/storage"
	"namegen/internal/trainer"
	"namegen/internal/vocab"
)

const (
	DefaultHiddenSize        = 128
	DefaultLearningRate      = 0.0005
	DefaultIterations        = 100000
	DefaultReportInterval    = 5000
	DefaultAveragingInterval = 500
	DefaultDropout           = 0.1
	DefaultSeed              = 1
)

type Config struct {
	Corpus       *corpus.Index
	Alphabet     *vocab.Alphabet
	HiddenSize   int
	LearningRate float64
	Dropout      float64
	Optimizer    string
	Seed         int64
	MaxLength    int
	// Store receives a run record after each Train call. Optional.
	Store  storage.Store
	Logger *slog.Logger
}

// Sample is one greedy generation from a category and seed.
type Sample struct {
	Category string `json:"category"`
	Seed     string `json:"seed"`
	Name     string `json:"name"`
}

type Session struct {
	mu sync.Mutex

	corpus    *corpus.Index
	encoder   *vocab.Encoder
	model     *seqmodel.LSTM
	trainer   *trainer.Trainer
	generator *examples.Generator
	sampler   *sampler.Sampler
	store     storage.Store
	logger    *slog.Logger

	config Config
}

func NewSession(cfg Config) (*Session, error) {
	if err := cfg.Corpus.Validate(); err != nil {
		return nil, err
	}
	if cfg.Alphabet == nil {
		cfg.Alphabet = vocab.DefaultAlphabet()
	}
	if cfg.HiddenSize == 0 {
		cfg.HiddenSize = DefaultHiddenSize
	}
	if cfg.LearningRate == 0 {
		cfg.LearningRate = DefaultLearningRate
	}
	if cfg.Optimizer == "" {
		cfg.Optimizer = optim.NameSGD
	}
	if cfg.MaxLength == 0 {
		cfg.MaxLength = sampler.DefaultMaxLength
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	enc, err := vocab.NewEncoder(cfg.Alphabet, cfg.Corpus.Categories())
	if err != nil {
		return nil, err
	}
	lstm, err := seqmodel.NewLSTM(seqmodel.LSTMConfig{
		Categories: enc.NumCategories(),
		Vocab:      enc.VocabSize(),
		Hidden:     cfg.HiddenSize,
		Dropout:    cfg.Dropout,
		Seed:       cfg.Seed,
	})
	if err != nil {
		return nil, err
	}
	opt, err := optim.FromName(cfg.Optimizer)
	if err != nil {
		return nil, err
	}
	tr, err := trainer.New(lstm, opt, cfg.LearningRate)
	if err != nil {
		return nil, err
	}
	gen, err := examples.NewGenerator(cfg.Corpus, enc, rand.New(rand.NewSource(cfg.Seed)))
	if err != nil {
		return nil, err
	}
	smp, err := sampler.New(lstm, enc, cfg.MaxLength)
	if err != nil {
		return nil, err
	}

	logger.Debug("session created",
		"categories", enc.NumCategories(),
		"vocab", enc.VocabSize(),
		"hidden", cfg.HiddenSize,
		"optimizer", opt.Name(),
		"seed", cfg.Seed)

	return &Session{
		corpus:    cfg.Corpus,
		encoder:   enc,
		model:     lstm,
		trainer:   tr,
		generator: gen,
		sampler:   smp,
		store:     cfg.Store,
		logger:    logger,
		config:    cfg,
	}, nil
}

func (s *Session) Encoder() *vocab.Encoder {
	return s.encoder
}

func (s *Session) Categories() []string {
	return s.encoder.Categories()
}

// TrainRun describes one Train call for the run ledger.
type TrainRun struct {
	ID        string
	DataDir   string
	StartedAt time.Time
}

// Train runs the training loop. A cancelled context stops it between
// iterations; the report then covers the completed iterations and the run is
// still recorded as incomplete.
func (s *Session) Train(ctx context.Context, run TrainRun, loop trainer.LoopConfig, onProgress func(trainer.Progress)) (trainer.Report, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if run.StartedAt.IsZero() {
		run.StartedAt = time.Now().UTC()
	}
	s.logger.Info("training started",
		"run_id", run.ID,
		"iterations", loop.Iterations,
		"learning_rate", s.config.LearningRate)

	report, err := s.trainer.Run(ctx, s.generator, loop, func(p trainer.Progress) {
		s.logger.Debug("training progress",
			"iteration", p.Iteration,
			"loss", p.Loss,
			"category", p.Example.Category,
			"line", p.Example.Line)
		if onProgress != nil {
			onProgress(p)
		}
	})
	interrupted := errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
	if err != nil && !interrupted {
		return report, err
	}
	if run.ID != "" && s.store != nil {
		record := s.runRecord(run, loop, report, err == nil)
		// The caller's context may already be cancelled.
		if perr := s.persist(context.WithoutCancel(ctx), record, report.AverageLosses); perr != nil {
			return report, fmt.Errorf("persist run %s: %w", run.ID, perr)
		}
	}

	s.logger.Info("training finished",
		"run_id", run.ID,
		"iterations", report.Iterations,
		"final_loss", report.FinalLoss,
		"elapsed", report.Elapsed,
		"interrupted", interrupted)
	return report, err
}

// Sample generates one string greedily.
func (s *Session) Sample(category string, start rune, maxLength int) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sampler.Sample(category, start, maxLength)
}

// Samples generates one string per seed with the session max length.
func (s *Session) Samples(category string, starts []rune) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sampler.Samples(category, starts)
}

// SampleCategories generates strings for every named category (all when
// none are named) from seeds, or from each category's default seeds when
// seeds is empty. maxLength 0 selects the session max length. A failing
// category does not stop the others: their samples are returned together
// with the joined per-category errors.
func (s *Session) SampleCategories(categories []string, seeds []rune, maxLength int) ([]Sample, error) {
	if len(categories) == 0 {
		categories = s.encoder.Categories()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if maxLength == 0 {
		maxLength = s.sampler.MaxLength()
	}
	var (
		out  []Sample
		errs []error
	)
	for _, category := range categories {
		starts := seeds
		if len(starts) == 0 {
			starts = sampler.DefaultSeeds(category, s.encoder.Alphabet())
		}
		names := make([]string, 0, len(starts))
		var err error
		for _, start := range starts {
			var name string
			if name, err = s.sampler.Sample(category, start, maxLength); err != nil {
				break
			}
			names = append(names, name)
		}
		if err != nil {
			s.logger.Warn("sampling failed", "category", category, "error", err)
			errs = append(errs, fmt.Errorf("category %s: %w", category, err))
			continue
		}
		for i, name := range names {
			out = append(out, Sample{Category: category, Seed: string(starts[i]), Name: name})
		}
	}
	return out, errors.Join(errs...)
}

// RecordSamples stores samples against a previously trained run.
func (s *Session) RecordSamples(ctx context.Context, runID string, samples []Sample) error {
	if s.store == nil || runID == "" {
		return nil
	}
	return s.store.SaveSamples(ctx, runID, ToSampleRecords(samples))
}

func ToSampleRecords(samples []Sample) []model.SampleRecord {
	records := make([]model.SampleRecord, 0, len(samples))
	for _, sample := range samples {
		records = append(records, model.SampleRecord{
			VersionedRecord: storage.Stamp(),
			Category:        sample.Category,
			Seed:            sample.Seed,
			Name:            sample.Name,
		})
	}
	return records
}

func (s *Session) runRecord(run TrainRun, loop trainer.LoopConfig, report trainer.Report, completed bool) model.RunRecord {
	return model.RunRecord{
		VersionedRecord: storage.Stamp(),
		ID:              run.ID,
		StartedAt:       run.StartedAt,
		Config: model.RunConfig{
			DataDir:           run.DataDir,
			Letters:           s.encoder.Alphabet().Letters(),
			HiddenSize:        s.config.HiddenSize,
			LearningRate:      s.config.LearningRate,
			Iterations:        loop.Iterations,
			ReportInterval:    loop.ReportInterval,
			AveragingInterval: loop.AveragingInterval,
			Dropout:           s.config.Dropout,
			Optimizer:         s.config.Optimizer,
			Seed:              s.config.Seed,
			MaxLength:         s.config.MaxLength,
		},
		Categories: s.encoder.Categories(),
		Examples:   s.corpus.Len(),
		Iterations: report.Iterations,
		FinalLoss:  report.FinalLoss,
		ElapsedMS:  report.Elapsed.Milliseconds(),
		Completed:  completed,
	}
}

func (s *Session) persist(ctx context.Context, record model.RunRecord, history []float64) error {
	if err := s.store.SaveRun(ctx, record); err != nil {
		return err
	}
	return s.store.SaveLossHistory(ctx, record.ID, history)
}
