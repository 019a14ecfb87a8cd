// Package namegen is the public API for training conditional character-level
// name generators and inspecting past training runs.
package namegen

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"namegen/internal/corpus"
	"namegen/internal/model"
	"namegen/internal/platform"
	"namegen/internal/stats"
	"namegen/internal/storage"
	"namegen/internal/trainer"
	"namegen/internal/vocab"
)

const (
	defaultArtifactsDir = "runs"
	defaultExportsDir   = "exports"
	defaultDBPath       = "namegen.db"
	defaultRunsLimit    = 20
)

var ErrNoRuns = errors.New("no runs available")

type Options struct {
	StoreKind    string
	DBPath       string
	ArtifactsDir string
	ExportsDir   string
	Logger       *slog.Logger
}

type Client struct {
	store  storage.Store
	logger *slog.Logger

	initOnce sync.Once
	initErr  error

	artifactsDir string
	exportsDir   string
}

// Progress is reported every ReportInterval training iterations.
type Progress struct {
	Iteration int
	Total     int
	Percent   int
	Elapsed   time.Duration
	Loss      float64
	Category  string
	Line      string
	// Text is the rendered "<elapsed> (<iteration> <percent>%) <loss>" line.
	Text string
}

type TrainRequest struct {
	DataDir           string
	Letters           string
	HiddenSize        int
	LearningRate      float64
	Iterations        int
	ReportInterval    int
	AveragingInterval int
	// Dropout nil selects the default; zero disables dropout.
	Dropout   *float64
	Optimizer string
	Seed      int64
	MaxLength int
	// SampleCategories limits post-training sampling; empty means all.
	SampleCategories []string
	// SampleSeeds overrides the per-category default seeds.
	SampleSeeds string
	// SampleMaxLength caps post-training samples; zero uses MaxLength.
	SampleMaxLength int
	OnProgress      func(Progress)
}

type Sample = platform.Sample

type TrainSummary struct {
	RunID         string
	ArtifactsDir  string
	Categories    []string
	Examples      int
	Iterations    int
	FinalLoss     float64
	AverageLosses []float64
	Elapsed       time.Duration
	Completed     bool
	Samples       []Sample
	// Model can keep sampling from the trained parameters.
	Model *Model
}

type RunsRequest struct {
	Limit int
}

type RunItem struct {
	RunID        string
	CreatedAtUTC string
	Categories   int
	HiddenSize   int
	Optimizer    string
	Iterations   int
	Seed         int64
	FinalLoss    float64
	Completed    bool
}

type RunRequest struct {
	RunID  string
	Latest bool
}

type RunDetails struct {
	Run     model.RunRecord
	Loss    stats.LossSummary
	Samples []model.SampleRecord
}

type LossHistoryRequest struct {
	RunID  string
	Latest bool
	Limit  int
}

type ExportRequest struct {
	RunID  string
	Latest bool
	OutDir string
}

type ExportSummary struct {
	RunID     string
	Directory string
}

func New(opts Options) (*Client, error) {
	storeKind := opts.StoreKind
	if storeKind == "" {
		storeKind = storage.DefaultStoreKind()
	}
	dbPath := opts.DBPath
	if dbPath == "" {
		dbPath = defaultDBPath
	}
	artifactsDir := opts.ArtifactsDir
	if artifactsDir == "" {
		artifactsDir = defaultArtifactsDir
	}
	exportsDir := opts.ExportsDir
	if exportsDir == "" {
		exportsDir = defaultExportsDir
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	store, err := storage.NewStore(storeKind, dbPath)
	if err != nil {
		return nil, err
	}

	return &Client{
		store:        store,
		logger:       logger,
		artifactsDir: artifactsDir,
		exportsDir:   exportsDir,
	}, nil
}

func (c *Client) Close() error {
	return storage.CloseIfSupported(c.store)
}

func (c *Client) Init(ctx context.Context) error {
	c.initOnce.Do(func() {
		c.initErr = c.store.Init(ctx)
	})
	return c.initErr
}

// Train loads a corpus directory, trains a fresh model, samples from it and
// records the run. Sampling options are checked before training starts. On
// cancellation the partial run is still recorded and the context error is
// returned with the summary.
func (c *Client) Train(ctx context.Context, req TrainRequest) (TrainSummary, error) {
	if req.DataDir == "" {
		return TrainSummary{}, errors.New("data dir is required")
	}
	if req.Letters == "" {
		req.Letters = vocab.DefaultLetters
	}
	if req.HiddenSize <= 0 {
		req.HiddenSize = platform.DefaultHiddenSize
	}
	if req.LearningRate <= 0 {
		req.LearningRate = platform.DefaultLearningRate
	}
	if req.Iterations <= 0 {
		req.Iterations = platform.DefaultIterations
	}
	if req.ReportInterval <= 0 {
		req.ReportInterval = platform.DefaultReportInterval
	}
	if req.AveragingInterval <= 0 {
		req.AveragingInterval = platform.DefaultAveragingInterval
	}
	dropout := platform.DefaultDropout
	if req.Dropout != nil {
		dropout = *req.Dropout
	}
	if req.Seed == 0 {
		req.Seed = platform.DefaultSeed
	}

	if err := c.Init(ctx); err != nil {
		return TrainSummary{}, err
	}

	alphabet, err := vocab.NewAlphabet(req.Letters)
	if err != nil {
		return TrainSummary{}, err
	}
	idx, err := corpus.LoadDir(ctx, req.DataDir, alphabet.Contains)
	if err != nil {
		return TrainSummary{}, err
	}

	session, err := platform.NewSession(platform.Config{
		Corpus:       idx,
		Alphabet:     alphabet,
		HiddenSize:   req.HiddenSize,
		LearningRate: req.LearningRate,
		Dropout:      dropout,
		Optimizer:    req.Optimizer,
		Seed:         req.Seed,
		MaxLength:    req.MaxLength,
		Store:        c.store,
		Logger:       c.logger,
	})
	if err != nil {
		return TrainSummary{}, err
	}

	if err := checkSampling(session.Encoder(), req.SampleCategories, req.SampleSeeds, req.SampleMaxLength); err != nil {
		return TrainSummary{}, err
	}

	runID := uuid.NewString()
	c.logger.Info("corpus loaded", "run_id", runID, "dir", req.DataDir, "categories", idx.NumCategories(), "examples", idx.Len())

	report, trainErr := session.Train(ctx, platform.TrainRun{
		ID:        runID,
		DataDir:   req.DataDir,
		StartedAt: time.Now().UTC(),
	}, trainer.LoopConfig{
		Iterations:        req.Iterations,
		ReportInterval:    req.ReportInterval,
		AveragingInterval: req.AveragingInterval,
	}, func(p trainer.Progress) {
		if req.OnProgress == nil {
			return
		}
		req.OnProgress(Progress{
			Iteration: p.Iteration,
			Total:     p.Total,
			Percent:   p.Percent(),
			Elapsed:   p.Elapsed,
			Loss:      p.Loss,
			Category:  p.Example.Category,
			Line:      p.Example.Line,
			Text:      p.String(),
		})
	})
	if trainErr != nil && ctx.Err() == nil {
		return TrainSummary{}, trainErr
	}

	trained := &Model{session: session}
	samples, sampleErr := trained.SampleAll(req.SampleCategories, req.SampleSeeds, req.SampleMaxLength)
	if sampleErr != nil {
		c.logger.Warn("sampling incomplete", "run_id", runID, "samples", len(samples), "error", sampleErr)
	}
	// Persisting must survive a cancelled training context.
	persistCtx := context.WithoutCancel(ctx)
	if err := session.RecordSamples(persistCtx, runID, samples); err != nil {
		return TrainSummary{}, err
	}

	run, ok, err := c.store.GetRun(persistCtx, runID)
	if err != nil {
		return TrainSummary{}, err
	}
	if !ok {
		return TrainSummary{}, fmt.Errorf("run %s was not recorded", runID)
	}
	records := platform.ToSampleRecords(samples)
	runDir, err := stats.WriteRunArtifacts(c.artifactsDir, stats.RunArtifacts{
		Run:         run,
		LossHistory: report.AverageLosses,
		Samples:     records,
	})
	if err != nil {
		return TrainSummary{}, err
	}
	if err := stats.AppendRunIndex(c.artifactsDir, stats.IndexEntryFor(run, records)); err != nil {
		return TrainSummary{}, err
	}

	return TrainSummary{
		RunID:         runID,
		ArtifactsDir:  filepath.Clean(runDir),
		Categories:    run.Categories,
		Examples:      run.Examples,
		Iterations:    report.Iterations,
		FinalLoss:     report.FinalLoss,
		AverageLosses: append([]float64(nil), report.AverageLosses...),
		Elapsed:       report.Elapsed,
		Completed:     run.Completed,
		Samples:       samples,
		Model:         trained,
	}, errors.Join(trainErr, sampleErr)
}

func (c *Client) Runs(_ context.Context, req RunsRequest) ([]RunItem, error) {
	if req.Limit < 0 {
		return nil, errors.New("limit must be >= 0")
	}
	if req.Limit == 0 {
		req.Limit = defaultRunsLimit
	}

	entries, err := stats.ListRunIndex(c.artifactsDir)
	if err != nil {
		return nil, err
	}
	if len(entries) > req.Limit {
		entries = entries[:req.Limit]
	}

	out := make([]RunItem, 0, len(entries))
	for _, e := range entries {
		out = append(out, RunItem{
			RunID:        e.RunID,
			CreatedAtUTC: e.CreatedAtUTC,
			Categories:   e.Categories,
			HiddenSize:   e.HiddenSize,
			Optimizer:    e.Optimizer,
			Iterations:   e.Iterations,
			Seed:         e.Seed,
			FinalLoss:    e.FinalLoss,
			Completed:    e.Completed,
		})
	}
	return out, nil
}

// Run returns one run from the store, falling back to its artifacts.
func (c *Client) Run(ctx context.Context, req RunRequest) (RunDetails, error) {
	runID, err := c.resolveRunID(req.RunID, req.Latest)
	if err != nil {
		return RunDetails{}, err
	}
	if err := c.Init(ctx); err != nil {
		return RunDetails{}, err
	}

	run, ok, err := c.store.GetRun(ctx, runID)
	if err != nil {
		return RunDetails{}, err
	}
	if !ok {
		run, ok, err = stats.ReadRunSummary(c.artifactsDir, runID)
		if err != nil {
			return RunDetails{}, err
		}
		if !ok {
			return RunDetails{}, fmt.Errorf("run not found: %s", runID)
		}
	}

	history, _, err := c.lossHistory(ctx, runID)
	if err != nil {
		return RunDetails{}, err
	}
	samples, ok, err := c.store.GetSamples(ctx, runID)
	if err != nil {
		return RunDetails{}, err
	}
	if !ok {
		if samples, _, err = stats.ReadSamples(c.artifactsDir, runID); err != nil {
			return RunDetails{}, err
		}
	}
	return RunDetails{Run: run, Loss: stats.SummarizeLoss(history), Samples: samples}, nil
}

func (c *Client) LossHistory(ctx context.Context, req LossHistoryRequest) ([]float64, error) {
	if req.Limit < 0 {
		return nil, errors.New("limit must be >= 0")
	}
	runID, err := c.resolveRunID(req.RunID, req.Latest)
	if err != nil {
		return nil, err
	}
	if err := c.Init(ctx); err != nil {
		return nil, err
	}
	history, ok, err := c.lossHistory(ctx, runID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("loss history not found for run id: %s", runID)
	}
	if req.Limit > 0 && len(history) > req.Limit {
		history = history[:req.Limit]
	}
	return history, nil
}

func (c *Client) Export(_ context.Context, req ExportRequest) (ExportSummary, error) {
	runID, err := c.resolveRunID(req.RunID, req.Latest)
	if err != nil {
		return ExportSummary{}, err
	}
	if req.OutDir == "" {
		req.OutDir = c.exportsDir
	}

	exportedDir, err := stats.ExportRunArtifacts(c.artifactsDir, runID, req.OutDir)
	if err != nil {
		return ExportSummary{}, err
	}
	c.logger.Debug("run exported", "run_id", runID, "dir", exportedDir)
	return ExportSummary{RunID: runID, Directory: filepath.Clean(exportedDir)}, nil
}

func (c *Client) lossHistory(ctx context.Context, runID string) ([]float64, bool, error) {
	history, ok, err := c.store.GetLossHistory(ctx, runID)
	if err != nil || ok {
		return history, ok, err
	}
	return stats.ReadLossHistory(c.artifactsDir, runID)
}

func (c *Client) resolveRunID(runID string, latest bool) (string, error) {
	if runID != "" && latest {
		return "", errors.New("use either run id or latest")
	}
	if !latest {
		if runID == "" {
			return "", errors.New("run id or latest is required")
		}
		return runID, nil
	}
	entries, err := stats.ListRunIndex(c.artifactsDir)
	if err != nil {
		return "", err
	}
	if len(entries) == 0 {
		return "", ErrNoRuns
	}
	return entries[0].RunID, nil
}
