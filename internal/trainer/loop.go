package trainer

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"namegen/internal/examples"
)

// Source yields training examples.
type Source interface {
	Next() (examples.Example, error)
}

type LoopConfig struct {
	Iterations        int
	ReportInterval    int
	AveragingInterval int
}

// Progress is emitted every ReportInterval iterations.
type Progress struct {
	Iteration int
	Total     int
	Elapsed   time.Duration
	Loss      float64
	Example   examples.Example
}

func (p Progress) Percent() int {
	if p.Total == 0 {
		return 0
	}
	return p.Iteration * 100 / p.Total
}

// String renders the progress as "<elapsed> (<iteration> <percent>%) <loss>".
func (p Progress) String() string {
	return fmt.Sprintf("%s (%d %d%%) %.4f", FormatElapsed(p.Elapsed), p.Iteration, p.Percent(), p.Loss)
}

// Report summarizes a training loop.
type Report struct {
	Iterations int
	// AverageLosses holds the mean loss of each completed averaging window.
	AverageLosses []float64
	FinalLoss     float64
	Elapsed       time.Duration
}

// Run repeats TrainStep on examples drawn from src. The context is only
// checked between iterations.
func (t *Trainer) Run(ctx context.Context, src Source, cfg LoopConfig, onProgress func(Progress)) (Report, error) {
	if src == nil {
		return Report{}, errors.New("example source is required")
	}
	if cfg.Iterations <= 0 {
		return Report{}, fmt.Errorf("iterations must be > 0, got %d", cfg.Iterations)
	}
	if cfg.ReportInterval < 0 || cfg.AveragingInterval < 0 {
		return Report{}, errors.New("report and averaging intervals must be >= 0")
	}

	start := time.Now()
	report := Report{}
	windowTotal := 0.0

	for iter := 1; iter <= cfg.Iterations; iter++ {
		if err := ctx.Err(); err != nil {
			report.Elapsed = time.Since(start)
			return report, err
		}
		ex, err := src.Next()
		if err != nil {
			return report, err
		}
		res, err := t.TrainStep(ex.CategoryVec, ex.Inputs, ex.Targets)
		if err != nil {
			return report, fmt.Errorf("iteration %d (%s %q): %w", iter, ex.Category, ex.Line, err)
		}
		if math.IsNaN(res.Loss) || math.IsInf(res.Loss, 0) {
			return report, fmt.Errorf("iteration %d: loss diverged", iter)
		}

		report.Iterations = iter
		report.FinalLoss = res.Loss
		windowTotal += res.Loss

		if cfg.ReportInterval > 0 && iter%cfg.ReportInterval == 0 && onProgress != nil {
			onProgress(Progress{
				Iteration: iter,
				Total:     cfg.Iterations,
				Elapsed:   time.Since(start),
				Loss:      res.Loss,
				Example:   ex,
			})
		}
		if cfg.AveragingInterval > 0 && iter%cfg.AveragingInterval == 0 {
			report.AverageLosses = append(report.AverageLosses, windowTotal/float64(cfg.AveragingInterval))
			windowTotal = 0
		}
	}

	report.Elapsed = time.Since(start)
	return report, nil
}

// FormatElapsed renders a duration as "<minutes>m <seconds>s".
func FormatElapsed(d time.Duration) string {
	s := int(d.Seconds())
	return fmt.Sprintf("%dm %ds", s/60, s%60)
}
