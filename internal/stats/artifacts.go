// Package stats writes and reads on-disk training-run artifacts and
// summarizes loss curves.
package stats

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"namegen/internal/model"
)

const (
	runIndexFile    = "run_index.json"
	configFile      = "config.json"
	summaryFile     = "summary.json"
	lossHistoryFile = "loss_history.csv"
	samplesFile     = "samples.json"
)

var errRunIDRequired = errors.New("run id is required")

// RunArtifacts is everything written to a run directory.
type RunArtifacts struct {
	Run         model.RunRecord      `json:"run"`
	LossHistory []float64            `json:"loss_history"`
	Samples     []model.SampleRecord `json:"samples"`
}

type RunIndexEntry struct {
	RunID        string   `json:"run_id"`
	Categories   int      `json:"categories"`
	HiddenSize   int      `json:"hidden_size"`
	Optimizer    string   `json:"optimizer"`
	Iterations   int      `json:"iterations"`
	Seed         int64    `json:"seed"`
	FinalLoss    float64  `json:"final_loss"`
	Completed    bool     `json:"completed"`
	CreatedAtUTC string   `json:"created_at_utc"`
	Samples      []string `json:"samples,omitempty"`
}

// IndexEntryFor derives the run index entry of a run.
func IndexEntryFor(run model.RunRecord, samples []model.SampleRecord) RunIndexEntry {
	names := make([]string, 0, len(samples))
	for _, s := range samples {
		names = append(names, s.Name)
	}
	return RunIndexEntry{
		RunID:        run.ID,
		Categories:   len(run.Categories),
		HiddenSize:   run.Config.HiddenSize,
		Optimizer:    run.Config.Optimizer,
		Iterations:   run.Iterations,
		Seed:         run.Config.Seed,
		FinalLoss:    run.FinalLoss,
		Completed:    run.Completed,
		CreatedAtUTC: run.StartedAt.UTC().Format("2006-01-02T15:04:05.000000000Z"),
		Samples:      names,
	}
}

func WriteRunArtifacts(baseDir string, artifacts RunArtifacts) (string, error) {
	runID := strings.TrimSpace(artifacts.Run.ID)
	if runID == "" {
		return "", errRunIDRequired
	}

	runDir := filepath.Join(baseDir, runID)
	if err := os.MkdirAll(runDir, 0o755); err != nil {
		return "", err
	}

	if err := writeJSON(filepath.Join(runDir, configFile), artifacts.Run.Config); err != nil {
		return "", err
	}
	if err := writeJSON(filepath.Join(runDir, summaryFile), artifacts.Run); err != nil {
		return "", err
	}
	if err := WriteLossHistory(runDir, artifacts.LossHistory); err != nil {
		return "", err
	}
	samples := artifacts.Samples
	if samples == nil {
		samples = []model.SampleRecord{}
	}
	if err := writeJSON(filepath.Join(runDir, samplesFile), samples); err != nil {
		return "", err
	}
	return runDir, nil
}

func AppendRunIndex(baseDir string, entry RunIndexEntry) error {
	if entry.RunID == "" {
		return errRunIDRequired
	}
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return err
	}

	index, err := ListRunIndex(baseDir)
	if err != nil {
		return err
	}
	for i := range index {
		if index[i].RunID == entry.RunID {
			index[i] = entry
			return writeJSON(filepath.Join(baseDir, runIndexFile), index)
		}
	}
	index = append(index, entry)
	return writeJSON(filepath.Join(baseDir, runIndexFile), index)
}

// ListRunIndex returns index entries newest first.
func ListRunIndex(baseDir string) ([]RunIndexEntry, error) {
	data, err := os.ReadFile(filepath.Join(baseDir, runIndexFile))
	if err != nil {
		if os.IsNotExist(err) {
			return []RunIndexEntry{}, nil
		}
		return nil, err
	}

	var entries []RunIndexEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, err
	}

	type indexedEntry struct {
		entry RunIndexEntry
		idx   int
	}
	indexed := make([]indexedEntry, len(entries))
	for i := range entries {
		indexed[i] = indexedEntry{entry: entries[i], idx: i}
	}
	sort.Slice(indexed, func(i, j int) bool {
		if indexed[i].entry.CreatedAtUTC == indexed[j].entry.CreatedAtUTC {
			// Later appends win ties.
			return indexed[i].idx > indexed[j].idx
		}
		return indexed[i].entry.CreatedAtUTC > indexed[j].entry.CreatedAtUTC
	})

	sorted := make([]RunIndexEntry, 0, len(indexed))
	for _, item := range indexed {
		sorted = append(sorted, item.entry)
	}
	return sorted, nil
}

// ExportRunArtifacts copies a run directory to outDir/<runID>.
func ExportRunArtifacts(baseDir, runID, outDir string) (string, error) {
	if strings.TrimSpace(runID) == "" {
		return "", errRunIDRequired
	}

	src := filepath.Join(baseDir, runID)
	if _, err := os.Stat(src); err != nil {
		return "", err
	}
	dst := filepath.Join(outDir, runID)
	if err := os.MkdirAll(dst, 0o755); err != nil {
		return "", err
	}

	for _, file := range []string{configFile, summaryFile, lossHistoryFile, samplesFile} {
		if err := copyFile(filepath.Join(src, file), filepath.Join(dst, file)); err != nil {
			return "", err
		}
	}
	return dst, nil
}

func ReadRunSummary(baseDir, runID string) (model.RunRecord, bool, error) {
	var run model.RunRecord
	ok, err := readJSON(filepath.Join(baseDir, runID, summaryFile), &run)
	return run, ok, err
}

func ReadSamples(baseDir, runID string) ([]model.SampleRecord, bool, error) {
	var samples []model.SampleRecord
	ok, err := readJSON(filepath.Join(baseDir, runID, samplesFile), &samples)
	return samples, ok, err
}

func WriteLossHistory(runDir string, history []float64) error {
	file, err := os.Create(filepath.Join(runDir, lossHistoryFile))
	if err != nil {
		return err
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	if err := writer.Write([]string{"window", "average_loss"}); err != nil {
		return err
	}
	for i, loss := range history {
		if err := writer.Write([]string{
			strconv.Itoa(i + 1),
			strconv.FormatFloat(loss, 'f', -1, 64),
		}); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

func ReadLossHistory(baseDir, runID string) ([]float64, bool, error) {
	file, err := os.Open(filepath.Join(baseDir, runID, lossHistoryFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, err
	}
	defer file.Close()

	reader := csv.NewReader(file)
	header, err := reader.Read()
	if err != nil {
		if err == io.EOF {
			return []float64{}, true, nil
		}
		return nil, false, err
	}
	if len(header) < 2 {
		return nil, false, fmt.Errorf("loss history header must have at least 2 columns")
	}

	history := make([]float64, 0, 64)
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, false, err
		}
		value, err := strconv.ParseFloat(record[1], 64)
		if err != nil {
			return nil, false, err
		}
		history = append(history, value)
	}
	return history, true, nil
}

func readJSON(path string, out any) (bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	if err := json.Unmarshal(data, out); err != nil {
		return false, err
	}
	return true, nil
}

func writeJSON(path string, value any) error {
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	return os.WriteFile(path, data, 0o644)
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return out.Sync()
}
