// Package model holds the persistent records of the training-run ledger.
package model

import "time"

// VersionedRecord captures schema and codec evolution for persistent data.
type VersionedRecord struct {
	SchemaVersion int `json:"schema_version"`
	CodecVersion  int `json:"codec_version"`
}

// RunConfig is the training configuration a run was started with.
type RunConfig struct {
	DataDir           string  `json:"data_dir"`
	Letters           string  `json:"letters"`
	HiddenSize        int     `json:"hidden_size"`
	LearningRate      float64 `json:"learning_rate"`
	Iterations        int     `json:"iterations"`
	ReportInterval    int     `json:"report_interval"`
	AveragingInterval int     `json:"averaging_interval"`
	Dropout           float64 `json:"dropout"`
	Optimizer         string  `json:"optimizer"`
	Seed              int64   `json:"seed"`
	MaxLength         int     `json:"max_length"`
}

// RunRecord summarizes one completed or interrupted training run. Model
// parameters are never part of it.
type RunRecord struct {
	VersionedRecord
	ID         string    `json:"id"`
	StartedAt  time.Time `json:"started_at"`
	Config     RunConfig `json:"config"`
	Categories []string  `json:"categories"`
	Examples   int       `json:"examples"`
	Iterations int       `json:"iterations"`
	FinalLoss  float64   `json:"final_loss"`
	ElapsedMS  int64     `json:"elapsed_ms"`
	Completed  bool      `json:"completed"`
}

// SampleRecord is one greedy sample drawn after training.
type SampleRecord struct {
	VersionedRecord
	Category string `json:"category"`
	Seed     string `json:"seed"`
	Name     string `json:"name"`
}
