package storage

import (
	"time"

	"namegen/internal/model"
)

func testRun(id string, startedAt time.Time) model.RunRecord {
	return model.RunRecord{
		VersionedRecord: Stamp(),
		ID:              id,
		StartedAt:       startedAt.UTC(),
		Config: model.RunConfig{
			DataDir:           "testdata/names",
			HiddenSize:        16,
			LearningRate:      0.005,
			Iterations:        50,
			ReportInterval:    10,
			AveragingInterval: 5,
			Dropout:           0.1,
			Optimizer:         "sgd",
			Seed:              7,
			MaxLength:         20,
		},
		Categories: []string{"English", "Russian"},
		Examples:   20,
		Iterations: 50,
		FinalLoss:  2.5,
		ElapsedMS:  42,
		Completed:  true,
	}
}

func testSamples() []model.SampleRecord {
	return []model.SampleRecord{
		{VersionedRecord: Stamp(), Category: "Russian", Seed: "R", Name: "Rovakov"},
		{VersionedRecord: Stamp(), Category: "Russian", Seed: "U", Name: "Uantov"},
	}
}
