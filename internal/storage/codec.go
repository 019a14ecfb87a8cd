package storage

import (
	"encoding/json"
	"errors"

	"namegen/internal/model"
)

const (
	CurrentSchemaVersion = 1
	CurrentCodecVersion  = 1
)

var ErrVersionMismatch = errors.New("record version mismatch")

// Stamp sets the current schema and codec versions on a record.
func Stamp() model.VersionedRecord {
	return model.VersionedRecord{SchemaVersion: CurrentSchemaVersion, CodecVersion: CurrentCodecVersion}
}

func EncodeRun(r model.RunRecord) ([]byte, error) {
	return json.Marshal(r)
}

func DecodeRun(data []byte) (model.RunRecord, error) {
	var run model.RunRecord
	if err := json.Unmarshal(data, &run); err != nil {
		return model.RunRecord{}, err
	}
	if err := checkVersion(run.VersionedRecord); err != nil {
		return model.RunRecord{}, err
	}
	return run, nil
}

func EncodeSamples(samples []model.SampleRecord) ([]byte, error) {
	return json.Marshal(samples)
}

func DecodeSamples(data []byte) ([]model.SampleRecord, error) {
	var samples []model.SampleRecord
	if err := json.Unmarshal(data, &samples); err != nil {
		return nil, err
	}
	for _, sample := range samples {
		if err := checkVersion(sample.VersionedRecord); err != nil {
			return nil, err
		}
	}
	return samples, nil
}

func EncodeLossHistory(history []float64) ([]byte, error) {
	return json.Marshal(history)
}

func DecodeLossHistory(data []byte) ([]float64, error) {
	var history []float64
	if err := json.Unmarshal(data, &history); err != nil {
		return nil, err
	}
	return history, nil
}

func checkVersion(v model.VersionedRecord) error {
	if v.SchemaVersion != CurrentSchemaVersion || v.CodecVersion != CurrentCodecVersion {
		return ErrVersionMismatch
	}
	return nil
}
