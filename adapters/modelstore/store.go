// Package modelstore persists fitted risk models as JSON files.
package modelstore

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"riskfusion/adapters/classifier"
	"riskfusion/domain/core"
	"riskfusion/internal/errors"
	"riskfusion/ports"
)

// FormatVersion is written into every model file
const FormatVersion = 1

// envelope is the on-disk layout. Payload holds the family-specific model.
type envelope struct {
	Version      int                  `json:"version"`
	ID           core.ModelID         `json:"model_id"`
	Family       string               `json:"family"`
	CreatedAt    time.Time            `json:"created_at"`
	FeatureNames []string             `json:"feature_names"`
	TrainingHash core.TrainingSetHash `json:"training_hash,omitempty"`
	Metrics      map[string]float64   `json:"metrics,omitempty"`
	Payload      json.RawMessage      `json:"payload"`
}

// FileStore keeps one <model_id>.json file per model in a directory
type FileStore struct {
	dir string
}

var _ ports.ModelRepository = (*FileStore)(nil)

// NewFileStore creates the directory if needed
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create model directory: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

func (s *FileStore) path(id core.ModelID) string {
	return filepath.Join(s.dir, id.String()+".json")
}

// Save writes the record, assigning an ID and timestamp when missing
func (s *FileStore) Save(ctx context.Context, record *ports.ModelRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if record.ID.IsEmpty() {
		record.ID = core.NewModelID()
	}
	return SaveFile(s.path(record.ID), record)
}

// Load reads the record stored under id
func (s *FileStore) Load(ctx context.Context, id core.ModelID) (*ports.ModelRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return LoadFile(s.path(id))
}

// SaveFile writes a record to an explicit path
func SaveFile(path string, record *ports.ModelRecord) error {
	if record == nil || record.Model == nil {
		return errors.InvalidInput("model record has no model")
	}
	payload, err := classifier.Encode(record.Model)
	if err != nil {
		return err
	}

	if record.ID.IsEmpty() {
		record.ID = core.NewModelID()
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now().UTC()
	}
	env := envelope{
		Version:      FormatVersion,
		ID:           record.ID,
		Family:       record.Model.Family(),
		CreatedAt:    record.CreatedAt,
		FeatureNames: record.Model.FeatureNames(),
		TrainingHash: record.TrainingHash,
		Metrics:      record.Metrics,
		Payload:      payload,
	}

	data, err := json.MarshalIndent(env, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode model file: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write model file: %w", err)
	}
	return nil
}

// LoadFile reads a record from an explicit path
func LoadFile(path string) (*ports.ModelRecord, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, errors.NotFound(fmt.Sprintf("model file %s", path))
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read model file: %w", err)
	}

	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, errors.Wrapf(errors.InvalidInput(err.Error()), "model file %s is not valid JSON", path)
	}
	if env.Version != FormatVersion {
		return nil, errors.InvalidInput(fmt.Sprintf("model file %s has version %d, expected %d", path, env.Version, FormatVersion))
	}

	model, err := classifier.Decode(env.Family, env.Payload)
	if core.IsModelNotFittedError(err) {
		return nil, fmt.Errorf("model file %s: %w", path, err)
	}
	if err != nil {
		return nil, errors.WithCode(errors.CodeInvalidInput, err)
	}
	if len(model.FeatureNames()) == 0 {
		return nil, core.NewModelNotFittedError(fmt.Sprintf("model file %s has no training features", path))
	}

	return &ports.ModelRecord{
		ID:           env.ID,
		Family:       env.Family,
		FeatureNames: env.FeatureNames,
		CreatedAt:    env.CreatedAt,
		TrainingHash: env.TrainingHash,
		Metrics:      env.Metrics,
		Model:        model,
	}, nil
}
