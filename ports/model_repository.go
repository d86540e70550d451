package ports

import (
	"context"
	"time"

	"riskfusion/domain/core"
)

// ModelRecord is the stored envelope around a fitted model.
type ModelRecord struct {
	ID           core.ModelID         `json:"model_id"`
	Family       string               `json:"family"`
	FeatureNames []string             `json:"feature_names"`
	CreatedAt    time.Time            `json:"created_at"`
	TrainingHash core.TrainingSetHash `json:"training_hash,omitempty"`
	Metrics      map[string]float64   `json:"metrics,omitempty"`
	Model        RiskModel            `json:"-"`
}

// ModelRepository persists fitted models outside the pipeline core.
type ModelRepository interface {
	Save(ctx context.Context, record *ModelRecord) error
	Load(ctx context.Context, id core.ModelID) (*ModelRecord, error)
}
