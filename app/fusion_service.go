package app

import (
	"context"
	"fmt"
	"time"

	"riskfusion/domain/core"
	"riskfusion/domain/frame"
	"riskfusion/domain/metrics"
	"riskfusion/internal"
	"riskfusion/ports"
)

// PlaceholderPolicy decides what fills the classifier columns when no model
// is supplied.
type PlaceholderPolicy string

const (
	// PlaceholderRandom draws a uniform probability and an independent uniform
	// class per row. The result is flagged as a placeholder.
	PlaceholderRandom PlaceholderPolicy = "random"

	// PlaceholderFail refuses to run without a model unless the batch is
	// labeled and a model will be trained from it.
	PlaceholderFail PlaceholderPolicy = "fail"
)

// placeholderStream names the RNG stream used for placeholder predictions
const placeholderStream = "placeholder"

// neutralPrior stands in for ml_probability when a model needs
// probability-derived features that cannot exist before it runs.
const neutralPrior = 0.5

// Options control one fusion run
type Options struct {
	LabelColumn       string
	MinTrainingRows   int
	PlaceholderPolicy PlaceholderPolicy
	PlaceholderSeed   int64
}

// DefaultOptions returns the options of a plain enrich_and_train call
func DefaultOptions() Options {
	return Options{
		LabelColumn:       frame.DefaultLabelColumn,
		MinTrainingRows:   2,
		PlaceholderPolicy: PlaceholderRandom,
	}
}

// Stages are the non-classifier scorers, run in this order around the
// classifier: Rule, classifier, Neutrosophic, AHP, TOPSIS, Grey.
type Stages struct {
	Rule         ports.ScoringStage
	Neutrosophic ports.ScoringStage
	AHP          ports.ScoringStage
	TOPSIS       ports.ScoringStage
	Grey         ports.ScoringStage
}

// byGroup returns the stage that writes group g
func (s Stages) byGroup(g frame.ColumnGroup) ports.ScoringStage {
	for _, stage := range []ports.ScoringStage{s.Rule, s.Neutrosophic, s.AHP, s.TOPSIS, s.Grey} {
		if stage != nil && stage.Group() == g {
			return stage
		}
	}
	return nil
}

// TrainingReport describes a model fitted during a run. Metrics are
// in-sample: they are computed on the batch the model was fitted on.
type TrainingReport struct {
	ModelID      core.ModelID         `json:"model_id"`
	Family       string               `json:"family"`
	LabeledRows  int                  `json:"labeled_rows"`
	Metrics      metrics.Metrics      `json:"metrics"`
	TrainingHash core.TrainingSetHash `json:"training_hash"`
	Duration     time.Duration        `json:"duration"`
}

// FusionResult is the output of EnrichAndTrain
type FusionResult struct {
	Frame *frame.Frame

	// Model is the freshly trained model when Trained is set, otherwise the
	// model that was passed in (nil if none).
	Model ports.RiskModel

	// ModelPresent reports that ml_probability came from a real model.
	ModelPresent bool

	// Placeholder reports that ml_probability and ml_predicted_class are
	// random draws and carry no information.
	Placeholder bool

	Trained  bool
	Training *TrainingReport

	// BatchSize is the row count TOPSIS and grey scores are relative to.
	BatchSize int

	Fingerprint core.FrameHash
}

// FusionService runs the multi-method risk pipeline over one batch
type FusionService struct {
	stages  Stages
	trainer ports.RiskModelTrainer
	rngPort ports.RNGPort
	logger  *internal.Logger
}

// NewFusionService creates a fusion service
func NewFusionService(stages Stages, trainer ports.RiskModelTrainer, rngPort ports.RNGPort, logger *internal.Logger) *FusionService {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &FusionService{
		stages:  stages,
		trainer: trainer,
		rngPort: rngPort,
		logger:  logger.With("FusionService"),
	}
}

// EnrichAndTrain scores every row under all methods and, when the batch
// carries the label column, fits a new model on the assembled features.
// The input frame is never modified and nothing is returned on error.
func (s *FusionService) EnrichAndTrain(ctx context.Context, in *frame.Frame, model ports.RiskModel, opts Options) (*FusionResult, error) {
	startTime := time.Now()

	if in == nil {
		return nil, core.NewSchemaError("frame", -1, "no frame supplied")
	}
	if err := in.Validate(); err != nil {
		return nil, err
	}
	if opts.LabelColumn == "" {
		opts.LabelColumn = frame.DefaultLabelColumn
	}

	f := in.Clone()
	trainable := f.HasLabelColumn(opts.LabelColumn)
	result := &FusionResult{BatchSize: f.Len()}

	if err := s.runStage(ctx, s.stages.Rule, f); err != nil {
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	switch {
	case model != nil:
		if err := s.applyModel(f, model); err != nil {
			return nil, err
		}
		result.ModelPresent = true
	case opts.PlaceholderPolicy == PlaceholderFail && !trainable:
		return nil, core.NewModelRequiredError("no model supplied and the batch has no label column")
	default:
		s.applyPlaceholder(f, opts.PlaceholderSeed)
		result.Placeholder = true
	}

	for _, stage := range []ports.ScoringStage{s.stages.Neutrosophic, s.stages.AHP, s.stages.TOPSIS, s.stages.Grey} {
		if err := s.runStage(ctx, stage, f); err != nil {
			return nil, err
		}
	}

	result.Model = model
	if trainable {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		fitted, report, err := s.fit(f, opts.MinTrainingRows)
		if err != nil {
			return nil, err
		}
		result.Model = fitted
		result.Trained = true
		result.Training = report
	}

	result.Frame = f
	result.Fingerprint = f.Fingerprint()

	s.logger.Info("Enriched %d rows in %v (model_present=%t placeholder=%t trained=%t)",
		f.Len(), time.Since(startTime), result.ModelPresent, result.Placeholder, result.Trained)
	return result, nil
}

// ApplyMLModel writes ml_probability and ml_predicted_class from model onto
// a copy of f.
func (s *FusionService) ApplyMLModel(f *frame.Frame, model ports.RiskModel) (*frame.Frame, error) {
	if model == nil {
		return nil, core.NewModelNotFittedError("no model supplied")
	}
	if err := f.Validate(); err != nil {
		return nil, err
	}
	out := f.Clone()
	if err := s.applyModel(out, model); err != nil {
		return nil, err
	}
	return out, nil
}

// Fit trains a model on the labeled rows of f, which must already carry
// every training feature.
func (s *FusionService) Fit(f *frame.Frame, minRows int) (ports.RiskModel, *TrainingReport, error) {
	return s.fit(f, minRows)
}

func (s *FusionService) runStage(ctx context.Context, stage ports.ScoringStage, f *frame.Frame) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if stage == nil {
		return fmt.Errorf("fusion service is missing a scoring stage")
	}
	stageStart := time.Now()
	if err := stage.Apply(f); err != nil {
		return fmt.Errorf("stage %s: %w", stage.Name(), err)
	}
	s.logger.Debug("Stage %s scored %d rows in %v", stage.Name(), f.Len(), time.Since(stageStart))
	return nil
}

// applyModel resolves the model's features on every row and writes the
// classifier columns in place.
func (s *FusionService) applyModel(f *frame.Frame, model ports.RiskModel) error {
	names := model.FeatureNames()
	if len(names) == 0 {
		return core.NewModelNotFittedError(fmt.Sprintf("%s model reports no training features", model.Family()))
	}

	X, err := s.resolveFeatures(f, names)
	if err != nil {
		return err
	}

	outputs := make([]frame.ClassifierOutput, len(X))
	for i, row := range X {
		p, err := model.PredictProba(row)
		if err != nil {
			return fmt.Errorf("row %d: %w", i, err)
		}
		outputs[i] = frame.ClassifierOutput{Probability: p, PredictedClass: metrics.PredictedClass(p)}
	}
	for i := range f.Records {
		out := outputs[i]
		f.Records[i].ML = &out
	}
	f.AddGroup(frame.GroupClassifier)
	s.logger.Debug("Applied %s model to %d rows", model.Family(), f.Len())
	return nil
}

// resolveFeatures builds the model's input matrix on a scratch copy of f.
// Probability-derived features always take the neutral prior so a model's
// output never depends on an earlier prediction; other features whose stage
// has not run on f are computed on the copy.
func (s *FusionService) resolveFeatures(f *frame.Frame, names []string) ([][]float64, error) {
	needed := make(map[frame.ColumnGroup]bool)
	for _, name := range names {
		if g, ok := frame.GroupOf(name); ok {
			needed[g] = true
		}
	}

	scratch := f.Clone()
	if needed[frame.GroupClassifier] || needed[frame.GroupNeutrosophic] {
		for i := range scratch.Records {
			scratch.Records[i].ML = &frame.ClassifierOutput{
				Probability:    neutralPrior,
				PredictedClass: metrics.PredictedClass(neutralPrior),
			}
		}
		scratch.AddGroup(frame.GroupClassifier)
	}

	for _, g := range []frame.ColumnGroup{frame.GroupRule, frame.GroupNeutrosophic, frame.GroupAHP, frame.GroupTOPSIS, frame.GroupGrey} {
		if !needed[g] || (g != frame.GroupNeutrosophic && scratch.HasGroup(g)) {
			continue
		}
		stage := s.stages.byGroup(g)
		if stage == nil {
			return nil, core.NewSchemaError(g.Columns()[0], -1, "no stage available to compute column")
		}
		if err := stage.Apply(scratch); err != nil {
			return nil, fmt.Errorf("resolving %s features: %w", g, err)
		}
	}
	return scratch.Matrix(names)
}

// applyPlaceholder fills the classifier columns with seeded random draws
func (s *FusionService) applyPlaceholder(f *frame.Frame, seed int64) {
	rng := s.rngPort.Stream(placeholderStream, seed)
	for i := range f.Records {
		f.Records[i].ML = &frame.ClassifierOutput{
			Probability:    rng.Float64(),
			PredictedClass: rng.Intn(2),
		}
	}
	f.AddGroup(frame.GroupClassifier)
	s.logger.Warn("No risk model supplied: ml_probability holds random placeholders for %d rows", f.Len())
}

func (s *FusionService) fit(f *frame.Frame, minRows int) (ports.RiskModel, *TrainingReport, error) {
	if s.trainer == nil {
		return nil, nil, fmt.Errorf("fusion service has no model trainer")
	}
	if minRows < 1 {
		minRows = 1
	}

	labeled := f.LabeledCount()
	if labeled < minRows {
		return nil, nil, core.NewInsufficientDataError(labeled, minRows)
	}

	all, err := f.Matrix(frame.TrainingFeatures)
	if err != nil {
		return nil, nil, err
	}
	X := make([][]float64, 0, labeled)
	y := make([]int, 0, labeled)
	for i := range f.Records {
		if label := f.Records[i].OutbreakRisk; label != nil {
			X = append(X, all[i])
			y = append(y, *label)
		}
	}

	fitStart := time.Now()
	model, err := s.trainer.Fit(X, y, frame.TrainingFeatures)
	if err != nil {
		return nil, nil, fmt.Errorf("%s training failed: %w", s.trainer.Family(), err)
	}

	scores, err := metrics.Evaluate(model, X, y)
	if err != nil {
		return nil, nil, err
	}

	report := &TrainingReport{
		ModelID:      core.NewModelID(),
		Family:       model.Family(),
		LabeledRows:  labeled,
		Metrics:      scores,
		TrainingHash: trainingHash(X, y),
		Duration:     time.Since(fitStart),
	}
	s.logger.Info("Trained %s model %s on %d labeled rows (accuracy=%.3f f1=%.3f)",
		report.Family, report.ModelID, labeled, scores.Accuracy, scores.F1)
	return model, report, nil
}

func trainingHash(X [][]float64, y []int) core.TrainingSetHash {
	rows := make([][]string, len(X))
	labels := make([]string, len(y))
	for i, row := range X {
		rows[i] = make([]string, len(row))
		for j, v := range row {
			rows[i][j] = frame.FormatFloat(v)
		}
		labels[i] = fmt.Sprint(y[i])
	}
	return core.ComputeTrainingSetHash(frame.TrainingFeatures, rows, labels)
}
