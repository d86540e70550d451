package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"riskfusion/adapters/classifier"
	"riskfusion/adapters/modelstore"
	"riskfusion/adapters/rng"
	"riskfusion/adapters/scoring"
	"riskfusion/adapters/tabular"
	"riskfusion/app"
	"riskfusion/domain/core"
	"riskfusion/domain/frame"
	"riskfusion/internal"
	"riskfusion/internal/config"
	"riskfusion/internal/errors"
	"riskfusion/internal/report"
	"riskfusion/ports"

	"github.com/spf13/cobra"
)

// buildService wires the scoring stages, the configured trainer and the RNG
// adapter into a fusion service.
func buildService(cfg *config.Config, logger *internal.Logger) (*app.FusionService, error) {
	trainer, err := classifier.NewTrainer(classifier.Settings{
		Family:   cfg.Model.Family,
		Trees:    cfg.Model.Trees,
		MaxDepth: cfg.Model.MaxDepth,
		Seed:     cfg.Model.Seed,
	})
	if err != nil {
		return nil, err
	}

	stages := app.Stages{
		Rule:         scoring.NewRuleStage(),
		Neutrosophic: scoring.NewNeutrosophicStage(),
		AHP:          scoring.NewAHPStage(scoring.DefaultWeights()),
		TOPSIS:       scoring.NewTOPSISStage(),
		Grey:         scoring.NewGreyStage(),
	}
	return app.NewFusionService(stages, trainer, rng.New(), logger), nil
}

// runOptions maps the pipeline configuration onto service options
func runOptions(cfg *config.Config) app.Options {
	return app.Options{
		LabelColumn:       cfg.Pipeline.LabelColumn,
		MinTrainingRows:   cfg.Pipeline.MinTrainingRows,
		PlaceholderPolicy: app.PlaceholderPolicy(cfg.Pipeline.PlaceholderPolicy),
		PlaceholderSeed:   cfg.Pipeline.PlaceholderSeed,
	}
}

// readFrame loads a CSV or XLSX file into a validated frame
func readFrame(path string, cfg *config.Config, logger *internal.Logger) (*frame.Frame, error) {
	table, err := tabular.NewReader(path, logger).Read()
	if err != nil {
		return nil, err
	}
	f, err := frame.FromTable(table.Headers, table.Rows, frame.IngestOptions{
		LabelColumn: cfg.Pipeline.LabelColumn,
		MaxRows:     cfg.Pipeline.MaxBatchRows,
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return f, nil
}

func writeFrame(path string, f *frame.Frame) error {
	headers, rows := f.Table()
	return tabular.Write(path, headers, rows)
}

// modelSource locates a saved model by file path or by ID inside a model
// directory.
type modelSource struct {
	path string
	dir  string
	id   string
}

func (src *modelSource) bind(cmd *cobra.Command) {
	cmd.Flags().StringVar(&src.path, "model", "", "Saved risk model file to apply")
	cmd.Flags().StringVar(&src.dir, "model-dir", "", "Model directory to load --model-id from")
	cmd.Flags().StringVar(&src.id, "model-id", "", "ID of a model saved with --save-model-dir")
}

func (src modelSource) isSet() bool {
	return src.path != "" || src.dir != "" || src.id != ""
}

// loadModel reads a saved model; an empty source means no model
func loadModel(ctx context.Context, src modelSource, logger *internal.Logger) (ports.RiskModel, error) {
	var (
		record *ports.ModelRecord
		from   string
		err    error
	)
	switch {
	case src.path != "" && (src.dir != "" || src.id != ""):
		return nil, errors.InvalidInput("--model cannot be combined with --model-dir or --model-id")
	case src.path != "":
		from = src.path
		record, err = modelstore.LoadFile(src.path)
	case src.dir != "" || src.id != "":
		if src.dir == "" || src.id == "" {
			return nil, errors.InvalidInput("--model-dir and --model-id must be given together")
		}
		id, parseErr := core.ParseModelID(src.id)
		if parseErr != nil {
			return nil, errors.WithCode(errors.CodeInvalidInput, parseErr)
		}
		store, storeErr := modelstore.NewFileStore(src.dir)
		if storeErr != nil {
			return nil, storeErr
		}
		from = src.dir
		record, err = store.Load(ctx, id)
	default:
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	logger.Info("Loaded %s model %s from %s", record.Family, record.ID, from)
	return record.Model, nil
}

// modelTarget says where a freshly trained model is written: an explicit
// file, a model directory keyed by model ID, or both.
type modelTarget struct {
	path string
	dir  string
}

func (t modelTarget) isSet() bool {
	return t.path != "" || t.dir != ""
}

// saveTrained persists the model fitted during a run, if any
func saveTrained(ctx context.Context, target modelTarget, result *app.FusionResult, logger *internal.Logger) error {
	if !target.isSet() {
		return nil
	}
	if !result.Trained {
		logger.Warn("No model was trained (batch has no label column); nothing saved")
		return nil
	}
	record := &ports.ModelRecord{
		ID:           result.Training.ModelID,
		Family:       result.Training.Family,
		TrainingHash: result.Training.TrainingHash,
		Metrics:      result.Training.Metrics.AsMap(),
		Model:        result.Model,
	}
	if target.path != "" {
		if err := modelstore.SaveFile(target.path, record); err != nil {
			return err
		}
		logger.Info("Saved %s model %s to %s", record.Family, record.ID, target.path)
	}
	if target.dir != "" {
		store, err := modelstore.NewFileStore(target.dir)
		if err != nil {
			return err
		}
		if err := store.Save(ctx, record); err != nil {
			return err
		}
		logger.Info("Saved %s model %s to %s", record.Family, record.ID, target.dir)
	}
	return nil
}

// writeReport renders the run summary as Markdown or HTML depending on the
// extension of path.
func writeReport(path, source string, result *app.FusionResult) error {
	if path == "" {
		return nil
	}
	summary, err := report.Build(core.NewRunID(), source, result)
	if err != nil {
		return err
	}

	var data []byte
	switch strings.ToLower(filepath.Ext(path)) {
	case ".md", ".markdown":
		data = []byte(summary.Markdown())
	default:
		data = summary.HTML()
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}
