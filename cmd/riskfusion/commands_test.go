package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"riskfusion/adapters/classifier"
	"riskfusion/adapters/modelstore"
	"riskfusion/adapters/tabular"
	"riskfusion/domain/frame"
	"riskfusion/internal"
	"riskfusion/internal/config"
	"riskfusion/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testEnvironment() *environment {
	cfg := config.Default()
	cfg.Model.Trees = 25
	cfg.Pipeline.PlaceholderSeed = 7
	return &environment{cfg: cfg, logger: internal.NewLogger(internal.LogLevelError)}
}

// writeObservations writes n rows alternating hot-dry (label 1) and
// cool-wet (label 0) observations.
func writeObservations(t *testing.T, path string, n int, labeled bool) {
	t.Helper()
	var b strings.Builder
	b.WriteString("site,temperature,humidity,rainfall,vegetation_index,soil_moisture")
	if labeled {
		b.WriteString(",outbreak_risk")
	}
	b.WriteString("\n")
	for i := 0; i < n; i++ {
		if i%2 == 0 {
			fmt.Fprintf(&b, "s%d,%d,%d,5,0.2,0.1", i, 36+i%3, 20+i%5)
		} else {
			fmt.Fprintf(&b, "s%d,%d,%d,90,0.8,0.7", i, 22+i%3, 70+i%5)
		}
		if labeled {
			fmt.Fprintf(&b, ",%d", 1-i%2)
		}
		b.WriteString("\n")
	}
	require.NoError(t, os.WriteFile(path, []byte(b.String()), 0o644))
}

func TestRunEnrich_TrainsSavesAndReports(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "obs.csv")
	output := filepath.Join(dir, "enriched.csv")
	modelPath := filepath.Join(dir, "model.json")
	reportPath := filepath.Join(dir, "run.md")
	writeObservations(t, input, 20, true)

	err := runEnrich(context.Background(), testEnvironment(), input, output, modelSource{}, modelTarget{path: modelPath}, reportPath)
	require.NoError(t, err)

	table, err := tabular.NewReader(output, nil).Read()
	require.NoError(t, err)
	assert.Len(t, table.Rows, 20)
	assert.Contains(t, table.Headers, frame.ColGreyRelationGrade)
	assert.Contains(t, table.Headers, "site")

	record, err := modelstore.LoadFile(modelPath)
	require.NoError(t, err)
	assert.Equal(t, frame.TrainingFeatures, record.FeatureNames)
	assert.Contains(t, record.Metrics, "accuracy")

	md, err := os.ReadFile(reportPath)
	require.NoError(t, err)
	assert.Contains(t, string(md), "Risk fusion run")
}

func TestRunEnrich_ReusesSavedModel(t *testing.T) {
	dir := t.TempDir()
	train := filepath.Join(dir, "train.csv")
	unlabeled := filepath.Join(dir, "new.csv")
	modelPath := filepath.Join(dir, "model.json")
	writeObservations(t, train, 20, true)
	writeObservations(t, unlabeled, 6, false)

	env := testEnvironment()
	require.NoError(t, runEnrich(context.Background(), env, train, filepath.Join(dir, "a.csv"), modelSource{}, modelTarget{path: modelPath}, ""))

	output := filepath.Join(dir, "b.xlsx")
	require.NoError(t, runEnrich(context.Background(), env, unlabeled, output, modelSource{path: modelPath}, modelTarget{}, ""))

	table, err := tabular.NewReader(output, nil).Read()
	require.NoError(t, err)
	assert.Len(t, table.Rows, 6)
	assert.NotContains(t, table.Headers, "outbreak_risk")
}

func TestRunEnrich_FailPolicyWithoutModel(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "obs.csv")
	writeObservations(t, input, 4, false)

	env := testEnvironment()
	env.cfg.Pipeline.PlaceholderPolicy = config.PolicyFail

	err := runEnrich(context.Background(), env, input, filepath.Join(dir, "out.csv"), modelSource{}, modelTarget{}, "")
	require.Error(t, err)
	_, statErr := os.Stat(filepath.Join(dir, "out.csv"))
	assert.True(t, os.IsNotExist(statErr))
}

func TestRunEnrichBatch_WritesOnePerInput(t *testing.T) {
	dir := t.TempDir()
	inputs := []string{filepath.Join(dir, "a.csv"), filepath.Join(dir, "b.csv")}
	writeObservations(t, inputs[0], 5, false)
	writeObservations(t, inputs[1], 3, false)
	outDir := filepath.Join(dir, "out")

	require.NoError(t, runEnrichBatch(context.Background(), testEnvironment(), inputs, modelSource{}, outDir))

	for i, n := range []int{5, 3} {
		table, err := tabular.NewReader(filepath.Join(outDir, filepath.Base(inputs[i])), nil).Read()
		require.NoError(t, err)
		assert.Len(t, table.Rows, n)
	}
}

func TestRunScore_SingleStageAndErrors(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "obs.csv")
	writeObservations(t, input, 4, false)
	env := testEnvironment()
	ctx := context.Background()

	output := filepath.Join(dir, "rule.csv")
	require.NoError(t, runScore(ctx, env, input, "rule", modelSource{}, output))
	table, err := tabular.NewReader(output, nil).Read()
	require.NoError(t, err)
	assert.Contains(t, table.Headers, frame.ColRuleRiskLevel)
	assert.NotContains(t, table.Headers, frame.ColAHPPriorityScore)

	assert.Error(t, runScore(ctx, env, input, "nope", modelSource{}, ""))
	assert.Error(t, runScore(ctx, env, input, classifierStage, modelSource{}, ""))
	assert.Error(t, runScore(ctx, env, input, "neutrosophic", modelSource{}, ""))
}

// savedModelID returns the ID of the only model stored in dir
func savedModelID(t *testing.T, dir string) string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	return strings.TrimSuffix(entries[0].Name(), ".json")
}

func TestRunEnrich_ModelDirectoryRoundTrip(t *testing.T) {
	dir := t.TempDir()
	train := filepath.Join(dir, "train.csv")
	unlabeled := filepath.Join(dir, "new.csv")
	modelDir := filepath.Join(dir, "models")
	writeObservations(t, train, 20, true)
	writeObservations(t, unlabeled, 6, false)
	env := testEnvironment()
	ctx := context.Background()

	require.NoError(t, runEnrich(ctx, env, train, filepath.Join(dir, "a.csv"), modelSource{}, modelTarget{dir: modelDir}, ""))
	id := savedModelID(t, modelDir)

	output := filepath.Join(dir, "b.csv")
	require.NoError(t, runEnrich(ctx, env, unlabeled, output, modelSource{dir: modelDir, id: id}, modelTarget{}, ""))
	table, err := tabular.NewReader(output, nil).Read()
	require.NoError(t, err)
	assert.Len(t, table.Rows, 6)

	scored := filepath.Join(dir, "ml.csv")
	require.NoError(t, runScore(ctx, env, unlabeled, classifierStage, modelSource{dir: modelDir, id: id}, scored))
	table, err = tabular.NewReader(scored, nil).Read()
	require.NoError(t, err)
	assert.Contains(t, table.Headers, frame.ColMLProbability)
}

func TestLoadModel_SourceErrors(t *testing.T) {
	dir := t.TempDir()
	logger := internal.NewLogger(internal.LogLevelError)
	ctx := context.Background()

	tests := []struct {
		name   string
		source modelSource
		code   string
	}{
		{"path and id", modelSource{path: filepath.Join(dir, "m.json"), dir: dir, id: "m"}, errors.CodeInvalidInput},
		{"id without dir", modelSource{id: "m"}, errors.CodeInvalidInput},
		{"dir without id", modelSource{dir: dir}, errors.CodeInvalidInput},
		{"id with path elements", modelSource{dir: dir, id: "../m"}, errors.CodeInvalidInput},
		{"unknown id", modelSource{dir: dir, id: "missing"}, errors.CodeNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			model, err := loadModel(ctx, tt.source, logger)
			require.Error(t, err)
			assert.Nil(t, model)
			assert.Equal(t, tt.code, errors.GetCode(err))
		})
	}

	model, err := loadModel(ctx, modelSource{}, logger)
	require.NoError(t, err)
	assert.Nil(t, model)
}

func TestEnrichCmd_InvalidFamilyIsConfigError(t *testing.T) {
	env := testEnvironment()
	cmd := newEnrichCmd(env)
	cmd.SetArgs([]string{"in.csv", "out.csv", "--family", "svm"})
	cmd.SetOut(io.Discard)
	cmd.SetErr(io.Discard)

	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, errors.CodeConfigInvalid, errors.GetCode(errors.FromDomain(err)))
}

func TestEnrichFlags_ApplyNormalisesAndValidates(t *testing.T) {
	env := testEnvironment()
	fl := enrichFlags{family: " Logistic_Regression ", labelColumn: "dengue", seed: 11}
	require.NoError(t, fl.apply(env))
	assert.Equal(t, classifier.FamilyLogisticRegression, env.cfg.Model.Family)
	assert.Equal(t, "dengue", env.cfg.Pipeline.LabelColumn)
	assert.Equal(t, int64(11), env.cfg.Pipeline.PlaceholderSeed)

	fl = enrichFlags{family: "gradient_boosting"}
	assert.Equal(t, errors.CodeConfigInvalid, errors.GetCode(fl.apply(testEnvironment())))
}

func TestRunEnrichBatch_RejectsDuplicateBaseNames(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "north"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "south"), 0o755))
	inputs := []string{filepath.Join(dir, "north", "week1.csv"), filepath.Join(dir, "south", "week1.csv")}
	writeObservations(t, inputs[0], 4, false)
	writeObservations(t, inputs[1], 4, false)
	outDir := filepath.Join(dir, "out")

	err := runEnrichBatch(context.Background(), testEnvironment(), inputs, modelSource{}, outDir)
	require.Error(t, err)
	assert.Equal(t, errors.CodeInvalidInput, errors.GetCode(err))
	assert.Contains(t, err.Error(), inputs[0])
	assert.Contains(t, err.Error(), inputs[1])

	_, statErr := os.Stat(outDir)
	assert.True(t, os.IsNotExist(statErr))
}
