package report

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"riskfusion/adapters/classifier"
	"riskfusion/adapters/rng"
	"riskfusion/adapters/scoring"
	"riskfusion/app"
	"riskfusion/domain/core"
	"riskfusion/domain/frame"
	"riskfusion/internal"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runFusion(t *testing.T, f *frame.Frame) *app.FusionResult {
	t.Helper()
	svc := app.NewFusionService(app.Stages{
		Rule:         scoring.NewRuleStage(),
		Neutrosophic: scoring.NewNeutrosophicStage(),
		AHP:          scoring.NewAHPStage(scoring.DefaultWeights()),
		TOPSIS:       scoring.NewTOPSISStage(),
		Grey:         scoring.NewGreyStage(),
	}, classifier.NewForestTrainer(10, 5, 42), rng.New(), internal.NewLogger(internal.LogLevelError))

	opts := app.DefaultOptions()
	opts.PlaceholderSeed = 3
	result, err := svc.EnrichAndTrain(context.Background(), f, nil, opts)
	require.NoError(t, err)
	return result
}

func TestBuild_PlaceholderRun(t *testing.T) {
	result := runFusion(t, frame.New(
		frame.Observation{Temperature: 35, Humidity: 20, Rainfall: 10, VegetationIndex: 0.5, SoilMoisture: 0.3},
		frame.Observation{Temperature: 25, Humidity: 60, Rainfall: 80, VegetationIndex: 0.6, SoilMoisture: 0.4},
		frame.Observation{Temperature: 28, Humidity: 45, Rainfall: 40, VegetationIndex: 0.55, SoilMoisture: 0.35},
	))

	summary, err := Build(core.RunID("run-1"), "data.csv", result)
	require.NoError(t, err)

	assert.Equal(t, 3, summary.Rows)
	assert.Equal(t, 1, summary.HighRisk)
	require.Len(t, summary.Top, 3)
	assert.Equal(t, 1, summary.Top[0].Row)
	assert.Equal(t, 0, summary.Top[2].Row)
	require.Len(t, summary.Profiles, 4)
	assert.Equal(t, frame.ColMLProbability, summary.Profiles[0].Column)

	md := summary.Markdown()
	assert.Contains(t, md, "# Risk fusion run run-1")
	assert.Contains(t, md, "random placeholders")
	assert.Contains(t, md, "relative to this batch of 3 rows")
	assert.NotContains(t, md, "## Training")

	page := string(summary.HTML())
	assert.Contains(t, page, "<table>")
	assert.Contains(t, page, "<title>Risk fusion run run-1</title>")
	assert.Contains(t, page, "<strong>No model was supplied.</strong>")
}

func TestBuild_TrainingRunLimitsRanking(t *testing.T) {
	obs := make([]frame.Observation, 14)
	for i := range obs {
		label := i % 2
		obs[i] = frame.Observation{
			Temperature:     20 + float64(i),
			Humidity:        70 - float64(i)*3,
			Rainfall:        float64(i * 5),
			VegetationIndex: 0.1 * float64(i%5),
			SoilMoisture:    0.2,
			OutbreakRisk:    frame.Label(label),
		}
	}
	result := runFusion(t, frame.New(obs...))

	summary, err := Build(core.NewRunID(), "train.xlsx", result)
	require.NoError(t, err)
	assert.Len(t, summary.Top, TopRows)
	for i := 1; i < len(summary.Top); i++ {
		assert.GreaterOrEqual(t, summary.Top[i-1].TOPSISScore, summary.Top[i].TOPSISScore)
	}

	md := summary.Markdown()
	assert.Contains(t, md, "## Training")
	assert.Contains(t, md, fmt.Sprintf("| %s | 14 |", classifier.FamilyRandomForest))
	assert.Equal(t, 1, strings.Count(md, "## Highest TOPSIS scores"))
}

func TestBuild_EmptyFrame(t *testing.T) {
	result := runFusion(t, frame.New())

	summary, err := Build(core.RunID("empty"), "none.csv", result)
	require.NoError(t, err)
	assert.Empty(t, summary.Profiles)
	assert.NotContains(t, summary.Markdown(), "## Score profile")
}
