package app

import (
	"context"
	"testing"

	"riskfusion/adapters/classifier"
	"riskfusion/domain/core"
	"riskfusion/domain/frame"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBatchRunner_RunsBatchesIndependently(t *testing.T) {
	svc := newTestService(classifier.NewForestTrainer(30, 8, 42))
	trained, err := svc.EnrichAndTrain(context.Background(), labeledFrame(12), nil, seededOptions())
	require.NoError(t, err)

	batches := []*frame.Frame{scenarioFrame(), labeledFrame(6), scenarioFrame()}
	opts := DefaultOptions()
	opts.LabelColumn = "dengue"

	results, err := NewBatchRunner(svc, 2).Run(context.Background(), batches, trained.Model, opts)
	require.NoError(t, err)
	require.Len(t, results, 3)

	for i, r := range results {
		assert.Equal(t, batches[i].Len(), r.BatchSize)
		assert.True(t, r.ModelPresent)
		assert.False(t, r.Trained)
	}
	assert.Equal(t, results[0].Fingerprint, results[2].Fingerprint)

	single, err := svc.EnrichAndTrain(context.Background(), scenarioFrame(), trained.Model, opts)
	require.NoError(t, err)
	assert.Equal(t, single.Fingerprint, results[0].Fingerprint)
}

func TestBatchRunner_FailsWholeRunOnBadBatch(t *testing.T) {
	svc := newTestService(nil)
	opts := DefaultOptions()
	opts.PlaceholderPolicy = PlaceholderFail

	results, err := NewBatchRunner(svc, 0).Run(context.Background(),
		[]*frame.Frame{scenarioFrame(), scenarioFrame()}, nil, opts)
	assert.Nil(t, results)
	assert.True(t, core.IsModelRequiredError(err))
	assert.Contains(t, err.Error(), "batch ")
}

func TestBatchRunner_Empty(t *testing.T) {
	results, err := NewBatchRunner(newTestService(nil), 4).Run(context.Background(), nil, nil, DefaultOptions())
	require.NoError(t, err)
	assert.Empty(t, results)
}
