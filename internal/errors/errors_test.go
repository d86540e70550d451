package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"riskfusion/domain/core"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromDomain_MapsSentinelsToCodes(t *testing.T) {
	tests := []struct {
		err  error
		code string
	}{
		{core.NewSchemaError("humidity", 2, "value is not a finite number"), CodeSchemaError},
		{core.NewModelNotFittedError("no trees"), CodeModelNotFitted},
		{core.NewInsufficientDataError(1, 2), CodeInsufficientData},
		{core.NewModelRequiredError("no model and no labels"), CodeModelRequired},
		{core.NewBatchTooLargeError(10, 5), CodeBatchTooLarge},
		{fmt.Errorf("stage topsis: %w", core.NewSchemaError("rainfall", -1, "column absent")), CodeSchemaError},
		{stderrors.New("disk full"), CodeInternalError},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			err := FromDomain(tt.err)
			require.Error(t, err)
			assert.Equal(t, tt.code, GetCode(err))
			assert.True(t, stderrors.Is(err, tt.err), "cause must stay reachable")
		})
	}

	assert.NoError(t, FromDomain(nil))
}

func TestFromDomain_KeepsAppErrors(t *testing.T) {
	original := ConfigInvalid("RISK_FOREST_TREES must be positive")
	assert.Same(t, original, FromDomain(original))
}

func TestWrap(t *testing.T) {
	assert.NoError(t, Wrap(nil, "ignored"))

	wrapped := Wrap(core.NewModelRequiredError("policy fail"), "enrich failed")
	assert.Equal(t, CodeModelRequired, GetCode(wrapped))
	assert.Contains(t, wrapped.Error(), "enrich failed: model required")
	assert.True(t, core.IsModelRequiredError(wrapped))

	rewrapped := Wrapf(ConfigInvalid("bad seed"), "loading %s", "config")
	assert.Equal(t, CodeConfigInvalid, GetCode(rewrapped))
}

func TestWithCodeAndGetCode(t *testing.T) {
	err := WithCode(CodeInvalidInput, stderrors.New("unknown stage"))
	assert.Equal(t, CodeInvalidInput, GetCode(err))

	assert.Equal(t, "UNKNOWN", GetCode(stderrors.New("plain")))
	assert.Equal(t, "model.json not found", NotFound("model.json").Error())
}
