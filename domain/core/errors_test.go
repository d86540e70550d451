package core

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDomainErrorsWrapSentinels(t *testing.T) {
	tests := []struct {
		name  string
		err   error
		check func(error) bool
	}{
		{"schema", NewSchemaError("humidity", 3, "not a number"), IsSchemaError},
		{"schema frame-wide", NewSchemaError("ml_probability", -1, "column absent"), IsSchemaError},
		{"not fitted", NewModelNotFittedError("no trees"), IsModelNotFittedError},
		{"required", NewModelRequiredError("no labels"), IsModelRequiredError},
		{"insufficient", NewInsufficientDataError(1, 5), IsInsufficientDataError},
		{"too large", NewBatchTooLargeError(10, 5), IsBatchTooLargeError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, tt.check(tt.err))
			wrapped := fmt.Errorf("pipeline: %w", tt.err)
			assert.True(t, tt.check(wrapped), "helper must see through wrapping")
		})
	}

	assert.False(t, IsSchemaError(errors.New("other")))
	assert.Contains(t, NewSchemaError("humidity", 3, "not a number").Error(), "row 3")
	assert.NotContains(t, NewSchemaError("humidity", -1, "absent").Error(), "row")
}

func TestComputeFrameHash_SeparatesCells(t *testing.T) {
	a := ComputeFrameHash([]string{"x"}, [][]string{{"ab", "c"}})
	b := ComputeFrameHash([]string{"x"}, [][]string{{"a", "bc"}})
	c := ComputeFrameHash([]string{"x"}, [][]string{{"ab", "c"}})

	assert.NotEqual(t, a, b)
	assert.Equal(t, a, c)
	assert.False(t, Hash(a).IsEmpty())
}
