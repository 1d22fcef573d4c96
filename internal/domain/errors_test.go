package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Name  string  `validate:"required"`
	Max   int     `validate:"min=1"`
	Ratio float64 `validate:"gt=0"`
}

func TestValidateStruct(t *testing.T) {
	require.NoError(t, ValidateStruct("sample", sample{Name: "a", Max: 1, Ratio: 0.5}))

	err := ValidateStruct("sample", sample{})
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "sample", ve.Entity)
	assert.Len(t, ve.Errors, 3)
	assert.Contains(t, ve.Error(), "Max failed min=1")
}

func TestValidationErrorErr(t *testing.T) {
	ve := NewValidationError("score")
	assert.NoError(t, ve.Err())
	ve.Add("score %d out of range", 11)
	assert.EqualError(t, ve.Err(), "validation error for score: score 11 out of range")
}

func TestSentinelsWrap(t *testing.T) {
	err := fmt.Errorf("criterion c1: %w", ErrNotFound)
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.False(t, errors.Is(err, ErrConflict))
}
