package matching

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMatchingError_WithErrorCodeAndUnwrap(t *testing.T) {
	assert.Nil(t, WithErrorCode(nil, "X"))

	base := errors.New("base")
	wrapped := WithErrorCode(base, "CODE123")
	assert.Equal(t, "CODE123", wrapped.(*withCodeError).Code())
	assert.ErrorIs(t, wrapped, base)
	assert.Equal(t, "CODE123", ErrorCode(fmt.Errorf("outer: %w", wrapped)))
}

func TestMatchingError_Codes(t *testing.T) {
	tests := []struct {
		err  error
		code string
		exit int
	}{
		{nil, "", 0},
		{fmt.Errorf("load: %w", ErrInvalidConfig), errorCodeInvalidConfig, 2},
		{&ValidationError{Problems: []string{"x: is required"}}, errorCodeInvalidConfig, 2},
		{fmt.Errorf("%w: 3.0.0", ErrUnsupportedVersion), errorCodeUnsupportedVersion, 2},
		{errors.Join(fmt.Errorf("%w: a", ErrInvalidPattern)), errorCodeInvalidPattern, 2},
		{fmt.Errorf("%w: rules.yaml", ErrRulesNotFound), errorCodeRulesNotFound, 2},
		{NewThresholdError(0.5, 0.9), errorCodeThresholdFailed, 3},
		{errors.New("boom"), errorCodeInternal, 1},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.code, ErrorCode(tt.err), "%v", tt.err)
		assert.Equal(t, tt.exit, ExitCode(tt.err), "%v", tt.err)
	}
}

func TestMatchingError_ValidationErrorMessage(t *testing.T) {
	err := &ValidationError{Problems: []string{"a: is required", "b: must be one of: x y"}}
	assert.Equal(t, "invalid matching configuration: a: is required; b: must be one of: x y", err.Error())
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestMatchingError_ThresholdMessage(t *testing.T) {
	err := NewThresholdError(0.75, 0.9)
	assert.ErrorIs(t, err, ErrThresholdFailed)
	assert.Contains(t, err.Error(), "0.7500 < 0.9000")
}

func TestMatchingError_Suggestions(t *testing.T) {
	assert.Nil(t, Suggestions(nil))
	assert.Nil(t, Suggestions(errors.New("boom")))

	for _, err := range []error{
		ErrInvalidConfig, ErrUnsupportedVersion, ErrInvalidPattern, ErrRulesNotFound, ErrThresholdFailed,
	} {
		assert.NotEmpty(t, Suggestions(err), "%v", err)
	}
}
