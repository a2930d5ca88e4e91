package matching

import (
	"errors"
	"fmt"
	"strings"
)

const (
	errorCodeInvalidConfig      = "MATCHING_INVALID_CONFIG"
	errorCodeUnsupportedVersion = "MATCHING_UNSUPPORTED_VERSION"
	errorCodeInvalidPattern     = "MATCHING_INVALID_PATTERN"
	errorCodeRulesNotFound      = "MATCHING_RULES_NOT_FOUND"
	errorCodeThresholdFailed    = "MATCHING_THRESHOLD_FAILED"
	errorCodeInternal           = "MATCHING_INTERNAL"
)

var (
	// ErrInvalidConfig indicates a rule configuration that fails structural validation.
	ErrInvalidConfig = errors.New("invalid matching configuration")
	// ErrUnsupportedVersion indicates a rule file whose schema version this build cannot read.
	ErrUnsupportedVersion = errors.New("unsupported rules version")
	// ErrInvalidPattern indicates a DDG or vendor regex source that does not compile.
	ErrInvalidPattern = errors.New("invalid pattern")
	// ErrRulesNotFound indicates the rules file could not be read.
	ErrRulesNotFound = errors.New("rules file not found")
	// ErrThresholdFailed indicates a validation run scored below the configured accuracy.
	ErrThresholdFailed = errors.New("accuracy below threshold")
)

type errorCoder interface {
	error
	Code() string
}

type withCodeError struct {
	error
	code string
}

func (e *withCodeError) Code() string {
	return e.code
}

func (e *withCodeError) Unwrap() error {
	return e.error
}

// WithErrorCode annotates err with a matching error code.
func WithErrorCode(err error, code string) error {
	if err == nil {
		return nil
	}
	return &withCodeError{error: err, code: code}
}

// ValidationError lists the structural problems found in a configuration.
// Each problem renders as "field: reason".
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", ErrInvalidConfig, strings.Join(e.Problems, "; "))
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalidConfig
}

// NewThresholdError formats a failed accuracy check.
func NewThresholdError(accuracy, minimum float64) error {
	return WithErrorCode(
		fmt.Errorf("%w: accuracy %.4f < %.4f", ErrThresholdFailed, accuracy, minimum),
		errorCodeThresholdFailed,
	)
}

// ErrorCode resolves an error to its matching error code.
func ErrorCode(err error) string {
	if err == nil {
		return ""
	}

	var coded errorCoder
	if errors.As(err, &coded) {
		if code := coded.Code(); code != "" {
			return code
		}
	}

	switch {
	case errors.Is(err, ErrUnsupportedVersion):
		return errorCodeUnsupportedVersion
	case errors.Is(err, ErrInvalidPattern):
		return errorCodeInvalidPattern
	case errors.Is(err, ErrInvalidConfig):
		return errorCodeInvalidConfig
	case errors.Is(err, ErrRulesNotFound):
		return errorCodeRulesNotFound
	case errors.Is(err, ErrThresholdFailed):
		return errorCodeThresholdFailed
	default:
		return errorCodeInternal
	}
}

// ExitCode maps matching errors to CLI exit codes.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}

	switch {
	case errors.Is(err, ErrInvalidConfig),
		errors.Is(err, ErrUnsupportedVersion),
		errors.Is(err, ErrInvalidPattern),
		errors.Is(err, ErrRulesNotFound):
		return 2
	case errors.Is(err, ErrThresholdFailed):
		return 3
	default:
		return 1
	}
}

// Suggestions provides CLI hints for matching errors.
func Suggestions(err error) []string {
	if err == nil {
		return nil
	}

	switch ErrorCode(err) {
	case errorCodeInvalidConfig:
		return []string{
			"Check the rules file:      formsense rules check --rules <file>",
			"Every strategy needs kind plus selectorName, matcherName or regexName",
		}
	case errorCodeUnsupportedVersion:
		return []string{
			"This build reads rules versions >= 1.0.0, < 2.0.0",
			"Remove the version field or dump the built-in rules: formsense rules dump",
		}
	case errorCodeInvalidPattern:
		return []string{
			"Patterns use ECMAScript regex syntax and are lower-cased before compiling",
			"Run formsense rules check to list every failing pattern",
		}
	case errorCodeRulesNotFound:
		return []string{
			"Pass an existing JSON or YAML file with --rules",
			"Omit --rules to use the built-in rules",
		}
	case errorCodeThresholdFailed:
		return []string{
			"Inspect misclassified fields: formsense validate <corpus> --output table",
			"Lower validation.min_accuracy only if the corpus changed",
		}
	default:
		return nil
	}
}
