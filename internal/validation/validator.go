package validation

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/read-it-later/internal/common"
	"github.com/read-it-later/internal/models"
)

const (
	// MaxURLLength bounds a saved URL
	MaxURLLength = 8192
	// MaxHintLength bounds the AI-collect hint in runes
	MaxHintLength = 2000
)

// ValidationError represents a single validation error
type ValidationError struct {
	Field   string      `json:"field"`
	Message string      `json:"message"`
	Value   interface{} `json:"value,omitempty"`
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Validator provides validation methods
type Validator struct {
	maxCount int
}

// NewValidator creates a new validator instance. maxCount bounds the
// AI-collect count; 0 disables the upper bound.
func NewValidator(maxCount int) *Validator {
	return &Validator{maxCount: maxCount}
}

// ValidateSaveURL validates the url of a save request. The URL is stored
// verbatim, so only emptiness, length and control characters are checked.
func (v *Validator) ValidateSaveURL(raw string) []ValidationError {
	var errors []ValidationError

	trimmed := strings.TrimSpace(raw)
	switch {
	case trimmed == "":
		errors = append(errors, ValidationError{Field: "url", Message: "url is required"})
	case len(trimmed) > MaxURLLength:
		errors = append(errors, ValidationError{Field: "url", Message: fmt.Sprintf("url exceeds maximum of %d bytes", MaxURLLength)})
	case !utf8.ValidString(trimmed):
		errors = append(errors, ValidationError{Field: "url", Message: "url is not valid UTF-8"})
	case strings.IndexFunc(trimmed, unicode.IsControl) >= 0:
		errors = append(errors, ValidationError{Field: "url", Message: "url contains control characters", Value: trimmed})
	}

	return errors
}

// ValidateCollect validates an AI-collect form submission. Count 0 selects
// the configured default.
func (v *Validator) ValidateCollect(req *models.CollectRequest) []ValidationError {
	var errors []ValidationError

	if req.Count < 0 {
		errors = append(errors, ValidationError{Field: "count", Message: "count must be positive", Value: req.Count})
	} else if v.maxCount > 0 && req.Count > v.maxCount {
		errors = append(errors, ValidationError{
			Field:   "count",
			Message: fmt.Sprintf("count exceeds maximum of %d", v.maxCount),
			Value:   req.Count,
		})
	}

	if n := utf8.RuneCountInString(req.Hint); n > MaxHintLength {
		errors = append(errors, ValidationError{
			Field:   "urls",
			Message: fmt.Sprintf("hint exceeds maximum of %d characters (has %d)", MaxHintLength, n),
		})
	}

	return errors
}

// ParseID parses a record id from a path parameter
func ParseID(raw string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: %v", common.ErrInvalidInput, ValidationError{Field: "id", Message: "id must be a positive integer", Value: raw})
	}
	return id, nil
}

// AsError folds validation errors into a single error wrapping
// common.ErrInvalidInput, or nil when there are none
func AsError(errs []ValidationError) error {
	if len(errs) == 0 {
		return nil
	}
	msgs := make([]string, 0, len(errs))
	for _, e := range errs {
		msgs = append(msgs, e.Error())
	}
	return fmt.Errorf("%w: %s", common.ErrInvalidInput, strings.Join(msgs, "; "))
}
