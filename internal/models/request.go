// -----------------------------------------------------------------------
// Translation Request - Immutable inbound request structure
// -----------------------------------------------------------------------

package models

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
)

// DeliveryMode selects how terminal sub-job events reach the caller
type DeliveryMode string

const (
	DeliveryModeSync   DeliveryMode = "sync"   // Caller blocks for a bounded time and receives all results in the response
	DeliveryModeAsync  DeliveryMode = "async"  // Caller polls the request endpoint for results
	DeliveryModeStream DeliveryMode = "stream" // Results are pushed over the WebSocket as each language finishes
)

// PreprocessOptions mirrors the flags understood by the preprocessing workers
type PreprocessOptions struct {
	ExpandAbbreviations bool `json:"expandAbbreviations"`
	FilterProfanity     bool `json:"filterProfanity"`
	NormalizeRepeats    bool `json:"normalizeRepeats"`
	RemoveEmoticons     bool `json:"removeEmoticons"`
	FixTypos            bool `json:"fixTypos"`
}

// DefaultPreprocessOptions returns the worker defaults
func DefaultPreprocessOptions() PreprocessOptions {
	return PreprocessOptions{
		ExpandAbbreviations: true,
		FilterProfanity:     false,
		NormalizeRepeats:    true,
		RemoveEmoticons:     true,
		FixTypos:            true,
	}
}

// TranslationRequest is the immutable request accepted at intake.
// Once validated and dispatched it is never modified.
type TranslationRequest struct {
	ID              string            `json:"id" validate:"required"`
	Text            string            `json:"text" validate:"required,min=1,max=5000"`
	TargetLanguages []string          `json:"targetLanguages" validate:"required,min=1,max=10,dive,required"`
	Options         PreprocessOptions `json:"options"`
	DeliveryMode    DeliveryMode      `json:"deliveryMode" validate:"required,oneof=sync async stream"`
	CreatedAt       time.Time         `json:"createdAt"`
}

var requestValidator = validator.New()

// Validate checks the request shape. Violations are invalid-request errors:
// they fail before any sub-job exists.
func (r *TranslationRequest) Validate() error {
	if err := requestValidator.Struct(r); err != nil {
		return &PipelineError{Kind: ErrorKindInvalidRequest, Err: err}
	}

	// Reject duplicate language codes - each language maps to exactly one sub-job
	seen := make(map[string]bool, len(r.TargetLanguages))
	for _, lang := range r.TargetLanguages {
		if seen[lang] {
			return &PipelineError{
				Kind: ErrorKindInvalidRequest,
				Err:  fmt.Errorf("duplicate target language: %s", lang),
			}
		}
		seen[lang] = true
	}

	return nil
}
