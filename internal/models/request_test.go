package models

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validRequest() *TranslationRequest {
	return &TranslationRequest{
		ID:              "req_test",
		Text:            "hello world",
		TargetLanguages: []string{"ko", "th"},
		Options:         DefaultPreprocessOptions(),
		DeliveryMode:    DeliveryModeSync,
		CreatedAt:       time.Now(),
	}
}

func TestTranslationRequest_Validate(t *testing.T) {
	assert.NoError(t, validRequest().Validate())
}

func TestTranslationRequest_Validate_EmptyText(t *testing.T) {
	req := validRequest()
	req.Text = ""

	err := req.Validate()
	require.Error(t, err)
	assert.Equal(t, ErrorKindInvalidRequest, KindOf(err))
}

func TestTranslationRequest_Validate_TextTooLong(t *testing.T) {
	req := validRequest()
	req.Text = strings.Repeat("a", 5001)

	err := req.Validate()
	require.Error(t, err)
	assert.Equal(t, ErrorKindInvalidRequest, KindOf(err))
}

func TestTranslationRequest_Validate_NoLanguages(t *testing.T) {
	req := validRequest()
	req.TargetLanguages = nil

	err := req.Validate()
	require.Error(t, err)
	assert.Equal(t, ErrorKindInvalidRequest, KindOf(err))
}

func TestTranslationRequest_Validate_TooManyLanguages(t *testing.T) {
	req := validRequest()
	req.TargetLanguages = []string{"a", "b", "c", "d", "e", "f", "g", "h", "i", "j", "k"}

	err := req.Validate()
	require.Error(t, err)
	assert.Equal(t, ErrorKindInvalidRequest, KindOf(err))
}

func TestTranslationRequest_Validate_DuplicateLanguages(t *testing.T) {
	req := validRequest()
	req.TargetLanguages = []string{"ko", "th", "ko"}

	err := req.Validate()
	require.Error(t, err)
	assert.Equal(t, ErrorKindInvalidRequest, KindOf(err))
	assert.Contains(t, err.Error(), "duplicate target language")
}

func TestTranslationRequest_Validate_BadDeliveryMode(t *testing.T) {
	req := validRequest()
	req.DeliveryMode = "carrier-pigeon"

	err := req.Validate()
	require.Error(t, err)
	assert.Equal(t, ErrorKindInvalidRequest, KindOf(err))
}

func TestKindOf(t *testing.T) {
	err := &PipelineError{Kind: ErrorKindPreprocessingTimeout, Language: "th"}
	assert.Equal(t, ErrorKindPreprocessingTimeout, KindOf(err))
	assert.Equal(t, ErrorKind(""), KindOf(assert.AnError))
	assert.Equal(t, ErrorKind(""), KindOf(nil))
}
