package interfaces

import (
	"context"

	"github.com/ternarybob/transfero/internal/models"
)

// TranslationBackend is the remote translation RPC consumed by the invoker.
// Each call is scoped to a single language with a caller-specified deadline
// carried on the context.
type TranslationBackend interface {
	Translate(ctx context.Context, text, sourceLang, targetLang string) (*models.TranslationOutcome, error)
}

// TranslationInvoker issues exactly one remote translation call per
// sub-job, writes the terminal state, and triggers delivery.
type TranslationInvoker interface {
	// TranslateOne must only be called for outcomes with Filtered == false
	TranslateOne(ctx context.Context, subJobID string, outcome *models.PreprocessingOutcome, language string) (*models.TranslationOutcome, error)
}
