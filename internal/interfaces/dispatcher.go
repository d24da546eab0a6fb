package interfaces

import (
	"context"

	"github.com/ternarybob/transfero/internal/models"
)

// FanOutDispatcher creates one independent sub-job per target language and
// starts a supervised pipeline for each. Handles are returned immediately;
// translation proceeds in the background.
type FanOutDispatcher interface {
	// Dispatch validates the request, writes one durable record per
	// language, and returns per-language handles. Invalid requests fail
	// before any sub-job exists. A store failure on one language degrades
	// that language to an immediate per-handle failure without affecting
	// siblings.
	Dispatch(ctx context.Context, req *models.TranslationRequest) ([]*models.SubJobHandle, error)
}
