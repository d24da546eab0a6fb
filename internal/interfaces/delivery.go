package interfaces

import (
	"context"

	"github.com/ternarybob/transfero/internal/models"
)

// DeliveryAdapter pushes terminal sub-job events to the original caller.
//
// OnPartialResult is invoked exactly once per terminal sub-job event with
// either a result or an error, never both. Implementations must be safe
// with zero effective recipients (a disconnected stream is a no-op, not an
// error). The core never retries delivery.
type DeliveryAdapter interface {
	OnPartialResult(ctx context.Context, requestID, language string, result *models.SubJobResult, deliveryErr error)

	// OnAllLanguagesComplete fires when every language of a request has
	// reached a terminal state. Best-effort, advisory only.
	OnAllLanguagesComplete(ctx context.Context, requestID string)
}
