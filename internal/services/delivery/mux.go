// -----------------------------------------------------------------------
// Delivery - pushes terminal sub-job events back to callers
// -----------------------------------------------------------------------

package delivery

import (
	"context"

	"github.com/ternarybob/transfero/internal/interfaces"
	"github.com/ternarybob/transfero/internal/models"
)

// Mux fans a terminal event out to every registered adapter in order.
// With zero adapters every call is a no-op, which keeps the core safe
// when a caller disconnected before its results arrived.
type Mux struct {
	adapters []interfaces.DeliveryAdapter
}

// NewMux creates a delivery mux over the given adapters
func NewMux(adapters ...interfaces.DeliveryAdapter) *Mux {
	return &Mux{adapters: adapters}
}

// OnPartialResult forwards the terminal event to all adapters
func (m *Mux) OnPartialResult(ctx context.Context, requestID, language string, result *models.SubJobResult, deliveryErr error) {
	for _, adapter := range m.adapters {
		adapter.OnPartialResult(ctx, requestID, language, result, deliveryErr)
	}
}

// OnAllLanguagesComplete forwards the request-complete signal to all adapters
func (m *Mux) OnAllLanguagesComplete(ctx context.Context, requestID string) {
	for _, adapter := range m.adapters {
		adapter.OnAllLanguagesComplete(ctx, requestID)
	}
}
