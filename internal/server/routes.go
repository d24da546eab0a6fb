package server

import (
	"net/http"
)

// registerRoutes wires the route table
func registerRoutes(mux *http.ServeMux, h *Handlers) {
	mux.HandleFunc("POST /api/translate", h.Translate.HandleTranslate)
	mux.HandleFunc("GET /api/requests/", h.Requests.HandleGetRequest)
	mux.HandleFunc("GET /api/status", h.Status.HandleStatus)
	mux.HandleFunc("GET /health", h.Status.HandleHealth)
	mux.HandleFunc("GET /ws", h.WebSocket.HandleWebSocket)
}
