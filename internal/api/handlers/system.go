package handlers

import (
	"net/http"

	"github.com/ramonehamilton/deck-budget/internal/api/response"
	"github.com/ramonehamilton/deck-budget/internal/version"
)

// SystemHandler handles system-related API requests.
type SystemHandler struct{}

// NewSystemHandler creates a new SystemHandler.
func NewSystemHandler() *SystemHandler {
	return &SystemHandler{}
}

// Health reports that the server is up.
func (h *SystemHandler) Health(w http.ResponseWriter, _ *http.Request) {
	response.Success(w, map[string]string{
		"status":  "ok",
		"version": version.GetVersion(),
		"service": "deck-budget-api",
	})
}
