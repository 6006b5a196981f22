package handlers

import (
	"errors"
	"log"
	"net/http"

	"github.com/grantscope/backend/internal/api/request"
	"github.com/grantscope/backend/internal/api/response"
	"github.com/grantscope/backend/internal/auth"
	"github.com/grantscope/backend/internal/grants"
	"github.com/grantscope/backend/internal/models"
	"github.com/grantscope/backend/internal/service"
)

// GrantsHandler handles grant search endpoints
type GrantsHandler struct {
	grantsService *service.GrantsService
}

// NewGrantsHandler creates a new grants handler
func NewGrantsHandler(grantsService *service.GrantsService) *GrantsHandler {
	return &GrantsHandler{grantsService: grantsService}
}

// SearchResponse is the envelope for search results. Every grant carries the
// same data_source as the envelope.
type SearchResponse struct {
	Success          bool              `json:"success"`
	Grants           []models.Grant    `json:"grants"`
	Total            int               `json:"total"`
	DataSource       models.DataSource `json:"data_source"`
	FallbackOccurred bool              `json:"fallback_occurred"`
	FallbackReason   string            `json:"fallback_reason,omitempty"`
}

// Search handles grant search
// GET /api/v1/grants/search?query=&agency=
func (h *GrantsHandler) Search(w http.ResponseWriter, r *http.Request) {
	query := request.GetQueryString(r, "query", "")
	agency := request.GetQueryString(r, "agency", "")

	result, err := h.grantsService.Search(r.Context(), query, agency)
	if err != nil {
		if errors.Is(err, grants.ErrUpstreamUnavailable) {
			response.Error(w, http.StatusServiceUnavailable, response.CodeUpstreamUnavailable,
				"Grant data source is temporarily unavailable")
			return
		}
		log.Printf("[grants] Search error: %v", err)
		response.InternalError(w, "Failed to search grants")
		return
	}

	if user := auth.GetUser(r.Context()); user != nil {
		h.grantsService.RecordSearch(r.Context(), user.ID)
	}

	response.JSON(w, http.StatusOK, SearchResponse{
		Success:          true,
		Grants:           result.Grants,
		Total:            len(result.Grants),
		DataSource:       result.Source,
		FallbackOccurred: result.FallbackOccurred,
		FallbackReason:   result.FallbackReason,
	})
}
