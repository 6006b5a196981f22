package handlers

import (
	"log"
	"net/http"
	"time"

	"github.com/grantscope/backend/internal/api/response"
	"github.com/grantscope/backend/internal/auth"
	"github.com/grantscope/backend/internal/ratelimit"
	"github.com/grantscope/backend/internal/service"
)

// UsageHandler reports quota state for the authenticated user
type UsageHandler struct {
	limiter       *ratelimit.Limiter
	users         service.UserStore
	searchLimit   int
	proposalLimit int
	window        time.Duration
}

// NewUsageHandler creates a new usage handler
func NewUsageHandler(limiter *ratelimit.Limiter, users service.UserStore, searchLimit, proposalLimit int, window time.Duration) *UsageHandler {
	return &UsageHandler{
		limiter:       limiter,
		users:         users,
		searchLimit:   searchLimit,
		proposalLimit: proposalLimit,
		window:        window,
	}
}

// OperationUsage describes the window state of one rate-limited operation
type OperationUsage struct {
	Operation string `json:"operation"`
	Limit     int    `json:"limit"`
	Used      int    `json:"used"`
	Remaining int    `json:"remaining"`
	ResetTime string `json:"reset_time"`
}

// Usage returns the caller's lifetime usage counter and current window state.
// The window peek does not consume a request.
// GET /api/v1/user/usage
func (h *UsageHandler) Usage(w http.ResponseWriter, r *http.Request) {
	user := auth.GetUser(r.Context())
	if user == nil {
		response.Error(w, http.StatusUnauthorized, response.CodeInvalidAuth, "Authentication required")
		return
	}

	full, err := h.users.GetByID(r.Context(), user.ID)
	if err != nil {
		log.Printf("[usage] lookup error: %v", err)
		response.InternalError(w, "Failed to fetch usage data")
		return
	}

	operations := []struct {
		name  string
		limit int
	}{
		{ratelimit.OpSearch, h.searchLimit},
		{ratelimit.OpProposalGeneration, h.proposalLimit},
	}

	limits := make([]OperationUsage, 0, len(operations))
	for _, op := range operations {
		status, err := h.limiter.Status(r.Context(), user.ID, op.name, op.limit, h.window)
		if err != nil {
			log.Printf("[usage] rate limit status error: %v", err)
			response.InternalError(w, "Failed to fetch usage data")
			return
		}
		limits = append(limits, OperationUsage{
			Operation: op.name,
			Limit:     status.Limit,
			Used:      status.Current,
			Remaining: status.Remaining(),
			ResetTime: status.ResetAt.UTC().Format(time.RFC3339),
		})
	}

	response.JSON(w, http.StatusOK, map[string]interface{}{
		"success":     true,
		"tier":        full.Tier,
		"usage_count": full.UsageCount,
		"rate_limits": limits,
	})
}
