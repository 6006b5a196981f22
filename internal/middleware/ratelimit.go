package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/grantscope/backend/internal/api/response"
	"github.com/grantscope/backend/internal/auth"
	"github.com/grantscope/backend/internal/ratelimit"
)

// RateLimitDetail is the rate_limit object in 429 responses
type RateLimitDetail struct {
	Limit      int    `json:"limit"`
	Current    int    `json:"current"`
	RetryAfter int64  `json:"retry_after"`
	ResetTime  string `json:"reset_time"`
}

// RateLimit returns middleware enforcing a per-identity quota for one named
// operation. The identity is the authenticated user ID when present, the
// client IP otherwise. Must run after OptionalAuth.
func RateLimit(limiter *ratelimit.Limiter, operation string, limit int, window time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity := identityFromRequest(r)

			result := limiter.Check(r.Context(), identity, operation, limit, window)

			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(result.Limit))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(result.Remaining()))
			w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(result.ResetAt.Unix(), 10))

			if !result.Allowed {
				retryAfter := int64(result.RetryAfter.Seconds())
				w.Header().Set("Retry-After", strconv.FormatInt(retryAfter, 10))
				response.ErrorWithDetail(w, http.StatusTooManyRequests,
					response.CodeRateLimitExceeded,
					"You have exceeded your rate limit. Please try again later.",
					RateLimitDetail{
						Limit:      result.Limit,
						Current:    result.Current,
						RetryAfter: retryAfter,
						ResetTime:  result.ResetAt.UTC().Format(time.RFC3339),
					})
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// identityFromRequest picks the rate limit identity for a request
func identityFromRequest(r *http.Request) string {
	if user := auth.GetUser(r.Context()); user != nil {
		return user.ID
	}
	return GetClientIP(r)
}

// GetClientIP extracts the client IP from the request
func GetClientIP(req *http.Request) string {
	// Check X-Forwarded-For header (common for proxies/load balancers)
	xff := req.Header.Get("X-Forwarded-For")
	if xff != "" {
		// Take the first IP in the list
		for i := 0; i < len(xff); i++ {
			if xff[i] == ',' {
				return xff[:i]
			}
		}
		return xff
	}

	// Check X-Real-IP header
	xri := req.Header.Get("X-Real-IP")
	if xri != "" {
		return xri
	}

	// Fall back to RemoteAddr
	ip := req.RemoteAddr
	// Remove port if present
	for i := len(ip) - 1; i >= 0; i-- {
		if ip[i] == ':' {
			return ip[:i]
		}
		if ip[i] == ']' {
			// IPv6 address
			break
		}
	}
	return ip
}
