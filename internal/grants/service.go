package grants

import (
	"context"
	"errors"
	"log"
	"strings"

	"github.com/grantscope/backend/internal/models"
)

// ErrUpstreamUnavailable is returned when the live source failed and fallback
// is not permitted.
var ErrUpstreamUnavailable = errors.New("upstream grants source unavailable")

// Result is the explicit outcome of an acquisition attempt. The three states
// are: live data (Source=live, FallbackOccurred=false), fallback data
// (Source=mock, FallbackOccurred=true, FallbackReason set), and failure
// (returned as an error with an empty Result). Callers branch on the fields
// instead of inferring state from side channels.
type Result struct {
	Grants           []models.Grant    `json:"grants"`
	Source           models.DataSource `json:"data_source"`
	FallbackOccurred bool              `json:"fallback_occurred"`
	FallbackReason   string            `json:"fallback_reason,omitempty"`
}

// Config holds acquisition settings
type Config struct {
	LiveEnabled     bool
	FallbackEnabled bool
}

// Service fetches grant listings from the upstream source under a deadline,
// normalizes the schema, and falls back to the static dataset on any failure.
// Independent of auth and rate limiting.
type Service struct {
	client *Client
	cfg    Config
}

// NewService creates a new acquisition service
func NewService(client *Client, cfg Config) *Service {
	return &Service{client: client, cfg: cfg}
}

// Fetch performs one best-effort acquisition. A timeout, non-success status,
// or transport error on the live path triggers the fallback when permitted;
// otherwise the error propagates with no invented data. A live response that
// parses to zero records is a legitimate live answer, not a fallback.
func (s *Service) Fetch(ctx context.Context, query, agency string) (*Result, error) {
	if !s.cfg.LiveEnabled {
		return s.fallback(query, agency, "live data disabled")
	}

	body, err := s.client.Search(ctx, query, agency)
	if err != nil {
		log.Printf("[grants] live fetch failed: %v", err)
		return s.fallback(query, agency, err.Error())
	}

	records, ok := decodeUpstream(body)
	if !ok {
		// The request itself succeeded; an unrecognized shape normalizes to
		// an empty live answer rather than an error or a fallback.
		log.Printf("[grants] upstream response did not match any known schema, returning empty result")
		records = nil
	}

	grants := filter(normalize(records, models.DataSourceLive), query, agency)

	return &Result{
		Grants: grants,
		Source: models.DataSourceLive,
	}, nil
}

func (s *Service) fallback(query, agency, reason string) (*Result, error) {
	if !s.cfg.FallbackEnabled {
		return nil, ErrUpstreamUnavailable
	}

	return &Result{
		Grants:           filter(FallbackGrants(), query, agency),
		Source:           models.DataSourceMock,
		FallbackOccurred: true,
		FallbackReason:   reason,
	}, nil
}

// filter applies the query and agency filters locally. The upstream already
// filters when it honors the parameters; this keeps mock and misbehaving
// live responses consistent with the request.
func filter(grants []models.Grant, query, agency string) []models.Grant {
	if query == "" && agency == "" {
		return grants
	}

	query = strings.ToLower(query)
	agency = strings.ToLower(agency)

	filtered := make([]models.Grant, 0, len(grants))
	for _, g := range grants {
		if agency != "" && !strings.Contains(strings.ToLower(g.Agency), agency) {
			continue
		}
		if query != "" {
			haystack := strings.ToLower(g.Title + " " + g.Description + " " + g.Program)
			if !strings.Contains(haystack, query) {
				continue
			}
		}
		filtered = append(filtered, g)
	}
	return filtered
}
