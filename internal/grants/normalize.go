package grants

import (
	"encoding/json"

	"github.com/grantscope/backend/internal/models"
)

// wrapperKeys are the recognized object keys under which upstream responses
// wrap their record array. Checked in order.
var wrapperKeys = []string{"opportunities", "oppHits", "data", "results", "grants"}

// Defaults applied when an optional upstream field is absent, so required
// output fields are never empty.
const (
	defaultAgency      = "Unknown Agency"
	defaultProgram     = "General"
	defaultDeadline    = "See announcement"
	defaultAmount      = "Varies"
	defaultEligibility = "See full announcement for eligibility details"
)

// upstreamGrant is the loose shape of one upstream record. Field names cover
// the known upstream schema variants.
type upstreamGrant struct {
	ID          string  `json:"id"`
	Number      string  `json:"number"`
	OppNumber   string  `json:"opportunityNumber"`
	Title       string  `json:"title"`
	OppTitle    string  `json:"opportunityTitle"`
	Agency      string  `json:"agency"`
	AgencyName  string  `json:"agencyName"`
	Program     string  `json:"program"`
	Category    string  `json:"category"`
	Deadline    string  `json:"deadline"`
	CloseDate   string  `json:"closeDate"`
	Amount      string  `json:"amount"`
	AwardCeiling string  `json:"awardCeiling"`
	Description string  `json:"description"`
	Synopsis    string  `json:"synopsis"`
	Eligibility string  `json:"eligibility"`
	Score       float64 `json:"relevance_score"`
}

// decodeUpstream parses an upstream body into records. It accepts either a
// bare array or an object wrapping the array under one of the recognized
// keys. Any shape outside that set yields (nil, false) — a no-match signal,
// never a panic or a half-parsed record.
func decodeUpstream(body []byte) ([]upstreamGrant, bool) {
	// Bare array
	var records []upstreamGrant
	if err := json.Unmarshal(body, &records); err == nil {
		return records, true
	}

	// Object wrapping the array under a known key
	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, false
	}

	for _, key := range wrapperKeys {
		raw, ok := envelope[key]
		if !ok {
			continue
		}
		if err := json.Unmarshal(raw, &records); err == nil {
			return records, true
		}
		// Known key with an unrecognized value shape is still a no-match
		return nil, false
	}

	return nil, false
}

// normalize converts upstream records to the output model, tagging each with
// the given data source and filling defaults for missing optional fields.
func normalize(records []upstreamGrant, source models.DataSource) []models.Grant {
	grants := make([]models.Grant, 0, len(records))
	for _, rec := range records {
		grants = append(grants, models.Grant{
			ID:             firstNonEmpty(rec.ID, rec.OppNumber, rec.Number),
			Title:          firstNonEmpty(rec.Title, rec.OppTitle, "Untitled Opportunity"),
			Agency:         firstNonEmpty(rec.Agency, rec.AgencyName, defaultAgency),
			Program:        firstNonEmpty(rec.Program, rec.Category, defaultProgram),
			Deadline:       firstNonEmpty(rec.Deadline, rec.CloseDate, defaultDeadline),
			Amount:         firstNonEmpty(rec.Amount, rec.AwardCeiling, defaultAmount),
			Description:    firstNonEmpty(rec.Description, rec.Synopsis, ""),
			Eligibility:    firstNonEmpty(rec.Eligibility, defaultEligibility),
			RelevanceScore: rec.Score,
			DataSource:     source,
		})
	}
	return grants
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
