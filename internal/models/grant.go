package models

// DataSource identifies which path served a grant record
type DataSource string

const (
	// DataSourceLive marks records fetched from the upstream grants API
	DataSourceLive DataSource = "live"
	// DataSourceMock marks records served from the static fallback dataset
	DataSourceMock DataSource = "mock"
)

// Grant represents a single grant opportunity
type Grant struct {
	ID             string     `json:"id"`
	Title          string     `json:"title"`
	Agency         string     `json:"agency"`
	Program        string     `json:"program"`
	Deadline       string     `json:"deadline"`
	Amount         string     `json:"amount"`
	Description    string     `json:"description"`
	Eligibility    string     `json:"eligibility"`
	RelevanceScore float64    `json:"relevance_score"`
	DataSource     DataSource `json:"data_source"`
}

// RateLimitCounter is a fixed-window counter row keyed by (identity, operation)
type RateLimitCounter struct {
	Identity    string `db:"identity"`
	Operation   string `db:"operation"`
	Count       int    `db:"count"`
	WindowStart int64  `db:"window_start"`
}
