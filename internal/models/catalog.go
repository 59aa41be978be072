package models

import "time"

// CatalogSource is a curated source in the catalog tier. Seeds are imported as
// pre-trusted ground truth and are never demoted automatically.
type CatalogSource struct {
	ID                    string       `json:"id" db:"id"`
	Domain                string       `json:"domain" db:"domain"`
	URLPattern            string       `json:"url_pattern" db:"url_pattern"`
	UsageCount            int          `json:"usage_count" db:"usage_count"`
	LastUsed              time.Time    `json:"last_used" db:"last_used"`
	Score                 float64      `json:"score" db:"score"`
	Reliability           Reliability  `json:"reliability" db:"reliability"`
	DecayClass            DecayClass   `json:"decay_class" db:"decay_class"`
	Role                  Role         `json:"role" db:"role"`
	IsSeed                bool         `json:"is_seed" db:"is_seed"`
	CitationQualityFactor float64      `json:"citation_quality_factor" db:"citation_quality_factor"`
	Status                SourceStatus `json:"status" db:"status"`
	ConsecutiveFailures   int          `json:"consecutive_failures" db:"consecutive_failures"`
	LastVerified          *time.Time   `json:"last_verified,omitempty" db:"last_verified"`
	CreatedAt             time.Time    `json:"created_at" db:"created_at"`
}

// ThemeTag associates a catalog source with a topic for scoped ranking queries.
type ThemeTag struct {
	SourceID string `json:"source_id" db:"source_id"`
	Theme    string `json:"theme" db:"theme"`
}
