package models

import "time"

// StagedSource is a deduplicated source under observation. Exactly one record
// exists per normalized URL; repeated citations merge into its counters.
type StagedSource struct {
	ID                   string      `json:"id" db:"id"`
	NormalizedURL        string      `json:"normalized_url" db:"normalized_url"`
	Domain               string      `json:"domain" db:"domain"`
	Title                string      `json:"title,omitempty" db:"title"`
	Description          string      `json:"description,omitempty" db:"description"`
	ContentType          ContentType `json:"content_type" db:"content_type"`
	Language             string      `json:"language,omitempty" db:"language"`
	CitationCount        int         `json:"citation_count" db:"citation_count"`
	DistinctProjectCount int         `json:"distinct_project_count" db:"distinct_project_count"`
	Projects             StringArray `json:"projects" db:"projects"`
	FirstSeen            time.Time   `json:"first_seen" db:"first_seen"`
	LastSeen             time.Time   `json:"last_seen" db:"last_seen"`
	StagingScore         float64     `json:"staging_score" db:"staging_score"`
	SourceInboxIDs       StringArray `json:"source_inbox_ids" db:"source_inbox_ids"`
	PromotedAt           *time.Time  `json:"promoted_at,omitempty" db:"promoted_at"`
	PromotedTo           *string     `json:"promoted_to,omitempty" db:"promoted_to"`
}

// IsPromoted reports whether the source currently has a catalog counterpart.
func (s *StagedSource) IsPromoted() bool {
	return s.PromotedTo != nil && *s.PromotedTo != ""
}
