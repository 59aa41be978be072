package models

import "time"

// CitationLink ties an entry in the external entry store to a source reference.
// SourceID is nullable: a citation may reference a URL that has not been
// curated yet, and links survive catalog deletions with SourceID set to null.
type CitationLink struct {
	ID        string    `json:"id" db:"id"`
	EntryID   string    `json:"entry_id" db:"entry_id"`
	SourceID  *string   `json:"source_id,omitempty" db:"source_id"`
	LinkKind  LinkKind  `json:"link_kind" db:"link_kind"`
	Reference string    `json:"reference" db:"reference"`
	Note      *string   `json:"note,omitempty" db:"note"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// KnownDomain is a seed reference table row used for role classification.
// Append-only in normal operation.
type KnownDomain struct {
	Domain string `json:"domain" db:"domain"`
	Role   Role   `json:"role" db:"role"`
	Notes  string `json:"notes,omitempty" db:"notes"`
}
