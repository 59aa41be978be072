package models

// Reliability grades how much a catalog source is trusted.
type Reliability string

const (
	ReliabilityA Reliability = "A"
	ReliabilityB Reliability = "B"
	ReliabilityC Reliability = "C"
)

// Valid reports whether r is a known reliability grade.
func (r Reliability) Valid() bool {
	switch r {
	case ReliabilityA, ReliabilityB, ReliabilityC:
		return true
	default:
		return false
	}
}

// DecayClass controls how quickly a source's freshness decays with disuse.
type DecayClass string

const (
	DecayFast   DecayClass = "fast"
	DecayMedium DecayClass = "medium"
	DecaySlow   DecayClass = "slow"
)

// Valid reports whether d is a known decay class.
func (d DecayClass) Valid() bool {
	switch d {
	case DecayFast, DecayMedium, DecaySlow:
		return true
	default:
		return false
	}
}

// Role is the HITS-style role of a source: a hub aggregates links to
// authoritative content, an authority is itself a trusted primary reference.
type Role string

const (
	RoleHub          Role = "hub"
	RoleAuthority    Role = "authority"
	RoleUnclassified Role = "unclassified"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	switch r {
	case RoleHub, RoleAuthority, RoleUnclassified:
		return true
	default:
		return false
	}
}

// SourceStatus is the liveness status of a catalog source.
type SourceStatus string

const (
	StatusActive       SourceStatus = "active"
	StatusInaccessible SourceStatus = "inaccessible"
	StatusArchived     SourceStatus = "archived"
)

// Valid reports whether s is a known status.
func (s SourceStatus) Valid() bool {
	switch s {
	case StatusActive, StatusInaccessible, StatusArchived:
		return true
	default:
		return false
	}
}

// ContentType is a closed classification of what kind of page a URL points at.
type ContentType string

const (
	ContentDocumentation ContentType = "documentation"
	ContentRepository    ContentType = "repository"
	ContentForum         ContentType = "forum"
	ContentBlog          ContentType = "blog"
	ContentAPI           ContentType = "api"
	ContentPaper         ContentType = "paper"
	ContentOther         ContentType = "other"
)

// Valid reports whether c is a known content type.
func (c ContentType) Valid() bool {
	switch c {
	case ContentDocumentation, ContentRepository, ContentForum, ContentBlog,
		ContentAPI, ContentPaper, ContentOther:
		return true
	default:
		return false
	}
}

// LinkKind distinguishes how an entry references a source.
type LinkKind string

const (
	LinkKindTheme LinkKind = "theme"
	LinkKindURL   LinkKind = "url"
	LinkKindFile  LinkKind = "file"
)

// Valid reports whether k is a known link kind.
func (k LinkKind) Valid() bool {
	switch k {
	case LinkKindTheme, LinkKindURL, LinkKindFile:
		return true
	default:
		return false
	}
}
