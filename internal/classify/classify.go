// Package classify assigns HITS-style roles from the known-domain table and
// classifies page content types from URL heuristics.
package classify

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jonesrussell/gocatalog/internal/logger"
	"github.com/jonesrussell/gocatalog/internal/models"
	"github.com/jonesrussell/gocatalog/internal/repository"
)

// DomainStore is the known-domain lookup the classifier reads from.
type DomainStore interface {
	Get(ctx context.Context, domain string) (*models.KnownDomain, error)
}

// Classifier resolves domain roles. Roles are assigned once at source
// creation and never overwritten by auto-classification afterwards; a manual
// override sticks until explicitly re-requested.
type Classifier struct {
	domains DomainStore
	logger  logger.Logger
}

func NewClassifier(domains DomainStore, log logger.Logger) *Classifier {
	return &Classifier{
		domains: domains,
		logger:  log,
	}
}

// Classify returns the role recorded for the domain, or RoleUnclassified when
// the domain is unknown.
func (c *Classifier) Classify(ctx context.Context, domain string) (models.Role, error) {
	kd, err := c.domains.Get(ctx, domain)
	if errors.Is(err, repository.ErrNotFound) {
		return models.RoleUnclassified, nil
	}
	if err != nil {
		return models.RoleUnclassified, fmt.Errorf("lookup domain role: %w", err)
	}

	if !kd.Role.Valid() {
		c.logger.Warn("known domain has unrecognized role",
			logger.String("domain", domain),
			logger.String("role", string(kd.Role)),
		)
		return models.RoleUnclassified, nil
	}

	return kd.Role, nil
}

// repositoryHosts are code-hosting domains.
var repositoryHosts = []string{
	"github.com",
	"gitlab.com",
	"bitbucket.org",
	"codeberg.org",
	"sourceforge.net",
}

// forumHosts are discussion-centric domains.
var forumHosts = []string{
	"stackoverflow.com",
	"stackexchange.com",
	"reddit.com",
	"news.ycombinator.com",
	"lobste.rs",
}

// paperHosts are publication archives.
var paperHosts = []string{
	"arxiv.org",
	"doi.org",
	"acm.org",
	"ieee.org",
	"semanticscholar.org",
}

// blogHosts are blogging platforms.
var blogHosts = []string{
	"medium.com",
	"substack.com",
	"dev.to",
	"hashnode.dev",
	"wordpress.com",
}

// ContentType classifies what kind of page a normalized URL points at, using
// string-pattern heuristics on the host and path. Returns a closed enum so
// downstream switches stay exhaustive.
func ContentType(normalizedURL string) models.ContentType {
	lower := strings.ToLower(normalizedURL)

	host := lower
	path := ""
	if idx := strings.IndexAny(lower, "/?"); idx >= 0 {
		host = lower[:idx]
		path = lower[idx:]
	}

	switch {
	case hostMatches(host, repositoryHosts):
		return models.ContentRepository
	case hostMatches(host, forumHosts) || strings.Contains(path, "/forum") || strings.Contains(path, "/discuss"):
		return models.ContentForum
	case hostMatches(host, paperHosts) || strings.HasSuffix(path, ".pdf") || strings.Contains(path, "/paper"):
		return models.ContentPaper
	case strings.HasPrefix(host, "docs.") || strings.Contains(path, "/docs") ||
		strings.Contains(path, "/documentation") || strings.Contains(path, "/manual") ||
		strings.Contains(path, "/reference"):
		return models.ContentDocumentation
	case strings.HasPrefix(host, "api.") || strings.Contains(path, "/api/") ||
		strings.HasSuffix(path, "/api") || strings.Contains(path, "/openapi") ||
		strings.Contains(path, "/swagger"):
		return models.ContentAPI
	case hostMatches(host, blogHosts) || strings.HasPrefix(host, "blog.") ||
		strings.Contains(path, "/blog") || strings.Contains(path, "/posts/"):
		return models.ContentBlog
	default:
		return models.ContentOther
	}
}

func hostMatches(host string, candidates []string) bool {
	for _, c := range candidates {
		if host == c || strings.HasSuffix(host, "."+c) {
			return true
		}
	}
	return false
}
