// Package urlnorm canonicalizes citation URLs so that casing, www prefixes,
// scheme and trailing-slash variants of the same page converge to one key.
package urlnorm

import (
	"fmt"
	"net"
	"net/url"
	"strings"

	"golang.org/x/net/publicsuffix"
)

// Validate checks that a raw citation URL is capturable: http/https scheme and
// not a loopback, private-range, or internal hostname. The returned error is
// human-readable and intended to be recorded on the quarantined inbox entry.
func Validate(raw string) error {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return fmt.Errorf("url is empty")
	}

	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("url is not parseable: %v", err)
	}

	scheme := strings.ToLower(u.Scheme)
	if scheme != "http" && scheme != "https" {
		return fmt.Errorf("scheme %q is not allowed, only http and https are captured", u.Scheme)
	}

	host := strings.ToLower(u.Hostname())
	if host == "" {
		return fmt.Errorf("url has no host")
	}

	if isDeniedHost(host) {
		return fmt.Errorf("host %q is local or internal and is not captured", host)
	}

	return nil
}

// isDeniedHost reports whether host is loopback, link-local, private, or an
// internal-only hostname.
func isDeniedHost(host string) bool {
	if host == "localhost" || strings.HasSuffix(host, ".localhost") {
		return true
	}

	for _, suffix := range []string{".local", ".internal", ".lan", ".home.arpa"} {
		if strings.HasSuffix(host, suffix) {
			return true
		}
	}

	if ip := net.ParseIP(host); ip != nil {
		return ip.IsLoopback() || ip.IsPrivate() || ip.IsLinkLocalUnicast() || ip.IsUnspecified()
	}

	return false
}

// Normalize returns the canonical form of a citation URL: scheme dropped, host
// lowercased with any "www." prefix removed, default port removed, path
// lowercased with the trailing slash stripped. The query string is preserved
// as-is. Two citations of the same page in different casings normalize to the
// same string.
func Normalize(raw string) (string, error) {
	raw = strings.TrimSpace(raw)

	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("parse url: %w", err)
	}

	host := strings.ToLower(u.Hostname())
	if host == "" {
		return "", fmt.Errorf("url %q has no host", raw)
	}
	host = strings.TrimPrefix(host, "www.")

	port := u.Port()
	if port != "" && port != "80" && port != "443" {
		host = host + ":" + port
	}

	path := strings.ToLower(u.EscapedPath())
	path = strings.TrimSuffix(path, "/")

	normalized := host + path
	if u.RawQuery != "" {
		normalized += "?" + u.RawQuery
	}

	return normalized, nil
}

// Domain extracts the registrable domain (eTLD+1) from a citation URL. When
// the public suffix list cannot resolve the host (bare IPs, unlisted TLDs),
// the lowercased host itself is returned.
func Domain(raw string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return "", fmt.Errorf("parse url: %w", err)
	}

	host := strings.ToLower(u.Hostname())
	if host == "" {
		return "", fmt.Errorf("url %q has no host", raw)
	}
	host = strings.TrimPrefix(host, "www.")

	if net.ParseIP(host) != nil {
		return host, nil
	}

	domain, err := publicsuffix.EffectiveTLDPlusOne(host)
	if err != nil {
		return host, nil
	}
	return domain, nil
}
