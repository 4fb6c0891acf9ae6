package security

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"strings"
)

// ErrInvalidURL is wrapped by every URL validation failure
var ErrInvalidURL = errors.New("invalid URL")

// GitHubHost is the host of repository links that can be resolved
const GitHubHost = "github.com"

// ValidateRepositoryURL checks a user-supplied repository link.
// It requires an absolute https URL whose host is neither a private address
// nor localhost. When allowLocal is true, http://localhost links are accepted
// for development.
func ValidateRepositoryURL(urlStr string, allowLocal bool) error {
	parsed, err := parseAbsolute(urlStr)
	if err != nil {
		return err
	}

	scheme := strings.ToLower(parsed.Scheme)
	host := parsed.Hostname()
	isLocal := IsLocalhost(host)

	switch scheme {
	case "https":
	case "http":
		if !allowLocal || !isLocal {
			return fmt.Errorf("%w: HTTPS is required for repository URLs", ErrInvalidURL)
		}
	default:
		return fmt.Errorf("%w: unsupported scheme %q (only http and https are allowed)", ErrInvalidURL, parsed.Scheme)
	}

	if isLocal {
		if allowLocal {
			return nil
		}
		return fmt.Errorf("%w: localhost URLs are not allowed", ErrInvalidURL)
	}

	if net.ParseIP(host) != nil && IsPrivateIP(host) {
		return fmt.Errorf("%w: private IP addresses are not allowed", ErrInvalidURL)
	}

	return nil
}

// ParseGitHubRepository extracts owner and name from a github.com repository link.
// ok is false for links to other hosts or without both path segments.
func ParseGitHubRepository(urlStr string) (owner, name string, ok bool) {
	parsed, err := parseAbsolute(urlStr)
	if err != nil {
		return "", "", false
	}

	host := strings.TrimPrefix(strings.ToLower(parsed.Hostname()), "www.")
	if host != GitHubHost {
		return "", "", false
	}

	parts := strings.Split(strings.Trim(parsed.Path, "/"), "/")
	if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
		return "", "", false
	}

	return parts[0], strings.TrimSuffix(parts[1], ".git"), true
}

func parseAbsolute(urlStr string) (*url.URL, error) {
	if strings.TrimSpace(urlStr) == "" {
		return nil, fmt.Errorf("%w: URL is empty", ErrInvalidURL)
	}

	parsed, err := url.Parse(strings.TrimSpace(urlStr))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}
	if parsed.Scheme == "" {
		return nil, fmt.Errorf("%w: missing scheme", ErrInvalidURL)
	}
	if parsed.Hostname() == "" {
		return nil, fmt.Errorf("%w: missing host", ErrInvalidURL)
	}

	return parsed, nil
}
