package analyzer

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

// ErrInvalidReference indicates the repository reference could not be parsed
// into an owner/name pair.
var ErrInvalidReference = fmt.Errorf("invalid repository reference")

const hostingDomain = "github.com"

// refPartRe matches a single owner or repository name segment. GitHub allows
// alphanumerics, hyphens, underscores and dots, and segments never start
// with a dot or hyphen.
var refPartRe = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]*$`)

// Reference is a normalized repository identity.
type Reference struct {
	Owner string
	Name  string
	// URL is the canonical form used as the store key.
	URL string
}

// NormalizeReference parses a repository reference into its canonical form.
// Accepted inputs: "owner/name" shorthand, "github.com/owner/name", and full
// web URLs on the hosting domain. Trailing slashes and a ".git" suffix are
// stripped.
func NormalizeReference(ref string) (Reference, error) {
	ref = strings.TrimSpace(ref)
	ref = strings.TrimSuffix(ref, "/")
	if ref == "" {
		return Reference{}, fmt.Errorf("%w: empty reference", ErrInvalidReference)
	}

	path := ref
	if strings.Contains(ref, "://") {
		u, err := url.Parse(ref)
		if err != nil {
			return Reference{}, fmt.Errorf("%w: %q", ErrInvalidReference, ref)
		}
		if u.Scheme != "http" && u.Scheme != "https" {
			return Reference{}, fmt.Errorf("%w: unsupported scheme %q", ErrInvalidReference, u.Scheme)
		}
		host := strings.TrimPrefix(strings.ToLower(u.Host), "www.")
		if host != hostingDomain {
			return Reference{}, fmt.Errorf("%w: host %q is not %s", ErrInvalidReference, u.Host, hostingDomain)
		}
		path = strings.Trim(u.Path, "/")
	} else if rest, ok := strings.CutPrefix(ref, hostingDomain+"/"); ok {
		path = strings.Trim(rest, "/")
	}

	parts := strings.Split(path, "/")
	if len(parts) != 2 {
		return Reference{}, fmt.Errorf("%w: expected owner/name, got %q", ErrInvalidReference, ref)
	}

	owner := parts[0]
	name := strings.TrimSuffix(parts[1], ".git")
	if !refPartRe.MatchString(owner) || !refPartRe.MatchString(name) {
		return Reference{}, fmt.Errorf("%w: invalid owner or repository name in %q", ErrInvalidReference, ref)
	}

	return Reference{
		Owner: owner,
		Name:  name,
		URL:   fmt.Sprintf("https://%s/%s/%s", hostingDomain, owner, name),
	}, nil
}
