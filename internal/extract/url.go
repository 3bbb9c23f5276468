package extract

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// ErrInvalidURL is returned for any candidate that is not an absolute
// http(s) URL with a host. This check is a security boundary: it is the only
// thing between attacker-influenced email content and an externally-opened
// link, so anything ambiguous is rejected rather than repaired.
var ErrInvalidURL = errors.New("invalid external url")

// ValidateURL accepts only absolute URLs with scheme http or https and a
// non-empty host. Empty strings, scheme-relative strings, and javascript/
// file/data schemes are all rejected.
func ValidateURL(candidate string) (*url.URL, error) {
	candidate = strings.TrimSpace(candidate)
	if candidate == "" {
		return nil, fmt.Errorf("%w: empty string", ErrInvalidURL)
	}
	u, err := url.Parse(candidate)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}
	switch strings.ToLower(u.Scheme) {
	case "http", "https":
	case "":
		return nil, fmt.Errorf("%w: missing scheme in %q", ErrInvalidURL, candidate)
	default:
		return nil, fmt.Errorf("%w: scheme %q not allowed", ErrInvalidURL, u.Scheme)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("%w: missing host in %q", ErrInvalidURL, candidate)
	}
	return u, nil
}
