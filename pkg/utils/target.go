package utils

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

var (
	ErrMissingTarget = errors.New("missing target URL")
	ErrInvalidTarget = errors.New("invalid URL")
)

// ParseTarget validates an audit target: an absolute http(s) URL with a host.
func ParseTarget(raw string) (*url.URL, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, ErrMissingTarget
	}
	u, err := url.ParseRequestURI(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidTarget, raw)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("%w: %s (scheme must be http or https)", ErrInvalidTarget, raw)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("%w: %s (no host)", ErrInvalidTarget, raw)
	}
	return u, nil
}

// Abbreviate returns the first n runes of s followed by "...".
func Abbreviate(s string, n int) string {
	rs := []rune(strings.TrimSpace(s))
	if len(rs) > n {
		rs = rs[:n]
	}
	return string(rs) + "..."
}
