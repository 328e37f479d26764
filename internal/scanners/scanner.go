// Package scanners inspects a loaded page and reports rule violations.
package scanners

import (
	"context"
	"net/url"
	"strings"

	"github.com/yorozuya-cybersecurity/hipaa-audit/internal/browser"
	"github.com/yorozuya-cybersecurity/hipaa-audit/internal/schema"
)

// Scanner observes a page and yields findings once navigation is done.
type Scanner interface {
	Name() string
	Init(ctx context.Context, page browser.Page, rules []schema.Rule) error
	Analyze(ctx context.Context) ([]schema.Finding, error)
}

// FieldAware scanners take sensitive field-name patterns before Init.
type FieldAware interface {
	SetSensitiveFields(patterns []string)
}

// selectRules returns pointers to the rules keep accepts. The pointers
// reference the caller's slice so findings share rule identity.
func selectRules(rules []schema.Rule, keep func(schema.Rule) bool) []*schema.Rule {
	var out []*schema.Rule
	for i := range rules {
		if keep(rules[i]) {
			out = append(out, &rules[i])
		}
	}
	return out
}

// hostMatches reports whether host equals domain or is a subdomain of it.
func hostMatches(host, domain string) bool {
	host = strings.ToLower(strings.TrimSuffix(host, "."))
	domain = strings.ToLower(strings.TrimPrefix(domain, "."))
	return host == domain || strings.HasSuffix(host, "."+domain)
}

// sameSite is a loose first-party check: equal hosts, or one a subdomain of the other.
func sameSite(a, b string) bool {
	return hostMatches(a, b) || hostMatches(b, a)
}

func hostname(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	return u.Hostname()
}

func containsAny(s string, patterns []string) bool {
	s = strings.ToLower(s)
	for _, p := range patterns {
		if p != "" && strings.Contains(s, strings.ToLower(p)) {
			return true
		}
	}
	return false
}
