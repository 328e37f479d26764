package scanners

import (
	"context"
	"net/url"
	"strings"

	"github.com/yorozuya-cybersecurity/hipaa-audit/internal/browser"
	"github.com/yorozuya-cybersecurity/hipaa-audit/internal/schema"
)

// HeaderScanner checks the main document for transport security and
// required response headers.
type HeaderScanner struct {
	page  browser.Page
	rules []*schema.Rule
}

func NewHeaderScanner() *HeaderScanner { return &HeaderScanner{} }

func (s *HeaderScanner) Name() string { return "security" }

func (s *HeaderScanner) Init(_ context.Context, page browser.Page, rules []schema.Rule) error {
	s.page = page
	s.rules = selectRules(rules, func(r schema.Rule) bool {
		return r.Match.Header != "" || r.Match.InsecureScheme
	})
	return nil
}

// Analyze needs a document response; without one there is nothing to judge.
func (s *HeaderScanner) Analyze(context.Context) ([]schema.Finding, error) {
	headers := s.page.DocumentHeaders()
	if headers == nil {
		return nil, nil
	}
	pageURL := s.page.URL()
	insecure := false
	if u, err := url.Parse(pageURL); err == nil {
		insecure = strings.EqualFold(u.Scheme, "http")
	}

	var findings []schema.Finding
	for _, r := range s.rules {
		switch {
		case r.Match.InsecureScheme:
			if insecure {
				findings = append(findings, schema.Finding{Rule: r, Target: pageURL})
			}
		case r.Match.Header != "":
			if strings.TrimSpace(headers[strings.ToLower(r.Match.Header)]) == "" {
				findings = append(findings, schema.Finding{Rule: r, Target: pageURL})
			}
		}
	}
	return findings, nil
}
