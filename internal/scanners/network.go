package scanners

import (
	"context"

	"github.com/yorozuya-cybersecurity/hipaa-audit/internal/browser"
	"github.com/yorozuya-cybersecurity/hipaa-audit/internal/schema"
)

// NetworkScanner flags requests to hosts listed in a rule's match.hosts.
type NetworkScanner struct {
	page  browser.Page
	rules []*schema.Rule
}

func NewNetworkScanner() *NetworkScanner { return &NetworkScanner{} }

func (s *NetworkScanner) Name() string { return "network" }

func (s *NetworkScanner) Init(_ context.Context, page browser.Page, rules []schema.Rule) error {
	s.page = page
	s.rules = selectRules(rules, func(r schema.Rule) bool { return len(r.Match.Hosts) > 0 })
	return nil
}

// Analyze emits one finding per matching request, in request order.
func (s *NetworkScanner) Analyze(context.Context) ([]schema.Finding, error) {
	var findings []schema.Finding
	for _, req := range s.page.Requests() {
		host := hostname(req.URL)
		if host == "" {
			continue
		}
		for _, r := range s.rules {
			for _, domain := range r.Match.Hosts {
				if hostMatches(host, domain) {
					findings = append(findings, schema.Finding{Rule: r, Target: req.URL})
					break
				}
			}
		}
	}
	return findings, nil
}
