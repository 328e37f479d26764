package scanners

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/yorozuya-cybersecurity/hipaa-audit/internal/browser"
	"github.com/yorozuya-cybersecurity/hipaa-audit/internal/schema"
)

// Form check kinds accepted in a rule's match.form.
const (
	FormInsecureAction   = "insecure_action"
	FormThirdPartyAction = "third_party_action"
	FormAutocomplete     = "autocomplete"
)

// FormScanner inspects forms that collect sensitive fields.
type FormScanner struct {
	page     browser.Page
	rules    []*schema.Rule
	patterns []string
}

func NewFormScanner() *FormScanner { return &FormScanner{} }

func (s *FormScanner) Name() string { return "form" }

func (s *FormScanner) SetSensitiveFields(patterns []string) {
	s.patterns = append([]string(nil), patterns...)
}

func (s *FormScanner) Init(_ context.Context, page browser.Page, rules []schema.Rule) error {
	s.page = page
	s.rules = selectRules(rules, func(r schema.Rule) bool { return r.Match.Form != "" })
	for _, r := range s.rules {
		switch r.Match.Form {
		case FormInsecureAction, FormThirdPartyAction, FormAutocomplete:
		default:
			return fmt.Errorf("rule %s: unknown form check %q", r.ID, r.Match.Form)
		}
	}
	return nil
}

func (s *FormScanner) Analyze(ctx context.Context) ([]schema.Finding, error) {
	if len(s.rules) == 0 || len(s.patterns) == 0 {
		return nil, nil
	}
	forms, err := s.page.Forms(ctx)
	if err != nil {
		return nil, err
	}
	pageURL, _ := url.Parse(s.page.URL())

	var findings []schema.Finding
	for _, f := range forms {
		sensitive := s.sensitiveFields(f)
		if len(sensitive) == 0 {
			continue
		}
		action := resolveAction(pageURL, f.Action)
		for _, r := range s.rules {
			if formViolates(r.Match.Form, f, sensitive, action, pageURL) {
				target := f.Action
				if action != nil {
					target = action.String()
				}
				findings = append(findings, schema.Finding{Rule: r, Target: target})
			}
		}
	}
	return findings, nil
}

func (s *FormScanner) sensitiveFields(f browser.Form) []browser.FormField {
	var out []browser.FormField
	for _, fld := range f.Fields {
		if fld.Type == "hidden" || fld.Type == "submit" || fld.Type == "button" {
			continue
		}
		if containsAny(fld.Name, s.patterns) || containsAny(fld.ID, s.patterns) ||
			containsAny(fld.Placeholder, s.patterns) || containsAny(fld.Label, s.patterns) {
			out = append(out, fld)
		}
	}
	return out
}

func resolveAction(page *url.URL, action string) *url.URL {
	a, err := url.Parse(strings.TrimSpace(action))
	if err != nil {
		return nil
	}
	if page == nil {
		return a
	}
	return page.ResolveReference(a)
}

func formViolates(kind string, f browser.Form, sensitive []browser.FormField, action, page *url.URL) bool {
	switch kind {
	case FormInsecureAction:
		return action != nil && strings.EqualFold(action.Scheme, "http")
	case FormThirdPartyAction:
		if action == nil || page == nil || action.Hostname() == "" || page.Hostname() == "" {
			return false
		}
		return !sameSite(action.Hostname(), page.Hostname())
	case FormAutocomplete:
		formOff := strings.EqualFold(f.Autocomplete, "off")
		for _, fld := range sensitive {
			ac := strings.ToLower(strings.TrimSpace(fld.Autocomplete))
			if ac == "off" || ac == "new-password" {
				continue
			}
			if ac == "" && formOff {
				continue
			}
			return true
		}
	}
	return false
}
