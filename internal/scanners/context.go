package scanners

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"unicode"

	"github.com/yorozuya-cybersecurity/hipaa-audit/internal/browser"
	"github.com/yorozuya-cybersecurity/hipaa-audit/internal/schema"
)

// PHIContextKey names the protected health information context.
const PHIContextKey = "phi"

// ContextDetector decides whether a settled page handles a sensitive data class.
type ContextDetector struct {
	contexts map[string]schema.ContextDefinition
}

func NewContextDetector(defs []schema.ContextDefinition) *ContextDetector {
	m := make(map[string]schema.ContextDefinition, len(defs))
	for _, d := range defs {
		m[d.Key] = d
	}
	return &ContextDetector{contexts: m}
}

// DetectPhi reports whether the page looks like it handles health information.
func (d *ContextDetector) DetectPhi(ctx context.Context, page browser.Page, pageURL string) (bool, error) {
	return d.Detect(ctx, PHIContextKey, page, pageURL)
}

// Detect matches the page URL, its visible text and its form fields against
// the named context. An unknown key never matches.
func (d *ContextDetector) Detect(ctx context.Context, key string, page browser.Page, pageURL string) (bool, error) {
	def, ok := d.contexts[key]
	if !ok {
		return false, nil
	}

	if pathMentions(pageURL, def.FieldPatterns) {
		return true, nil
	}

	text, err := page.Text(ctx)
	if err != nil {
		return false, fmt.Errorf("detect %s context: %w", key, err)
	}
	if containsAny(text, def.Keywords) {
		return true, nil
	}

	forms, err := page.Forms(ctx)
	if err != nil {
		return false, fmt.Errorf("detect %s context: %w", key, err)
	}
	for _, f := range forms {
		for _, fld := range f.Fields {
			if containsAny(fld.Name, def.FieldPatterns) || containsAny(fld.ID, def.FieldPatterns) ||
				containsAny(fld.Label, def.FieldPatterns) {
				return true, nil
			}
		}
	}
	return false, nil
}

// pathMentions reports whether any path segment token of raw equals a pattern.
func pathMentions(raw string, patterns []string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	tokens := strings.FieldsFunc(strings.ToLower(u.Path), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_'
	})
	for _, tok := range tokens {
		for _, p := range patterns {
			if tok == strings.ToLower(p) {
				return true
			}
		}
	}
	return false
}
