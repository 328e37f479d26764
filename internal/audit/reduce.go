// Package audit runs a page audit end to end and reduces scanner output
// into category scores and severity-ranked findings.
package audit

import (
	"fmt"

	"github.com/yorozuya-cybersecurity/hipaa-audit/internal/schema"
)

// Reduce walks findings in scan order and returns the set of failed rule
// IDs plus the first finding seen for each. Context-gated rules only fail
// when isPhiContext is true.
func Reduce(findings []schema.Finding, isPhiContext bool) (map[string]struct{}, *schema.FindingSet) {
	failed := make(map[string]struct{})
	exemplars := schema.NewFindingSet()
	for _, f := range findings {
		if f.Rule == nil {
			panic(fmt.Sprintf("finding for %q has no rule", f.Target))
		}
		if f.Rule.ContextRequired && !isPhiContext {
			continue
		}
		failed[f.Rule.ID] = struct{}{}
		exemplars.Add(f.Rule.ID, f)
	}
	return failed, exemplars
}
