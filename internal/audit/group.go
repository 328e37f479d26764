package audit

import "github.com/yorozuya-cybersecurity/hipaa-audit/internal/schema"

// Group buckets exemplars by their rule's severity, keeping exemplar order
// within each tier.
func Group(exemplars *schema.FindingSet) schema.SeverityBuckets {
	buckets := schema.NewSeverityBuckets()
	for _, id := range exemplars.Keys() {
		f, _ := exemplars.Get(id)
		buckets[f.Rule.Severity.Normalize()].Add(id, f)
	}
	return buckets
}
