package audit

import "github.com/yorozuya-cybersecurity/hipaa-audit/internal/schema"

// Score tallies rules per active category in manifest order. Rules in
// inactive or unknown categories are ignored.
func Score(m *schema.Manifest, rules []schema.Rule, failed map[string]struct{}) []schema.CategoryReport {
	var reports []schema.CategoryReport
	index := make(map[string]int)
	for _, c := range m.Categories {
		if !c.Active {
			continue
		}
		if _, dup := index[c.Key]; dup {
			continue
		}
		index[c.Key] = len(reports)
		reports = append(reports, schema.CategoryReport{Key: c.Key, Name: c.Name})
	}

	for _, r := range rules {
		i, ok := index[r.Category]
		if !ok {
			continue
		}
		reports[i].TotalRules++
		if _, bad := failed[r.ID]; bad {
			reports[i].FailedRules++
		}
	}

	for i := range reports {
		reports[i].PassedRules = max(0, reports[i].TotalRules-reports[i].FailedRules)
	}
	return reports
}
