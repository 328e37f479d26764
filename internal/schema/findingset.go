package schema

// FindingSet maps rule IDs to findings and remembers first-insertion order.
type FindingSet struct {
	keys  []string
	items map[string]Finding
}

// NewFindingSet returns an empty set.
func NewFindingSet() *FindingSet {
	return &FindingSet{items: make(map[string]Finding)}
}

// Add records f under ruleID unless the ID is already present. It reports
// whether f was stored.
func (s *FindingSet) Add(ruleID string, f Finding) bool {
	if _, ok := s.items[ruleID]; ok {
		return false
	}
	s.keys = append(s.keys, ruleID)
	s.items[ruleID] = f
	return true
}

func (s *FindingSet) Get(ruleID string) (Finding, bool) {
	f, ok := s.items[ruleID]
	return f, ok
}

func (s *FindingSet) Len() int { return len(s.keys) }

// Keys returns rule IDs in insertion order.
func (s *FindingSet) Keys() []string {
	out := make([]string, len(s.keys))
	copy(out, s.keys)
	return out
}

// Findings returns the stored findings in insertion order.
func (s *FindingSet) Findings() []Finding {
	out := make([]Finding, 0, len(s.keys))
	for _, k := range s.keys {
		out = append(out, s.items[k])
	}
	return out
}

// SeverityBuckets holds one FindingSet per severity tier.
type SeverityBuckets map[Severity]*FindingSet

// NewSeverityBuckets returns the four tiers, each empty.
func NewSeverityBuckets() SeverityBuckets {
	b := make(SeverityBuckets, len(SeverityOrder))
	for _, sev := range SeverityOrder {
		b[sev] = NewFindingSet()
	}
	return b
}

// Total counts findings across all tiers.
func (b SeverityBuckets) Total() int {
	n := 0
	for _, sev := range SeverityOrder {
		if set := b[sev]; set != nil {
			n += set.Len()
		}
	}
	return n
}
