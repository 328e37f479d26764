package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSeverityNormalize(t *testing.T) {
	tests := []struct {
		in   Severity
		want Severity
	}{
		{"critical", SeverityCritical},
		{"High", SeverityHigh},
		{" medium ", SeverityMedium},
		{"low", SeverityLow},
		{"", SeverityLow},
		{"info", SeverityLow},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.in.Normalize(), "Severity(%q)", tt.in)
	}
}

func TestFindingSetFirstWins(t *testing.T) {
	s := NewFindingSet()
	r := &Rule{ID: "A"}
	assert.True(t, s.Add("A", Finding{Rule: r, Target: "one"}))
	assert.True(t, s.Add("B", Finding{Rule: &Rule{ID: "B"}, Target: "two"}))
	assert.False(t, s.Add("A", Finding{Rule: r, Target: "three"}))

	assert.Equal(t, 2, s.Len())
	assert.Equal(t, []string{"A", "B"}, s.Keys())
	f, ok := s.Get("A")
	assert.True(t, ok)
	assert.Equal(t, "one", f.Target)
	assert.Equal(t, "two", s.Findings()[1].Target)
}

func TestSeverityBuckets(t *testing.T) {
	b := NewSeverityBuckets()
	assert.Len(t, b, 4)
	assert.Equal(t, 0, b.Total())
	b[SeverityHigh].Add("X", Finding{})
	b[SeverityLow].Add("Y", Finding{})
	assert.Equal(t, 2, b.Total())
}
