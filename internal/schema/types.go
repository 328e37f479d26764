package schema

import "strings"

// Severity is the priority tier of a rule.
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityHigh     Severity = "high"
	SeverityMedium   Severity = "medium"
	SeverityLow      Severity = "low"
)

// SeverityOrder is the fixed display order of the four tiers.
var SeverityOrder = []Severity{SeverityCritical, SeverityHigh, SeverityMedium, SeverityLow}

// Normalize maps an absent or unrecognized value to low.
func (s Severity) Normalize() Severity {
	switch Severity(strings.ToLower(strings.TrimSpace(string(s)))) {
	case SeverityCritical:
		return SeverityCritical
	case SeverityHigh:
		return SeverityHigh
	case SeverityMedium:
		return SeverityMedium
	default:
		return SeverityLow
	}
}

// Match describes what a scanner looks for on behalf of a rule.
type Match struct {
	Hosts          []string `yaml:"hosts,omitempty"`
	Header         string   `yaml:"header,omitempty"`
	InsecureScheme bool     `yaml:"insecure_scheme,omitempty"`
	Form           string   `yaml:"form,omitempty"` // insecure_action | third_party_action | autocomplete
}

// Rule is a single compliance check loaded from the catalog.
type Rule struct {
	ID              string   `yaml:"id"`
	Category        string   `yaml:"category"`
	Severity        Severity `yaml:"severity,omitempty"`
	ContextRequired bool     `yaml:"context_required,omitempty"`
	Title           string   `yaml:"title"`
	WhatHappened    string   `yaml:"what_happened"`
	WhyItMatters    string   `yaml:"why_it_matters"`
	Resolution      string   `yaml:"resolution"`
	Citations       []string `yaml:"citations,omitempty"`
	Match           Match    `yaml:"match,omitempty"`
}

// CategoryConfig is one entry of the manifest's category map.
type CategoryConfig struct {
	Key    string `yaml:"-"`
	Name   string `yaml:"name"`
	Active bool   `yaml:"active"`
}

// Manifest describes the rule set version and its categories in declaration order.
type Manifest struct {
	Version    string
	Categories []CategoryConfig
}

// ContextDefinition names the signals that mark a page as handling a sensitive data class.
type ContextDefinition struct {
	Key           string   `yaml:"key"`
	Name          string   `yaml:"name"`
	FieldPatterns []string `yaml:"field_patterns"`
	Keywords      []string `yaml:"keywords,omitempty"`
}

// Finding is one observed instance of a rule firing.
type Finding struct {
	Rule   *Rule
	Target string
}

// CategoryReport is the per-category pass/fail tally of one run.
type CategoryReport struct {
	Key         string
	Name        string
	TotalRules  int
	PassedRules int
	FailedRules int
}
