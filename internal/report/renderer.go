// Package report renders the audit results as terminal text.
package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/yorozuya-cybersecurity/hipaa-audit/internal/schema"
	"github.com/yorozuya-cybersecurity/hipaa-audit/internal/ui"
	"github.com/yorozuya-cybersecurity/hipaa-audit/pkg/utils"
)

// LocationWidth is how much of a finding's target is shown.
const LocationWidth = 50

const (
	NoIssuesText   = "No issues found."
	NoActionText   = "No action required."
	DisclaimerText = "This report is informational only and does not constitute legal advice."
)

// Report is the input to Render.
type Report struct {
	Target     string
	Version    string
	Categories []schema.CategoryReport
	Buckets    schema.SeverityBuckets
}

// Renderer writes reports to a stream.
type Renderer struct {
	w  io.Writer
	lg *lipgloss.Renderer
}

// Option configures a Renderer.
type Option func(*Renderer)

// WithColorProfile overrides the detected colour profile. termenv.Ascii
// disables styling entirely.
func WithColorProfile(p termenv.Profile) Option {
	return func(r *Renderer) { r.lg.SetColorProfile(p) }
}

func New(w io.Writer, opts ...Option) *Renderer {
	r := &Renderer{w: w, lg: lipgloss.NewRenderer(w)}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Render writes the RESULTS, FINDINGS and ACTION PLAN sections followed by
// the disclaimer. Output depends only on rep.
func (r *Renderer) Render(rep Report) error {
	var b strings.Builder

	section := r.lg.NewStyle().Bold(true)
	muted := r.lg.NewStyle().Foreground(ui.Muted)

	fmt.Fprintf(&b, "%s %s\n", section.Render("Audit report for"), rep.Target)
	if rep.Version != "" {
		fmt.Fprintln(&b, muted.Render("Rule set "+rep.Version))
	}

	fmt.Fprintf(&b, "\n%s\n", section.Render("RESULTS"))
	r.writeResults(&b, rep.Categories)

	total := rep.Buckets.Total()
	fmt.Fprintf(&b, "\n%s\n", section.Render(fmt.Sprintf("FINDINGS (%d)", total)))
	if total == 0 {
		fmt.Fprintf(&b, "  %s\n", r.lg.NewStyle().Foreground(ui.Success).Render(NoIssuesText))
	} else {
		r.writeFindings(&b, rep.Buckets)
	}

	fmt.Fprintf(&b, "\n%s\n", section.Render("ACTION PLAN"))
	if total == 0 {
		fmt.Fprintf(&b, "  %s\n", NoActionText)
	} else {
		for i, f := range ordered(rep.Buckets) {
			fmt.Fprintf(&b, "  %d. [%s] %s\n", i+1, f.Rule.ID, emptyFallback(f.Rule.Resolution, "-"))
		}
	}

	fmt.Fprintf(&b, "\n%s\n", muted.Render(DisclaimerText))

	_, err := io.WriteString(r.w, b.String())
	return err
}

// Status markers for the RESULTS section.
const (
	MarkPass    = "PASS"
	MarkFail    = "FAIL"
	MarkPartial = "PARTIAL"
)

func (r *Renderer) writeResults(b *strings.Builder, cats []schema.CategoryReport) {
	width := 0
	for _, c := range cats {
		width = max(width, len(c.Name))
	}
	for _, c := range cats {
		if c.TotalRules == 0 {
			continue
		}
		mark, color := MarkPartial, ui.Warning
		switch c.PassedRules {
		case c.TotalRules:
			mark, color = MarkPass, ui.Success
		case 0:
			mark, color = MarkFail, ui.Error
		}
		badge := r.lg.NewStyle().Foreground(color).Bold(true).Width(len(MarkPartial)).Render(mark)
		fmt.Fprintf(b, "  %s  %-*s  %d/%d\n", badge, width, c.Name, c.PassedRules, c.TotalRules)
	}
}

func (r *Renderer) writeFindings(b *strings.Builder, buckets schema.SeverityBuckets) {
	label := r.lg.NewStyle().Foreground(ui.Muted)
	for _, sev := range schema.SeverityOrder {
		set := buckets[sev]
		if set == nil || set.Len() == 0 {
			continue
		}
		fmt.Fprintf(b, "\n%s\n", r.severityStyle(sev).Render(fmt.Sprintf("%s (%d)", strings.ToUpper(string(sev)), set.Len())))
		for _, f := range set.Findings() {
			rule := f.Rule
			fmt.Fprintf(b, "  [%s] %s\n", rule.ID, emptyFallback(rule.Title, rule.ID))
			fmt.Fprintf(b, "    %s %s (%s)\n", label.Render("What happened:"), oneLine(rule.WhatHappened), utils.Abbreviate(f.Target, LocationWidth))
			fmt.Fprintf(b, "    %s %s\n", label.Render("Why it matters:"), oneLine(rule.WhyItMatters))
			if len(rule.Citations) > 0 {
				fmt.Fprintf(b, "    %s\n", label.Render("References:"))
				for i, c := range rule.Citations {
					fmt.Fprintf(b, "      %d. %s\n", i+1, c)
				}
			}
			fmt.Fprintf(b, "    %s %s\n", label.Render("Resolution:"), emptyFallback(rule.Resolution, "-"))
		}
	}
}

func (r *Renderer) severityStyle(sev schema.Severity) lipgloss.Style {
	base := r.lg.NewStyle().Bold(true)
	switch sev {
	case schema.SeverityCritical:
		return base.Foreground(ui.Critical)
	case schema.SeverityHigh:
		return base.Foreground(ui.High)
	case schema.SeverityMedium:
		return base.Foreground(ui.Medium)
	default:
		return base.Foreground(ui.Low)
	}
}

// ordered flattens buckets critical first, insertion order within a tier.
func ordered(buckets schema.SeverityBuckets) []schema.Finding {
	var out []schema.Finding
	for _, sev := range schema.SeverityOrder {
		if set := buckets[sev]; set != nil {
			out = append(out, set.Findings()...)
		}
	}
	return out
}

func oneLine(s string) string {
	return emptyFallback(strings.Join(strings.Fields(s), " "), "-")
}

func emptyFallback(s, fb string) string {
	if strings.TrimSpace(s) == "" {
		return fb
	}
	return s
}
