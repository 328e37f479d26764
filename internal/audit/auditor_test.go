package audit

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/muesli/termenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yorozuya-cybersecurity/hipaa-audit/internal/browser"
	"github.com/yorozuya-cybersecurity/hipaa-audit/internal/browser/browsertest"
	"github.com/yorozuya-cybersecurity/hipaa-audit/internal/report"
	"github.com/yorozuya-cybersecurity/hipaa-audit/internal/rules"
	"github.com/yorozuya-cybersecurity/hipaa-audit/internal/scanners"
	"github.com/yorozuya-cybersecurity/hipaa-audit/internal/schema"
	"github.com/yorozuya-cybersecurity/hipaa-audit/internal/ui"
)

type fakeCatalog struct {
	manifest    *schema.Manifest
	manifestErr error
	rules       []schema.Rule
	contexts    []schema.ContextDefinition
}

func (c *fakeCatalog) LoadManifest() (*schema.Manifest, error) { return c.manifest, c.manifestErr }
func (c *fakeCatalog) LoadRules() ([]schema.Rule, error) { return c.rules, nil }
func (c *fakeCatalog) LoadAllContexts() ([]schema.ContextDefinition, error) {
	return c.contexts, nil
}
func (c *fakeCatalog) ContextDefinition(key string) (schema.ContextDefinition, bool) {
	for _, d := range c.contexts {
		if d.Key == key {
			return d, true
		}
	}
	return schema.ContextDefinition{}, false
}

// fakeScanner reports one finding per rule ID in emit, using the rule
// pointers handed to Init.
type fakeScanner struct {
	name    string
	emit    []string
	delay   time.Duration
	err     error
	fields  []string
	inited  bool
	byID    map[string]*schema.Rule
	targets int
}

func (s *fakeScanner) Name() string { return s.name }
func (s *fakeScanner) SetSensitiveFields(patterns []string) { s.fields = patterns }
func (s *fakeScanner) Init(_ context.Context, _ browser.Page, rs []schema.Rule) error {
	s.inited = true
	s.byID = make(map[string]*schema.Rule)
	for i := range rs {
		s.byID[rs[i].ID] = &rs[i]
	}
	return nil
}
func (s *fakeScanner) Analyze(context.Context) ([]schema.Finding, error) {
	time.Sleep(s.delay)
	var out []schema.Finding
	for _, id := range s.emit {
		s.targets++
		out = append(out, schema.Finding{Rule: s.byID[id], Target: fmt.Sprintf("https://%s.example/%d", s.name, s.targets)})
	}
	return out, s.err
}

type fixedDetector bool

func (d fixedDetector) DetectPhi(context.Context, browser.Page, string) (bool, error) {
	return bool(d), nil
}

type harness struct {
	auditor  *Auditor
	provider *browsertest.Provider
	page     *browsertest.Page
	net      *fakeScanner
	sec      *fakeScanner
	form     *fakeScanner
	out      *bytes.Buffer
	errOut   *bytes.Buffer
}

func newHarness(cat *fakeCatalog, phi bool) *harness {
	h := &harness{
		page:   &browsertest.Page{},
		net:    &fakeScanner{name: "network"},
		sec:    &fakeScanner{name: "security"},
		form:   &fakeScanner{name: "form"},
		out:    &bytes.Buffer{},
		errOut: &bytes.Buffer{},
	}
	h.provider = &browsertest.Provider{Page: h.page}
	a := New(DefaultConfig(), cat, h.provider)
	a.Scanners = []scanners.Scanner{h.net, h.sec, h.form}
	a.Detector = fixedDetector(phi)
	a.Renderer = report.New(h.out, report.WithColorProfile(termenv.Ascii))
	a.Progress = ui.NewStaticProgress(&bytes.Buffer{})
	a.Err = h.errOut
	h.auditor = a
	return h
}

func networkCatalog(gated bool) *fakeCatalog {
	return &fakeCatalog{
		manifest: &schema.Manifest{Version: "t", Categories: []schema.CategoryConfig{
			{Key: "network", Name: "network", Active: true},
		}},
		rules: []schema.Rule{
			{ID: "N1", Category: "network", Severity: schema.SeverityHigh, ContextRequired: gated, Title: "Tracker", Resolution: "Remove tracker"},
			{ID: "N2", Category: "network", Resolution: "Other"},
		},
		contexts: []schema.ContextDefinition{{Key: "phi", FieldPatterns: []string{"dob"}}},
	}
}

func planEntries(out string) []string {
	plan := out[strings.Index(out, "ACTION PLAN"):]
	var entries []string
	for _, l := range strings.Split(plan, "\n") {
		l = strings.TrimSpace(l)
		if len(l) > 2 && l[0] >= '1' && l[0] <= '9' && strings.Contains(l, ". [") {
			entries = append(entries, l)
		}
	}
	return entries
}

func TestScenarioSingleFinding(t *testing.T) {
	h := newHarness(networkCatalog(false), false)
	h.net.emit = []string{"N1"}

	res, err := h.auditor.Run(context.Background(), "https://example.com")
	require.NoError(t, err)

	require.Len(t, res.Categories, 1)
	assert.Equal(t, schema.CategoryReport{Key: "network", Name: "network", TotalRules: 2, FailedRules: 1, PassedRules: 1}, res.Categories[0])
	assert.Equal(t, 1, res.Buckets.Total())

	out := h.out.String()
	assert.Contains(t, out, "FINDINGS (1)")
	assert.Equal(t, []string{"1. [N1] Remove tracker"}, planEntries(out))
	assert.Empty(t, h.errOut.String())
}

func TestScenarioGatedRuleOutsideContext(t *testing.T) {
	h := newHarness(networkCatalog(true), false)
	h.form.emit = []string{"N1"}

	res, err := h.auditor.Run(context.Background(), "https://example.com")
	require.NoError(t, err)

	assert.Equal(t, 0, res.Categories[0].FailedRules)
	assert.Equal(t, 0, res.Buckets.Total())
	assert.NotContains(t, h.out.String(), "[N1]")
}

func TestScenarioGatedRuleInContext(t *testing.T) {
	h := newHarness(networkCatalog(true), true)
	h.form.emit = []string{"N1"}

	res, err := h.auditor.Run(context.Background(), "https://example.com")
	require.NoError(t, err)

	assert.True(t, res.IsPhiContext)
	assert.Equal(t, 1, res.Categories[0].FailedRules)
	assert.Equal(t, []string{"N1"}, res.Buckets[schema.SeverityHigh].Keys())
	assert.Contains(t, h.out.String(), "HIGH (1)")
}

func TestScenarioNoFindings(t *testing.T) {
	h := newHarness(networkCatalog(false), false)

	res, err := h.auditor.Run(context.Background(), "https://example.com")
	require.NoError(t, err)

	out := h.out.String()
	assert.Contains(t, out, report.NoIssuesText)
	assert.Contains(t, out, report.NoActionText)
	for _, c := range res.Categories {
		assert.Equal(t, c.TotalRules, c.PassedRules)
	}
}

func TestScenarioNavigationTimeout(t *testing.T) {
	h := newHarness(networkCatalog(false), false)
	h.page.NavigateErr = fmt.Errorf("%w after 30s", browser.ErrNavigationTimeout)
	h.sec.emit = []string{"N2"}

	res, err := h.auditor.Run(context.Background(), "https://slow.example.com")
	require.NoError(t, err)

	assert.NoError(t, res.ScanErr)
	assert.NotContains(t, h.errOut.String(), "Scan error")
	assert.Equal(t, 1, h.page.Scrolled)
	assert.Equal(t, []time.Duration{DefaultConfig().SettleWait}, h.page.Waited)
	assert.Equal(t, 1, res.Buckets.Total())
	assert.True(t, h.provider.Session.Closed)
}

func TestScenarioNavigationFailure(t *testing.T) {
	h := newHarness(networkCatalog(false), false)
	h.page.NavigateErr = errors.New("net::ERR_NAME_NOT_RESOLVED")
	h.net.emit = []string{"N1"}

	res, err := h.auditor.Run(context.Background(), "https://nowhere.invalid")
	require.NoError(t, err)

	assert.Contains(t, h.errOut.String(), "Scan error: net::ERR_NAME_NOT_RESOLVED")
	assert.Error(t, res.ScanErr)
	assert.Empty(t, res.Findings)
	assert.Contains(t, h.out.String(), report.NoIssuesText)
	assert.Contains(t, h.out.String(), report.DisclaimerText)
	assert.True(t, h.provider.Session.Closed)
	assert.Zero(t, h.page.Scrolled)
}

func TestLaunchFailureStillReports(t *testing.T) {
	h := newHarness(networkCatalog(false), false)
	h.provider.LaunchErr = errors.New("chrome not found")

	_, err := h.auditor.Run(context.Background(), "https://example.com")
	require.NoError(t, err)
	assert.Contains(t, h.errOut.String(), "Scan error: chrome not found")
	assert.Contains(t, h.out.String(), "RESULTS")
}

func TestManifestUnavailableIsFatal(t *testing.T) {
	cat := networkCatalog(false)
	cat.manifest = nil
	h := newHarness(cat, false)

	res, err := h.auditor.Run(context.Background(), "https://example.com")
	assert.ErrorIs(t, err, rules.ErrManifestUnavailable)
	assert.Nil(t, res)
	assert.Nil(t, h.provider.Session, "browser must not be launched")
	assert.Empty(t, h.out.String())
}

func TestFindingsKeepScannerOrder(t *testing.T) {
	h := newHarness(networkCatalog(false), false)
	h.net.emit = []string{"N2"}
	h.net.delay = 20 * time.Millisecond
	h.form.emit = []string{"N1", "N2"}

	res, err := h.auditor.Run(context.Background(), "https://example.com")
	require.NoError(t, err)

	require.Len(t, res.Findings, 3)
	assert.Equal(t, "https://network.example/1", res.Findings[0].Target)
	f, _ := res.Buckets[schema.SeverityLow].Get("N2")
	assert.Equal(t, "https://network.example/1", f.Target)
}

func TestScannerErrorKeepsOtherFindings(t *testing.T) {
	h := newHarness(networkCatalog(false), false)
	h.net.emit = []string{"N1"}
	h.sec.err = errors.New("boom")

	res, err := h.auditor.Run(context.Background(), "https://example.com")
	require.NoError(t, err)
	assert.Contains(t, h.errOut.String(), "Scan error: security scanner: boom")
	assert.Equal(t, 1, res.Buckets.Total())
}

func TestScannersInitializedWithPhiFields(t *testing.T) {
	h := newHarness(networkCatalog(false), false)

	_, err := h.auditor.Run(context.Background(), "https://example.com")
	require.NoError(t, err)
	for _, s := range []*fakeScanner{h.net, h.sec, h.form} {
		assert.True(t, s.inited, s.name)
		assert.Equal(t, []string{"dob"}, s.fields, s.name)
	}
	assert.Equal(t, DefaultConfig().UserAgent, h.provider.Session.UserAgent)
	assert.Equal(t, []string{"https://example.com"}, h.page.Navigated)
}

func TestOrphanFindingPanics(t *testing.T) {
	h := newHarness(networkCatalog(false), false)
	h.net.emit = []string{"MISSING"}

	assert.Panics(t, func() {
		_, _ = h.auditor.Run(context.Background(), "https://example.com")
	})
}
