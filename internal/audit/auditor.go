package audit

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/sourcegraph/conc/iter"
	"go.uber.org/zap"

	"github.com/yorozuya-cybersecurity/hipaa-audit/internal/browser"
	"github.com/yorozuya-cybersecurity/hipaa-audit/internal/report"
	"github.com/yorozuya-cybersecurity/hipaa-audit/internal/rules"
	"github.com/yorozuya-cybersecurity/hipaa-audit/internal/scanners"
	"github.com/yorozuya-cybersecurity/hipaa-audit/internal/schema"
	"github.com/yorozuya-cybersecurity/hipaa-audit/internal/ui"
)

// Catalog supplies rule data for a run.
type Catalog interface {
	LoadManifest() (*schema.Manifest, error)
	LoadRules() ([]schema.Rule, error)
	ContextDefinition(key string) (schema.ContextDefinition, bool)
	LoadAllContexts() ([]schema.ContextDefinition, error)
}

// PhiDetector decides whether the settled page is a PHI context.
type PhiDetector interface {
	DetectPhi(ctx context.Context, page browser.Page, url string) (bool, error)
}

// Config holds the timing and browser settings of a run.
type Config struct {
	NavigationTimeout time.Duration
	SettleWait        time.Duration
	UserAgent         string
	Browser           browser.Options
}

// DefaultConfig returns the settings used when nothing is configured.
func DefaultConfig() Config {
	return Config{
		NavigationTimeout: 30 * time.Second,
		SettleWait:        3 * time.Second,
		UserAgent:         "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
		Browser:           browser.Options{Headless: true},
	}
}

// Auditor runs the audit pipeline for one page.
type Auditor struct {
	Config  Config
	Catalog Catalog
	Browser browser.Provider
	// Scanners run in this order and their findings are concatenated in
	// this order regardless of completion timing.
	Scanners []scanners.Scanner
	// Detector defaults to a ContextDetector over the catalog's contexts.
	Detector PhiDetector
	Renderer *report.Renderer
	Progress *ui.Progress
	Err      io.Writer
	Log      *zap.SugaredLogger
}

// New returns an Auditor with the network, security and form scanners,
// writing the report to stdout and progress/errors to stderr.
func New(cfg Config, catalog Catalog, provider browser.Provider) *Auditor {
	return &Auditor{
		Config:  cfg,
		Catalog: catalog,
		Browser: provider,
		Scanners: []scanners.Scanner{
			scanners.NewNetworkScanner(),
			scanners.NewHeaderScanner(),
			scanners.NewFormScanner(),
		},
		Renderer: report.New(os.Stdout),
		Progress: ui.NewProgress(os.Stderr),
		Err:      os.Stderr,
		Log:      zap.NewNop().Sugar(),
	}
}

// Result is everything derived from one run.
type Result struct {
	Manifest     *schema.Manifest
	IsPhiContext bool
	Findings     []schema.Finding
	Categories   []schema.CategoryReport
	Buckets      schema.SeverityBuckets
	// ScanErr is the reported scan-phase failure, if any. The report is
	// still produced when it is set.
	ScanErr error
}

// Run audits target and renders the report. It fails only when the rule
// catalog cannot be loaded or the report cannot be written; scan-phase
// failures are reported on the error stream and the run continues with
// whatever findings were collected.
func (a *Auditor) Run(ctx context.Context, target string) (*Result, error) {
	var (
		manifest *schema.Manifest
		ruleSet  []schema.Rule
	)
	err := a.Progress.Step("Loading rules", func() error {
		var err error
		manifest, ruleSet, err = a.loadCatalog()
		return err
	})
	if err != nil {
		return nil, err
	}
	a.Log.Debugw("rules loaded", "version", manifest.Version, "rules", len(ruleSet))

	scan := a.scan(ctx, target, ruleSet)
	if scan.err != nil {
		fmt.Fprintf(a.Err, "Scan error: %s\n", scan.err)
		a.Log.Debugw("scan failed, reporting partial results", "error", scan.err, "findings", len(scan.findings))
	}

	assertKnownRules(scan.findings, ruleSet)
	failed, exemplars := Reduce(scan.findings, scan.isPhi)
	res := &Result{
		Manifest:     manifest,
		IsPhiContext: scan.isPhi,
		Findings:     scan.findings,
		Categories:   Score(manifest, ruleSet, failed),
		Buckets:      Group(exemplars),
		ScanErr:      scan.err,
	}

	if err := a.Renderer.Render(report.Report{
		Target:     target,
		Version:    manifest.Version,
		Categories: res.Categories,
		Buckets:    res.Buckets,
	}); err != nil {
		return res, fmt.Errorf("render report: %w", err)
	}
	return res, nil
}

func (a *Auditor) loadCatalog() (*schema.Manifest, []schema.Rule, error) {
	manifest, err := a.Catalog.LoadManifest()
	if err != nil {
		return nil, nil, err
	}
	if manifest == nil {
		return nil, nil, rules.ErrManifestUnavailable
	}
	ruleSet, err := a.Catalog.LoadRules()
	if err != nil {
		return nil, nil, fmt.Errorf("load rules: %w", err)
	}
	return manifest, ruleSet, nil
}

type scanOutcome struct {
	findings []schema.Finding
	isPhi    bool
	err      error
}

// scan owns the browser session for its whole duration and closes it
// before returning, whatever the outcome.
func (a *Auditor) scan(ctx context.Context, target string, ruleSet []schema.Rule) (out scanOutcome) {
	var session browser.Session
	out.err = a.Progress.Step("Launching browser", func() error {
		var err error
		session, err = a.Browser.Launch(ctx, a.Config.Browser)
		return err
	})
	if out.err != nil {
		return out
	}
	defer func() {
		if err := session.Close(); err != nil {
			a.Log.Warnw("close browser", "error", err)
		}
	}()

	var page browser.Page
	out.err = a.Progress.Step("Scanning page", func() error {
		var err error
		page, err = session.OpenPage(ctx, a.Config.UserAgent)
		if err != nil {
			return err
		}
		if err := a.initScanners(ctx, page, ruleSet); err != nil {
			return err
		}
		if err := a.load(ctx, page, target); err != nil {
			return err
		}
		out.isPhi, err = a.detector().DetectPhi(ctx, page, page.URL())
		return err
	})
	if out.err != nil {
		return out
	}
	a.Log.Debugw("context detected", "phi", out.isPhi, "url", page.URL())

	out.err = a.Progress.Step("Analyzing", func() error {
		var err error
		out.findings, err = a.analyze(ctx)
		return err
	})
	return out
}

func (a *Auditor) initScanners(ctx context.Context, page browser.Page, ruleSet []schema.Rule) error {
	var fields []string
	if def, ok := a.Catalog.ContextDefinition(scanners.PHIContextKey); ok {
		fields = def.FieldPatterns
	}
	for _, s := range a.Scanners {
		if fa, ok := s.(scanners.FieldAware); ok {
			fa.SetSensitiveFields(fields)
		}
		if err := s.Init(ctx, page, ruleSet); err != nil {
			return fmt.Errorf("init %s scanner: %w", s.Name(), err)
		}
	}
	return nil
}

// load navigates, then scrolls and waits so lazy content and deferred
// requests have a chance to happen. A navigation timeout is not an error:
// whatever loaded is still scanned.
func (a *Auditor) load(ctx context.Context, page browser.Page, target string) error {
	err := page.Navigate(ctx, target, a.Config.NavigationTimeout)
	switch {
	case err == nil:
	case errors.Is(err, browser.ErrNavigationTimeout):
		a.Log.Debugw("navigation timed out, continuing with partial page", "url", target, "timeout", a.Config.NavigationTimeout)
	default:
		return err
	}

	if err := page.ScrollToBottom(ctx); err != nil {
		return err
	}
	return page.Wait(ctx, a.Config.SettleWait)
}

func (a *Auditor) detector() PhiDetector {
	if a.Detector != nil {
		return a.Detector
	}
	defs, err := a.Catalog.LoadAllContexts()
	if err != nil {
		a.Log.Warnw("load context definitions", "error", err)
	}
	return scanners.NewContextDetector(defs)
}

// analyze runs every scanner concurrently. Findings from scanners that
// succeeded are kept even when another one fails.
func (a *Auditor) analyze(ctx context.Context) ([]schema.Finding, error) {
	results, err := iter.MapErr(a.Scanners, func(s *scanners.Scanner) ([]schema.Finding, error) {
		sc := *s
		start := time.Now()
		found, err := sc.Analyze(ctx)
		a.Log.Debugw("scanner finished", "scanner", sc.Name(), "findings", len(found), "elapsed", time.Since(start))
		if err != nil {
			return found, fmt.Errorf("%s scanner: %w", sc.Name(), err)
		}
		return found, nil
	})

	var all []schema.Finding
	for _, r := range results {
		all = append(all, r...)
	}
	return all, err
}

// assertKnownRules panics on a finding whose rule is not in the loaded set.
func assertKnownRules(findings []schema.Finding, ruleSet []schema.Rule) {
	known := make(map[string]struct{}, len(ruleSet))
	for _, r := range ruleSet {
		known[r.ID] = struct{}{}
	}
	for _, f := range findings {
		if f.Rule == nil {
			panic(fmt.Sprintf("finding for %q has no rule", f.Target))
		}
		if _, ok := known[f.Rule.ID]; !ok {
			panic(fmt.Sprintf("finding references unknown rule %q", f.Rule.ID))
		}
	}
}
