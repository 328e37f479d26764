package browser

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
)

const closeTimeout = 5 * time.Second

// Chrome launches a local Chrome or Chromium through chromedp.
type Chrome struct{}

// Launch starts the browser process.
func (Chrome) Launch(ctx context.Context, opts Options) (Session, error) {
	allocOpts := append([]chromedp.ExecAllocatorOption{}, chromedp.DefaultExecAllocatorOptions[:]...)
	if !opts.Headless {
		allocOpts = append(allocOpts, chromedp.Flag("headless", false))
	}
	allocOpts = append(allocOpts,
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-extensions", true),
	)
	if opts.NoSandbox {
		allocOpts = append(allocOpts, chromedp.NoSandbox)
	}
	if opts.ExecPath != "" {
		allocOpts = append(allocOpts, chromedp.ExecPath(opts.ExecPath))
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, allocOpts...)
	browserCtx, browserCancel := chromedp.NewContext(allocCtx)

	// An empty Run starts the browser.
	if err := chromedp.Run(browserCtx); err != nil {
		browserCancel()
		allocCancel()
		return nil, fmt.Errorf("launch browser: %w", err)
	}

	return &chromeSession{
		ctx:           browserCtx,
		browserCancel: browserCancel,
		allocCancel:   allocCancel,
	}, nil
}

type chromeSession struct {
	ctx           context.Context
	browserCancel context.CancelFunc
	allocCancel   context.CancelFunc

	mu     sync.Mutex
	pages  []*chromePage
	closed bool
}

func (s *chromeSession) OpenPage(ctx context.Context, userAgent string) (Page, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, errors.New("browser session closed")
	}

	tabCtx, tabCancel := chromedp.NewContext(s.ctx)
	p := &chromePage{ctx: tabCtx, cancel: tabCancel}

	chromedp.ListenTarget(tabCtx, func(ev interface{}) {
		switch e := ev.(type) {
		case *network.EventRequestWillBeSent:
			p.onRequest(e)
		case *network.EventResponseReceived:
			p.onResponse(e)
		}
	})

	err := chromedp.Run(tabCtx,
		network.Enable(),
		chromedp.ActionFunc(func(ctx context.Context) error {
			if userAgent == "" {
				return nil
			}
			return emulation.SetUserAgentOverride(userAgent).Do(ctx)
		}),
	)
	if err != nil {
		tabCancel()
		return nil, fmt.Errorf("open page: %w", err)
	}
	s.pages = append(s.pages, p)
	return p, nil
}

// Close tears the browser down. If Chrome does not exit within
// closeTimeout the process is killed.
func (s *chromeSession) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	pages := s.pages
	s.pages = nil
	s.mu.Unlock()

	var proc *os.Process
	if c := chromedp.FromContext(s.ctx); c != nil && c.Browser != nil {
		proc = c.Browser.Process()
	}

	done := make(chan struct{})
	go func() {
		for _, p := range pages {
			p.cancel()
		}
		s.browserCancel()
		s.allocCancel()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-time.After(closeTimeout):
		if proc != nil {
			_ = proc.Kill()
		}
		return fmt.Errorf("browser did not exit within %s, killed", closeTimeout)
	}
}

type chromePage struct {
	ctx    context.Context
	cancel context.CancelFunc

	mu       sync.Mutex
	url      string
	requests []Request
	headers  map[string]string
}

func (p *chromePage) onRequest(e *network.EventRequestWillBeSent) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.requests = append(p.requests, Request{
		URL:          e.Request.URL,
		Method:       e.Request.Method,
		ResourceType: string(e.Type),
		Timestamp:    time.Now(),
	})
}

func (p *chromePage) onResponse(e *network.EventResponseReceived) {
	if e.Type != network.ResourceTypeDocument || e.Response == nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.headers != nil {
		return
	}
	p.headers = make(map[string]string, len(e.Response.Headers))
	for k, v := range e.Response.Headers {
		p.headers[strings.ToLower(k)] = fmt.Sprint(v)
	}
	p.url = e.Response.URL
}

func (p *chromePage) Navigate(ctx context.Context, url string, timeout time.Duration) error {
	p.mu.Lock()
	if p.url == "" {
		p.url = url
	}
	p.mu.Unlock()

	navCtx, cancel := context.WithTimeout(p.ctx, timeout)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	err := chromedp.Run(navCtx, chromedp.Navigate(url))
	if err == nil {
		var loc string
		if lerr := p.run(ctx, chromedp.Location(&loc)); lerr == nil && loc != "" {
			p.mu.Lock()
			p.url = loc
			p.mu.Unlock()
		}
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(navCtx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%w after %s: %s", ErrNavigationTimeout, timeout, url)
	}
	return fmt.Errorf("navigate %s: %w", url, err)
}

func (p *chromePage) ScrollToBottom(ctx context.Context) error {
	var height int64
	return p.run(ctx, chromedp.Evaluate(`window.scrollTo(0, document.documentElement.scrollHeight); document.documentElement.scrollHeight`, &height))
}

func (p *chromePage) Wait(ctx context.Context, d time.Duration) error {
	return p.run(ctx, chromedp.Sleep(d))
}

func (p *chromePage) URL() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.url
}

func (p *chromePage) Requests() []Request {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]Request, len(p.requests))
	copy(out, p.requests)
	return out
}

func (p *chromePage) DocumentHeaders() map[string]string {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.headers == nil {
		return nil
	}
	out := make(map[string]string, len(p.headers))
	for k, v := range p.headers {
		out[k] = v
	}
	return out
}

const formsScript = `JSON.stringify(Array.from(document.forms).map(f => ({
  action: f.action || location.href,
  method: (f.getAttribute('method') || 'get').toLowerCase(),
  id: f.id || '',
  autocomplete: f.getAttribute('autocomplete') || '',
  fields: Array.from(f.elements).filter(e => ['INPUT','SELECT','TEXTAREA'].includes(e.tagName)).map(e => ({
    name: e.name || '',
    id: e.id || '',
    type: (e.type || e.tagName).toLowerCase(),
    placeholder: e.getAttribute('placeholder') || '',
    label: (e.labels && e.labels.length) ? e.labels[0].innerText.trim() : '',
    autocomplete: e.getAttribute('autocomplete') || ''
  }))
})))`

func (p *chromePage) Forms(ctx context.Context) ([]Form, error) {
	var raw string
	if err := p.run(ctx, chromedp.Evaluate(formsScript, &raw)); err != nil {
		return nil, fmt.Errorf("read forms: %w", err)
	}
	var forms []Form
	if err := json.Unmarshal([]byte(raw), &forms); err != nil {
		return nil, fmt.Errorf("decode forms: %w", err)
	}
	return forms, nil
}

func (p *chromePage) Text(ctx context.Context) (string, error) {
	var text string
	if err := p.run(ctx, chromedp.Evaluate(`document.body ? document.body.innerText : ""`, &text)); err != nil {
		return "", fmt.Errorf("read page text: %w", err)
	}
	return text, nil
}

// run executes actions on the tab, cancelled early if ctx ends.
func (p *chromePage) run(ctx context.Context, actions ...chromedp.Action) error {
	runCtx, cancel := context.WithCancel(p.ctx)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()
	return chromedp.Run(runCtx, actions...)
}
