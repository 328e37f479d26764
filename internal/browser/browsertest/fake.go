// Package browsertest provides in-memory browser sessions for tests.
package browsertest

import (
	"context"
	"sync"
	"time"

	"github.com/yorozuya-cybersecurity/hipaa-audit/internal/browser"
)

// Page is a scripted browser.Page. Zero value is an empty page that
// navigates successfully.
type Page struct {
	PageURL     string
	Reqs        []browser.Request
	Headers     map[string]string
	FormList    []browser.Form
	Body        string
	NavigateErr error
	ScrollErr   error
	FormsErr    error

	mu        sync.Mutex
	Navigated []string
	Scrolled  int
	Waited    []time.Duration
}

func (p *Page) Navigate(_ context.Context, url string, _ time.Duration) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Navigated = append(p.Navigated, url)
	if p.PageURL == "" {
		p.PageURL = url
	}
	return p.NavigateErr
}

func (p *Page) ScrollToBottom(context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Scrolled++
	return p.ScrollErr
}

func (p *Page) Wait(_ context.Context, d time.Duration) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Waited = append(p.Waited, d)
	return nil
}

func (p *Page) URL() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.PageURL
}

func (p *Page) Requests() []browser.Request { return p.Reqs }

func (p *Page) DocumentHeaders() map[string]string { return p.Headers }

func (p *Page) Forms(context.Context) ([]browser.Form, error) {
	if p.FormsErr != nil {
		return nil, p.FormsErr
	}
	return p.FormList, nil
}

func (p *Page) Text(context.Context) (string, error) { return p.Body, nil }

// Provider hands out a single Session wrapping Page.
type Provider struct {
	Page      *Page
	LaunchErr error

	Session *Session
}

func (f *Provider) Launch(context.Context, browser.Options) (browser.Session, error) {
	if f.LaunchErr != nil {
		return nil, f.LaunchErr
	}
	f.Session = &Session{page: f.Page}
	return f.Session, nil
}

// Session records whether it was closed.
type Session struct {
	page      *Page
	UserAgent string
	Closed    bool
}

func (s *Session) OpenPage(_ context.Context, userAgent string) (browser.Page, error) {
	s.UserAgent = userAgent
	return s.page, nil
}

func (s *Session) Close() error {
	s.Closed = true
	return nil
}
