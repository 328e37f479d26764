// Package browser drives a live page session for the audit scanners.
package browser

import (
	"context"
	"errors"
	"time"
)

// ErrNavigationTimeout marks a navigation that did not finish within its deadline.
var ErrNavigationTimeout = errors.New("navigation timed out")

// Options configures how the browser is launched.
type Options struct {
	ExecPath  string
	Headless  bool
	NoSandbox bool
}

// Provider launches browser sessions.
type Provider interface {
	Launch(ctx context.Context, opts Options) (Session, error)
}

// Session is a running browser. Close releases every page opened from it.
type Session interface {
	OpenPage(ctx context.Context, userAgent string) (Page, error)
	Close() error
}

// Page is a single tab and everything observed while it loaded.
type Page interface {
	Navigate(ctx context.Context, url string, timeout time.Duration) error
	ScrollToBottom(ctx context.Context) error
	Wait(ctx context.Context, d time.Duration) error

	// URL is the address the page ended up on, or the requested one if
	// navigation never committed.
	URL() string
	Requests() []Request
	// DocumentHeaders returns the main document's response headers with
	// lower-cased names, or nil if no document response was seen.
	DocumentHeaders() map[string]string
	Forms(ctx context.Context) ([]Form, error)
	Text(ctx context.Context) (string, error)
}

// Request is a network request issued by the page.
type Request struct {
	URL          string
	Method       string
	ResourceType string
	Timestamp    time.Time
}

// Form is a <form> element found in the DOM.
type Form struct {
	Action       string      `json:"action"`
	Method       string      `json:"method"`
	ID           string      `json:"id,omitempty"`
	Autocomplete string      `json:"autocomplete,omitempty"`
	Fields       []FormField `json:"fields"`
}

// FormField is an input, select or textarea inside a form.
type FormField struct {
	Name         string `json:"name"`
	ID           string `json:"id,omitempty"`
	Type         string `json:"type"`
	Placeholder  string `json:"placeholder,omitempty"`
	Label        string `json:"label,omitempty"`
	Autocomplete string `json:"autocomplete,omitempty"`
}
