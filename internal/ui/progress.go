package ui

import (
	"fmt"
	"io"
	"sync"
	"time"
)

// Progress shows one animated status line per step.
type Progress struct {
	w       io.Writer
	spinner Spinner
	animate bool
	mu      sync.Mutex
}

// NewProgress animates only when w is a terminal.
func NewProgress(w io.Writer) *Progress {
	return &Progress{w: w, spinner: DefaultSpinner(), animate: IsTerminal(w)}
}

// NewStaticProgress never animates; it only prints completion lines.
func NewStaticProgress(w io.Writer) *Progress {
	return &Progress{w: w, spinner: lineSpinner}
}

// WithSpinner forces animation with the given frames.
func (p *Progress) WithSpinner(s Spinner) *Progress {
	p.spinner = s
	p.animate = true
	return p
}

// Step runs fn while the spinner turns. The animation is stopped and a
// completion line with elapsed time is written on every exit path,
// including a panic in fn. fn's error is returned unchanged.
func (p *Progress) Step(label string, fn func() error) (err error) {
	start := time.Now()
	stop := p.spin(label)
	defer func() {
		stop()
		p.finish(label, time.Since(start), err)
	}()
	return fn()
}

func (p *Progress) spin(label string) (stop func()) {
	if !p.animate || len(p.spinner.Frames) == 0 {
		return func() {}
	}

	done := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		ticker := time.NewTicker(p.spinner.Interval)
		defer ticker.Stop()
		frame := 0
		for {
			p.mu.Lock()
			fmt.Fprintf(p.w, "\r%s %s", SpinnerStyle.Render(p.spinner.Frames[frame]), label)
			p.mu.Unlock()
			frame = (frame + 1) % len(p.spinner.Frames)
			select {
			case <-done:
				return
			case <-ticker.C:
			}
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			close(done)
			wg.Wait()
			p.mu.Lock()
			fmt.Fprint(p.w, "\r\033[K")
			p.mu.Unlock()
		})
	}
}

func (p *Progress) finish(label string, elapsed time.Duration, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	mark := PassStyle.Render(Icon("✔", "+"))
	if err != nil {
		mark = FailStyle.Render(Icon("✖", "x"))
	}
	fmt.Fprintf(p.w, "%s %s %s\n", mark, label, MutedStyle.Render(fmt.Sprintf("(%s)", elapsed.Round(time.Millisecond))))
}
