package worker

import (
	"context"
	"errors"
	"sync"
)

// ErrOpenFailed is returned by MemoryPlatform.OpenWindow when a failure
// was scripted with FailNextOpens
var ErrOpenFailed = errors.New("window open failed")

// MemoryPlatform is an in-process notification center and window list.
// Showing a notification whose tag matches a visible one replaces it.
type MemoryPlatform struct {
	mu        sync.Mutex
	visible   []*Notification
	windows   []*MemoryWindow
	opened    []string
	failOpens int
	matchErr  error
}

// NewMemoryPlatform creates an empty platform
func NewMemoryPlatform() *MemoryPlatform {
	return &MemoryPlatform{}
}

func (p *MemoryPlatform) ShowNotification(_ context.Context, title string, opts NotificationOptions) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if opts.Tag != "" {
		kept := p.visible[:0]
		for _, n := range p.visible {
			if n.Options.Tag != opts.Tag {
				kept = append(kept, n)
			}
		}
		p.visible = kept
	}

	var n *Notification
	n = NewNotification(title, opts, func() { p.remove(n) })
	p.visible = append(p.visible, n)
	return nil
}

func (p *MemoryPlatform) remove(target *Notification) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for i, n := range p.visible {
		if n == target {
			p.visible = append(p.visible[:i], p.visible[i+1:]...)
			return
		}
	}
}

// Visible returns the notifications currently shown, oldest first
func (p *MemoryPlatform) Visible() []*Notification {
	p.mu.Lock()
	defer p.mu.Unlock()

	out := make([]*Notification, len(p.visible))
	copy(out, p.visible)
	return out
}

func (p *MemoryPlatform) MatchAll(context.Context, MatchOptions) ([]WindowClient, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.matchErr != nil {
		return nil, p.matchErr
	}
	out := make([]WindowClient, len(p.windows))
	for i, w := range p.windows {
		out[i] = w
	}
	return out, nil
}

func (p *MemoryPlatform) OpenWindow(_ context.Context, url string) (WindowClient, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.opened = append(p.opened, url)
	if p.failOpens > 0 {
		p.failOpens--
		return nil, ErrOpenFailed
	}
	w := &MemoryWindow{platform: p, url: url, focused: 1}
	p.windows = append(p.windows, w)
	return w, nil
}

// AddWindow registers an already open window at url
func (p *MemoryPlatform) AddWindow(url string) *MemoryWindow {
	p.mu.Lock()
	defer p.mu.Unlock()

	w := &MemoryWindow{platform: p, url: url}
	p.windows = append(p.windows, w)
	return w
}

// OpenCalls returns every url passed to OpenWindow, including failed ones
func (p *MemoryPlatform) OpenCalls() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.opened...)
}

// FailNextOpens makes the next n OpenWindow calls fail
func (p *MemoryPlatform) FailNextOpens(n int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.failOpens = n
}

// FailMatch makes MatchAll return err; nil restores normal behaviour
func (p *MemoryPlatform) FailMatch(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.matchErr = err
}

// MemoryWindow is a window in a MemoryPlatform
type MemoryWindow struct {
	platform *MemoryPlatform
	url      string
	focused  int
}

func (w *MemoryWindow) URL() string {
	w.platform.mu.Lock()
	defer w.platform.mu.Unlock()
	return w.url
}

func (w *MemoryWindow) Focus(context.Context) error {
	w.platform.mu.Lock()
	defer w.platform.mu.Unlock()
	w.focused++
	return nil
}

func (w *MemoryWindow) Navigate(_ context.Context, url string) error {
	w.platform.mu.Lock()
	defer w.platform.mu.Unlock()
	w.url = url
	return nil
}

// Focused reports how many times the window received focus
func (w *MemoryWindow) Focused() int {
	w.platform.mu.Lock()
	defer w.platform.mu.Unlock()
	return w.focused
}
