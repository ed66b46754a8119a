package agent

import (
	"context"
	"sync"
)

// InstallPrompt is a deferred "add to home screen" prompt captured from
// the platform. Prompt shows it and reports "accepted" or "dismissed".
type InstallPrompt interface {
	Prompt(ctx context.Context) (string, error)
}

// PromptStore holds at most one pending install prompt. The Agent owns it;
// Consume takes the prompt and clears the slot in one step so two callers
// can never show the same prompt.
type PromptStore struct {
	mu      sync.Mutex
	pending InstallPrompt
}

// Set stores p, replacing any earlier prompt
func (s *PromptStore) Set(p InstallPrompt) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending = p
}

// Consume returns the pending prompt and empties the store
func (s *PromptStore) Consume() (InstallPrompt, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := s.pending
	s.pending = nil
	return p, p != nil
}

// Clear drops the pending prompt, e.g. once the app was installed
func (s *PromptStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending = nil
}

// Pending reports whether a prompt is waiting
func (s *PromptStore) Pending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pending != nil
}
