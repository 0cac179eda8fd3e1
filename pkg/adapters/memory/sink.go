package memory

import (
	"context"
	"sync"

	"github.com/aretw0/concord/pkg/domain"
)

// Sink implements ports.ResultSink in memory, keeping the last result per template.
type Sink struct {
	results map[string]domain.TemplateResult
	mu      sync.RWMutex
}

// NewSink creates an empty result sink.
func NewSink() *Sink {
	return &Sink{results: make(map[string]domain.TemplateResult)}
}

// Publish replaces the stored result for the template.
func (s *Sink) Publish(_ context.Context, result domain.TemplateResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.results[result.TemplateID] = result
	return nil
}

// Get returns the last published result.
func (s *Sink) Get(_ context.Context, templateID string) (domain.TemplateResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	res, ok := s.results[templateID]
	if !ok {
		return domain.TemplateResult{}, domain.ErrResultNotFound
	}
	return res, nil
}
