package service

import (
	"context"
	"errors"
	"sync"

	"blackbook-pipeline/extraction"
)

// stubExtractor implements extraction.Service for tests. Unset functions
// fail the call so tests notice unexpected service use.
type stubExtractor struct {
	extractFn  func(ctx context.Context, text string) ([]extraction.OrderFields, error)
	splitFn    func(ctx context.Context, title string) ([]string, error)
	classifyFn func(ctx context.Context, text string) (bool, error)

	mu            sync.Mutex
	extractCalls  int
	splitCalls    int
	classifyCalls int
}

func (s *stubExtractor) ExtractOrders(ctx context.Context, text string) ([]extraction.OrderFields, error) {
	s.mu.Lock()
	s.extractCalls++
	s.mu.Unlock()
	if s.extractFn == nil {
		return nil, errors.New("unexpected ExtractOrders call")
	}
	return s.extractFn(ctx, text)
}

func (s *stubExtractor) SplitRuleBodies(ctx context.Context, title string) ([]string, error) {
	s.mu.Lock()
	s.splitCalls++
	s.mu.Unlock()
	if s.splitFn == nil {
		return nil, errors.New("unexpected SplitRuleBodies call")
	}
	return s.splitFn(ctx, title)
}

func (s *stubExtractor) ClassifyLocal(ctx context.Context, text string) (bool, error) {
	s.mu.Lock()
	s.classifyCalls++
	s.mu.Unlock()
	if s.classifyFn == nil {
		return false, errors.New("unexpected ClassifyLocal call")
	}
	return s.classifyFn(ctx, text)
}

func strPtr(s string) *string {
	return &s
}
