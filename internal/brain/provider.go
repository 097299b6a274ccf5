// Package brain talks to text-completion providers. Every LLM call in
// the pipeline (structure gap-fill, content analysis, semantic
// relevance judging) goes through the Provider interface so tests can
// swap in canned responses.
package brain

import (
	"context"
	"fmt"
	"time"

	"github.com/hotradar/hotradar/internal/logging"
)

// Provider is the interface for AI providers
type Provider interface {
	// Name returns the provider name (e.g., "deepseek", "ollama")
	Name() string

	// Available returns true if the provider is configured and ready
	Available() bool

	// Generate sends a prompt and returns the response
	Generate(ctx context.Context, req Request) (Response, error)
}

// Request is a prompt request to an AI provider
type Request struct {
	SystemPrompt string
	UserPrompt   string
	MaxTokens    int
}

// Response is the AI provider's response
type Response struct {
	Content     string
	Model       string
	RawResponse string // The raw API response body for logging/debugging
}

// ProviderManager manages multiple AI providers with fallback
type ProviderManager struct {
	providers []Provider
	preferred string
}

// NewProviderManager creates a new provider manager
func NewProviderManager() *ProviderManager {
	return &ProviderManager{
		providers: make([]Provider, 0),
	}
}

// AddProvider adds a provider to the manager
func (pm *ProviderManager) AddProvider(p Provider) {
	pm.providers = append(pm.providers, p)
}

// SetPreferred sets the preferred provider by name
func (pm *ProviderManager) SetPreferred(name string) {
	pm.preferred = name
}

// GetAvailable returns the first available provider, preferring the preferred one
func (pm *ProviderManager) GetAvailable() Provider {
	if pm.preferred != "" {
		for _, p := range pm.providers {
			if p.Name() == pm.preferred && p.Available() {
				return p
			}
		}
	}

	for _, p := range pm.providers {
		if p.Available() {
			return p
		}
	}

	return nil
}

var _ Provider = (*ProviderManager)(nil)

// Name returns the name of the provider calls currently route to, or
// "none" when nothing is available.
func (pm *ProviderManager) Name() string {
	if p := pm.GetAvailable(); p != nil {
		return p.Name()
	}
	return "none"
}

// Available reports whether any managed provider is available.
func (pm *ProviderManager) Available() bool {
	return pm.GetAvailable() != nil
}

// Generate routes the request to the preferred available provider and
// falls through to the remaining available ones when the call fails.
func (pm *ProviderManager) Generate(ctx context.Context, req Request) (Response, error) {
	first := pm.GetAvailable()
	if first == nil {
		return Response{}, fmt.Errorf("no provider available")
	}

	resp, err := first.Generate(ctx, req)
	if err == nil {
		return resp, nil
	}
	if ctx.Err() != nil {
		return Response{}, ctx.Err()
	}

	for _, p := range pm.providers {
		if p == first || !p.Available() {
			continue
		}
		logging.Warn("Provider failed, falling back", "from", first.Name(), "to", p.Name(), "err", err)
		resp, err = p.Generate(ctx, req)
		if err == nil {
			return resp, nil
		}
		if ctx.Err() != nil {
			return Response{}, ctx.Err()
		}
	}
	return Response{}, err
}

// ListAvailable returns names of all available providers
func (pm *ProviderManager) ListAvailable() []string {
	var names []string
	for _, p := range pm.providers {
		if p.Available() {
			names = append(names, p.Name())
		}
	}
	return names
}

// GenerateWithRetry calls the provider, retrying transient failures
// with a short linear backoff. Returns the last error once attempts
// are exhausted.
func GenerateWithRetry(ctx context.Context, p Provider, req Request, maxRetries int) (Response, error) {
	if p == nil {
		return Response{}, fmt.Errorf("no provider available")
	}

	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			wait := time.Duration(attempt) * 2 * time.Second
			logging.Debug("Retrying provider call", "provider", p.Name(), "attempt", attempt, "wait", wait)
			select {
			case <-ctx.Done():
				return Response{}, ctx.Err()
			case <-time.After(wait):
			}
		}

		resp, err := p.Generate(ctx, req)
		if err == nil {
			return resp, nil
		}
		lastErr = err
		if ctx.Err() != nil {
			return Response{}, ctx.Err()
		}
	}
	return Response{}, fmt.Errorf("%s: %w", p.Name(), lastErr)
}
