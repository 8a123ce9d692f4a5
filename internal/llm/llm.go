package llm

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"golang.org/x/time/rate"

	"github.com/personachat/personachat/internal/models"
)

// Message is a single turn of a chat transcript sent to a provider.
// Role is one of "system", "user" or "ai".
type Message struct {
	Role    string
	Content string
}

// Config holds per-request generation parameters
type Config struct {
	Model       string
	Temperature float64
	MaxTokens   int
}

// Response represents a provider completion
type Response struct {
	Text       string
	TokensUsed int
	LatencyMs  int64
	Model      string
	Provider   string
}

// Provider is the interface all completion providers implement
type Provider interface {
	// Name returns the provider name
	Name() string

	// Chat sends a message transcript and returns the completion
	Chat(ctx context.Context, messages []Message, config Config) (*Response, error)

	// ListModels lists models available from this provider
	ListModels(ctx context.Context) ([]models.ModelInfo, error)
}

// Default request rate applied to every provider.
const (
	defaultRequestsPerSecond = 2
	defaultBurst             = 4
)

// Registry holds the configured providers and throttles calls to them
type Registry struct {
	mu        sync.RWMutex
	providers map[string]Provider
	limiters  map[string]*rate.Limiter
}

// NewRegistry creates an empty provider registry
func NewRegistry() *Registry {
	return &Registry{
		providers: make(map[string]Provider),
		limiters:  make(map[string]*rate.Limiter),
	}
}

// Register adds a provider to the registry
func (r *Registry) Register(provider Provider) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.providers[provider.Name()] = provider
	r.limiters[provider.Name()] = rate.NewLimiter(rate.Limit(defaultRequestsPerSecond), defaultBurst)
}

// Get returns a provider by name
func (r *Registry) Get(name string) (Provider, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	provider, ok := r.providers[name]
	return provider, ok
}

// Names returns the sorted names of all registered providers
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.providers))
	for name := range r.providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Chat dispatches a transcript to the named provider, honoring its rate limit
func (r *Registry) Chat(ctx context.Context, name string, messages []Message, config Config) (*Response, error) {
	r.mu.RLock()
	provider, ok := r.providers[name]
	limiter := r.limiters[name]
	r.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("provider not found: %s", name)
	}

	if err := limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait cancelled: %w", err)
	}

	return provider.Chat(ctx, messages, config)
}
