package dispatch

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/aretw0/brokerdesk/pkg/domain"
	"github.com/aretw0/brokerdesk/pkg/ports"
)

// HandlerFunc implements one automated action in process.
type HandlerFunc func(ctx context.Context, c *domain.Client) error

// Registry dispatches actions to registered Go functions.
// Actions without a handler go to the fallback, or fail when none is set.
type Registry struct {
	mu       sync.RWMutex
	handlers map[string]HandlerFunc
	fallback ports.ActionDispatcher
}

// NewRegistry creates an empty registry forwarding unknown actions to fallback.
func NewRegistry(fallback ports.ActionDispatcher) *Registry {
	return &Registry{
		handlers: make(map[string]HandlerFunc),
		fallback: fallback,
	}
}

// Register binds fn to action. An existing handler is overwritten.
func (r *Registry) Register(action string, fn HandlerFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[action] = fn
}

// Actions returns the registered action names, sorted.
func (r *Registry) Actions() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.handlers))
	for name := range r.handlers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (r *Registry) Dispatch(ctx context.Context, action string, c *domain.Client) error {
	r.mu.RLock()
	fn, ok := r.handlers[action]
	r.mu.RUnlock()

	if !ok {
		if r.fallback != nil {
			return r.fallback.Dispatch(ctx, action, c)
		}
		return fmt.Errorf("action not found: %s", action)
	}
	return fn(ctx, c)
}
