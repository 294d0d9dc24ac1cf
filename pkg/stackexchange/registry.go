package stackexchange

import (
	"sync"
)

// Registry hands out one Client per distinct Config. Clients obtained for
// equal configs share their rate limiter, backoff and quota state.
type Registry struct {
	mu      sync.Mutex
	clients map[Config]*Client
	opts    []Option
}

// NewRegistry creates a registry whose clients are built with opts
func NewRegistry(opts ...Option) *Registry {
	return &Registry{
		clients: make(map[Config]*Client),
		opts:    opts,
	}
}

// DefaultRegistry is used by the command line tool. Library code should be
// handed a *Client instead.
var DefaultRegistry = NewRegistry()

// SetOptions replaces the options used for clients created after the call
func (r *Registry) SetOptions(opts ...Option) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.opts = opts
}

// Get returns the client for cfg, creating it on first use
func (r *Registry) Get(cfg Config) (*Client, error) {
	cfg = cfg.normalize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if c, ok := r.clients[cfg]; ok {
		return c, nil
	}
	c := NewClient(cfg, r.opts...)
	r.clients[cfg] = c
	return c, nil
}

// Len returns the number of clients created so far
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.clients)
}

// Close stops every client and empties the registry
func (r *Registry) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for cfg, c := range r.clients {
		c.Close()
		delete(r.clients, cfg)
	}
}
