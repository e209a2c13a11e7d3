package blockchain

import "sync"

// EndpointPool holds the ordered, immutable list of fallback JSON-RPC
// endpoint URLs plus a mutable cursor. It performs no I/O; the resolver owns
// the actual dialing and failover policy.
type EndpointPool struct {
	endpoints []string

	mu     sync.Mutex
	cursor int
}

// NewEndpointPool creates a pool over the given URLs. The slice is copied so
// later mutation by the caller cannot change the pool's order.
func NewEndpointPool(urls []string) *EndpointPool {
	eps := make([]string, len(urls))
	copy(eps, urls)
	return &EndpointPool{endpoints: eps}
}

// Current returns the endpoint at the cursor without advancing.
func (p *EndpointPool) Current() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.endpoints) == 0 {
		return ""
	}
	return p.endpoints[p.cursor]
}

// Next advances the cursor circularly and returns the new current endpoint.
func (p *EndpointPool) Next() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.endpoints) == 0 {
		return ""
	}
	p.cursor = (p.cursor + 1) % len(p.endpoints)
	return p.endpoints[p.cursor]
}

// Size returns the number of endpoints in the pool.
func (p *EndpointPool) Size() int {
	return len(p.endpoints)
}
