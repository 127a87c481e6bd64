package ws

import (
	"log"
	"sync"
)

// Registry maps group names to the set of live clients subscribed to them.
// Safe for concurrent join/leave/deliver from arbitrary sessions. Delivery
// iterates a snapshot of the membership, never the live map.
type Registry struct {
	mu     sync.RWMutex
	groups map[string]map[*Client]struct{}
}

func NewRegistry() *Registry {
	return &Registry{groups: make(map[string]map[*Client]struct{})}
}

// Join is idempotent.
func (r *Registry) Join(group string, c *Client) {
	r.mu.Lock()
	defer r.mu.Unlock()
	members, ok := r.groups[group]
	if !ok {
		members = make(map[*Client]struct{})
		r.groups[group] = members
	}
	members[c] = struct{}{}
}

// Leave on a client not present is a no-op.
func (r *Registry) Leave(group string, c *Client) {
	r.mu.Lock()
	defer r.mu.Unlock()
	members, ok := r.groups[group]
	if !ok {
		return
	}
	delete(members, c)
	if len(members) == 0 {
		delete(r.groups, group)
	}
}

func (r *Registry) LeaveAll(c *Client) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for group, members := range r.groups {
		delete(members, c)
		if len(members) == 0 {
			delete(r.groups, group)
		}
	}
}

// GroupSize reports current membership, mainly for tests and logs.
func (r *Registry) GroupSize(group string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.groups[group])
}

func (r *Registry) snapshot(group string, except *Client) []*Client {
	r.mu.RLock()
	defer r.mu.RUnlock()
	members := r.groups[group]
	out := make([]*Client, 0, len(members))
	for c := range members {
		if c == except {
			continue
		}
		out = append(out, c)
	}
	return out
}

// Deliver sends a payload to every current member of the group except the
// excluded client. A member whose buffer is full is dropped from all groups
// and closed; the remaining members are unaffected.
func (r *Registry) Deliver(group string, payload []byte, except *Client) {
	for _, c := range r.snapshot(group, except) {
		if c.TrySend(payload) {
			continue
		}
		log.Printf("client=%s dropped from group=%s: send buffer full or closed", c.ID(), group)
		r.LeaveAll(c)
		c.Close()
	}
}
