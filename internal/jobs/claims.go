// Package jobs defines background tasks such as automated code reviews.
package jobs

import "sync"

// ClaimTable is the per-PR mutual exclusion used by the dispatcher. A claim
// is keyed by the PR reference ("owner/repo#number") and acquired with
// check-and-set semantics, so two near-simultaneous triggers can never both
// observe "no active run" and proceed.
type ClaimTable struct {
	mu     sync.Mutex
	active map[string]struct{}
}

// NewClaimTable returns an empty claim table.
func NewClaimTable() *ClaimTable {
	return &ClaimTable{active: make(map[string]struct{})}
}

// Acquire atomically claims key. It returns false when a run already holds
// the claim.
func (c *ClaimTable) Acquire(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, held := c.active[key]; held {
		return false
	}
	c.active[key] = struct{}{}
	return true
}

// Release frees the claim for key. Releasing an unheld key is a no-op, which
// keeps every terminal path in the run safe to call it.
func (c *ClaimTable) Release(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.active, key)
}

// Held reports whether key is currently claimed.
func (c *ClaimTable) Held(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, held := c.active[key]
	return held
}
