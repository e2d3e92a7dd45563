/*
Copyright 2026.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

// Package apiserver is the sole path through which agents read and write
// shadow state (spec.md §4.4). It never exposes the backing cluster store
// directly: every request is authenticated via TokenReview, authorized
// against the caller's own node, and served off a small in-process shadow
// cache to keep the agent's poll loop cheap.
package apiserver

import (
	"sync"

	v2 "in-cloud.io/hostupdate/api/v2"
)

// ShadowCache holds the last-observed copy of each shadow this API server
// has read or written, keyed by node name. It is a read-through/write-through
// accessor in front of the backing client.Client, not a source of truth:
// every miss falls back to the backing store, and every write updates both.
// Only GetShadow answers from it; EnsureShadow and PublishStatus read the
// backing store on every call and refresh the entry afterwards.
type ShadowCache struct {
	mu      sync.RWMutex
	entries map[string]*v2.HostUpdate
}

// NewShadowCache returns an empty cache.
func NewShadowCache() *ShadowCache {
	return &ShadowCache{entries: make(map[string]*v2.HostUpdate)}
}

// Get returns the cached shadow for name, if any.
func (c *ShadowCache) Get(name string) (*v2.HostUpdate, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	shadow, ok := c.entries[name]
	return shadow, ok
}

// Put stores (or replaces) the cached shadow for its own name.
func (c *ShadowCache) Put(shadow *v2.HostUpdate) {
	if shadow == nil || shadow.Name == "" {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[shadow.Name] = shadow
}

// Invalidate drops any cached entry for name, forcing the next Get to miss
// and fall back to the backing store.
func (c *ShadowCache) Invalidate(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, name)
}
