// Package cache provides the process-local read cache used for catalog lookups.
package cache

import (
	"strings"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// Store is the cache surface services depend on.
type Store interface {
	Get(key string) (any, bool)
	Set(key string, value any, ttl time.Duration)
	Delete(key string)
	DeletePrefix(prefix string)
	Flush()
}

// Memory is a Store backed by go-cache.
type Memory struct {
	store *gocache.Cache
}

// NewMemory builds an in-memory cache; expired entries are swept every cleanup.
func NewMemory(defaultTTL, cleanup time.Duration) *Memory {
	return &Memory{store: gocache.New(defaultTTL, cleanup)}
}

func (m *Memory) Get(key string) (any, bool) {
	return m.store.Get(key)
}

// Set stores value; a zero ttl uses the cache default.
func (m *Memory) Set(key string, value any, ttl time.Duration) {
	if ttl <= 0 {
		ttl = gocache.DefaultExpiration
	}
	m.store.Set(key, value, ttl)
}

func (m *Memory) Delete(key string) {
	m.store.Delete(key)
}

// DeletePrefix drops every key starting with prefix.
func (m *Memory) DeletePrefix(prefix string) {
	for key := range m.store.Items() {
		if strings.HasPrefix(key, prefix) {
			m.store.Delete(key)
		}
	}
}

func (m *Memory) Flush() {
	m.store.Flush()
}

// Nop is a Store that never holds anything.
type Nop struct{}

func (Nop) Get(string) (any, bool)         { return nil, false }
func (Nop) Set(string, any, time.Duration) {}
func (Nop) Delete(string)                  {}
func (Nop) DeletePrefix(string)            {}
func (Nop) Flush()                         {}
