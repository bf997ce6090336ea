package cache

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// Memory is an in-process LRU cache whose entries expire after a fixed TTL.
type Memory struct {
	lru *expirable.LRU[string, Snapshot]
}

// NewMemory creates a cache holding at most size snapshots for ttl each.
func NewMemory(size int, ttl time.Duration) *Memory {
	if size <= 0 {
		size = 256
	}
	return &Memory{lru: expirable.NewLRU[string, Snapshot](size, nil, ttl)}
}

func (m *Memory) Get(_ context.Context, key string) (Snapshot, bool, error) {
	snap, ok := m.lru.Get(key)
	return snap, ok, nil
}

func (m *Memory) Set(_ context.Context, key string, snap Snapshot) error {
	m.lru.Add(key, snap)
	return nil
}

// Len is the number of live entries.
func (m *Memory) Len() int {
	return m.lru.Len()
}

func (m *Memory) Close() error {
	m.lru.Purge()
	return nil
}
