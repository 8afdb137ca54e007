// Package cache stores computed API responses keyed by series version.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"
)

// ErrMiss 缓存未命中或已过期
var ErrMiss = errors.New("cache miss")

// Provider 响应缓存
type Provider interface {
	Get(ctx context.Context, key string, dest any) error
	Set(ctx context.Context, key string, value any, expiration time.Duration) error
	Delete(ctx context.Context, key string) error
	// Flush drops every entry owned by this provider.
	Flush(ctx context.Context) error
}

type memoryItem struct {
	data      []byte
	expiresAt time.Time
}

// MemoryProvider 进程内缓存
type MemoryProvider struct {
	mu    sync.RWMutex
	items map[string]memoryItem
	now   func() time.Time
}

func NewMemoryProvider() *MemoryProvider {
	return &MemoryProvider{items: map[string]memoryItem{}, now: time.Now}
}

func (p *MemoryProvider) Get(_ context.Context, key string, dest any) error {
	p.mu.RLock()
	item, ok := p.items[key]
	p.mu.RUnlock()
	if !ok || len(item.data) == 0 {
		return ErrMiss
	}
	if !item.expiresAt.IsZero() && p.now().After(item.expiresAt) {
		p.mu.Lock()
		delete(p.items, key)
		p.mu.Unlock()
		return ErrMiss
	}
	return json.Unmarshal(item.data, dest)
}

func (p *MemoryProvider) Set(_ context.Context, key string, value any, expiration time.Duration) error {
	b, err := json.Marshal(value)
	if err != nil {
		return err
	}
	var expiresAt time.Time
	if expiration > 0 {
		expiresAt = p.now().Add(expiration)
	}
	p.mu.Lock()
	p.items[key] = memoryItem{data: b, expiresAt: expiresAt}
	p.mu.Unlock()
	return nil
}

func (p *MemoryProvider) Delete(_ context.Context, key string) error {
	p.mu.Lock()
	delete(p.items, key)
	p.mu.Unlock()
	return nil
}

func (p *MemoryProvider) Flush(context.Context) error {
	p.mu.Lock()
	p.items = map[string]memoryItem{}
	p.mu.Unlock()
	return nil
}

// Len reports the number of stored entries, expired ones included.
func (p *MemoryProvider) Len() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.items)
}
