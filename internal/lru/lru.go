// Copyright 2019 The Gravsearch Authors. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package lru is a small thread-safe LRU cache used to memoize IRI
// conversions and standoff mappings.
package lru

import "sync"

type entry[K comparable, V any] struct {
	key        K
	value      V
	prev, next *entry[K, V]
}

// Cache implements an LRU cache.
type Cache[K comparable, V any] struct {
	mu      sync.Mutex
	cache   map[K]*entry[K, V]
	head    *entry[K, V] // most recently used
	tail    *entry[K, V]
	maxSize int
}

// New returns a cache holding at most size entries. A size below one
// disables eviction.
func New[K comparable, V any](size int) *Cache[K, V] {
	return &Cache[K, V]{
		maxSize: size,
		cache:   make(map[K]*entry[K, V]),
	}
}

func (c *Cache[K, V]) unlink(e *entry[K, V]) {
	if e.prev != nil {
		e.prev.next = e.next
	} else {
		c.head = e.next
	}
	if e.next != nil {
		e.next.prev = e.prev
	} else {
		c.tail = e.prev
	}
	e.prev, e.next = nil, nil
}

func (c *Cache[K, V]) pushFront(e *entry[K, V]) {
	e.next = c.head
	if c.head != nil {
		c.head.prev = e
	}
	c.head = e
	if c.tail == nil {
		c.tail = e
	}
}

// Put stores value under key, replacing a previous value.
func (c *Cache[K, V]) Put(key K, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.cache[key]; ok {
		e.value = value
		c.unlink(e)
		c.pushFront(e)
		return
	}
	if c.maxSize > 0 && len(c.cache) >= c.maxSize {
		last := c.tail
		c.unlink(last)
		delete(c.cache, last.key)
	}
	e := &entry[K, V]{key: key, value: value}
	c.pushFront(e)
	c.cache[key] = e
}

// Del removes key from the cache.
func (c *Cache[K, V]) Del(key K) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e := c.cache[key]
	if e == nil {
		return
	}
	delete(c.cache, key)
	c.unlink(e)
}

// Get returns the value stored under key and marks it as recently used.
func (c *Cache[K, V]) Get(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.cache[key]; ok {
		c.unlink(e)
		c.pushFront(e)
		return e.value, true
	}
	var zero V
	return zero, false
}

// Len returns the number of cached entries.
func (c *Cache[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.cache)
}
