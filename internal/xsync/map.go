// MIT License
//
// Copyright (c) 2022-2026 GoAkt Team
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in all
// copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
// SOFTWARE.

// Package xsync holds small concurrency-safe containers shared by the actor
// system tables.
package xsync

import "sync"

// Map is a map guarded by a read-write mutex
type Map[K comparable, V any] struct {
	mu   sync.RWMutex
	data map[K]V
}

// NewMap creates an empty Map
func NewMap[K comparable, V any]() *Map[K, V] {
	return &Map[K, V]{data: make(map[K]V)}
}

// Set stores v under k
func (m *Map[K, V]) Set(k K, v V) {
	m.mu.Lock()
	m.data[k] = v
	m.mu.Unlock()
}

// Get returns the value stored under k
func (m *Map[K, V]) Get(k K) (V, bool) {
	m.mu.RLock()
	v, ok := m.data[k]
	m.mu.RUnlock()
	return v, ok
}

// Delete removes k
func (m *Map[K, V]) Delete(k K) {
	m.mu.Lock()
	delete(m.data, k)
	m.mu.Unlock()
}

// LoadAndDelete removes k and returns the value it held.
// Among concurrent callers for the same key only one observes ok == true.
func (m *Map[K, V]) LoadAndDelete(k K) (V, bool) {
	m.mu.Lock()
	v, ok := m.data[k]
	delete(m.data, k)
	m.mu.Unlock()
	return v, ok
}

// Len returns the number of entries
func (m *Map[K, V]) Len() int {
	m.mu.RLock()
	l := len(m.data)
	m.mu.RUnlock()
	return l
}

// Range calls f for every entry while holding the read lock.
// f must not call back into the map.
func (m *Map[K, V]) Range(f func(K, V)) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for k, v := range m.data {
		f(k, v)
	}
}

// Values returns a snapshot of the stored values
func (m *Map[K, V]) Values() []V {
	m.mu.RLock()
	defer m.mu.RUnlock()
	values := make([]V, 0, len(m.data))
	for _, v := range m.data {
		values = append(values, v)
	}
	return values
}

// Reset removes every entry
func (m *Map[K, V]) Reset() {
	m.mu.Lock()
	clear(m.data)
	m.mu.Unlock()
}
