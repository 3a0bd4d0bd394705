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

package address

import (
	"fmt"
	"sync"

	"go.uber.org/atomic"
)

// Manager allocates local addresses for one actor system and tracks how
// addresses relate to each other.
//
// Associations (local to resolved) and identity merges (resolved to resolved)
// are kept as one union-find forest over address keys, so both compose
// transitively. Deadness is recorded on the root of a class and survives every
// later union: once any member is dead the whole class stays dead.
type Manager struct {
	systemID string
	next     *atomic.Uint64

	mu       sync.Mutex
	parent   map[string]string
	dead     map[string]struct{}
	bindings map[string]*Address
	// root key to the instance number of the local actor in that class
	instances map[string]uint64
}

// NewManager creates a Manager for the actor system with the given id
func NewManager(systemID string) *Manager {
	return &Manager{
		systemID:  systemID,
		next:      atomic.NewUint64(0),
		parent:    make(map[string]string),
		dead:      make(map[string]struct{}),
		bindings:  make(map[string]*Address),
		instances: make(map[string]uint64),
	}
}

// SystemID returns the id of the actor system owning the manager
func (m *Manager) SystemID() string {
	return m.systemID
}

// CreateLocalAddress mints a new local address
func (m *Manager) CreateLocalAddress() *Address {
	return m.GetLocalAddress(m.next.Inc())
}

// GetLocalAddress returns the local address minted with instanceNum.
// The result equals the address CreateLocalAddress returned for that number.
func (m *Manager) GetLocalAddress(instanceNum uint64) *Address {
	return &Address{
		kind:     kindLocal,
		system:   m.systemID,
		instance: instanceNum,
		manager:  m,
	}
}

// AssociateUseableAddress binds the local address (systemID, instanceNum) to
// resolved. Afterwards the two compare equal in both directions and
// SendToAddress returns resolved for either of them.
func (m *Manager) AssociateUseableAddress(systemID string, instanceNum uint64, resolved *Address) error {
	if !resolved.IsResolved() {
		return fmt.Errorf("cannot associate %s: not a resolved address", resolved.String())
	}

	local := &Address{kind: kindLocal, system: systemID, instance: instanceNum}
	bound := m.bind(resolved)
	localKey := local.key()

	m.mu.Lock()
	defer m.mu.Unlock()

	m.bindings[localKey] = bound
	root := m.union(localKey, bound.key())
	if systemID == m.systemID {
		if _, ok := m.instances[root]; !ok {
			m.instances[root] = instanceNum
		}
	}
	return nil
}

// ImportAddr binds a resolved value, typically one freshly decoded from a
// peer, to the manager. The returned address takes part in every comparison
// exactly like the identity already known to the manager.
func (m *Manager) ImportAddr(addr *Address) *Address {
	if addr == nil {
		return nil
	}
	return m.bind(addr)
}

// Merge records that a and b denote the same actor.
// Deadness of either side spreads to the merged class.
func (m *Manager) Merge(a, b *Address) {
	if a == nil || b == nil {
		return
	}

	m.mu.Lock()
	m.union(a.key(), b.key())
	m.mu.Unlock()
}

// SendToAddress returns the destination to hand to a transport: addr itself
// when it is resolved, the bound resolved address when addr is an associated
// local address, nil otherwise.
func (m *Manager) SendToAddress(addr *Address) *Address {
	if addr == nil {
		return nil
	}

	if addr.IsResolved() {
		return addr
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	return m.bindings[addr.key()]
}

// DeadAddress marks addr and every address equivalent to it as gone.
// This cannot be undone.
func (m *Manager) DeadAddress(addr *Address) {
	if addr == nil {
		return
	}

	m.mu.Lock()
	m.dead[m.find(addr.key())] = struct{}{}
	m.mu.Unlock()
}

// IsDeadAddress reports whether addr or anything equivalent to it is gone
func (m *Manager) IsDeadAddress(addr *Address) bool {
	if addr == nil {
		return false
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.dead[m.find(addr.key())]
	return ok
}

// LocalInstance returns the instance number of the actor of this system that
// addr denotes, either directly or through an association.
func (m *Manager) LocalInstance(addr *Address) (uint64, bool) {
	if addr == nil {
		return 0, false
	}

	if addr.IsLocal() {
		return addr.instance, addr.system == m.systemID
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	instance, ok := m.instances[m.find(addr.key())]
	return instance, ok
}

func (m *Manager) equivalent(a, b *Address) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.find(a.key()) == m.find(b.key())
}

func (m *Manager) bind(addr *Address) *Address {
	if addr.manager == m {
		return addr
	}
	bound := *addr
	bound.manager = m
	return &bound
}

// find returns the root of key. Keys never seen are their own root.
// Must be called with mu held.
func (m *Manager) find(key string) string {
	root := key
	for {
		next, ok := m.parent[root]
		if !ok || next == root {
			break
		}
		root = next
	}

	for key != root {
		next := m.parent[key]
		m.parent[key] = root
		key = next
	}
	return root
}

// union merges the classes of a and b and returns the new root.
// Must be called with mu held.
func (m *Manager) union(a, b string) string {
	ra, rb := m.find(a), m.find(b)
	if ra == rb {
		return ra
	}

	m.parent[ra] = rb
	if _, ok := m.dead[ra]; ok {
		m.dead[rb] = struct{}{}
		delete(m.dead, ra)
	}

	if instance, ok := m.instances[ra]; ok {
		if _, taken := m.instances[rb]; !taken {
			m.instances[rb] = instance
		}
		delete(m.instances, ra)
	}
	return rb
}
