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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManager(t *testing.T) {
	t.Run("With distinct local addresses", func(t *testing.T) {
		manager := NewManager("sys")
		const count = 64

		addresses := make([]*Address, 0, count)
		hashes := make(map[uint64]struct{}, count)
		for range count {
			addr := manager.CreateLocalAddress()
			addresses = append(addresses, addr)
			hashes[addr.Hash()] = struct{}{}
		}

		assert.Len(t, hashes, count)
		for i := range addresses {
			for j := range addresses {
				assert.Equal(t, i == j, addresses[i].Equals(addresses[j]), "i=%d j=%d", i, j)
			}
		}
	})
	t.Run("With GetLocalAddress", func(t *testing.T) {
		manager := NewManager("sys")
		addr := manager.CreateLocalAddress()
		again := manager.GetLocalAddress(addr.InstanceNum())
		assert.True(t, addr.Equals(again))
		assert.True(t, again.Equals(addr))
		assert.Equal(t, addr.Hash(), again.Hash())
		assert.False(t, addr.Equals(manager.GetLocalAddress(addr.InstanceNum()+1)))
	})
	t.Run("With local addresses of other systems", func(t *testing.T) {
		first := NewManager("first")
		second := NewManager("second")
		assert.False(t, first.CreateLocalAddress().Equals(second.CreateLocalAddress()))
	})
	t.Run("With association", func(t *testing.T) {
		manager := NewManager("sys")
		local := manager.CreateLocalAddress()
		resolved := NewResolved("mem://sys/1")

		assert.False(t, local.Equals(resolved))
		assert.Nil(t, manager.SendToAddress(local))

		require.NoError(t, manager.AssociateUseableAddress("sys", local.InstanceNum(), resolved))

		assert.True(t, local.Equals(resolved))
		assert.True(t, resolved.Equals(local))
		assert.Equal(t, "mem://sys/1", manager.SendToAddress(local).Identity())
		assert.Equal(t, "mem://sys/1", manager.SendToAddress(resolved).Identity())

		instance, ok := manager.LocalInstance(resolved)
		require.True(t, ok)
		assert.Equal(t, local.InstanceNum(), instance)
	})
	t.Run("With association to a local address", func(t *testing.T) {
		manager := NewManager("sys")
		err := manager.AssociateUseableAddress("sys", 1, manager.CreateLocalAddress())
		require.Error(t, err)
	})
	t.Run("With three pairs and no cross-talk", func(t *testing.T) {
		manager := NewManager("sys")
		locals := make([]*Address, 3)
		resolved := make([]*Address, 3)
		for i := range 3 {
			locals[i] = manager.CreateLocalAddress()
			resolved[i] = manager.ImportAddr(NewResolved(fmt.Sprintf("mem://sys/%d", i)))
			require.NoError(t, manager.AssociateUseableAddress("sys", locals[i].InstanceNum(), resolved[i]))
		}

		manager.DeadAddress(locals[0])
		assert.True(t, manager.IsDeadAddress(locals[0]))
		assert.True(t, manager.IsDeadAddress(resolved[0]))
		assert.False(t, manager.IsDeadAddress(locals[1]))
		assert.False(t, manager.IsDeadAddress(resolved[1]))
		assert.False(t, manager.IsDeadAddress(locals[2]))
		assert.False(t, manager.IsDeadAddress(resolved[2]))

		manager.DeadAddress(resolved[1])
		assert.True(t, manager.IsDeadAddress(locals[1]))
		assert.True(t, manager.IsDeadAddress(resolved[1]))
		assert.False(t, manager.IsDeadAddress(locals[2]))
		assert.False(t, manager.IsDeadAddress(resolved[2]))

		for i := range 3 {
			for j := range 3 {
				assert.Equal(t, i == j, locals[i].Equals(resolved[j]), "i=%d j=%d", i, j)
			}
		}
	})
	t.Run("With dead being permanent", func(t *testing.T) {
		manager := NewManager("sys")
		local := manager.CreateLocalAddress()
		manager.DeadAddress(local)

		resolved := NewResolved("mem://sys/late")
		require.NoError(t, manager.AssociateUseableAddress("sys", local.InstanceNum(), resolved))
		assert.True(t, manager.IsDeadAddress(local))
		assert.True(t, manager.IsDeadAddress(resolved))

		other := NewResolved("mem://sys/other")
		manager.Merge(other, resolved)
		assert.True(t, manager.IsDeadAddress(other))
	})
	t.Run("With ImportAddr of a duplicate identity", func(t *testing.T) {
		manager := NewManager("sys")
		local := manager.CreateLocalAddress()
		resolved := NewResolved("mem://sys/7")
		require.NoError(t, manager.AssociateUseableAddress("sys", local.InstanceNum(), resolved))

		bytea, err := resolved.MarshalBinary()
		require.NoError(t, err)

		duplicate := new(Address)
		require.NoError(t, duplicate.UnmarshalBinary(bytea))
		assert.Nil(t, duplicate.Manager())

		imported := manager.ImportAddr(duplicate)
		assert.Same(t, manager, imported.Manager())
		assert.True(t, imported.Equals(local))
		assert.True(t, local.Equals(imported))
	})
	t.Run("With identity merges", func(t *testing.T) {
		manager := NewManager("sys")
		local := manager.CreateLocalAddress()
		first := NewResolved("mem://a")
		second := manager.ImportAddr(NewResolved("mem://b"))
		third := manager.ImportAddr(NewResolved("mem://c"))

		require.NoError(t, manager.AssociateUseableAddress("sys", local.InstanceNum(), first))
		assert.False(t, local.Equals(second))

		manager.Merge(second, first)
		manager.Merge(third, second)
		assert.True(t, local.Equals(third))
		assert.True(t, third.Equals(local))
		assert.True(t, second.Equals(third))

		instance, ok := manager.LocalInstance(third)
		require.True(t, ok)
		assert.Equal(t, local.InstanceNum(), instance)

		manager.DeadAddress(third)
		assert.True(t, manager.IsDeadAddress(local))
		assert.True(t, manager.IsDeadAddress(first))
	})
	t.Run("With concurrent access", func(t *testing.T) {
		manager := NewManager("sys")
		const workers = 16

		var wg sync.WaitGroup
		results := make([]*Address, workers)
		for i := range workers {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				local := manager.CreateLocalAddress()
				resolved := NewResolved(fmt.Sprintf("mem://sys/%d", local.InstanceNum()))
				_ = manager.AssociateUseableAddress("sys", local.InstanceNum(), resolved)
				if i%2 == 0 {
					manager.DeadAddress(resolved)
				}
				results[i] = local
			}(i)
		}
		wg.Wait()

		dead := 0
		for _, local := range results {
			require.NotNil(t, manager.SendToAddress(local))
			if manager.IsDeadAddress(local) {
				dead++
			}
		}
		assert.Equal(t, workers/2, dead)
	})
	t.Run("With unknown address", func(t *testing.T) {
		manager := NewManager("sys")
		assert.Nil(t, manager.SendToAddress(nil))
		assert.False(t, manager.IsDeadAddress(nil))
		_, ok := manager.LocalInstance(NewResolved("mem://nowhere"))
		assert.False(t, ok)
		_, ok = manager.LocalInstance(NewManager("other").CreateLocalAddress())
		assert.False(t, ok)
	})
}
