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

package etcd

import (
	"context"
	"maps"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	testcontainer "github.com/testcontainers/testcontainers-go/modules/etcd"

	"github.com/tochemey/gokernel/log"
)

type host struct {
	id           string
	mu           sync.Mutex
	capabilities map[string]any
}

func (h *host) ID() string { return h.id }

func (h *host) Capabilities() map[string]any {
	h.mu.Lock()
	defer h.mu.Unlock()
	return maps.Clone(h.capabilities)
}

func (h *host) set(name string, value any) {
	h.mu.Lock()
	h.capabilities[name] = value
	h.mu.Unlock()
}

func TestConfig(t *testing.T) {
	config := &Config{Endpoints: []string{"127.0.0.1:2379"}}
	config.Sanitize()
	require.NoError(t, config.Validate())
	assert.Equal(t, defaultNamespace, config.Namespace)
	assert.EqualValues(t, defaultTTL, config.TTL)

	config = &Config{}
	config.Sanitize()
	assert.Error(t, config.Validate())

	config = &Config{Endpoints: []string{"127.0.0.1:2379"}, TTL: -1}
	config.Sanitize()
	assert.Error(t, config.Validate())
}

func TestDirectory(t *testing.T) {
	cluster := startEtcdCluster(t)
	ctx := context.Background()

	endpoints, err := cluster.ClientEndpoints(ctx)
	require.NoError(t, err)

	newDirectory := func(namespace string) *Directory {
		return NewDirectory(&Config{
			Endpoints: endpoints,
			Namespace: namespace,
			TTL:       10,
			Timeout:   5 * time.Second,
		}, WithLogger(log.DiscardLogger))
	}

	t.Run("With advertised actor systems", func(t *testing.T) {
		alice := &host{id: "alice-1", capabilities: map[string]any{"gpu": false}}
		bob := &host{id: "bob-1", capabilities: map[string]any{"gpu": true, "cores": 8, "ignored": struct{}{}}}

		aliceDirectory, bobDirectory := newDirectory("kernel"), newDirectory("kernel")
		require.NoError(t, aliceDirectory.Advertise(ctx, alice))
		require.NoError(t, bobDirectory.Advertise(ctx, bob))
		assert.Error(t, bobDirectory.Advertise(ctx, bob))

		candidates, err := aliceDirectory.Candidates(ctx)
		require.NoError(t, err)
		require.Len(t, candidates, 1)

		candidate := candidates[0]
		assert.Equal(t, "bob-1", candidate.SystemID)
		assert.False(t, candidate.Local)
		assert.Equal(t, true, candidate.Capabilities["gpu"])
		assert.EqualValues(t, 8, candidate.Capabilities["cores"])
		assert.NotContains(t, candidate.Capabilities, "ignored")

		// capability changes are published on the next lookup
		bob.set("cores", 16)
		_, err = bobDirectory.Candidates(ctx)
		require.NoError(t, err)
		candidates, err = aliceDirectory.Candidates(ctx)
		require.NoError(t, err)
		require.Len(t, candidates, 1)
		assert.EqualValues(t, 16, candidates[0].Capabilities["cores"])

		require.NoError(t, bobDirectory.Withdraw(ctx))
		candidates, err = aliceDirectory.Candidates(ctx)
		require.NoError(t, err)
		assert.Empty(t, candidates)

		require.NoError(t, aliceDirectory.Withdraw(ctx))
		require.NoError(t, aliceDirectory.Withdraw(ctx))
	})
	t.Run("With separate namespaces", func(t *testing.T) {
		first, second := newDirectory("first"), newDirectory("second")
		require.NoError(t, first.Advertise(ctx, &host{id: "a", capabilities: map[string]any{}}))
		require.NoError(t, second.Advertise(ctx, &host{id: "b", capabilities: map[string]any{}}))

		candidates, err := first.Candidates(ctx)
		require.NoError(t, err)
		assert.Empty(t, candidates)

		require.NoError(t, first.Withdraw(ctx))
		require.NoError(t, second.Withdraw(ctx))
	})
	t.Run("Without advertising", func(t *testing.T) {
		directory := newDirectory("kernel")
		candidates, err := directory.Candidates(ctx)
		require.NoError(t, err)
		assert.Empty(t, candidates)
		require.NoError(t, directory.Withdraw(ctx))
	})
	t.Run("With invalid config", func(t *testing.T) {
		directory := NewDirectory(&Config{}, WithLogger(log.DiscardLogger))
		_, err := directory.Candidates(ctx)
		assert.Error(t, err)
		assert.Error(t, directory.Advertise(ctx, &host{id: "a", capabilities: map[string]any{}}))
	})
}

func startEtcdCluster(t *testing.T) *testcontainer.EtcdContainer {
	t.Helper()
	etcdContainer, err := testcontainer.Run(t.Context(), "gcr.io/etcd-development/etcd:v3.5.14")
	require.NoError(t, err)
	t.Cleanup(func() {
		err := testcontainers.TerminateContainer(etcdContainer)
		require.NoError(t, err)
	})
	return etcdContainer
}
