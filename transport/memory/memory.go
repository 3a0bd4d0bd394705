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

// Package memory provides a Transport connecting actor systems living in the
// same process. It is mostly useful in tests.
package memory

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"go.uber.org/atomic"

	"github.com/tochemey/gokernel/address"
	"github.com/tochemey/gokernel/transport"
)

const scheme = "mem://"

// Network links the memory transports created from it
type Network struct {
	mu    sync.RWMutex
	peers map[string]*Transport
}

// NewNetwork creates an empty Network
func NewNetwork() *Network {
	return &Network{peers: make(map[string]*Transport)}
}

// Transport creates the transport of the actor system named name.
// Names must be unique in the network.
func (n *Network) Transport(name string) *Transport {
	return &Transport{
		name:    name,
		network: n,
		started: atomic.NewBool(false),
	}
}

func (n *Network) join(t *Transport) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if _, ok := n.peers[t.name]; ok {
		return fmt.Errorf("memory transport %q already joined the network", t.name)
	}
	n.peers[t.name] = t
	return nil
}

func (n *Network) leave(t *Transport) {
	n.mu.Lock()
	if n.peers[t.name] == t {
		delete(n.peers, t.name)
	}
	n.mu.Unlock()
}

func (n *Network) peer(name string) (*Transport, bool) {
	n.mu.RLock()
	defer n.mu.RUnlock()
	t, ok := n.peers[name]
	return t, ok
}

// Transport is an in-process transport.Transport.
// Deliver calls the receiving handler synchronously, which keeps the frames
// sent by one goroutine in order.
type Transport struct {
	name    string
	network *Network
	started *atomic.Bool

	mu      sync.RWMutex
	handler transport.Handler
}

var _ transport.Transport = (*Transport)(nil)

// Start implements transport.Transport
func (t *Transport) Start(context.Context) error {
	if !t.started.CompareAndSwap(false, true) {
		return nil
	}
	if err := t.network.join(t); err != nil {
		t.started.Store(false)
		return err
	}
	return nil
}

// Resolve implements transport.Transport
func (t *Transport) Resolve(local *address.Address) *address.Address {
	if !local.IsLocal() {
		return nil
	}
	return address.NewResolved(scheme + t.name + "/" + strconv.FormatUint(local.InstanceNum(), 10))
}

// Deliver implements transport.Transport
func (t *Transport) Deliver(ctx context.Context, to *address.Address, frame []byte) error {
	if !t.started.Load() {
		return transport.ErrNotStarted
	}

	name, ok := peerName(to)
	if !ok {
		return fmt.Errorf("%w: %s", transport.ErrUnknownDestination, to.String())
	}

	peer, ok := t.network.peer(name)
	if !ok {
		return fmt.Errorf("%w: %s", transport.ErrUnknownDestination, to.String())
	}

	peer.mu.RLock()
	handler := peer.handler
	peer.mu.RUnlock()
	if handler != nil {
		handler(ctx, append([]byte(nil), frame...))
	}
	return nil
}

// OnReceive implements transport.Transport
func (t *Transport) OnReceive(handler transport.Handler) {
	t.mu.Lock()
	t.handler = handler
	t.mu.Unlock()
}

// Stop implements transport.Transport
func (t *Transport) Stop(context.Context) error {
	if t.started.CompareAndSwap(true, false) {
		t.network.leave(t)
	}
	return nil
}

func peerName(addr *address.Address) (string, bool) {
	if !addr.IsResolved() {
		return "", false
	}

	rest, ok := strings.CutPrefix(addr.Identity(), scheme)
	if !ok {
		return "", false
	}

	name, _, ok := strings.Cut(rest, "/")
	return name, ok && name != ""
}
