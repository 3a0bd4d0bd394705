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

// Package transport defines how actor systems exchange frames.
//
// The actor system only ever hands a transport addresses it got back from
// Resolve, possibly after they travelled to another system and back.
package transport

import (
	"context"
	"errors"

	"github.com/tochemey/gokernel/address"
)

var (
	// ErrNotStarted is returned when the transport is used before Start
	ErrNotStarted = errors.New("transport has not started")
	// ErrUnknownDestination is returned when no peer hosts the destination identity
	ErrUnknownDestination = errors.New("unknown destination")
)

// Handler is called with every frame delivered to the transport.
// Calls for frames coming from the same peer are not concurrent.
type Handler func(ctx context.Context, frame []byte)

// Transport moves opaque frames between actor systems
type Transport interface {
	// Start connects the transport
	Start(ctx context.Context) error
	// Resolve returns the resolved address under which the local address is
	// reachable through the transport, or nil when it cannot be exported
	Resolve(local *address.Address) *address.Address
	// Deliver sends frame to the actor system hosting to
	Deliver(ctx context.Context, to *address.Address, frame []byte) error
	// OnReceive sets the handler of inbound frames
	OnReceive(handler Handler)
	// Stop disconnects the transport
	Stop(ctx context.Context) error
}
