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

// Package actor is the actor runtime kernel: actor records and their mailbox
// loops, the supervision tree, bounded retries with poison messages, dead
// letter routing, wakeups and the ActorSystem tying them together.
package actor

import "context"

// Actor is a unit of state that handles one message at a time.
//
// The lifecycle of an actor instance follows three phases:
//  1. PreStart: setup before the first message
//  2. Receive: message handling, strictly sequential
//  3. PostStop: cleanup when the instance is discarded
//
// An instance is discarded either when the actor exits or when a failed
// message makes the actor system replace it with a fresh instance from the
// Producer. The address of the actor never changes.
type Actor interface {
	// PreStart is called before the instance handles any message. An error
	// aborts the construction of the actor.
	PreStart(ctx context.Context) error
	// Receive handles the message carried by ctx. A panic or an error set
	// with ctx.Err is a failure handled by the supervisor.
	Receive(ctx *ReceiveContext)
	// PostStop is called when the instance is discarded
	PostStop(ctx context.Context) error
}

// Producer builds a fresh actor instance. It is called once when the actor is
// created and again every time the instance is rebuilt after a failure.
type Producer func() Actor

// CapabilityChecker is an optional interface of an actor used during
// placement. CheckCapabilities receives the capabilities of a candidate actor
// system and tells whether the actor can run there.
type CapabilityChecker interface {
	CheckCapabilities(capabilities map[string]any) bool
}
