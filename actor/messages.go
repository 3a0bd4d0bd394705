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

package actor

import (
	"time"

	"github.com/tochemey/gokernel/address"
)

// ActorExitRequest asks an actor to exit. The actor receives it to run its
// cleanup, then stops whatever the outcome of the handler. Its children are
// not stopped.
type ActorExitRequest struct{}

// ChildActorExited is sent to a parent when one of its children stops,
// including when the child failed to start. Each exit is notified exactly once.
type ChildActorExited struct {
	ChildAddress *address.Address
}

// PoisonMessage returns to its sender a message that could not be handled
// within the retry bound. The sender of a PoisonMessage is the actor that
// failed, or nil when the actor failed on a message it sent to itself.
type PoisonMessage struct {
	// PoisonMessage is the original message
	PoisonMessage any
	// Details is the last failure
	Details error
}

// WakeupMessage is delivered to an actor once the delay it requested with
// WakeupAfter has elapsed
type WakeupMessage struct {
	DelayPeriod time.Duration
}

// isControl reports whether message drives the actor lifecycle. Unhandled
// control messages are dropped rather than routed to dead letters.
func isControl(message any) bool {
	switch message.(type) {
	case *ActorExitRequest, *ChildActorExited, *WakeupMessage:
		return true
	default:
		return false
	}
}
