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

// eventsTopic is the topic of every system event
const eventsTopic = "system.events"

// ActorStarted is published when an actor has been constructed
type ActorStarted struct {
	Address   *address.Address
	StartedAt time.Time
}

// ActorStopped is published when an actor stops for good
type ActorStopped struct {
	Address   *address.Address
	StoppedAt time.Time
	// Cause is the construction or rebuild failure that stopped the actor, if any
	Cause error
}

// ActorRestarted is published when a failing actor instance has been replaced
type ActorRestarted struct {
	Address     *address.Address
	RestartedAt time.Time
	Cause       error
}

// Deadletter is published for every message whose destination does not
// resolve to a live actor
type Deadletter struct {
	Sender   *address.Address
	Receiver *address.Address
	Message  any
	Reason   error
	// Handled is true when the message went to the dead letters handler
	Handled bool
}

// MessagePoisoned is published when a message is returned to its sender as a
// PoisonMessage
type MessagePoisoned struct {
	Address  *address.Address
	Sender   *address.Address
	Message  any
	Failures uint32
	Cause    error
}
