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
	"context"
	"time"

	"github.com/tochemey/gokernel/address"
	"github.com/tochemey/gokernel/log"
)

// deliveryState tracks a message through the retry engine
type deliveryState uint8

const (
	delivered deliveryState = iota
	failed
	poisoned
)

// ReceiveContext carries a message to an actor together with the operations
// the actor may perform while handling it. It is only valid during the call
// to Receive.
type ReceiveContext struct {
	ctx     context.Context
	message any
	sender  *address.Address
	self    *pid
	err     error

	// failures counts the failed deliveries of the message
	failures uint32
	state    deliveryState
	// deadLetter is set when the message is handed to the dead letters handler
	deadLetter bool
}

func newReceiveContext(ctx context.Context, from *address.Address, to *pid, message any) *ReceiveContext {
	return &ReceiveContext{
		ctx:     context.WithoutCancel(ctx),
		message: message,
		sender:  from,
		self:    to,
	}
}

// Context returns the context the message was sent with
func (c *ReceiveContext) Context() context.Context {
	return c.ctx
}

// Message returns the message being handled
func (c *ReceiveContext) Message() any {
	return c.message
}

// Sender returns the address of the sender, or nil
func (c *ReceiveContext) Sender() *address.Address {
	return c.sender
}

// Self returns the address of the receiving actor
func (c *ReceiveContext) Self() *address.Address {
	return c.self.address
}

// Parent returns the address of the parent, or nil for a top-level actor
func (c *ReceiveContext) Parent() *address.Address {
	return c.self.parent
}

// Children returns the addresses of the live children of the actor
func (c *ReceiveContext) Children() []*address.Address {
	return c.self.childrenAddresses()
}

// Failures returns how many times the message already failed
func (c *ReceiveContext) Failures() uint32 {
	return c.failures
}

// Err reports a failure of the handler. It has the same effect as a panic.
func (c *ReceiveContext) Err(err error) {
	if err != nil {
		c.err = err
	}
}

// Send sends message to the actor at to with the receiving actor as sender
func (c *ReceiveContext) Send(to *address.Address, message any) {
	if err := c.self.system.send(c.ctx, c.self.address, to, message); err != nil {
		c.Err(err)
	}
}

// Reply sends message to the sender of the message being handled.
// Without a sender the reply becomes a dead letter.
func (c *ReceiveContext) Reply(message any) {
	if c.sender == nil {
		c.self.system.deadLetter(c.ctx, c.self.address, nil, message, errNoSender)
		return
	}
	c.Send(c.sender, message)
}

// Ask sends message to the actor at to and waits for its reply.
// It returns nil when no reply arrives within timeout. The handler is blocked
// while waiting; the receiving actor does not handle other messages meanwhile.
func (c *ReceiveContext) Ask(to *address.Address, message any, timeout time.Duration) any {
	reply, err := c.self.system.Ask(c.ctx, to, message, timeout)
	if err != nil {
		c.Err(err)
		return nil
	}
	return reply
}

// CreateActor creates a child of the receiving actor. A child that fails to
// start is reported with a ChildActorExited message rather than an error.
func (c *ReceiveContext) CreateActor(producer Producer, opts ...CreateOption) (*address.Address, error) {
	return c.self.system.spawn(c.ctx, producer, c.self, opts...)
}

// WakeupAfter delivers a WakeupMessage to the receiving actor once delay
// has elapsed
func (c *ReceiveContext) WakeupAfter(delay time.Duration) {
	if err := c.self.wakeupAfter(delay); err != nil {
		c.Err(err)
	}
}

// HandleDeadLetters makes the receiving actor the dead letters handler of the
// actor system, replacing the current one, or gives the role up. Giving up
// has no effect when the actor is not the current handler.
func (c *ReceiveContext) HandleDeadLetters(enable bool) {
	c.self.system.handleDeadLetters(c.self, enable)
}

// UpdateCapability sets a capability of the actor system. A nil value removes it.
func (c *ReceiveContext) UpdateCapability(name string, value any) {
	c.self.system.UpdateCapability(name, value)
}

// Exit asks the receiving actor to exit once the current message is handled
func (c *ReceiveContext) Exit() {
	c.Send(c.self.address, new(ActorExitRequest))
}

// Unhandled reports that the actor has no handler for the message.
// The message becomes a dead letter, except lifecycle messages and messages
// that already are dead letters, which are dropped.
func (c *ReceiveContext) Unhandled() {
	if c.deadLetter || isControl(c.message) {
		c.self.logger.Debugf("dropping unhandled %T", c.message)
		return
	}
	c.self.system.deadLetter(c.ctx, c.sender, c.self.address, c.message, errUnhandled)
}

// Logger returns the logger of the receiving actor
func (c *ReceiveContext) Logger() log.Logger {
	return c.self.logger
}

// ActorSystem returns the actor system hosting the receiving actor
func (c *ReceiveContext) ActorSystem() ActorSystem {
	return c.self.system
}

// getError returns the failure reported during the current delivery
func (c *ReceiveContext) getError() error {
	return c.err
}

func (c *ReceiveContext) resetError() {
	c.err = nil
}
