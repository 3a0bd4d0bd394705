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

	"github.com/tochemey/gokernel/address"
)

// handleDeadLetters makes p the dead letters handler or withdraws it
func (x *actorSystem) handleDeadLetters(p *pid, enable bool) {
	instance := p.address.InstanceNum()
	if enable {
		x.deadLetterHandler.Store(instance)
		return
	}
	x.deadLetterHandler.CompareAndSwap(instance, 0)
}

// releaseDeadLetters reverts to discarding when p was the handler
func (x *actorSystem) releaseDeadLetters(p *pid) {
	x.deadLetterHandler.CompareAndSwap(p.address.InstanceNum(), 0)
}

// deadLetter hands a message that reached no live actor to the dead letters
// handler, unmodified and with its original sender, or discards it.
// It never fails.
func (x *actorSystem) deadLetter(ctx context.Context, from, to *address.Address, message any, reason error) {
	x.deadLetters.Inc()

	handled := false
	if instance := x.deadLetterHandler.Load(); instance != 0 {
		if handler, ok := x.actors.Get(instance); ok && !handler.isStopped() {
			received := newReceiveContext(ctx, from, handler, message)
			received.deadLetter = true
			handler.enqueue(received)
			handled = true
		}
	}

	if !handled {
		x.logger.Debugf("discarding dead letter %T for %s: %v", message, to, reason)
	}

	x.publish(&Deadletter{
		Sender:   from,
		Receiver: to,
		Message:  message,
		Reason:   reason,
		Handled:  handled,
	})
}
