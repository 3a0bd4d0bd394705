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
	gods "github.com/Workiva/go-datastructures/queue"

	gerrors "github.com/tochemey/gokernel/errors"
)

// BoundedMailbox is a bounded MPSC mailbox backed by a ring buffer.
//
// Enqueue never blocks: a message pushed into a full mailbox is rejected with
// errors.ErrMailboxFull and the actor system turns it into a dead letter.
// Use it to cap the memory held by a slow actor.
type BoundedMailbox struct {
	underlying *gods.RingBuffer
}

// enforce compilation error
var _ Mailbox = (*BoundedMailbox)(nil)

// MinBoundedMailboxCapacity is the smallest capacity of a BoundedMailbox.
// A single slot ring buffer never reports itself full.
const MinBoundedMailboxCapacity = 2

// NewBoundedMailbox creates a bounded mailbox. Capacities below
// MinBoundedMailboxCapacity are raised to it, and the ring buffer rounds the
// capacity up to the next power of two: 3 gives 4, 5 gives 8. Cap returns the
// effective capacity.
func NewBoundedMailbox(capacity int) *BoundedMailbox {
	if capacity < MinBoundedMailboxCapacity {
		capacity = MinBoundedMailboxCapacity
	}
	return &BoundedMailbox{
		underlying: gods.NewRingBuffer(uint64(capacity)),
	}
}

// Enqueue implements Mailbox
func (mailbox *BoundedMailbox) Enqueue(msg *ReceiveContext) error {
	ok, err := mailbox.underlying.Offer(msg)
	if err != nil {
		return gerrors.ErrMailboxDisposed
	}
	if !ok {
		return gerrors.ErrMailboxFull
	}
	return nil
}

// Dequeue implements Mailbox
func (mailbox *BoundedMailbox) Dequeue() (msg *ReceiveContext) {
	if mailbox.underlying.Len() > 0 {
		item, _ := mailbox.underlying.Get()
		if v, ok := item.(*ReceiveContext); ok {
			return v
		}
	}
	return nil
}

// IsEmpty implements Mailbox
func (mailbox *BoundedMailbox) IsEmpty() bool {
	return mailbox.underlying.Len() == 0
}

// Len implements Mailbox
func (mailbox *BoundedMailbox) Len() int64 {
	return int64(mailbox.underlying.Len())
}

// Cap returns the capacity of the mailbox
func (mailbox *BoundedMailbox) Cap() int64 {
	return int64(mailbox.underlying.Cap())
}

// Dispose implements Mailbox. Later pushes fail with errors.ErrMailboxDisposed.
func (mailbox *BoundedMailbox) Dispose() {
	mailbox.underlying.Dispose()
}
