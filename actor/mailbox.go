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
	"sync"
	"sync/atomic"
)

// Mailbox is the message queue of an actor.
//
// Enqueue is called by many goroutines concurrently while Dequeue is only ever
// called by the goroutine processing the actor. Enqueue must not block.
type Mailbox interface {
	// Enqueue pushes a message into the mailbox
	Enqueue(msg *ReceiveContext) error
	// Dequeue fetches the oldest message or returns nil when the mailbox is empty
	Dequeue() (msg *ReceiveContext)
	// IsEmpty reports whether the mailbox currently has no messages
	IsEmpty() bool
	// Len returns a snapshot of the number of messages in the mailbox
	Len() int64
	// Dispose releases the resources of the mailbox
	Dispose()
}

type mailboxNode struct {
	next atomic.Pointer[mailboxNode]
	data *ReceiveContext
}

var mailboxNodePool = sync.Pool{New: func() any { return new(mailboxNode) }}

// DefaultMailbox is an unbounded, lock-free, multi-producer single-consumer
// FIFO queue. Producers append by swapping the tail and linking the previous
// node; the consumer follows the links from a dummy head node.
type DefaultMailbox struct {
	head  atomic.Pointer[mailboxNode] // consumer only
	_pad1 [64]byte
	tail  atomic.Pointer[mailboxNode] // producers only
	_pad2 [64]byte
}

var _ Mailbox = (*DefaultMailbox)(nil)

// NewDefaultMailbox creates a DefaultMailbox
func NewDefaultMailbox() *DefaultMailbox {
	dummy := mailboxNodePool.Get().(*mailboxNode)
	dummy.next.Store(nil)
	dummy.data = nil
	m := &DefaultMailbox{}
	m.head.Store(dummy)
	m.tail.Store(dummy)
	return m
}

// Enqueue implements Mailbox. It never fails.
func (m *DefaultMailbox) Enqueue(value *ReceiveContext) error {
	n := mailboxNodePool.Get().(*mailboxNode)
	n.data = value
	n.next.Store(nil)

	prev := m.tail.Swap(n)
	prev.next.Store(n)
	return nil
}

// Dequeue implements Mailbox
func (m *DefaultMailbox) Dequeue() *ReceiveContext {
	head := m.head.Load()
	next := head.next.Load()
	if next == nil {
		return nil
	}

	// next becomes the dummy head
	m.head.Store(next)
	value := next.data
	next.data = nil

	head.next.Store(nil)
	mailboxNodePool.Put(head)
	return value
}

// Len implements Mailbox. It walks the queue, so it is meant for diagnostics.
func (m *DefaultMailbox) Len() int64 {
	var count int64
	for n := m.head.Load().next.Load(); n != nil; n = n.next.Load() {
		count++
	}
	return count
}

// IsEmpty implements Mailbox
func (m *DefaultMailbox) IsEmpty() bool {
	return m.head.Load().next.Load() == nil
}

// Dispose implements Mailbox
func (m *DefaultMailbox) Dispose() {}
