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

package eventstream

import (
	"sync"

	"github.com/google/uuid"
	"go.uber.org/atomic"
)

// Subscriber buffers the messages published to its topics until drained
type Subscriber interface {
	// ID returns the subscriber id
	ID() string
	// Active reports whether the subscriber still accepts messages
	Active() bool
	// Topics returns the topics the subscriber is attached to
	Topics() []string
	// Iterator drains the buffered messages in publication order
	Iterator() chan *Message
	// Shutdown stops the subscriber from accepting messages
	Shutdown()
}

type subscriber struct {
	id     string
	active *atomic.Bool

	mu       sync.Mutex
	topics   map[string]struct{}
	messages []*Message
}

var _ Subscriber = (*subscriber)(nil)

func newSubscriber() *subscriber {
	return &subscriber{
		id:     uuid.NewString(),
		active: atomic.NewBool(true),
		topics: make(map[string]struct{}),
	}
}

func (x *subscriber) ID() string {
	return x.id
}

func (x *subscriber) Active() bool {
	return x.active.Load()
}

func (x *subscriber) Topics() []string {
	x.mu.Lock()
	defer x.mu.Unlock()
	topics := make([]string, 0, len(x.topics))
	for topic := range x.topics {
		topics = append(topics, topic)
	}
	return topics
}

func (x *subscriber) Iterator() chan *Message {
	x.mu.Lock()
	pending := x.messages
	x.messages = nil
	x.mu.Unlock()

	out := make(chan *Message, len(pending))
	for _, message := range pending {
		out <- message
	}
	close(out)
	return out
}

func (x *subscriber) Shutdown() {
	x.active.Store(false)
}

func (x *subscriber) signal(message *Message) {
	if !x.active.Load() {
		return
	}
	x.mu.Lock()
	x.messages = append(x.messages, message)
	x.mu.Unlock()
}

func (x *subscriber) subscribe(topic string) {
	x.mu.Lock()
	x.topics[topic] = struct{}{}
	x.mu.Unlock()
}

func (x *subscriber) unsubscribe(topic string) {
	x.mu.Lock()
	delete(x.topics, topic)
	x.mu.Unlock()
}
