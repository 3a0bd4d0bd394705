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

// Package eventstream is the in-process publish/subscribe bus used by the
// actor system to expose lifecycle and delivery events.
package eventstream

import "sync"

// Stream fans published messages out to the subscribers of a topic
type Stream interface {
	// AddSubscriber creates and registers a subscriber
	AddSubscriber() Subscriber
	// RemoveSubscriber unsubscribes sub from every topic and shuts it down
	RemoveSubscriber(sub Subscriber)
	// SubscribersCount returns the number of subscribers of topic
	SubscribersCount(topic string) int
	// Subscribe attaches sub to topic
	Subscribe(sub Subscriber, topic string)
	// Unsubscribe detaches sub from topic
	Unsubscribe(sub Subscriber, topic string)
	// Publish delivers msg to the active subscribers of topic
	Publish(topic string, msg any)
	// Close shuts every subscriber down
	Close()
}

type eventsStream struct {
	mu     sync.Mutex
	subs   map[string]*subscriber
	topics map[string]map[string]*subscriber
}

var _ Stream = (*eventsStream)(nil)

// New creates a Stream
func New() Stream {
	return &eventsStream{
		subs:   make(map[string]*subscriber),
		topics: make(map[string]map[string]*subscriber),
	}
}

func (s *eventsStream) AddSubscriber() Subscriber {
	sub := newSubscriber()
	s.mu.Lock()
	s.subs[sub.ID()] = sub
	s.mu.Unlock()
	return sub
}

func (s *eventsStream) RemoveSubscriber(sub Subscriber) {
	if sub == nil {
		return
	}

	s.mu.Lock()
	for topic, subs := range s.topics {
		delete(subs, sub.ID())
		if len(subs) == 0 {
			delete(s.topics, topic)
		}
	}
	delete(s.subs, sub.ID())
	s.mu.Unlock()
	sub.Shutdown()
}

func (s *eventsStream) SubscribersCount(topic string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.topics[topic])
}

func (s *eventsStream) Subscribe(sub Subscriber, topic string) {
	if sub == nil || !sub.Active() {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	registered, ok := s.subs[sub.ID()]
	if !ok {
		return
	}

	if s.topics[topic] == nil {
		s.topics[topic] = make(map[string]*subscriber)
	}
	s.topics[topic][sub.ID()] = registered
	registered.subscribe(topic)
}

func (s *eventsStream) Unsubscribe(sub Subscriber, topic string) {
	if sub == nil {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if registered, ok := s.topics[topic][sub.ID()]; ok {
		registered.unsubscribe(topic)
		delete(s.topics[topic], sub.ID())
	}
}

func (s *eventsStream) Publish(topic string, msg any) {
	s.mu.Lock()
	subs := make([]*subscriber, 0, len(s.topics[topic]))
	for _, sub := range s.topics[topic] {
		subs = append(subs, sub)
	}
	s.mu.Unlock()

	message := NewMessage(topic, msg)
	for _, sub := range subs {
		sub.signal(message)
	}
}

func (s *eventsStream) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, sub := range s.subs {
		sub.Shutdown()
	}
	clear(s.subs)
	clear(s.topics)
}
