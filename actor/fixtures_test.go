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
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/atomic"

	"github.com/tochemey/gokernel/address"
	"github.com/tochemey/gokernel/log"
)

var (
	errRejected = errors.New("message rejected")
	errStart    = errors.New("failed to start")
)

// newTestSystem starts an actor system stopped at the end of the test
func newTestSystem(t *testing.T, name string, opts ...Option) ActorSystem {
	t.Helper()
	opts = append([]Option{WithLogger(log.DiscardLogger)}, opts...)
	system, err := NewActorSystem(name, opts...)
	require.NoError(t, err)
	require.NoError(t, system.Start(context.Background()))
	t.Cleanup(func() {
		if system.Running() {
			require.NoError(t, system.Stop(context.Background()))
		}
	})
	return system
}

// recorder collects values from actor goroutines
type recorder struct {
	mu    sync.Mutex
	items []any
}

func (r *recorder) add(item any) {
	r.mu.Lock()
	r.items = append(r.items, item)
	r.mu.Unlock()
}

func (r *recorder) all() []any {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]any(nil), r.items...)
}

func (r *recorder) len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.items)
}

// letter is a message received together with its sender
type letter struct {
	message any
	sender  *address.Address
}

// greeter answers "Hello" with "hi", doubles integers and rejects 3
type greeter struct {
	handlers *Handlers
}

var _ Actor = (*greeter)(nil)

func newGreeter() Actor {
	g := &greeter{handlers: NewHandlers()}
	On(g.handlers, func(ctx *ReceiveContext, msg string) {
		if msg == "Hello" {
			ctx.Reply("hi")
			return
		}
		ctx.Reply(msg)
	})
	On(g.handlers, func(ctx *ReceiveContext, msg int) {
		if msg == 3 {
			ctx.Err(errRejected)
			return
		}
		ctx.Reply(msg * 2)
	})
	return g
}

func (g *greeter) PreStart(context.Context) error { return nil }
func (g *greeter) Receive(ctx *ReceiveContext)    { g.handlers.Handle(ctx) }
func (g *greeter) PostStop(context.Context) error { return nil }

// flaky fails the first failures deliveries of "flaky", counted across
// instances, then replies "ok"
type flaky struct {
	attempts *atomic.Int32
	failures int32
}

var _ Actor = (*flaky)(nil)

func (f *flaky) PreStart(context.Context) error { return nil }
func (f *flaky) PostStop(context.Context) error { return nil }

func (f *flaky) Receive(ctx *ReceiveContext) {
	switch ctx.Message() {
	case "flaky":
		if f.attempts.Inc() <= f.failures {
			ctx.Err(errRejected)
			return
		}
		ctx.Reply("ok")
	case "boom":
		panic("boom")
	default:
		ctx.Unhandled()
	}
}

// stubborn fails every message, poison messages included
type stubborn struct {
	received *recorder
}

var _ Actor = (*stubborn)(nil)

func (s *stubborn) PreStart(context.Context) error { return nil }
func (s *stubborn) PostStop(context.Context) error { return nil }

func (s *stubborn) Receive(ctx *ReceiveContext) {
	switch msg := ctx.Message().(type) {
	case *ActorExitRequest:
	case *sendToSelf:
		ctx.Send(ctx.Self(), msg.message)
	default:
		s.received.add(letter{message: msg, sender: ctx.Sender()})
		ctx.Err(errRejected)
	}
}

type sendToSelf struct {
	message any
}

// collector records every message it receives. It also drives the dead
// letters registration.
type collector struct {
	received *recorder
}

var _ Actor = (*collector)(nil)

type enableDeadLetters struct{}
type disableDeadLetters struct{}

func (c *collector) PreStart(context.Context) error { return nil }
func (c *collector) PostStop(context.Context) error { return nil }

func (c *collector) Receive(ctx *ReceiveContext) {
	switch ctx.Message().(type) {
	case *enableDeadLetters:
		ctx.HandleDeadLetters(true)
		ctx.Reply(true)
	case *disableDeadLetters:
		ctx.HandleDeadLetters(false)
		ctx.Reply(true)
	case *ActorExitRequest:
	default:
		c.received.add(letter{message: ctx.Message(), sender: ctx.Sender()})
	}
}

// sleeper counts its wakeups. When timeline is set it records when every
// sleep was asked and every wakeup handled.
type sleeper struct {
	wakeups  *atomic.Int32
	timeline *recorder
}

// timed marks a sleep or a wakeup of the given delay
type timed struct {
	wakeup bool
	delay  time.Duration
	at     time.Time
}

var _ Actor = (*sleeper)(nil)

type sleep struct {
	delay time.Duration
}

func (s *sleeper) PreStart(context.Context) error { return nil }
func (s *sleeper) PostStop(context.Context) error { return nil }

func (s *sleeper) Receive(ctx *ReceiveContext) {
	switch msg := ctx.Message().(type) {
	case *sleep:
		if s.timeline != nil {
			s.timeline.add(timed{delay: msg.delay, at: time.Now()})
		}
		ctx.WakeupAfter(msg.delay)
	case *WakeupMessage:
		if s.timeline != nil {
			s.timeline.add(timed{wakeup: true, delay: msg.DelayPeriod, at: time.Now()})
		}
		s.wakeups.Inc()
	case string:
		ctx.Reply(msg)
	}
}

// parent creates children on demand and records their exits
type parent struct {
	exits *recorder
}

var _ Actor = (*parent)(nil)

type createChild struct {
	producer Producer
	opts     []CreateOption
}

type getChildren struct{}

func (p *parent) PreStart(context.Context) error { return nil }
func (p *parent) PostStop(context.Context) error { return nil }

func (p *parent) Receive(ctx *ReceiveContext) {
	switch msg := ctx.Message().(type) {
	case *createChild:
		child, err := ctx.CreateActor(msg.producer, msg.opts...)
		if err != nil {
			ctx.Reply(err)
			return
		}
		ctx.Reply(child)
	case *getChildren:
		ctx.Reply(ctx.Children())
	case *ChildActorExited:
		p.exits.add(msg.ChildAddress)
	}
}

// failingStart cannot start
type failingStart struct{}

var _ Actor = (*failingStart)(nil)

func (failingStart) PreStart(context.Context) error { return errStart }
func (failingStart) Receive(*ReceiveContext)        {}
func (failingStart) PostStop(context.Context) error { return nil }

// exiter records its cleanup. The exit handler fails when failExit is set.
type exiter struct {
	cleanups *atomic.Int32
	stops    *atomic.Int32
	failExit bool
}

var _ Actor = (*exiter)(nil)

type exitNow struct{}

func (e *exiter) PreStart(context.Context) error { return nil }

func (e *exiter) Receive(ctx *ReceiveContext) {
	switch ctx.Message().(type) {
	case *ActorExitRequest:
		e.cleanups.Inc()
		if e.failExit {
			panic("cleanup failed")
		}
	case *exitNow:
		ctx.Exit()
	case string:
		ctx.Reply(ctx.Message())
	}
}

func (e *exiter) PostStop(context.Context) error {
	e.stops.Inc()
	return nil
}

// gpuActor only runs where a gpu is available
type gpuActor struct {
	greeter
}

func (gpuActor) CheckCapabilities(capabilities map[string]any) bool {
	return capabilities["gpu"] == true
}

func newGPUActor() Actor {
	return &gpuActor{greeter: *newGreeter().(*greeter)}
}
