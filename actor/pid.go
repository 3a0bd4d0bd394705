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
	"fmt"
	"runtime"
	"slices"
	"time"

	mapset "github.com/deckarep/golang-set/v2"
	"go.uber.org/atomic"

	"github.com/tochemey/gokernel/address"
	gerrors "github.com/tochemey/gokernel/errors"
	"github.com/tochemey/gokernel/log"
	"github.com/tochemey/gokernel/supervisor"
)

// State is the lifecycle state of an actor
type State int32

const (
	// Starting actors are running PreStart
	Starting State = iota
	// Running actors handle messages
	Running
	// Restarting actors are replacing a failed instance
	Restarting
	// Stopped is terminal
	Stopped
)

// String returns the string representation of the state
func (s State) String() string {
	switch s {
	case Starting:
		return "Starting"
	case Running:
		return "Running"
	case Restarting:
		return "Restarting"
	case Stopped:
		return "Stopped"
	default:
		return fmt.Sprintf("State(%d)", int32(s))
	}
}

// processing states of the mailbox loop
const (
	idle int32 = iota
	busy
)

// ActorStats is a snapshot of an actor record
type ActorStats struct {
	Address        *address.Address
	Parent         *address.Address
	Name           string
	State          State
	Children       []*address.Address
	RestartCount   uint64
	ProcessedCount uint64
	MailboxSize    int64
}

// pid is the record of a live actor. Records are owned by the actor system
// table and keyed by instance number; parents and children only refer to each
// other by address.
type pid struct {
	address  *address.Address
	parent   *address.Address
	name     string
	system   *actorSystem
	producer Producer
	// actor is only touched by the mailbox loop once the actor has started
	actor   Actor
	mailbox Mailbox

	processing *atomic.Int32
	state      *atomic.Int32

	// children holds instance numbers and is only mutated by the mailbox loop
	children mapset.Set[uint64]
	// wakeups holds the keys of the pending wakeup jobs
	wakeups mapset.Set[string]

	restarts  *atomic.Uint64
	processed *atomic.Uint64

	logger  log.Logger
	stopped chan struct{}
}

func newPID(system *actorSystem, addr, parent *address.Address, producer Producer, instance Actor, config *createConfig) *pid {
	return &pid{
		address:    addr,
		parent:     parent,
		name:       config.name,
		system:     system,
		producer:   producer,
		actor:      instance,
		mailbox:    config.mailbox,
		processing: atomic.NewInt32(idle),
		state:      atomic.NewInt32(int32(Starting)),
		children:   mapset.NewSet[uint64](),
		wakeups:    mapset.NewSet[string](),
		restarts:   atomic.NewUint64(0),
		processed:  atomic.NewUint64(0),
		logger:     system.logger.With("actor", addr.String()),
		stopped:    make(chan struct{}),
	}
}

// State returns the lifecycle state of the actor
func (p *pid) State() State {
	return State(p.state.Load())
}

func (p *pid) isStopped() bool {
	return p.State() == Stopped
}

func (p *pid) childrenAddresses() []*address.Address {
	instances := p.children.ToSlice()
	slices.Sort(instances)
	out := make([]*address.Address, 0, len(instances))
	for _, instance := range instances {
		out = append(out, p.system.manager.GetLocalAddress(instance))
	}
	return out
}

func (p *pid) stats() *ActorStats {
	return &ActorStats{
		Address:        p.address,
		Parent:         p.parent,
		Name:           p.name,
		State:          p.State(),
		Children:       p.childrenAddresses(),
		RestartCount:   p.restarts.Load(),
		ProcessedCount: p.processed.Load(),
		MailboxSize:    p.mailbox.Len(),
	}
}

// enqueue pushes a message into the mailbox and makes sure a loop is running
func (p *pid) enqueue(received *ReceiveContext) {
	if err := p.mailbox.Enqueue(received); err != nil {
		p.logger.Warn(err)
		if received.deadLetter {
			return
		}
		p.system.deadLetter(received.ctx, received.sender, p.address, received.message, err)
		return
	}
	p.process()
}

// process drains the mailbox on its own goroutine. At most one loop runs per
// actor at any time.
func (p *pid) process() {
	if !p.processing.CompareAndSwap(idle, busy) {
		return
	}

	go func() {
		for {
			if received := p.mailbox.Dequeue(); received != nil {
				p.handle(received)
				continue
			}

			p.processing.Store(idle)

			// a producer may have enqueued between the last Dequeue and Store
			if !p.mailbox.IsEmpty() && p.processing.CompareAndSwap(idle, busy) {
				continue
			}
			return
		}
	}()
}

func (p *pid) handle(received *ReceiveContext) {
	if p.isStopped() {
		p.system.deadLetter(received.ctx, received.sender, p.address, received.message, errStopped)
		return
	}

	switch msg := received.message.(type) {
	case *ActorExitRequest:
		p.exit(received)
		return
	case *ChildActorExited:
		if msg.ChildAddress != nil && msg.ChildAddress.IsLocal() {
			p.children.Remove(msg.ChildAddress.InstanceNum())
		}
	}

	p.deliver(received)
}

// deliver runs the retry engine: a failed message is redelivered, to a fresh
// instance unless the supervisor says to resume, until it succeeds or the
// retry bound is exhausted and the message is poisoned.
func (p *pid) deliver(received *ReceiveContext) {
	for {
		err := p.invoke(received)
		if err == nil {
			received.state = delivered
			p.processed.Inc()
			return
		}

		received.failures++
		received.state = failed
		decision := p.system.supervisor.Decide(received.failures, err)
		p.logger.Warnf("failed to handle %T (failure %d, directive %s): %v",
			received.message, received.failures, decision.Directive, err)

		if decision.Directive == supervisor.RestartDirective {
			if rebuildErr := p.rebuild(received.ctx, err); rebuildErr != nil {
				p.logger.Errorf("failed to rebuild the actor instance: %v", rebuildErr)
				p.poison(received, err)
				p.terminate(received.ctx, rebuildErr)
				return
			}
		}

		if decision.Poison {
			p.poison(received, err)
			return
		}
	}
}

// invoke calls Receive and turns a panic into a PanicError
func (p *pid) invoke(received *ReceiveContext) (err error) {
	received.resetError()
	defer func() {
		if r := recover(); r != nil {
			err = toPanicError(r)
		}
	}()

	p.actor.Receive(received)
	return received.getError()
}

// rebuild discards the current instance and starts a fresh one
func (p *pid) rebuild(ctx context.Context, cause error) error {
	p.state.Store(int32(Restarting))
	if err := safely(func() error { return p.actor.PostStop(ctx) }); err != nil {
		p.logger.Warnf("failed to stop the failed instance: %v", err)
	}

	instance, err := build(p.producer)
	if errors.Is(err, gerrors.ErrUndefinedActor) {
		return err
	}

	if err == nil {
		err = safely(func() error { return instance.PreStart(ctx) })
	}

	if err != nil {
		return gerrors.NewErrInitFailure(err)
	}

	p.actor = instance
	p.restarts.Inc()
	p.system.restarts.Inc()
	p.state.Store(int32(Running))
	p.system.publish(&ActorRestarted{Address: p.address, RestartedAt: time.Now().UTC(), Cause: cause})
	return nil
}

// poison returns the message to its original sender
func (p *pid) poison(received *ReceiveContext, cause error) {
	received.state = poisoned
	p.system.poisoned.Inc()

	ctx := received.ctx
	message := &PoisonMessage{PoisonMessage: received.message, Details: cause}
	p.system.publish(&MessagePoisoned{
		Address:  p.address,
		Sender:   received.sender,
		Message:  received.message,
		Failures: received.failures,
		Cause:    cause,
	})

	switch {
	case received.deadLetter:
		p.logger.Errorf("dropping dead letter %T that failed %d times", received.message, received.failures)
		return
	case isPoison(received.message):
		p.system.deadLetter(ctx, received.sender, p.address, received.message, errPoisoned)
		return
	case received.sender == nil:
		p.system.deadLetter(ctx, p.address, nil, message, errNoSender)
		return
	}

	var from *address.Address
	if !received.sender.Equals(p.address) {
		from = p.address
	}

	if err := p.system.send(ctx, from, received.sender, message); err != nil {
		p.logger.Errorf("failed to return poison message to %s: %v", received.sender, err)
	}
}

// exit runs the cleanup of the actor and stops it whatever the outcome
func (p *pid) exit(received *ReceiveContext) {
	if err := p.invoke(received); err != nil {
		p.logger.Warnf("exit request handler failed: %v", err)
	}

	if err := safely(func() error { return p.actor.PostStop(received.ctx) }); err != nil {
		p.logger.Warnf("failed to stop: %v", err)
	}

	p.terminate(received.ctx, nil)
}

// terminate removes the actor for good and notifies its parent. It runs once.
func (p *pid) terminate(ctx context.Context, cause error) {
	if State(p.state.Swap(int32(Stopped))) == Stopped {
		return
	}

	system := p.system
	system.manager.DeadAddress(p.address)
	system.actors.Delete(p.address.InstanceNum())
	system.releaseDeadLetters(p)
	p.cancelWakeups()

	if p.parent != nil {
		if err := system.send(ctx, p.address, p.parent, &ChildActorExited{ChildAddress: p.address}); err != nil {
			p.logger.Warnf("failed to notify parent %s: %v", p.parent, err)
		}
	}

	system.publish(&ActorStopped{Address: p.address, StoppedAt: time.Now().UTC(), Cause: cause})
	p.logger.Debug("actor stopped")
	close(p.stopped)
}

func isPoison(message any) bool {
	_, ok := message.(*PoisonMessage)
	return ok
}

// safely runs fn and turns a panic into a PanicError
func safely(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = toPanicError(r)
		}
	}()
	return fn()
}

// toPanicError wraps a recovered value with the location of the panic.
// It must be called from the deferred function doing the recover.
func toPanicError(r any) error {
	if err, ok := r.(error); ok {
		var pe *gerrors.PanicError
		if errors.As(err, &pe) {
			return pe
		}
		pc, fn, line, _ := runtime.Caller(3)
		return gerrors.NewPanicError(fmt.Errorf("%w at %s[%s:%d]", err, runtime.FuncForPC(pc).Name(), fn, line))
	}

	pc, fn, line, _ := runtime.Caller(3)
	return gerrors.NewPanicError(fmt.Errorf("%#v at %s[%s:%d]", r, runtime.FuncForPC(pc).Name(), fn, line))
}
