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
	"time"

	"github.com/google/uuid"
	otelmetric "go.opentelemetry.io/otel/metric"
	"go.uber.org/atomic"
	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"

	"github.com/tochemey/gokernel/address"
	gerrors "github.com/tochemey/gokernel/errors"
	"github.com/tochemey/gokernel/internal/eventstream"
	"github.com/tochemey/gokernel/internal/metric"
	"github.com/tochemey/gokernel/internal/validation"
	"github.com/tochemey/gokernel/internal/xsync"
	"github.com/tochemey/gokernel/log"
	"github.com/tochemey/gokernel/placement"
	"github.com/tochemey/gokernel/remote"
	"github.com/tochemey/gokernel/supervisor"
	"github.com/tochemey/gokernel/transport"
)

const (
	// DefaultAskTimeout is the wait of Ask when no timeout is given
	DefaultAskTimeout = 5 * time.Second
	// DefaultShutdownTimeout bounds Stop
	DefaultShutdownTimeout = 30 * time.Second

	systemNamePattern = `^[a-zA-Z0-9][a-zA-Z0-9-_]*$`
)

// ActorSystem hosts actors and routes the messages between them
type ActorSystem interface {
	// Name returns the actor system name
	Name() string
	// ID returns the unique id of this run of the actor system.
	// It is the generating system of every local address the system mints.
	ID() string
	// Start starts the actor system
	Start(ctx context.Context) error
	// Stop asks every actor to exit, waits for them within the shutdown
	// timeout and releases the actor system resources
	Stop(ctx context.Context) error
	// Running reports whether the actor system has started and is not stopped
	Running() bool
	// CreateActor creates a top-level actor
	CreateActor(ctx context.Context, producer Producer, opts ...CreateOption) (*address.Address, error)
	// Send sends message to the actor at to without a sender. Sending to a
	// gone actor is not an error; the message becomes a dead letter.
	Send(ctx context.Context, to *address.Address, message any) error
	// Ask sends message and waits for a reply. A timeout returns nil.
	Ask(ctx context.Context, to *address.Address, message any, timeout time.Duration) (any, error)
	// AddressManager returns the manager of the addresses minted by the system
	AddressManager() *address.Manager
	// Capabilities returns a copy of the actor system capabilities
	Capabilities() map[string]any
	// UpdateCapability sets a capability. A nil value removes it.
	UpdateCapability(name string, value any)
	// Stats returns a snapshot of the live actor at addr
	Stats(addr *address.Address) (*ActorStats, error)
	// Subscribe creates a subscriber of the system events
	Subscribe() (eventstream.Subscriber, error)
	// Unsubscribe removes a subscriber of the system events
	Unsubscribe(subscriber eventstream.Subscriber) error
	// ActorsCount returns the number of live actors
	ActorsCount() int64
	// DeadLettersCount returns the number of dead letters so far
	DeadLettersCount() int64
	// PoisonCount returns the number of poisoned messages so far
	PoisonCount() int64
	// RestartsCount returns the number of rebuilt actor instances so far
	RestartsCount() int64
	// Logger returns the actor system logger
	Logger() log.Logger
}

// actorSystem is the default ActorSystem
type actorSystem struct {
	name string
	id   string

	manager *address.Manager
	// actors is the arena of actor records, keyed by instance number
	actors *xsync.Map[uint64, *pid]
	// askEndpoints holds the reply channels of the pending asks
	askEndpoints *xsync.Map[uint64, chan any]
	capabilities *xsync.Map[string, any]

	// instance number of the dead letters handler, zero when there is none
	deadLetterHandler *atomic.Uint64

	supervisor    *supervisor.Supervisor
	scheduler     *wakeupScheduler
	transport     transport.Transport
	serializer    remote.Serializer
	compression   remote.Compression
	resolver      placement.Resolver
	directory     placement.Directory
	remoteCreator placement.RemoteCreator

	eventStream  eventstream.Stream
	meter        otelmetric.Meter
	registration otelmetric.Registration

	deadLetters *atomic.Int64
	poisoned    *atomic.Int64
	restarts    *atomic.Int64

	askTimeout      time.Duration
	shutdownTimeout time.Duration

	logger  log.Logger
	started *atomic.Bool
}

var (
	_ ActorSystem    = (*actorSystem)(nil)
	_ metric.Stats   = (*actorSystem)(nil)
	_ placement.Host = (*actorSystem)(nil)
)

// NewActorSystem creates an actor system. Call Start before using it.
func NewActorSystem(name string, opts ...Option) (ActorSystem, error) {
	if err := validation.New(validation.FailFast()).
		AddValidator(validation.NewEmptyStringValidator("name", name)).
		AddValidator(validation.NewPatternValidator(systemNamePattern, name, gerrors.ErrInvalidActorSystemName)).
		Validate(); err != nil {
		return nil, err
	}

	id := name + "-" + uuid.NewString()
	system := &actorSystem{
		name:              name,
		id:                id,
		manager:           address.NewManager(id),
		actors:            xsync.NewMap[uint64, *pid](),
		askEndpoints:      xsync.NewMap[uint64, chan any](),
		capabilities:      xsync.NewMap[string, any](),
		deadLetterHandler: atomic.NewUint64(0),
		supervisor:        supervisor.NewSupervisor(),
		serializer:        remote.NewDefaultSerializer(),
		resolver:          placement.NewCapabilityResolver(),
		eventStream:       eventstream.New(),
		deadLetters:       atomic.NewInt64(0),
		poisoned:          atomic.NewInt64(0),
		restarts:          atomic.NewInt64(0),
		askTimeout:        DefaultAskTimeout,
		shutdownTimeout:   DefaultShutdownTimeout,
		logger:            log.DefaultLogger,
		started:           atomic.NewBool(false),
	}

	for _, opt := range opts {
		opt.Apply(system)
	}

	if system.askTimeout <= 0 || system.shutdownTimeout <= 0 {
		return nil, gerrors.ErrInvalidTimeout
	}

	system.scheduler = newWakeupScheduler(system.logger, system.shutdownTimeout)
	return system, nil
}

// Name implements ActorSystem
func (x *actorSystem) Name() string {
	return x.name
}

// ID implements ActorSystem
func (x *actorSystem) ID() string {
	return x.id
}

// Start implements ActorSystem
func (x *actorSystem) Start(ctx context.Context) error {
	if !x.started.CompareAndSwap(false, true) {
		return gerrors.ErrActorSystemAlreadyStarted
	}

	x.logger.Infof("starting actor system %s...", x.name)
	x.scheduler.Start(ctx)

	if x.transport != nil {
		x.transport.OnReceive(x.onFrame)
		if err := x.transport.Start(ctx); err != nil {
			x.scheduler.Stop(ctx)
			x.started.Store(false)
			return fmt.Errorf("failed to start the transport: %w", err)
		}
	}

	if x.meter != nil {
		if err := x.registerMetrics(); err != nil {
			x.started.Store(false)
			return multierr.Combine(err, x.stopServices(ctx))
		}
	}

	if advertiser, ok := x.directory.(placement.Advertiser); ok {
		if err := advertiser.Advertise(ctx, x); err != nil {
			x.started.Store(false)
			return multierr.Combine(fmt.Errorf("failed to advertise the actor system: %w", err), x.stopServices(ctx))
		}
	}

	x.logger.Infof("actor system %s started", x.name)
	return nil
}

// Stop implements ActorSystem
func (x *actorSystem) Stop(ctx context.Context) error {
	if !x.started.CompareAndSwap(true, false) {
		return gerrors.ErrActorSystemNotStarted
	}

	x.logger.Infof("stopping actor system %s...", x.name)
	ctx, cancel := context.WithTimeout(ctx, x.shutdownTimeout)
	defer cancel()

	eg := new(errgroup.Group)
	for _, p := range x.actors.Values() {
		p.enqueue(newReceiveContext(ctx, nil, p, new(ActorExitRequest)))
		eg.Go(func() error {
			select {
			case <-p.stopped:
				return nil
			case <-ctx.Done():
				return fmt.Errorf("actor %s did not stop: %w", p.address, ctx.Err())
			}
		})
	}

	err := eg.Wait()
	if left := x.actors.Len(); left > 0 {
		x.logger.Warnf("%d actors still alive after shutdown", left)
	}

	if err = multierr.Combine(err, x.stopServices(ctx)); err != nil {
		x.logger.Errorf("actor system %s stopped with errors: %v", x.name, err)
		return err
	}

	x.logger.Infof("actor system %s stopped", x.name)
	return nil
}

// stopServices releases everything but the actors
func (x *actorSystem) stopServices(ctx context.Context) error {
	var err error
	x.scheduler.Stop(ctx)

	if x.registration != nil {
		err = multierr.Append(err, x.registration.Unregister())
		x.registration = nil
	}

	if advertiser, ok := x.directory.(placement.Advertiser); ok {
		err = multierr.Append(err, advertiser.Withdraw(ctx))
	}

	if x.transport != nil {
		err = multierr.Append(err, x.transport.Stop(ctx))
	}

	x.eventStream.Close()
	return err
}

// Running implements ActorSystem
func (x *actorSystem) Running() bool {
	return x.started.Load()
}

// CreateActor implements ActorSystem
func (x *actorSystem) CreateActor(ctx context.Context, producer Producer, opts ...CreateOption) (*address.Address, error) {
	return x.spawn(ctx, producer, nil, opts...)
}

// Send implements ActorSystem
func (x *actorSystem) Send(ctx context.Context, to *address.Address, message any) error {
	if !x.started.Load() {
		return gerrors.ErrActorSystemNotStarted
	}
	return x.send(ctx, nil, to, message)
}

// AddressManager implements ActorSystem
func (x *actorSystem) AddressManager() *address.Manager {
	return x.manager
}

// Capabilities implements ActorSystem
func (x *actorSystem) Capabilities() map[string]any {
	capabilities := make(map[string]any, x.capabilities.Len())
	x.capabilities.Range(func(name string, value any) {
		capabilities[name] = value
	})
	return capabilities
}

// UpdateCapability implements ActorSystem
func (x *actorSystem) UpdateCapability(name string, value any) {
	if value == nil {
		x.capabilities.Delete(name)
		return
	}
	x.capabilities.Set(name, value)
}

// Stats implements ActorSystem
func (x *actorSystem) Stats(addr *address.Address) (*ActorStats, error) {
	instance, ok := x.manager.LocalInstance(addr)
	if !ok {
		return nil, gerrors.ErrAddressNotFound
	}

	p, ok := x.actors.Get(instance)
	if !ok {
		return nil, gerrors.ErrAddressNotFound
	}
	return p.stats(), nil
}

// Subscribe implements ActorSystem
func (x *actorSystem) Subscribe() (eventstream.Subscriber, error) {
	if !x.started.Load() {
		return nil, gerrors.ErrActorSystemNotStarted
	}
	subscriber := x.eventStream.AddSubscriber()
	x.eventStream.Subscribe(subscriber, eventsTopic)
	return subscriber, nil
}

// Unsubscribe implements ActorSystem
func (x *actorSystem) Unsubscribe(subscriber eventstream.Subscriber) error {
	if !x.started.Load() {
		return gerrors.ErrActorSystemNotStarted
	}
	x.eventStream.Unsubscribe(subscriber, eventsTopic)
	x.eventStream.RemoveSubscriber(subscriber)
	return nil
}

// ActorsCount implements ActorSystem
func (x *actorSystem) ActorsCount() int64 {
	return int64(x.actors.Len())
}

// DeadLettersCount implements ActorSystem
func (x *actorSystem) DeadLettersCount() int64 {
	return x.deadLetters.Load()
}

// PoisonCount implements ActorSystem
func (x *actorSystem) PoisonCount() int64 {
	return x.poisoned.Load()
}

// RestartsCount implements ActorSystem
func (x *actorSystem) RestartsCount() int64 {
	return x.restarts.Load()
}

// Logger implements ActorSystem
func (x *actorSystem) Logger() log.Logger {
	return x.logger
}

// send routes a message from the kernel or an actor. Destinations that do
// not resolve to a live actor turn the message into a dead letter; the only
// errors are invalid input and messages that cannot leave the actor system.
func (x *actorSystem) send(ctx context.Context, from, to *address.Address, message any) error {
	if message == nil || to == nil {
		return gerrors.ErrInvalidMessage
	}

	to = x.manager.ImportAddr(to)
	if x.manager.IsDeadAddress(to) {
		x.deadLetter(ctx, from, to, message, errStopped)
		return nil
	}

	if instance, ok := x.manager.LocalInstance(to); ok {
		x.deliverTo(ctx, from, to, instance, message)
		return nil
	}

	destination := x.manager.SendToAddress(to)
	if destination == nil {
		x.deadLetter(ctx, from, to, message, errNoRoute)
		return nil
	}

	if err := x.sendRemote(ctx, from, destination, message); err != nil {
		x.deadLetter(ctx, from, to, message, err)
		if errors.Is(err, gerrors.ErrCannotPickle) {
			x.logger.Errorf("failed to send %T to %s: %v", message, to, err)
			return err
		}
		x.logger.Warnf("failed to send %T to %s: %v", message, to, err)
	}
	return nil
}

// deliverLocal routes an inbound message to an actor of this system only
func (x *actorSystem) deliverLocal(ctx context.Context, from, to *address.Address, message any) {
	if x.manager.IsDeadAddress(to) {
		x.deadLetter(ctx, from, to, message, errStopped)
		return
	}

	instance, ok := x.manager.LocalInstance(to)
	if !ok {
		x.deadLetter(ctx, from, to, message, errNotFound)
		return
	}
	x.deliverTo(ctx, from, to, instance, message)
}

func (x *actorSystem) deliverTo(ctx context.Context, from, to *address.Address, instance uint64, message any) {
	if replies, ok := x.askEndpoints.LoadAndDelete(instance); ok {
		replies <- message
		return
	}

	if p, ok := x.actors.Get(instance); ok {
		p.enqueue(newReceiveContext(ctx, from, p, message))
		return
	}

	x.deadLetter(ctx, from, to, message, errNotFound)
}

func (x *actorSystem) publish(event any) {
	x.eventStream.Publish(eventsTopic, event)
}

func (x *actorSystem) registerMetrics() error {
	instruments, err := metric.NewSystemMetric(x.meter)
	if err != nil {
		return err
	}

	registration, err := instruments.Register(x.meter, x)
	if err != nil {
		return err
	}
	x.registration = registration
	return nil
}
