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
	"time"

	"github.com/tochemey/gokernel/address"
	gerrors "github.com/tochemey/gokernel/errors"
	"github.com/tochemey/gokernel/placement"
)

// spawn creates an actor. parent is nil for a top-level actor; a child is
// always created from its parent mailbox loop, which owns the children set.
//
// An actor with requirements is placed before it is built, so an actor created
// on a remote actor system is never built here. An actor without requirements
// is built first since only the instance tells whether it checks capabilities.
//
// A top-level actor failing to build or start returns its address, already
// dead, with an error matching errors.ErrInitFailure. A child failing to build
// or start is only reported to its parent with a ChildActorExited message.
func (x *actorSystem) spawn(ctx context.Context, producer Producer, parent *pid, opts ...CreateOption) (*address.Address, error) {
	if !x.started.Load() {
		return nil, gerrors.ErrActorSystemNotStarted
	}

	if producer == nil {
		return nil, gerrors.ErrUndefinedActor
	}

	config := newCreateConfig(opts...)
	request := &placement.Request{Name: config.name, Requirements: config.requirements}
	if len(request.Requirements) > 0 {
		placed, err := x.place(ctx, request, true)
		if err != nil || placed != nil {
			return placed, err
		}
	}

	instance, buildErr := build(producer)
	if errors.Is(buildErr, gerrors.ErrUndefinedActor) {
		return nil, buildErr
	}

	if checker, ok := instance.(CapabilityChecker); ok {
		request.Check = checker.CheckCapabilities
		// with requirements this actor system was already chosen, only the check is left
		if len(request.Requirements) == 0 || !placement.Compatible(request, x.Capabilities()) {
			placed, err := x.place(ctx, request, len(request.Requirements) == 0)
			if err != nil || placed != nil {
				return placed, err
			}
		}
	}

	addr := x.manager.CreateLocalAddress()
	var parentAddr *address.Address
	if parent != nil {
		parentAddr = parent.address
	}

	p := newPID(x, addr, parentAddr, producer, instance, config)
	x.actors.Set(addr.InstanceNum(), p)
	if parent != nil {
		parent.children.Add(addr.InstanceNum())
	}

	startErr := buildErr
	if startErr == nil {
		startErr = safely(func() error { return instance.PreStart(ctx) })
	}

	if err := startErr; err != nil {
		p.logger.Errorf("failed to start: %v", err)
		p.terminate(ctx, err)
		if parent != nil {
			return addr, nil
		}
		return addr, gerrors.NewErrInitFailure(err)
	}

	x.associate(addr)
	p.state.Store(int32(Running))
	x.publish(&ActorStarted{Address: addr, StartedAt: time.Now().UTC()})
	p.logger.Debug("actor started")
	return addr, nil
}

// place resolves where an actor goes. It returns the address of the actor
// when it has been created on a remote actor system and nil when the actor
// belongs here. includeLocal offers this actor system as a candidate.
func (x *actorSystem) place(ctx context.Context, request *placement.Request, includeLocal bool) (*address.Address, error) {
	candidates := make([]*placement.Candidate, 0, 1)
	if includeLocal {
		candidates = append(candidates, &placement.Candidate{SystemID: x.id, Capabilities: x.Capabilities(), Local: true})
	}

	if x.directory != nil {
		remotes, err := x.directory.Candidates(ctx)
		if err != nil {
			x.logger.Warnf("failed to list placement candidates: %v", err)
		}
		candidates = append(candidates, remotes...)
	}

	chosen, err := x.resolver.Resolve(ctx, request, candidates)
	if err != nil {
		return nil, err
	}

	if chosen.Local {
		return nil, nil
	}

	if x.remoteCreator == nil {
		return nil, gerrors.NewErrNoCompatibleSystem(request.Requirements)
	}

	addr, err := x.remoteCreator.Place(ctx, chosen, request)
	if err != nil {
		return nil, err
	}

	x.logger.Debugf("actor placed on %s at %s", chosen.SystemID, addr)
	return x.manager.ImportAddr(addr), nil
}

// build runs the producer. A panic comes back as a PanicError and a nil
// actor as errors.ErrUndefinedActor.
func build(producer Producer) (instance Actor, err error) {
	if err := safely(func() error {
		instance = producer()
		return nil
	}); err != nil {
		return nil, err
	}

	if instance == nil {
		return nil, gerrors.ErrUndefinedActor
	}
	return instance, nil
}
