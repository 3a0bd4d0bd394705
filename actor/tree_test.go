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
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/atomic"

	"github.com/tochemey/gokernel/address"
	gerrors "github.com/tochemey/gokernel/errors"
	"github.com/tochemey/gokernel/log"
	"github.com/tochemey/gokernel/placement"
)

type fakeCreator struct {
	placed *recorder
	addr   *address.Address
}

func (f *fakeCreator) Place(_ context.Context, target *placement.Candidate, _ *placement.Request) (*address.Address, error) {
	f.placed.add(target.SystemID)
	return f.addr, nil
}

func TestCreateActor(t *testing.T) {
	t.Run("With child", func(t *testing.T) {
		ctx := context.Background()
		system := newTestSystem(t, "tree")

		exits := new(recorder)
		parentAddr, err := system.CreateActor(ctx, func() Actor { return &parent{exits: exits} })
		require.NoError(t, err)

		reply, err := system.Ask(ctx, parentAddr, &createChild{producer: newGreeter, opts: []CreateOption{WithName("greeter")}}, time.Second)
		require.NoError(t, err)
		child, ok := reply.(*address.Address)
		require.True(t, ok)

		reply, err = system.Ask(ctx, parentAddr, new(getChildren), time.Second)
		require.NoError(t, err)
		children := reply.([]*address.Address)
		require.Len(t, children, 1)
		assert.True(t, child.Equals(children[0]))

		stats, err := system.Stats(child)
		require.NoError(t, err)
		assert.True(t, parentAddr.Equals(stats.Parent))
		assert.Equal(t, "greeter", stats.Name)

		reply, err = system.Ask(ctx, child, "Hello", time.Second)
		require.NoError(t, err)
		assert.Equal(t, "hi", reply)

		require.NoError(t, system.Send(ctx, child, new(ActorExitRequest)))
		require.Eventually(t, func() bool { return exits.len() == 1 }, time.Second, 10*time.Millisecond)
		assert.True(t, child.Equals(exits.all()[0].(*address.Address)))

		reply, err = system.Ask(ctx, parentAddr, new(getChildren), time.Second)
		require.NoError(t, err)
		assert.Empty(t, reply)
	})
	t.Run("With child failing to start", func(t *testing.T) {
		ctx := context.Background()
		system := newTestSystem(t, "tree")

		exits := new(recorder)
		parentAddr, err := system.CreateActor(ctx, func() Actor { return &parent{exits: exits} })
		require.NoError(t, err)

		builds := atomic.NewInt32(0)
		producer := func() Actor {
			builds.Inc()
			return failingStart{}
		}

		reply, err := system.Ask(ctx, parentAddr, &createChild{producer: producer}, time.Second)
		require.NoError(t, err)
		child, ok := reply.(*address.Address)
		require.True(t, ok)

		require.Eventually(t, func() bool { return exits.len() == 1 }, time.Second, 10*time.Millisecond)
		assert.True(t, child.Equals(exits.all()[0].(*address.Address)))

		// exactly one notification and no recreation
		time.Sleep(50 * time.Millisecond)
		assert.Equal(t, 1, exits.len())
		assert.EqualValues(t, 1, builds.Load())

		reply, err = system.Ask(ctx, parentAddr, new(getChildren), time.Second)
		require.NoError(t, err)
		assert.Empty(t, reply)
	})
	t.Run("With top-level actor failing to start", func(t *testing.T) {
		ctx := context.Background()
		system := newTestSystem(t, "tree")

		addr, err := system.CreateActor(ctx, func() Actor { return failingStart{} })
		require.ErrorIs(t, err, gerrors.ErrInitFailure)
		assert.ErrorIs(t, err, errStart)
		require.NotNil(t, addr)
		assert.True(t, system.AddressManager().IsDeadAddress(addr))
		assert.Zero(t, system.ActorsCount())
	})
	t.Run("With panic at start", func(t *testing.T) {
		ctx := context.Background()
		system := newTestSystem(t, "tree")

		_, err := system.CreateActor(ctx, func() Actor { return panickingStart{} })
		require.ErrorIs(t, err, gerrors.ErrInitFailure)
		var panicErr *gerrors.PanicError
		assert.ErrorAs(t, err, &panicErr)
	})
	t.Run("With panic in the producer", func(t *testing.T) {
		ctx := context.Background()
		system := newTestSystem(t, "tree")

		addr, err := system.CreateActor(ctx, func() Actor { panic("constructor failed") })
		require.Error(t, err)
		assert.ErrorIs(t, err, gerrors.ErrInitFailure)
		var panicErr *gerrors.PanicError
		assert.ErrorAs(t, err, &panicErr)
		require.NotNil(t, addr)
		assert.True(t, system.AddressManager().IsDeadAddress(addr))
		assert.Zero(t, system.ActorsCount())
	})
	t.Run("With child panicking in the producer", func(t *testing.T) {
		ctx := context.Background()
		system := newTestSystem(t, "tree")

		exits := new(recorder)
		parentAddr, err := system.CreateActor(ctx, func() Actor { return &parent{exits: exits} })
		require.NoError(t, err)

		producer := func() Actor { panic("constructor failed") }
		reply, err := system.Ask(ctx, parentAddr, &createChild{producer: producer}, time.Second)
		require.NoError(t, err)
		child, ok := reply.(*address.Address)
		require.True(t, ok)

		require.Eventually(t, func() bool { return exits.len() == 1 }, time.Second, 10*time.Millisecond)
		assert.True(t, child.Equals(exits.all()[0].(*address.Address)))

		// the parent itself was neither failed nor rebuilt
		stats, err := system.Stats(parentAddr)
		require.NoError(t, err)
		assert.Zero(t, stats.RestartCount)
		assert.Empty(t, stats.Children)
	})
	t.Run("With undefined actor", func(t *testing.T) {
		ctx := context.Background()
		system := newTestSystem(t, "tree")

		_, err := system.CreateActor(ctx, nil)
		assert.ErrorIs(t, err, gerrors.ErrUndefinedActor)
		_, err = system.CreateActor(ctx, func() Actor { return nil })
		assert.ErrorIs(t, err, gerrors.ErrUndefinedActor)
	})
	t.Run("With actor system not started", func(t *testing.T) {
		system, err := NewActorSystem("tree", WithLogger(log.DiscardLogger))
		require.NoError(t, err)
		_, err = system.CreateActor(context.Background(), newGreeter)
		assert.ErrorIs(t, err, gerrors.ErrActorSystemNotStarted)
	})
	t.Run("With custom mailbox", func(t *testing.T) {
		ctx := context.Background()
		system := newTestSystem(t, "tree")

		mailbox := &countingMailbox{DefaultMailbox: NewDefaultMailbox(), enqueued: atomic.NewInt64(0)}
		addr, err := system.CreateActor(ctx, newGreeter, WithMailbox(mailbox))
		require.NoError(t, err)

		reply, err := system.Ask(ctx, addr, "Hello", time.Second)
		require.NoError(t, err)
		assert.Equal(t, "hi", reply)
		assert.EqualValues(t, 1, mailbox.enqueued.Load())
	})
	t.Run("With bounded mailbox overflow", func(t *testing.T) {
		ctx := context.Background()
		system := newTestSystem(t, "tree")

		release := make(chan struct{})
		received := new(recorder)
		addr, err := system.CreateActor(ctx, func() Actor { return &blocker{release: release, received: received} },
			WithMailbox(NewBoundedMailbox(MinBoundedMailboxCapacity)))
		require.NoError(t, err)

		require.NoError(t, system.Send(ctx, addr, 1))
		require.Eventually(t, func() bool { return received.len() == 1 }, time.Second, 5*time.Millisecond)

		// the first message holds the actor, the next two fill the mailbox
		require.NoError(t, system.Send(ctx, addr, 2))
		require.NoError(t, system.Send(ctx, addr, 3))
		require.NoError(t, system.Send(ctx, addr, 4))
		assert.EqualValues(t, 1, system.DeadLettersCount())

		close(release)
		require.Eventually(t, func() bool { return received.len() == 3 }, time.Second, 5*time.Millisecond)
		assert.Equal(t, []any{1, 2, 3}, received.all())
	})
}

func TestPlacement(t *testing.T) {
	t.Run("With local capabilities", func(t *testing.T) {
		ctx := context.Background()
		system := newTestSystem(t, "placement", WithCapabilities(map[string]any{"gpu": true, "region": "eu"}))

		addr, err := system.CreateActor(ctx, newGPUActor, WithRequirements(map[string]any{"region": "eu"}))
		require.NoError(t, err)
		assert.True(t, addr.IsLocal())

		reply, err := system.Ask(ctx, addr, "Hello", time.Second)
		require.NoError(t, err)
		assert.Equal(t, "hi", reply)
	})
	t.Run("Without compatible actor system", func(t *testing.T) {
		ctx := context.Background()
		system := newTestSystem(t, "placement")

		_, err := system.CreateActor(ctx, newGPUActor)
		assert.ErrorIs(t, err, gerrors.ErrNoCompatibleSystemForActor)

		_, err = system.CreateActor(ctx, newGreeter, WithRequirements(map[string]any{"region": "eu"}))
		assert.ErrorIs(t, err, gerrors.ErrNoCompatibleSystemForActor)
		assert.Zero(t, system.ActorsCount())

		system.UpdateCapability("gpu", true)
		_, err = system.CreateActor(ctx, newGPUActor)
		require.NoError(t, err)

		system.UpdateCapability("gpu", nil)
		assert.NotContains(t, system.Capabilities(), "gpu")
	})
	t.Run("With remote candidate", func(t *testing.T) {
		ctx := context.Background()
		remoteAddr := address.NewResolved("mem://remote/7")
		creator := &fakeCreator{placed: new(recorder), addr: remoteAddr}
		directory := placement.NewStaticDirectory(&placement.Candidate{
			SystemID:     "remote",
			Capabilities: map[string]any{"gpu": true},
		})

		system := newTestSystem(t, "placement", WithPlacementDirectory(directory), WithRemoteCreator(creator))
		addr, err := system.CreateActor(ctx, newGPUActor)
		require.NoError(t, err)
		assert.True(t, remoteAddr.Equals(addr))
		assert.Equal(t, []any{"remote"}, creator.placed.all())
		assert.Zero(t, system.ActorsCount())
	})
	t.Run("With remote candidate without creator", func(t *testing.T) {
		ctx := context.Background()
		directory := placement.NewStaticDirectory(&placement.Candidate{
			SystemID:     "remote",
			Capabilities: map[string]any{"gpu": true},
		})

		system := newTestSystem(t, "placement", WithPlacementDirectory(directory))
		_, err := system.CreateActor(ctx, newGPUActor)
		assert.ErrorIs(t, err, gerrors.ErrNoCompatibleSystemForActor)
	})
	t.Run("With requirements placed remotely", func(t *testing.T) {
		ctx := context.Background()
		remoteAddr := address.NewResolved("mem://remote/8")
		creator := &fakeCreator{placed: new(recorder), addr: remoteAddr}
		directory := placement.NewStaticDirectory(&placement.Candidate{
			SystemID:     "remote",
			Capabilities: map[string]any{"region": "us"},
		})

		system := newTestSystem(t, "placement", WithPlacementDirectory(directory), WithRemoteCreator(creator))

		builds := atomic.NewInt32(0)
		producer := func() Actor {
			builds.Inc()
			return newGreeter()
		}

		addr, err := system.CreateActor(ctx, producer, WithRequirements(map[string]any{"region": "us"}))
		require.NoError(t, err)
		assert.True(t, remoteAddr.Equals(addr))
		assert.Zero(t, builds.Load())
		assert.Equal(t, []any{"remote"}, creator.placed.all())
	})
	t.Run("With requirements met here and check met remotely", func(t *testing.T) {
		ctx := context.Background()
		remoteAddr := address.NewResolved("mem://remote/9")
		creator := &fakeCreator{placed: new(recorder), addr: remoteAddr}
		directory := placement.NewStaticDirectory(&placement.Candidate{
			SystemID:     "remote",
			Capabilities: map[string]any{"region": "eu", "gpu": true},
		})

		system := newTestSystem(t, "placement",
			WithCapabilities(map[string]any{"region": "eu"}),
			WithPlacementDirectory(directory),
			WithRemoteCreator(creator))

		addr, err := system.CreateActor(ctx, newGPUActor, WithRequirements(map[string]any{"region": "eu"}))
		require.NoError(t, err)
		assert.True(t, remoteAddr.Equals(addr))
		assert.Zero(t, system.ActorsCount())
	})
	t.Run("With local candidate preferred", func(t *testing.T) {
		ctx := context.Background()
		creator := &fakeCreator{placed: new(recorder), addr: address.NewResolved("mem://remote/7")}
		directory := placement.NewStaticDirectory(&placement.Candidate{
			SystemID:     "remote",
			Capabilities: map[string]any{"gpu": true},
		})

		system := newTestSystem(t, "placement",
			WithCapabilities(map[string]any{"gpu": true}),
			WithPlacementDirectory(directory),
			WithRemoteCreator(creator))

		addr, err := system.CreateActor(ctx, newGPUActor)
		require.NoError(t, err)
		assert.True(t, addr.IsLocal())
		assert.Zero(t, creator.placed.len())
	})
}

type panickingStart struct{}

func (panickingStart) PreStart(context.Context) error { panic("no start") }
func (panickingStart) Receive(*ReceiveContext)        {}
func (panickingStart) PostStop(context.Context) error { return nil }

type countingMailbox struct {
	*DefaultMailbox
	enqueued *atomic.Int64
}

func (m *countingMailbox) Enqueue(value *ReceiveContext) error {
	m.enqueued.Inc()
	return m.DefaultMailbox.Enqueue(value)
}

// blocker records its messages and holds the first one until released
type blocker struct {
	release  chan struct{}
	received *recorder
}

func (b *blocker) PreStart(context.Context) error { return nil }
func (b *blocker) PostStop(context.Context) error { return nil }

func (b *blocker) Receive(ctx *ReceiveContext) {
	if msg, ok := ctx.Message().(int); ok {
		b.received.add(msg)
		<-b.release
	}
}
