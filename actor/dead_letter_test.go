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
)

func TestDeadLetters(t *testing.T) {
	t.Run("With handler registration", func(t *testing.T) {
		ctx := context.Background()
		system := newTestSystem(t, "deadletters")

		gone, err := system.CreateActor(ctx, newGreeter)
		require.NoError(t, err)
		require.NoError(t, system.Send(ctx, gone, new(ActorExitRequest)))
		require.Eventually(t, func() bool { return system.AddressManager().IsDeadAddress(gone) }, time.Second, 10*time.Millisecond)

		// without a handler dead letters are counted and discarded
		require.NoError(t, system.Send(ctx, gone, "discarded"))
		assert.EqualValues(t, 1, system.DeadLettersCount())

		received := new(recorder)
		handler, err := system.CreateActor(ctx, func() Actor { return &collector{received: received} })
		require.NoError(t, err)
		reply, err := system.Ask(ctx, handler, new(enableDeadLetters), time.Second)
		require.NoError(t, err)
		require.Equal(t, true, reply)

		require.NoError(t, system.Send(ctx, gone, "delivered"))
		require.Eventually(t, func() bool { return received.len() == 1 }, time.Second, 10*time.Millisecond)
		dead := received.all()[0].(letter)
		assert.Equal(t, "delivered", dead.message)
		assert.Nil(t, dead.sender)

		_, err = system.Ask(ctx, handler, new(disableDeadLetters), time.Second)
		require.NoError(t, err)
		require.NoError(t, system.Send(ctx, gone, "discarded again"))

		time.Sleep(50 * time.Millisecond)
		assert.Equal(t, 1, received.len())
		assert.EqualValues(t, 3, system.DeadLettersCount())
	})
	t.Run("With handler replaced", func(t *testing.T) {
		ctx := context.Background()
		system := newTestSystem(t, "deadletters")

		first, second := new(recorder), new(recorder)
		firstHandler, err := system.CreateActor(ctx, func() Actor { return &collector{received: first} })
		require.NoError(t, err)
		secondHandler, err := system.CreateActor(ctx, func() Actor { return &collector{received: second} })
		require.NoError(t, err)

		_, err = system.Ask(ctx, firstHandler, new(enableDeadLetters), time.Second)
		require.NoError(t, err)
		_, err = system.Ask(ctx, secondHandler, new(enableDeadLetters), time.Second)
		require.NoError(t, err)

		// the former handler cannot withdraw its successor
		_, err = system.Ask(ctx, firstHandler, new(disableDeadLetters), time.Second)
		require.NoError(t, err)

		unknown := system.AddressManager().CreateLocalAddress()
		require.NoError(t, system.Send(ctx, unknown, "lost"))
		require.Eventually(t, func() bool { return second.len() == 1 }, time.Second, 10*time.Millisecond)
		assert.Zero(t, first.len())
	})
	t.Run("With handler stopped", func(t *testing.T) {
		ctx := context.Background()
		system := newTestSystem(t, "deadletters")

		received := new(recorder)
		handler, err := system.CreateActor(ctx, func() Actor { return &collector{received: received} })
		require.NoError(t, err)
		_, err = system.Ask(ctx, handler, new(enableDeadLetters), time.Second)
		require.NoError(t, err)

		require.NoError(t, system.Send(ctx, handler, new(ActorExitRequest)))
		require.Eventually(t, func() bool { return system.ActorsCount() == 0 }, time.Second, 10*time.Millisecond)

		unknown := system.AddressManager().CreateLocalAddress()
		require.NoError(t, system.Send(ctx, unknown, "lost"))
		assert.Zero(t, received.len())
	})
	t.Run("With reply without sender", func(t *testing.T) {
		ctx := context.Background()
		system := newTestSystem(t, "deadletters")

		addr, err := system.CreateActor(ctx, newGreeter)
		require.NoError(t, err)
		require.NoError(t, system.Send(ctx, addr, "Hello"))
		require.Eventually(t, func() bool { return system.DeadLettersCount() == 1 }, time.Second, 10*time.Millisecond)
	})
}
