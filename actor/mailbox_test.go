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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	gerrors "github.com/tochemey/gokernel/errors"
)

func TestMailbox(t *testing.T) {
	t.Run("With order", func(t *testing.T) {
		mailbox := NewDefaultMailbox()
		assert.True(t, mailbox.IsEmpty())
		assert.Nil(t, mailbox.Dequeue())

		for i := range 5 {
			require.NoError(t, mailbox.Enqueue(&ReceiveContext{message: i}))
		}
		assert.EqualValues(t, 5, mailbox.Len())
		assert.False(t, mailbox.IsEmpty())

		for i := range 5 {
			received := mailbox.Dequeue()
			require.NotNil(t, received)
			assert.Equal(t, i, received.Message())
		}
		assert.Nil(t, mailbox.Dequeue())
		assert.True(t, mailbox.IsEmpty())
		assert.Zero(t, mailbox.Len())
		mailbox.Dispose()
	})
	t.Run("With concurrent producers", func(t *testing.T) {
		const (
			producers = 8
			perSender = 500
		)

		mailbox := NewDefaultMailbox()
		var wg sync.WaitGroup
		for p := range producers {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for i := range perSender {
					_ = mailbox.Enqueue(&ReceiveContext{message: [2]int{p, i}})
				}
			}()
		}
		wg.Wait()

		// every producer's messages come out in the order they went in
		next := make([]int, producers)
		count := 0
		for received := mailbox.Dequeue(); received != nil; received = mailbox.Dequeue() {
			pair := received.Message().([2]int)
			require.Equal(t, next[pair[0]], pair[1])
			next[pair[0]]++
			count++
		}
		assert.Equal(t, producers*perSender, count)
	})
}

func TestBoundedMailbox(t *testing.T) {
	mailbox := NewBoundedMailbox(2)
	assert.EqualValues(t, 2, mailbox.Cap())
	assert.True(t, mailbox.IsEmpty())
	assert.Nil(t, mailbox.Dequeue())

	require.NoError(t, mailbox.Enqueue(&ReceiveContext{message: 1}))
	require.NoError(t, mailbox.Enqueue(&ReceiveContext{message: 2}))
	assert.ErrorIs(t, mailbox.Enqueue(&ReceiveContext{message: 3}), gerrors.ErrMailboxFull)
	assert.EqualValues(t, 2, mailbox.Len())

	assert.Equal(t, 1, mailbox.Dequeue().Message())
	require.NoError(t, mailbox.Enqueue(&ReceiveContext{message: 4}))
	assert.Equal(t, 2, mailbox.Dequeue().Message())
	assert.Equal(t, 4, mailbox.Dequeue().Message())
	assert.True(t, mailbox.IsEmpty())

	mailbox.Dispose()
	assert.ErrorIs(t, mailbox.Enqueue(&ReceiveContext{message: 5}), gerrors.ErrMailboxDisposed)
}

func TestBoundedMailboxCapacity(t *testing.T) {
	for _, tc := range []struct {
		requested int
		expected  int64
	}{
		{requested: 0, expected: 2},
		{requested: 1, expected: 2},
		{requested: 3, expected: 4},
		{requested: 5, expected: 8},
	} {
		mailbox := NewBoundedMailbox(tc.requested)
		require.EqualValues(t, tc.expected, mailbox.Cap())

		for i := range int(tc.expected) {
			require.NoError(t, mailbox.Enqueue(&ReceiveContext{message: i}))
		}
		assert.ErrorIs(t, mailbox.Enqueue(&ReceiveContext{message: -1}), gerrors.ErrMailboxFull)
		assert.EqualValues(t, tc.expected, mailbox.Len())

		for i := range int(tc.expected) {
			assert.Equal(t, i, mailbox.Dequeue().Message())
		}
		assert.Nil(t, mailbox.Dequeue())
	}
}
