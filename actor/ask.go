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
	"time"

	"github.com/tochemey/gokernel/address"
	gerrors "github.com/tochemey/gokernel/errors"
)

// Ask sends message to the actor at to from a temporary endpoint address and
// waits for the first message sent back to that endpoint. It returns nil
// without error when nothing arrives within timeout; a zero timeout uses the
// actor system default. A message poisoned by the actor comes back as a
// *PoisonMessage.
func (x *actorSystem) Ask(ctx context.Context, to *address.Address, message any, timeout time.Duration) (any, error) {
	if !x.started.Load() {
		return nil, gerrors.ErrActorSystemNotStarted
	}

	if timeout < 0 {
		return nil, gerrors.ErrInvalidTimeout
	}

	if timeout == 0 {
		timeout = x.askTimeout
	}

	endpoint := x.manager.CreateLocalAddress()
	x.associate(endpoint)

	replies := make(chan any, 1)
	x.askEndpoints.Set(endpoint.InstanceNum(), replies)
	defer func() {
		x.askEndpoints.Delete(endpoint.InstanceNum())
		x.manager.DeadAddress(endpoint)
	}()

	if err := x.send(ctx, endpoint, to, message); err != nil {
		return nil, err
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case reply := <-replies:
		return reply, nil
	case <-timer.C:
		x.logger.Debugf("ask %T to %s timed out after %s", message, to, timeout)
		return nil, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
