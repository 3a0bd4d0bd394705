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
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/reugn/go-quartz/job"
	quartzlogger "github.com/reugn/go-quartz/logger"
	"github.com/reugn/go-quartz/quartz"
	"go.uber.org/atomic"

	gerrors "github.com/tochemey/gokernel/errors"
	"github.com/tochemey/gokernel/log"
)

// wakeupScheduler fires the delayed wakeups of the actors of a system
type wakeupScheduler struct {
	// helps lock concurrent access
	mu sync.Mutex
	// underlying Scheduler
	quartzScheduler quartz.Scheduler
	// states whether the quartzScheduler has started or not
	started *atomic.Bool
	// define the logger
	logger log.Logger
	// define the shutdown timeout
	stopTimeout time.Duration
}

func newWakeupScheduler(logger log.Logger, stopTimeout time.Duration) *wakeupScheduler {
	// create an instance of quartz scheduler with logger off
	quartzScheduler, _ := quartz.NewStdScheduler(quartz.WithLogger(quartzlogger.NewSimpleLogger(nil, quartzlogger.LevelOff)))
	return &wakeupScheduler{
		quartzScheduler: quartzScheduler,
		started:         atomic.NewBool(false),
		logger:          logger,
		stopTimeout:     stopTimeout,
	}
}

// Start starts the scheduler
func (x *wakeupScheduler) Start(ctx context.Context) {
	x.mu.Lock()
	defer x.mu.Unlock()
	x.quartzScheduler.Start(ctx)
	x.started.Store(x.quartzScheduler.IsStarted())
	x.logger.Debug("wakeup scheduler started")
}

// Stop drops the pending wakeups and stops the scheduler
func (x *wakeupScheduler) Stop(ctx context.Context) {
	if !x.started.Load() {
		return
	}

	x.mu.Lock()
	defer x.mu.Unlock()
	_ = x.quartzScheduler.Clear()
	x.quartzScheduler.Stop()
	x.started.Store(x.quartzScheduler.IsStarted())

	ctx, cancel := context.WithTimeout(ctx, x.stopTimeout)
	defer cancel()
	x.quartzScheduler.Wait(ctx)
	x.logger.Debug("wakeup scheduler stopped")
}

// ScheduleOnce runs fn once after delay under the given job key
func (x *wakeupScheduler) ScheduleOnce(key string, delay time.Duration, fn func(ctx context.Context)) error {
	x.mu.Lock()
	defer x.mu.Unlock()

	if !x.started.Load() {
		return gerrors.ErrSchedulerNotStarted
	}

	wakeup := job.NewFunctionJob[bool](
		func(ctx context.Context) (bool, error) {
			fn(ctx)
			return true, nil
		},
	)

	detail := quartz.NewJobDetail(wakeup, quartz.NewJobKey(key))
	return x.quartzScheduler.ScheduleJob(detail, quartz.NewRunOnceTrigger(delay))
}

// Cancel drops a pending job. Unknown keys are ignored.
func (x *wakeupScheduler) Cancel(key string) {
	if !x.started.Load() {
		return
	}
	_ = x.quartzScheduler.DeleteJob(quartz.NewJobKey(key))
}

// wakeupAfter enqueues a WakeupMessage into the actor own mailbox once delay
// has elapsed. A non-positive delay enqueues right away, behind the messages
// already queued.
func (p *pid) wakeupAfter(delay time.Duration) error {
	if delay <= 0 {
		p.enqueue(newReceiveContext(context.Background(), p.address, p, &WakeupMessage{DelayPeriod: delay}))
		return nil
	}

	key := uuid.NewString()
	p.wakeups.Add(key)
	err := p.system.scheduler.ScheduleOnce(key, delay, func(ctx context.Context) {
		p.wakeups.Remove(key)
		if p.isStopped() {
			return
		}
		p.enqueue(newReceiveContext(ctx, p.address, p, &WakeupMessage{DelayPeriod: delay}))
	})

	if err != nil {
		p.wakeups.Remove(key)
		return err
	}
	return nil
}

// cancelWakeups drops the pending wakeups of a stopped actor
func (p *pid) cancelWakeups() {
	for _, key := range p.wakeups.ToSlice() {
		p.system.scheduler.Cancel(key)
		p.wakeups.Remove(key)
	}
}
