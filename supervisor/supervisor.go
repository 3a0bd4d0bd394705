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

// Package supervisor defines how an actor system reacts when a handler fails
// while processing a message.
//
// A failed message is retried a bounded number of times. Every retry either
// rebuilds the actor instance (RestartDirective, the default) or keeps it
// (ResumeDirective). Once the bound is exhausted, or straight away for errors
// mapped to PoisonDirective, the message is returned to its sender as a poison
// message.
package supervisor

import (
	"errors"
	"reflect"
	"sync"

	"github.com/tochemey/gokernel/internal/xsync"
)

// DefaultMaxRetries is the number of redeliveries allowed after the first
// failed delivery. With two retries a message survives two consecutive
// failures and may succeed on the third delivery.
const DefaultMaxRetries uint32 = 2

// Directive tells the actor system what to do with a failed message
type Directive int

const (
	// RestartDirective discards the failed actor instance, builds a fresh one
	// and redelivers the message to it.
	RestartDirective Directive = iota
	// ResumeDirective keeps the actor instance and redelivers the message.
	ResumeDirective
	// PoisonDirective skips the retries and poisons the message at once.
	PoisonDirective
)

// String returns the string representation of the directive
func (d Directive) String() string {
	switch d {
	case RestartDirective:
		return "Restart"
	case ResumeDirective:
		return "Resume"
	case PoisonDirective:
		return "Poison"
	default:
		return ""
	}
}

// Decision is the outcome of a failure evaluation
type Decision struct {
	// Directive applies when Poison is false
	Directive Directive
	// Poison is true when the message must be returned to its sender
	Poison bool
}

// SupervisorOption configures a Supervisor
type SupervisorOption func(*Supervisor)

// WithRetry sets the number of redeliveries allowed after the first failure.
// Zero poisons a message on its first failure.
func WithRetry(maxRetries uint32) SupervisorOption {
	return func(s *Supervisor) {
		s.maxRetries = maxRetries
	}
}

// WithDirective maps the type of err to directive.
// A failure matches when err's type appears anywhere in its wrap chain.
func WithDirective(err error, directive Directive) SupervisorOption {
	return func(s *Supervisor) {
		s.directives.Set(errorType(err), directive)
	}
}

// WithAnyErrorDirective applies directive to every failure without a
// more specific mapping.
func WithAnyErrorDirective(directive Directive) SupervisorOption {
	return func(s *Supervisor) {
		s.mu.Lock()
		s.fallback = directive
		s.mu.Unlock()
	}
}

// Supervisor holds the failure policy shared by the actors of a system
type Supervisor struct {
	mu         sync.Mutex
	maxRetries uint32
	fallback   Directive
	directives *xsync.Map[string, Directive]
}

// NewSupervisor creates a Supervisor. Without options it restarts the actor up
// to DefaultMaxRetries times before poisoning the message.
func NewSupervisor(opts ...SupervisorOption) *Supervisor {
	s := &Supervisor{
		maxRetries: DefaultMaxRetries,
		fallback:   RestartDirective,
		directives: xsync.NewMap[string, Directive](),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// MaxRetries returns the retry bound
func (s *Supervisor) MaxRetries() uint32 {
	return s.maxRetries
}

// Directive returns the directive that applies to err
func (s *Supervisor) Directive(err error) Directive {
	for cause := err; cause != nil; cause = errors.Unwrap(cause) {
		if directive, ok := s.directives.Get(errorType(cause)); ok {
			return directive
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fallback
}

// Decide evaluates the failure of a message that has already failed
// failures times, counting the current failure.
func (s *Supervisor) Decide(failures uint32, err error) Decision {
	directive := s.Directive(err)
	if directive == PoisonDirective || failures > s.maxRetries {
		return Decision{Directive: directive, Poison: true}
	}
	return Decision{Directive: directive}
}

func errorType(err error) string {
	if err == nil {
		return "nil"
	}
	return reflect.TypeOf(err).String()
}
