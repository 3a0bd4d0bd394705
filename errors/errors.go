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

// Package errors holds the error taxonomy of the actor kernel.
//
// Failures inside an actor are contained at the actor boundary and turned into
// messages (ChildActorExited, PoisonMessage). The values below are the few
// conditions that do surface to callers.
package errors

import (
	"errors"
	"fmt"
)

var (
	// ErrCannotPickle is the generic kind for values that refuse to be serialized.
	ErrCannotPickle = errors.New("cannot pickle")
	// ErrCannotPickleAddress is returned when a local address is about to leave its actor system.
	// It matches ErrCannotPickle with errors.Is.
	ErrCannotPickleAddress = fmt.Errorf("%w: local address", ErrCannotPickle)
	// ErrNoCompatibleSystemForActor is returned by CreateActor when placement finds no host.
	ErrNoCompatibleSystemForActor = errors.New("no compatible actor system for actor")
	// ErrDead means that the actor is not alive
	ErrDead = errors.New("actor is not alive")
	// ErrInvalidTimeout is returned when a given timeout is negative or zero
	ErrInvalidTimeout = errors.New("invalid timeout")
	// ErrActorSystemNotStarted is returned when the actor system has not started
	ErrActorSystemNotStarted = errors.New("actor system has not started yet")
	// ErrActorSystemAlreadyStarted is returned when Start is called twice
	ErrActorSystemAlreadyStarted = errors.New("actor system has already started")
	// ErrInvalidActorSystemName is returned when the actor system name is invalid
	ErrInvalidActorSystemName = errors.New("invalid ActorSystem name, must contain only word characters (i.e. [a-zA-Z0-9] plus non-leading '-' or '_')")
	// ErrInitFailure is returned when the initialization of an actor fails.
	ErrInitFailure = errors.New("failed to initialize")
	// ErrUndefinedActor is returned when CreateActor receives no actor
	ErrUndefinedActor = errors.New("actor is not defined")
	// ErrRemotingDisabled is returned when a remote operation runs without a transport
	ErrRemotingDisabled = errors.New("no transport configured")
	// ErrAddressNotFound is returned when an address does not belong to a live actor
	ErrAddressNotFound = errors.New("address not found")
	// ErrUnhandled is returned by a dispatch table that has no handler for a message
	ErrUnhandled = errors.New("unhandled message")
	// ErrSchedulerNotStarted is returned when the wakeup scheduler is not started
	ErrSchedulerNotStarted = errors.New("scheduler has not started")
	// ErrInvalidMessage is returned when a nil message is sent
	ErrInvalidMessage = errors.New("invalid message")
	// ErrInvalidTransportMessage is returned when an inbound frame cannot be decoded
	ErrInvalidTransportMessage = errors.New("invalid transport message")
	// ErrMailboxFull is returned when a bounded mailbox cannot take more messages
	ErrMailboxFull = errors.New("mailbox is full")
	// ErrMailboxDisposed is returned when a message is pushed into a disposed mailbox
	ErrMailboxDisposed = errors.New("mailbox is disposed")
)

// NewErrCannotPickleAddress wraps ErrCannotPickleAddress with the offending address
func NewErrCannotPickleAddress(address string) error {
	return fmt.Errorf("%w (%s)", ErrCannotPickleAddress, address)
}

// NewErrInitFailure wraps the cause of an actor construction failure
func NewErrInitFailure(err error) error {
	return errors.Join(ErrInitFailure, err)
}

// NewErrNoCompatibleSystem wraps ErrNoCompatibleSystemForActor with the unmet requirements
func NewErrNoCompatibleSystem(requirements map[string]any) error {
	return fmt.Errorf("%w: requirements=%v", ErrNoCompatibleSystemForActor, requirements)
}

// PanicError wraps a value recovered from a panicking handler
type PanicError struct {
	err error
}

// enforce compilation error
var _ error = (*PanicError)(nil)

// NewPanicError creates an instance of PanicError
func NewPanicError(err error) *PanicError {
	return &PanicError{err}
}

// Error implements the standard error interface
func (e *PanicError) Error() string {
	return fmt.Sprintf("panic: %v", e.err)
}

func (e *PanicError) Unwrap() error {
	return e.err
}
