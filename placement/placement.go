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

// Package placement decides which actor system hosts a new actor.
//
// A Resolver matches the requirements declared at creation against the
// capabilities advertised by candidate systems. The local system is always a
// candidate; a Directory contributes remote ones and a RemoteCreator creates
// the actor when a remote candidate is picked.
package placement

import (
	"context"
	"maps"
	"reflect"

	"github.com/tochemey/gokernel/address"
	"github.com/tochemey/gokernel/errors"
)

// Candidate is an actor system able to host actors
type Candidate struct {
	// SystemID identifies the actor system
	SystemID string
	// Capabilities are the values the system advertises
	Capabilities map[string]any
	// Local is true for the actor system running the placement
	Local bool
}

// Request describes the actor being placed
type Request struct {
	// Name is a diagnostic label of the actor
	Name string
	// Requirements must all be met by the chosen candidate
	Requirements map[string]any
	// Check is an optional extra predicate supplied by the actor itself
	Check func(capabilities map[string]any) bool
}

// Resolver picks the candidate that hosts an actor
type Resolver interface {
	// Resolve returns the chosen candidate or an error matching
	// errors.ErrNoCompatibleSystemForActor
	Resolve(ctx context.Context, request *Request, candidates []*Candidate) (*Candidate, error)
}

// Directory lists the remote actor systems known to the local one
type Directory interface {
	Candidates(ctx context.Context) ([]*Candidate, error)
}

// RemoteCreator creates an actor on a remote actor system and returns its
// resolved address
type RemoteCreator interface {
	Place(ctx context.Context, target *Candidate, request *Request) (*address.Address, error)
}

type capabilityResolver struct{}

var _ Resolver = capabilityResolver{}

// NewCapabilityResolver returns the default Resolver: the local candidate when
// it is compatible, otherwise the first compatible candidate in order.
func NewCapabilityResolver() Resolver {
	return capabilityResolver{}
}

// Resolve implements Resolver
func (capabilityResolver) Resolve(ctx context.Context, request *Request, candidates []*Candidate) (*Candidate, error) {
	if request == nil {
		request = new(Request)
	}

	var chosen *Candidate
	for _, candidate := range candidates {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		if candidate == nil || !Compatible(request, candidate.Capabilities) {
			continue
		}

		if candidate.Local {
			return candidate, nil
		}

		if chosen == nil {
			chosen = candidate
		}
	}

	if chosen == nil {
		return nil, errors.NewErrNoCompatibleSystem(request.Requirements)
	}
	return chosen, nil
}

// Compatible reports whether capabilities meet every requirement of request
// and pass its Check
func Compatible(request *Request, capabilities map[string]any) bool {
	if !Satisfies(capabilities, request.Requirements) {
		return false
	}
	return request.Check == nil || request.Check(maps.Clone(capabilities))
}

// Satisfies reports whether every requirement has an equal capability.
// Numbers compare by value whatever their Go type, since capabilities
// advertised by a remote system lose their integer types on the wire.
func Satisfies(capabilities, requirements map[string]any) bool {
	for name, expected := range requirements {
		actual, ok := capabilities[name]
		if !ok || !equal(actual, expected) {
			return false
		}
	}
	return true
}

func equal(actual, expected any) bool {
	a, aok := number(actual)
	b, bok := number(expected)
	if aok && bok {
		return a == b
	}
	return reflect.DeepEqual(actual, expected)
}

func number(value any) (float64, bool) {
	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(rv.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(rv.Uint()), true
	case reflect.Float32, reflect.Float64:
		return rv.Float(), true
	default:
		return 0, false
	}
}

type staticDirectory struct {
	candidates []*Candidate
}

var _ Directory = (*staticDirectory)(nil)

// NewStaticDirectory returns a Directory over a fixed set of candidates
func NewStaticDirectory(candidates ...*Candidate) Directory {
	return &staticDirectory{candidates: candidates}
}

// Candidates implements Directory
func (d *staticDirectory) Candidates(context.Context) ([]*Candidate, error) {
	out := make([]*Candidate, 0, len(d.candidates))
	for _, candidate := range d.candidates {
		copied := *candidate
		copied.Local = false
		copied.Capabilities = maps.Clone(candidate.Capabilities)
		out = append(out, &copied)
	}
	return out, nil
}

// Host is the local actor system as advertised to its peers
type Host interface {
	ID() string
	Capabilities() map[string]any
}

// Advertiser is implemented by a Directory that also makes the local actor
// system visible to the directories of other systems. The actor system calls
// Advertise when it starts and Withdraw when it stops.
type Advertiser interface {
	Advertise(ctx context.Context, host Host) error
	Withdraw(ctx context.Context) error
}
