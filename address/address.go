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

// Package address provides the identity of actors.
//
// An Address wraps exactly one of two variants:
//
//   - Local: a placeholder minted by one actor system. It is made of the id of
//     the generating system and an instance number unique within that system.
//     A local address never leaves its process: MarshalBinary fails with
//     errors.ErrCannotPickleAddress.
//   - Resolved: an opaque transport identity with value equality, for instance
//     "nats://127.0.0.1:4222/orders.actor.12".
//
// Addresses minted or imported by a Manager carry a back-reference to it. The
// manager knows which local addresses are associated with which resolved ones
// and which resolved identities denote the same actor, so Equals on such
// addresses honours those relations in both directions. The back-reference is
// never part of the comparison itself.
//
// Address values are immutable and safe for concurrent use.
package address

import (
	"fmt"
	"strconv"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/tochemey/gokernel/errors"
	"github.com/tochemey/gokernel/hash"
	"github.com/tochemey/gokernel/internal/validation"
)

const localScheme = "local"

type kind uint8

const (
	kindLocal kind = iota + 1
	kindResolved
)

var hasher = hash.DefaultHasher()

// Address identifies an actor. The zero value is invalid; use a Manager or
// NewResolved to create one.
type Address struct {
	kind     kind
	system   string
	instance uint64
	identity string
	manager  *Manager
}

var _ validation.Validator = (*Address)(nil)

// NewResolved returns a resolved address for the given transport identity.
// The returned value is not bound to any Manager; use Manager.ImportAddr to
// let it take part in associations and merges.
func NewResolved(identity string) *Address {
	return &Address{kind: kindResolved, identity: identity}
}

// IsLocal reports whether the address is a local placeholder
func (a *Address) IsLocal() bool {
	return a != nil && a.kind == kindLocal
}

// IsResolved reports whether the address carries a transport identity
func (a *Address) IsResolved() bool {
	return a != nil && a.kind == kindResolved
}

// System returns the id of the actor system that minted a local address
func (a *Address) System() string {
	return a.system
}

// InstanceNum returns the instance number of a local address and zero otherwise
func (a *Address) InstanceNum() uint64 {
	return a.instance
}

// Identity returns the transport identity of a resolved address and an empty
// string otherwise
func (a *Address) Identity() string {
	return a.identity
}

// Manager returns the manager the address is bound to, if any
func (a *Address) Manager() *Manager {
	return a.manager
}

// Hash returns the hash code of the address.
// A local address hashes to its instance number, which makes the hashes of
// addresses minted by one system pairwise distinct.
func (a *Address) Hash() uint64 {
	if a == nil {
		return 0
	}
	if a.kind == kindLocal {
		return a.instance
	}
	return hasher.HashString(a.identity)
}

// Equals reports whether a and b denote the same actor.
// When either side is bound to a Manager, associations and identity merges
// recorded by that manager are taken into account.
func (a *Address) Equals(b *Address) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}

	if a.sameValue(b) {
		return true
	}

	if m := a.manager; m != nil {
		return m.equivalent(a, b)
	}

	if m := b.manager; m != nil {
		return m.equivalent(a, b)
	}

	return false
}

// String returns the textual form of the address
func (a *Address) String() string {
	if a == nil {
		return ""
	}
	if a.kind == kindLocal {
		return localScheme + "://" + a.system + "/" + strconv.FormatUint(a.instance, 10)
	}
	return a.identity
}

// Validate checks the address invariants
func (a *Address) Validate() error {
	if a == nil {
		return fmt.Errorf("address is nil")
	}

	chain := validation.New(validation.FailFast())
	switch a.kind {
	case kindLocal:
		chain.
			AddValidator(validation.NewEmptyStringValidator("system", a.system)).
			AddAssertion(a.instance > 0, "instance number must be positive")
	case kindResolved:
		chain.AddValidator(validation.NewEmptyStringValidator("identity", a.identity))
	default:
		chain.AddAssertion(false, "address kind is undefined")
	}
	return chain.Validate()
}

// MarshalBinary encodes a resolved address.
// Local addresses fail with errors.ErrCannotPickleAddress.
func (a *Address) MarshalBinary() ([]byte, error) {
	if a.kind != kindResolved {
		return nil, errors.NewErrCannotPickleAddress(a.String())
	}
	return proto.Marshal(wrapperspb.String(a.identity))
}

// UnmarshalBinary decodes a resolved address. The result is not bound to any
// Manager.
func (a *Address) UnmarshalBinary(data []byte) error {
	identity := new(wrapperspb.StringValue)
	if err := proto.Unmarshal(data, identity); err != nil {
		return err
	}

	*a = Address{kind: kindResolved, identity: identity.GetValue()}
	return a.Validate()
}

// key is the token used by the Manager to track the address
func (a *Address) key() string {
	if a.kind == kindLocal {
		return "l\x00" + a.system + "\x00" + strconv.FormatUint(a.instance, 10)
	}
	return "r\x00" + a.identity
}

func (a *Address) sameValue(b *Address) bool {
	if a.kind != b.kind {
		return false
	}
	if a.kind == kindLocal {
		return a.instance == b.instance && a.system == b.system
	}
	return a.identity == b.identity
}
