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

// Package remote holds what an actor system needs to hand messages to a
// transport: message serializers and the envelope frame exchanged between
// actor systems.
package remote

import (
	"errors"
	"fmt"

	"google.golang.org/protobuf/encoding/protowire"

	"github.com/tochemey/gokernel/address"
)

// Kind tells the receiving actor system how to interpret the envelope payload
type Kind uint8

const (
	// KindMessage carries a user message
	KindMessage Kind = iota + 1
	// KindExitRequest asks the receiver to exit. It has no payload.
	KindExitRequest
	// KindPoison returns a poisoned message to its sender. The payload is the
	// original message.
	KindPoison
)

const (
	fieldSender   protowire.Number = 1
	fieldReceiver protowire.Number = 2
	fieldKind     protowire.Number = 3
	fieldPayload  protowire.Number = 4
)

// Envelope is the frame exchanged between actor systems
type Envelope struct {
	// Sender is nil when the message has no sender
	Sender   *address.Address
	Receiver *address.Address
	Kind     Kind
	Payload  []byte
}

// MarshalBinary encodes the envelope. Both addresses must be resolved;
// a local address fails with errors.ErrCannotPickleAddress.
func (e *Envelope) MarshalBinary() ([]byte, error) {
	if e.Receiver == nil {
		return nil, errors.New("envelope receiver is not set")
	}

	var buf []byte
	if e.Sender != nil {
		sender, err := e.Sender.MarshalBinary()
		if err != nil {
			return nil, err
		}
		buf = protowire.AppendTag(buf, fieldSender, protowire.BytesType)
		buf = protowire.AppendBytes(buf, sender)
	}

	receiver, err := e.Receiver.MarshalBinary()
	if err != nil {
		return nil, err
	}

	buf = protowire.AppendTag(buf, fieldReceiver, protowire.BytesType)
	buf = protowire.AppendBytes(buf, receiver)
	buf = protowire.AppendTag(buf, fieldKind, protowire.VarintType)
	buf = protowire.AppendVarint(buf, uint64(e.Kind))
	if len(e.Payload) > 0 {
		buf = protowire.AppendTag(buf, fieldPayload, protowire.BytesType)
		buf = protowire.AppendBytes(buf, e.Payload)
	}
	return buf, nil
}

// UnmarshalBinary decodes an envelope. Unknown fields are skipped.
func (e *Envelope) UnmarshalBinary(data []byte) error {
	*e = Envelope{}
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return errors.Join(ErrInvalidFrame, protowire.ParseError(n))
		}
		data = data[n:]

		switch {
		case num == fieldSender && typ == protowire.BytesType,
			num == fieldReceiver && typ == protowire.BytesType:
			value, n := protowire.ConsumeBytes(data)
			if n < 0 {
				return errors.Join(ErrInvalidFrame, protowire.ParseError(n))
			}
			addr := new(address.Address)
			if err := addr.UnmarshalBinary(value); err != nil {
				return errors.Join(ErrInvalidFrame, err)
			}
			if num == fieldSender {
				e.Sender = addr
			} else {
				e.Receiver = addr
			}
			data = data[n:]
		case num == fieldKind && typ == protowire.VarintType:
			value, n := protowire.ConsumeVarint(data)
			if n < 0 {
				return errors.Join(ErrInvalidFrame, protowire.ParseError(n))
			}
			e.Kind = Kind(value)
			data = data[n:]
		case num == fieldPayload && typ == protowire.BytesType:
			value, n := protowire.ConsumeBytes(data)
			if n < 0 {
				return errors.Join(ErrInvalidFrame, protowire.ParseError(n))
			}
			e.Payload = append([]byte(nil), value...)
			data = data[n:]
		default:
			n := protowire.ConsumeFieldValue(num, typ, data)
			if n < 0 {
				return errors.Join(ErrInvalidFrame, protowire.ParseError(n))
			}
			data = data[n:]
		}
	}

	if e.Receiver == nil {
		return fmt.Errorf("%w: missing receiver", ErrInvalidFrame)
	}

	switch e.Kind {
	case KindMessage, KindExitRequest, KindPoison:
		return nil
	default:
		return fmt.Errorf("%w: unknown kind %d", ErrInvalidFrame, e.Kind)
	}
}

// encodeTyped frames a payload together with its type name
func encodeTyped(name string, payload []byte) []byte {
	buf := protowire.AppendString(nil, name)
	return append(buf, payload...)
}

func decodeTyped(data []byte) (string, []byte, error) {
	name, n := protowire.ConsumeString(data)
	if n < 0 || name == "" {
		return "", nil, ErrInvalidFrame
	}
	return name, data[n:], nil
}
