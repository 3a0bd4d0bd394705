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

package remote

import (
	"errors"
	"fmt"
	"reflect"

	"github.com/fxamacker/cbor/v2"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/anypb"

	gerrors "github.com/tochemey/gokernel/errors"
	"github.com/tochemey/gokernel/internal/xsync"
)

var (
	// ErrNotProtoMessage is returned by ProtoSerializer for values that are not protocol buffers messages
	ErrNotProtoMessage = fmt.Errorf("%w: not a proto message", gerrors.ErrCannotPickle)
	// ErrTypeNotRegistered is returned by CBORSerializer for types missing from the registry
	ErrTypeNotRegistered = fmt.Errorf("%w: type not registered", gerrors.ErrCannotPickle)
	// ErrInvalidFrame is returned when serialized bytes cannot be decoded
	ErrInvalidFrame = errors.New("malformed or truncated frame")
)

// Serializer turns messages into bytes handed to a transport and back.
// Implementations must be safe for concurrent use.
type Serializer interface {
	// Serialize encodes message. Values the serializer cannot represent fail
	// with an error matching errors.ErrCannotPickle.
	Serialize(message any) ([]byte, error)
	// Deserialize restores a value produced by Serialize with its concrete type.
	Deserialize(data []byte) (any, error)
}

// ProtoSerializer encodes protocol buffers messages packed in an anypb.Any,
// which carries the type URL needed on the receiving side.
type ProtoSerializer struct{}

var _ Serializer = (*ProtoSerializer)(nil)

// NewProtoSerializer creates a ProtoSerializer
func NewProtoSerializer() *ProtoSerializer {
	return &ProtoSerializer{}
}

// Serialize implements Serializer
func (s *ProtoSerializer) Serialize(message any) ([]byte, error) {
	msg, ok := message.(proto.Message)
	if !ok {
		return nil, ErrNotProtoMessage
	}

	packed, err := anypb.New(msg)
	if err != nil {
		return nil, err
	}
	return proto.Marshal(packed)
}

// Deserialize implements Serializer. The message type must be linked into the binary.
func (s *ProtoSerializer) Deserialize(data []byte) (any, error) {
	packed := new(anypb.Any)
	if err := proto.Unmarshal(data, packed); err != nil {
		return nil, errors.Join(ErrInvalidFrame, err)
	}
	if packed.GetTypeUrl() == "" {
		return nil, ErrInvalidFrame
	}
	return packed.UnmarshalNew()
}

// types known to every CBORSerializer, keyed by their reflect name
var typesRegistry = xsync.NewMap[string, reflect.Type]()

func init() {
	RegisterSerializableTypes(0, int32(0), int64(0), uint64(0), float64(0), "", false, []byte(nil))
}

// RegisterSerializableTypes makes the types of the given values known to the
// CBORSerializer. Register a pointer value (new(T)) to receive *T.
func RegisterSerializableTypes(values ...any) {
	for _, value := range values {
		if value == nil {
			continue
		}
		typ := reflect.TypeOf(value)
		typesRegistry.Set(typ.String(), typ)
	}
}

// CBORSerializer encodes registered Go values with CBOR. The type name travels
// with the payload so the receiver rebuilds the same concrete type.
type CBORSerializer struct {
	encMode cbor.EncMode
	decMode cbor.DecMode
}

var _ Serializer = (*CBORSerializer)(nil)

// NewCBORSerializer creates a CBORSerializer
func NewCBORSerializer() *CBORSerializer {
	encMode, _ := cbor.EncOptions{IndefLength: cbor.IndefLengthForbidden, Time: cbor.TimeUnixDynamic}.EncMode()
	decMode, _ := cbor.DecOptions{MaxNestedLevels: 64, IndefLength: cbor.IndefLengthForbidden}.DecMode()
	return &CBORSerializer{encMode: encMode, decMode: decMode}
}

// Serialize implements Serializer
func (s *CBORSerializer) Serialize(message any) ([]byte, error) {
	if message == nil {
		return nil, fmt.Errorf("%w: nil message", gerrors.ErrCannotPickle)
	}

	name := reflect.TypeOf(message).String()
	if _, ok := typesRegistry.Get(name); !ok {
		return nil, fmt.Errorf("%w: %s", ErrTypeNotRegistered, name)
	}

	payload, err := s.encMode.Marshal(message)
	if err != nil {
		return nil, errors.Join(gerrors.ErrCannotPickle, err)
	}
	return encodeTyped(name, payload), nil
}

// Deserialize implements Serializer
func (s *CBORSerializer) Deserialize(data []byte) (any, error) {
	name, payload, err := decodeTyped(data)
	if err != nil {
		return nil, err
	}

	typ, ok := typesRegistry.Get(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrTypeNotRegistered, name)
	}

	ptr := reflect.New(typ)
	if err := s.decMode.Unmarshal(payload, ptr.Interface()); err != nil {
		return nil, errors.Join(ErrInvalidFrame, err)
	}
	return ptr.Elem().Interface(), nil
}

const (
	formatProto byte = 'p'
	formatCBOR  byte = 'c'
)

// DefaultSerializer encodes protocol buffers messages with ProtoSerializer and
// everything else with CBORSerializer. A one byte prefix records the choice.
type DefaultSerializer struct {
	proto *ProtoSerializer
	cbor  *CBORSerializer
}

var _ Serializer = (*DefaultSerializer)(nil)

// NewDefaultSerializer creates a DefaultSerializer
func NewDefaultSerializer() *DefaultSerializer {
	return &DefaultSerializer{
		proto: NewProtoSerializer(),
		cbor:  NewCBORSerializer(),
	}
}

// Serialize implements Serializer
func (s *DefaultSerializer) Serialize(message any) ([]byte, error) {
	format, serializer := formatCBOR, Serializer(s.cbor)
	if _, ok := message.(proto.Message); ok {
		format, serializer = formatProto, s.proto
	}

	bytea, err := serializer.Serialize(message)
	if err != nil {
		return nil, err
	}
	return append([]byte{format}, bytea...), nil
}

// Deserialize implements Serializer
func (s *DefaultSerializer) Deserialize(data []byte) (any, error) {
	if len(data) == 0 {
		return nil, ErrInvalidFrame
	}

	switch data[0] {
	case formatProto:
		return s.proto.Deserialize(data[1:])
	case formatCBOR:
		return s.cbor.Deserialize(data[1:])
	default:
		return nil, ErrInvalidFrame
	}
}
