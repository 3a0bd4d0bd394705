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

package placement

import (
	"slices"

	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
)

// MarshalCapabilities encodes capabilities as a protobuf Struct. Values with no
// Struct representation are left out and their names returned in skipped.
// Numbers come back as float64.
func MarshalCapabilities(capabilities map[string]any) (bytea []byte, skipped []string, err error) {
	encoded := &structpb.Struct{Fields: make(map[string]*structpb.Value, len(capabilities))}
	for name, value := range capabilities {
		field, err := structpb.NewValue(value)
		if err != nil {
			skipped = append(skipped, name)
			continue
		}
		encoded.Fields[name] = field
	}

	slices.Sort(skipped)
	bytea, err = proto.MarshalOptions{Deterministic: true}.Marshal(encoded)
	return bytea, skipped, err
}

// UnmarshalCapabilities decodes what MarshalCapabilities produced
func UnmarshalCapabilities(bytea []byte) (map[string]any, error) {
	decoded := new(structpb.Struct)
	if err := proto.Unmarshal(bytea, decoded); err != nil {
		return nil, err
	}
	return decoded.AsMap(), nil
}

// MarshalCapability encodes a single capability value as JSON text
func MarshalCapability(value any) (string, error) {
	encoded, err := structpb.NewValue(value)
	if err != nil {
		return "", err
	}

	bytea, err := protojson.Marshal(encoded)
	if err != nil {
		return "", err
	}
	return string(bytea), nil
}

// UnmarshalCapability decodes what MarshalCapability produced
func UnmarshalCapability(text string) (any, error) {
	decoded := new(structpb.Value)
	if err := protojson.Unmarshal([]byte(text), decoded); err != nil {
		return nil, err
	}
	return decoded.AsInterface(), nil
}
