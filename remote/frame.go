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

	"github.com/tochemey/gokernel/internal/compression"
)

// Compression selects how envelopes are compressed on the wire
type Compression uint8

const (
	// NoCompression sends envelopes as they are
	NoCompression Compression = iota
	// ZstdCompression compresses envelopes with Zstandard
	ZstdCompression
	// BrotliCompression compresses envelopes with Brotli
	BrotliCompression
)

// String returns the name of the compression
func (c Compression) String() string {
	switch c {
	case NoCompression:
		return "none"
	case ZstdCompression:
		return "zstd"
	case BrotliCompression:
		return "brotli"
	default:
		return fmt.Sprintf("Compression(%d)", uint8(c))
	}
}

// EncodeFrame encodes the envelope into a frame. The first byte of the frame
// records the compression so that any actor system can read it back.
func EncodeFrame(envelope *Envelope, c Compression) ([]byte, error) {
	bytea, err := envelope.MarshalBinary()
	if err != nil {
		return nil, err
	}

	switch c {
	case NoCompression:
	case ZstdCompression:
		bytea = compression.ZstdCompress(bytea)
	case BrotliCompression:
		if bytea, err = compression.BrotliCompress(bytea); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unknown compression %s", c)
	}

	return append([]byte{byte(c)}, bytea...), nil
}

// DecodeFrame decodes a frame produced by EncodeFrame
func DecodeFrame(frame []byte) (*Envelope, error) {
	if len(frame) == 0 {
		return nil, ErrInvalidFrame
	}

	var (
		body = frame[1:]
		err  error
	)

	switch Compression(frame[0]) {
	case NoCompression:
	case ZstdCompression:
		body, err = compression.ZstdDecompress(body)
	case BrotliCompression:
		body, err = compression.BrotliDecompress(body)
	default:
		return nil, fmt.Errorf("%w: unknown compression %d", ErrInvalidFrame, frame[0])
	}

	if err != nil {
		return nil, errors.Join(ErrInvalidFrame, err)
	}

	envelope := new(Envelope)
	if err := envelope.UnmarshalBinary(body); err != nil {
		return nil, err
	}
	return envelope, nil
}
