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

// Package compression compresses whole frames with pooled codecs
package compression

import (
	"bytes"
	"errors"
	"io"
	"sync"

	"github.com/andybalholm/brotli"
	"github.com/klauspost/compress/zstd"
)

// MaxDecompressedSize bounds the size of a decompressed frame
const MaxDecompressedSize = 64 << 20

// ErrTooLarge is returned when a frame decompresses beyond MaxDecompressedSize
var ErrTooLarge = errors.New("decompressed frame is too large")

var (
	zstdEncoders = sync.Pool{
		New: func() any {
			encoder, _ := zstd.NewWriter(nil,
				zstd.WithEncoderLevel(zstd.SpeedFastest),
				zstd.WithEncoderConcurrency(1),
			)
			return encoder
		},
	}

	zstdDecoders = sync.Pool{
		New: func() any {
			decoder, _ := zstd.NewReader(nil,
				zstd.WithDecoderConcurrency(1),
				zstd.WithDecoderMaxMemory(MaxDecompressedSize),
			)
			return decoder
		},
	}

	brotliWriters = sync.Pool{
		New: func() any {
			return brotli.NewWriterLevel(nil, brotli.BestSpeed)
		},
	}
)

// ZstdCompress compresses data with Zstandard
func ZstdCompress(data []byte) []byte {
	encoder := zstdEncoders.Get().(*zstd.Encoder)
	defer zstdEncoders.Put(encoder)
	return encoder.EncodeAll(data, make([]byte, 0, len(data)/2))
}

// ZstdDecompress decompresses data compressed with ZstdCompress
func ZstdDecompress(data []byte) ([]byte, error) {
	decoder := zstdDecoders.Get().(*zstd.Decoder)
	defer zstdDecoders.Put(decoder)

	out, err := decoder.DecodeAll(data, nil)
	if errors.Is(err, zstd.ErrDecoderSizeExceeded) {
		return nil, ErrTooLarge
	}
	return out, err
}

// BrotliCompress compresses data with Brotli
func BrotliCompress(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	writer := brotliWriters.Get().(*brotli.Writer)
	writer.Reset(&buf)
	defer func() {
		writer.Reset(nil)
		brotliWriters.Put(writer)
	}()

	if _, err := writer.Write(data); err != nil {
		return nil, err
	}

	if err := writer.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// BrotliDecompress decompresses data compressed with BrotliCompress
func BrotliDecompress(data []byte) ([]byte, error) {
	reader := io.LimitReader(brotli.NewReader(bytes.NewReader(data)), MaxDecompressedSize+1)
	out, err := io.ReadAll(reader)
	if err != nil {
		return nil, err
	}

	if len(out) > MaxDecompressedSize {
		return nil, ErrTooLarge
	}
	return out, nil
}
