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

package log

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestZap(t *testing.T) {
	t.Run("With Info level", func(t *testing.T) {
		buffer := new(bytes.Buffer)
		logger := NewZap(InfoLevel, buffer)

		logger.Debug("hidden")
		assert.Empty(t, buffer.String())

		logger.Infof("hello %s", "world")
		entry := decode(t, buffer)
		assert.Equal(t, "hello world", entry["msg"])
		assert.Equal(t, "info", entry["level"])
		assert.Equal(t, InfoLevel, logger.LogLevel())
		assert.False(t, logger.Enabled(DebugLevel))
		assert.True(t, logger.Enabled(ErrorLevel))
	})
	t.Run("With Debug level", func(t *testing.T) {
		buffer := new(bytes.Buffer)
		logger := NewZap(DebugLevel, buffer)

		logger.Debug("visible")
		entry := decode(t, buffer)
		assert.Equal(t, "visible", entry["msg"])
		assert.Equal(t, "debug", entry["level"])
		assert.Equal(t, DebugLevel, logger.LogLevel())
	})
	t.Run("With fields", func(t *testing.T) {
		buffer := new(bytes.Buffer)
		logger := NewZap(InfoLevel, buffer).With("actor", "sys/1", "restarts", 2, "orphan")

		logger.Warn("restarting")
		entry := decode(t, buffer)
		assert.Equal(t, "sys/1", entry["actor"])
		assert.EqualValues(t, 2, entry["restarts"])
		assert.Equal(t, "orphan", entry["_"])
		assert.Equal(t, "warn", entry["level"])
	})
	t.Run("With outputs", func(t *testing.T) {
		buffer := new(bytes.Buffer)
		logger := NewZap(ErrorLevel, buffer)
		require.Len(t, logger.LogOutput(), 1)
		assert.NoError(t, logger.Flush())
	})
	t.Run("With panic", func(t *testing.T) {
		logger := NewZap(InfoLevel, new(bytes.Buffer))
		assert.Panics(t, func() { logger.Panicf("boom %d", 1) })
	})
}

func TestDiscardLogger(t *testing.T) {
	logger := DiscardLogger
	logger.Info("nothing")
	logger.With("key", "value").Errorf("nothing %d", 1)
	assert.False(t, logger.Enabled(InfoLevel))
	assert.True(t, logger.Enabled(PanicLevel))
	assert.NoError(t, logger.Flush())
	assert.Panics(t, func() { logger.Panic("boom") })
}

func TestLevelString(t *testing.T) {
	assert.Equal(t, "DEBUG", DebugLevel.String())
	assert.Equal(t, "WARNING", WarningLevel.String())
	assert.Equal(t, "INVALID", InvalidLevel.String())
}

func decode(t *testing.T, buffer *bytes.Buffer) map[string]any {
	t.Helper()
	entry := make(map[string]any)
	require.NoError(t, json.Unmarshal(buffer.Bytes(), &entry))
	buffer.Reset()
	return entry
}
