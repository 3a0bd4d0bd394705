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

package metric

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

type stats struct{}

func (stats) ActorsCount() int64      { return 1 }
func (stats) DeadLettersCount() int64 { return 2 }
func (stats) PoisonCount() int64      { return 3 }
func (stats) RestartsCount() int64    { return 4 }

type failingMeter struct {
	noop.Meter
	failures map[string]error
}

func (m failingMeter) Int64ObservableCounter(name string, opts ...metric.Int64ObservableCounterOption) (metric.Int64ObservableCounter, error) {
	if err, ok := m.failures[name]; ok {
		return nil, err
	}
	return m.Meter.Int64ObservableCounter(name, opts...)
}

func TestSystemMetric(t *testing.T) {
	meter := noop.NewMeterProvider().Meter("test")
	instruments, err := NewSystemMetric(meter)
	require.NoError(t, err)
	require.NotNil(t, instruments)

	registration, err := instruments.Register(meter, stats{})
	require.NoError(t, err)
	require.NoError(t, registration.Unregister())
	require.NotNil(t, DefaultMeter())
}

func TestSystemMetricErrors(t *testing.T) {
	t.Parallel()

	errBoom := errors.New("boom")
	for _, name := range []string{
		"actorsystem.actors.count",
		"actorsystem.deadletters.count",
		"actorsystem.poison.count",
		"actorsystem.restarts.count",
	} {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			meter := failingMeter{failures: map[string]error{name: errBoom}}
			instruments, err := NewSystemMetric(meter)
			require.ErrorIs(t, err, errBoom)
			require.Nil(t, instruments)
		})
	}
}
