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
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

const instrumentationName = "github.com/tochemey/gokernel"

// Stats is the source observed by the system instruments
type Stats interface {
	ActorsCount() int64
	DeadLettersCount() int64
	PoisonCount() int64
	RestartsCount() int64
}

// SystemMetric holds the actor system instruments
type SystemMetric struct {
	actorsCount      metric.Int64ObservableCounter
	deadLettersCount metric.Int64ObservableCounter
	poisonCount      metric.Int64ObservableCounter
	restartsCount    metric.Int64ObservableCounter
}

// NewSystemMetric creates the instruments on meter
func NewSystemMetric(meter metric.Meter) (*SystemMetric, error) {
	var (
		instruments SystemMetric
		err         error
	)

	if instruments.actorsCount, err = meter.Int64ObservableCounter(
		"actorsystem.actors.count",
		metric.WithDescription("Total number of live actors in the actor system"),
	); err != nil {
		return nil, err
	}

	if instruments.deadLettersCount, err = meter.Int64ObservableCounter(
		"actorsystem.deadletters.count",
		metric.WithDescription("Total number of dead letters in the actor system"),
	); err != nil {
		return nil, err
	}

	if instruments.poisonCount, err = meter.Int64ObservableCounter(
		"actorsystem.poison.count",
		metric.WithDescription("Total number of poisoned messages in the actor system"),
	); err != nil {
		return nil, err
	}

	if instruments.restartsCount, err = meter.Int64ObservableCounter(
		"actorsystem.restarts.count",
		metric.WithDescription("Total number of actor instance rebuilds in the actor system"),
	); err != nil {
		return nil, err
	}

	return &instruments, nil
}

// Register observes stats on every collection. The returned registration
// must be unregistered when the actor system stops.
func (x *SystemMetric) Register(meter metric.Meter, stats Stats) (metric.Registration, error) {
	return meter.RegisterCallback(func(_ context.Context, observer metric.Observer) error {
		observer.ObserveInt64(x.actorsCount, stats.ActorsCount())
		observer.ObserveInt64(x.deadLettersCount, stats.DeadLettersCount())
		observer.ObserveInt64(x.poisonCount, stats.PoisonCount())
		observer.ObserveInt64(x.restartsCount, stats.RestartsCount())
		return nil
	}, x.actorsCount, x.deadLettersCount, x.poisonCount, x.restartsCount)
}

// DefaultMeter returns the meter of the global OpenTelemetry provider
func DefaultMeter() metric.Meter {
	return otel.GetMeterProvider().Meter(instrumentationName)
}
