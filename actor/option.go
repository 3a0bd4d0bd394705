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

package actor

import (
	"time"

	"go.opentelemetry.io/otel/metric"

	"github.com/tochemey/gokernel/log"
	"github.com/tochemey/gokernel/placement"
	"github.com/tochemey/gokernel/remote"
	"github.com/tochemey/gokernel/supervisor"
	"github.com/tochemey/gokernel/transport"
)

// Option is the interface that applies a configuration option.
type Option interface {
	// Apply sets the Option value of a config.
	Apply(sys *actorSystem)
}

// enforce compilation error
var _ Option = OptionFunc(nil)

// OptionFunc implements the Option interface.
type OptionFunc func(*actorSystem)

// Apply applies the actor system option
func (f OptionFunc) Apply(c *actorSystem) {
	f(c)
}

// WithLogger sets the actor system custom log
func WithLogger(logger log.Logger) Option {
	return OptionFunc(func(a *actorSystem) {
		a.logger = logger
	})
}

// WithAskTimeout sets how long Ask waits for a reply when no timeout is given
func WithAskTimeout(timeout time.Duration) Option {
	return OptionFunc(func(a *actorSystem) {
		a.askTimeout = timeout
	})
}

// WithSupervisor sets the failure policy of the actors
func WithSupervisor(supervisor *supervisor.Supervisor) Option {
	return OptionFunc(func(a *actorSystem) {
		a.supervisor = supervisor
	})
}

// WithTransport connects the actor system to other actor systems.
// Every actor created afterwards is reachable through the transport.
func WithTransport(transport transport.Transport) Option {
	return OptionFunc(func(a *actorSystem) {
		a.transport = transport
	})
}

// WithSerializer sets the serializer of the messages handed to the transport.
// It defaults to remote.NewDefaultSerializer.
func WithSerializer(serializer remote.Serializer) Option {
	return OptionFunc(func(a *actorSystem) {
		a.serializer = serializer
	})
}

// WithCompression sets how outgoing frames are compressed. Incoming frames
// are read whatever compression the sender used.
func WithCompression(compression remote.Compression) Option {
	return OptionFunc(func(a *actorSystem) {
		a.compression = compression
	})
}

// WithPlacementResolver sets how actors with requirements are placed.
// It defaults to placement.NewCapabilityResolver.
func WithPlacementResolver(resolver placement.Resolver) Option {
	return OptionFunc(func(a *actorSystem) {
		a.resolver = resolver
	})
}

// WithPlacementDirectory sets where remote placement candidates come from
func WithPlacementDirectory(directory placement.Directory) Option {
	return OptionFunc(func(a *actorSystem) {
		a.directory = directory
	})
}

// WithRemoteCreator sets how actors placed on a remote system are created.
// Without it a remote placement fails with errors.ErrNoCompatibleSystemForActor.
func WithRemoteCreator(creator placement.RemoteCreator) Option {
	return OptionFunc(func(a *actorSystem) {
		a.remoteCreator = creator
	})
}

// WithCapabilities sets the initial capabilities of the actor system
func WithCapabilities(capabilities map[string]any) Option {
	return OptionFunc(func(a *actorSystem) {
		for name, value := range capabilities {
			if value != nil {
				a.capabilities.Set(name, value)
			}
		}
	})
}

// WithMetrics exposes the actor system counters through meter
func WithMetrics(meter metric.Meter) Option {
	return OptionFunc(func(a *actorSystem) {
		a.meter = meter
	})
}

// WithShutdownTimeout bounds how long Stop waits for the actors to exit
func WithShutdownTimeout(timeout time.Duration) Option {
	return OptionFunc(func(a *actorSystem) {
		a.shutdownTimeout = timeout
	})
}
