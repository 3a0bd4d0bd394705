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

// Package consul provides a placement.Directory backed by the Consul catalog.
//
// Every actor system registers a service instance identified by its id under
// the configured service name. Its capabilities travel in the service
// metadata, one JSON encoded entry per capability.
package consul

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"sync"

	"github.com/hashicorp/consul/api"
	"go.uber.org/atomic"

	"github.com/tochemey/gokernel/log"
	"github.com/tochemey/gokernel/placement"
)

const (
	metaPrefix      = "cap_"
	maxMetaKeyLen   = 128
	maxMetaValueLen = 512
)

var metaKeyPattern = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// Directory is a placement.Directory over Consul
type Directory struct {
	config *Config
	mu     sync.RWMutex
	client *api.Client
	host   placement.Host

	registered *atomic.Bool
	logger     log.Logger
}

// enforce compilation error
var (
	_ placement.Directory  = (*Directory)(nil)
	_ placement.Advertiser = (*Directory)(nil)
)

// NewDirectory creates a Directory
func NewDirectory(config *Config, opts ...Option) *Directory {
	if config == nil {
		config = new(Config)
	}

	directory := &Directory{
		config:     config,
		registered: atomic.NewBool(false),
		logger:     log.DefaultLogger,
	}

	for _, opt := range opts {
		opt.Apply(directory)
	}

	return directory
}

// Advertise registers host in the Consul catalog
func (x *Directory) Advertise(_ context.Context, host placement.Host) error {
	client, err := x.connect()
	if err != nil {
		return err
	}

	x.mu.Lock()
	x.host = host
	x.mu.Unlock()

	if err := x.register(client, host); err != nil {
		return fmt.Errorf("failed to register %s: %w", host.ID(), err)
	}

	x.registered.Store(true)
	return nil
}

// Withdraw removes the advertised actor system from the catalog
func (x *Directory) Withdraw(context.Context) error {
	x.mu.Lock()
	defer x.mu.Unlock()

	if !x.registered.Load() || x.client == nil || x.host == nil {
		return nil
	}

	if err := x.client.Agent().ServiceDeregister(x.host.ID()); err != nil {
		return fmt.Errorf("failed to deregister %s: %w", x.host.ID(), err)
	}

	x.registered.Store(false)
	x.host = nil
	return nil
}

// Candidates lists the actor systems registered under the service name,
// the advertised one excepted. The advertised registration is refreshed first
// so that peers see its current capabilities.
func (x *Directory) Candidates(ctx context.Context) ([]*placement.Candidate, error) {
	client, err := x.connect()
	if err != nil {
		return nil, err
	}

	x.mu.RLock()
	host := x.host
	x.mu.RUnlock()

	self := ""
	if host != nil && x.registered.Load() {
		self = host.ID()
		if err := x.register(client, host); err != nil {
			x.logger.Warnf("failed to refresh the registration of %s: %v", self, err)
		}
	}

	ctx, cancel := context.WithTimeout(ctx, x.config.Timeout)
	defer cancel()

	query := &api.QueryOptions{
		AllowStale: x.config.AllowStale,
		Datacenter: x.config.Datacenter,
	}

	services, _, err := client.Health().Service(x.config.ServiceName, x.config.ServiceName, false, query.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("failed to list the actor systems: %w", err)
	}

	candidates := make([]*placement.Candidate, 0, len(services))
	for _, service := range services {
		if service == nil || service.Service == nil {
			continue
		}

		if service.Service.ID == self {
			continue
		}

		candidates = append(candidates, &placement.Candidate{
			SystemID:     service.Service.ID,
			Capabilities: x.decodeMeta(service.Service.ID, service.Service.Meta),
		})
	}
	return candidates, nil
}

// connect creates the Consul client once and checks the agent is reachable
func (x *Directory) connect() (*api.Client, error) {
	x.mu.Lock()
	defer x.mu.Unlock()

	if x.client != nil {
		return x.client, nil
	}

	x.config.Sanitize()
	if err := x.config.Validate(); err != nil {
		return nil, fmt.Errorf("consul directory config is invalid: %w", err)
	}

	consulConfig := api.DefaultConfig()
	consulConfig.Address = x.config.Address
	consulConfig.Datacenter = x.config.Datacenter
	consulConfig.Token = x.config.Token

	client, err := api.NewClient(consulConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create consul client: %w", err)
	}

	if _, err := client.Agent().Self(); err != nil {
		return nil, fmt.Errorf("failed to connect to consul: %w", err)
	}

	x.client = client
	return client, nil
}

func (x *Directory) register(client *api.Client, host placement.Host) error {
	return client.Agent().ServiceRegister(&api.AgentServiceRegistration{
		ID:   host.ID(),
		Name: x.config.ServiceName,
		Tags: []string{x.config.ServiceName},
		Meta: x.encodeMeta(host),
	})
}

// encodeMeta turns the capabilities into service metadata. Capabilities
// Consul cannot store are left out.
func (x *Directory) encodeMeta(host placement.Host) map[string]string {
	capabilities := host.Capabilities()
	meta := make(map[string]string, len(capabilities))
	for name, value := range capabilities {
		key := metaPrefix + name
		if len(key) > maxMetaKeyLen || !metaKeyPattern.MatchString(key) {
			x.logger.Warnf("capability %s of %s is not advertised: invalid name", name, host.ID())
			continue
		}

		text, err := placement.MarshalCapability(value)
		if err != nil || len(text) > maxMetaValueLen {
			x.logger.Warnf("capability %s of %s is not advertised: unsupported value", name, host.ID())
			continue
		}
		meta[key] = text
	}
	return meta
}

func (x *Directory) decodeMeta(id string, meta map[string]string) map[string]any {
	capabilities := make(map[string]any, len(meta))
	for key, text := range meta {
		name, ok := strings.CutPrefix(key, metaPrefix)
		if !ok {
			continue
		}

		value, err := placement.UnmarshalCapability(text)
		if err != nil {
			x.logger.Warnf("dropping malformed capability %s of %s: %v", name, id, err)
			continue
		}
		capabilities[name] = value
	}
	return capabilities
}
