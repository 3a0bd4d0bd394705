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

// Package etcd provides a placement.Directory backed by etcd.
//
// Every actor system writes its capabilities, encoded as a protobuf Struct,
// under <Namespace>/<actor system id>. The key is bound to a lease kept alive
// until the actor system withdraws, so crashed systems disappear once the
// lease expires.
package etcd

import (
	"context"
	"errors"
	"fmt"
	"sync"

	clientv3 "go.etcd.io/etcd/client/v3"
	"go.etcd.io/etcd/client/v3/namespace"

	"github.com/tochemey/gokernel/log"
	"github.com/tochemey/gokernel/placement"
)

// Directory is a placement.Directory over etcd
type Directory struct {
	config *Config
	mu     sync.Mutex

	client *clientv3.Client
	kv     clientv3.KV
	lease  clientv3.Lease

	host            placement.Host
	leaseID         clientv3.LeaseID
	cancelKeepAlive context.CancelFunc
	keepAliveDone   chan struct{}

	logger log.Logger
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
		config: config,
		logger: log.DefaultLogger,
	}

	for _, opt := range opts {
		opt.Apply(directory)
	}

	return directory
}

// Advertise writes the capabilities of host under a lease kept alive until
// Withdraw
func (x *Directory) Advertise(ctx context.Context, host placement.Host) error {
	x.mu.Lock()
	defer x.mu.Unlock()

	if x.host != nil {
		return fmt.Errorf("%s is already advertised", x.host.ID())
	}

	if err := x.connect(ctx); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, x.config.Timeout)
	defer cancel()

	lease, err := x.lease.Grant(ctx, x.config.TTL)
	if err != nil {
		return fmt.Errorf("failed to create lease: %w", err)
	}

	x.host = host
	x.leaseID = lease.ID
	if err := x.put(ctx); err != nil {
		x.host = nil
		return errors.Join(fmt.Errorf("failed to register %s: %w", host.ID(), err), x.revoke())
	}

	// the keep-alive outlives the call
	keepAliveCtx, keepAliveCancel := context.WithCancel(context.Background())
	responses, err := x.client.KeepAlive(keepAliveCtx, x.leaseID)
	if err != nil {
		keepAliveCancel()
		x.host = nil
		return errors.Join(fmt.Errorf("failed to start keep-alive: %w", err), x.revoke())
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		// consume keep-alive responses to prevent channel from blocking
		for range responses {
		}
	}()

	x.cancelKeepAlive = keepAliveCancel
	x.keepAliveDone = done
	return nil
}

// Withdraw removes the advertised actor system and closes the etcd client
func (x *Directory) Withdraw(context.Context) error {
	x.mu.Lock()
	defer x.mu.Unlock()

	if x.cancelKeepAlive != nil {
		x.cancelKeepAlive()
		<-x.keepAliveDone
		x.cancelKeepAlive = nil
		x.keepAliveDone = nil
	}

	var err error
	if x.host != nil {
		// the lease expires by itself when the revoke fails
		if rerr := x.revoke(); rerr != nil {
			x.logger.Warnf("failed to revoke the lease of %s: %v", x.host.ID(), rerr)
		}
		x.host = nil
	}

	if x.client != nil {
		if cerr := x.client.Close(); cerr != nil {
			err = fmt.Errorf("failed to close etcd client: %w", cerr)
		}
		x.client, x.kv, x.lease = nil, nil, nil
	}
	return err
}

// Candidates lists the actor systems registered in the namespace, the
// advertised one excepted. The advertised capabilities are rewritten first so
// that peers see their current values.
func (x *Directory) Candidates(ctx context.Context) ([]*placement.Candidate, error) {
	x.mu.Lock()
	defer x.mu.Unlock()

	if err := x.connect(ctx); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, x.config.Timeout)
	defer cancel()

	self := ""
	if x.host != nil {
		self = x.host.ID()
		if err := x.put(ctx); err != nil {
			x.logger.Warnf("failed to refresh the registration of %s: %v", self, err)
		}
	}

	resp, err := x.kv.Get(ctx, "", clientv3.WithPrefix())
	if err != nil {
		return nil, fmt.Errorf("failed to list the actor systems: %w", err)
	}

	candidates := make([]*placement.Candidate, 0, len(resp.Kvs))
	for _, kv := range resp.Kvs {
		id := string(kv.Key)
		if id == self {
			continue
		}

		capabilities, err := placement.UnmarshalCapabilities(kv.Value)
		if err != nil {
			x.logger.Warnf("dropping malformed registration of %s: %v", id, err)
			continue
		}

		candidates = append(candidates, &placement.Candidate{
			SystemID:     id,
			Capabilities: capabilities,
		})
	}
	return candidates, nil
}

// connect creates the etcd client once. It must be called with the lock held.
func (x *Directory) connect(ctx context.Context) error {
	if x.client != nil {
		return nil
	}

	x.config.Sanitize()
	if err := x.config.Validate(); err != nil {
		return fmt.Errorf("etcd directory config is invalid: %w", err)
	}

	client, err := clientv3.New(clientv3.Config{
		Endpoints:   x.config.Endpoints,
		DialTimeout: x.config.DialTimeout,
		TLS:         x.config.TLS,
		Username:    x.config.Username,
		Password:    x.config.Password,
	})
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, x.config.DialTimeout)
	defer cancel()

	if _, err := client.Status(ctx, x.config.Endpoints[0]); err != nil {
		if cerr := client.Close(); cerr != nil {
			return errors.Join(err, fmt.Errorf("failed to close etcd client: %w", cerr))
		}
		return fmt.Errorf("failed to connect to etcd: %w", err)
	}

	prefix := x.config.Namespace + "/"
	x.client = client
	x.kv = namespace.NewKV(client.KV, prefix)
	x.lease = namespace.NewLease(client.Lease, prefix)
	return nil
}

// put writes the advertised capabilities. It must be called with the lock held.
func (x *Directory) put(ctx context.Context) error {
	bytea, skipped, err := placement.MarshalCapabilities(x.host.Capabilities())
	if err != nil {
		return err
	}

	for _, name := range skipped {
		x.logger.Warnf("capability %s of %s is not advertised: unsupported value", name, x.host.ID())
	}

	_, err = x.kv.Put(ctx, x.host.ID(), string(bytea), clientv3.WithLease(x.leaseID))
	return err
}

func (x *Directory) revoke() error {
	if x.leaseID == 0 {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), x.config.Timeout)
	defer cancel()

	_, err := x.lease.Revoke(ctx, x.leaseID)
	x.leaseID = 0
	return err
}
