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

// Package nats provides a Transport carrying frames over NATS subjects.
//
// Every actor system subscribes to <NatsSubject>.<ActorSystemName>. The same
// transport is also a placement.Directory: systems answer requests published on
// <NatsSubject>._discovery with their id and capabilities.
package nats

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/flowchartsman/retry"
	"github.com/nats-io/nats.go"
	"go.uber.org/atomic"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/tochemey/gokernel/address"
	"github.com/tochemey/gokernel/log"
	"github.com/tochemey/gokernel/placement"
	"github.com/tochemey/gokernel/transport"
)

const (
	scheme           = "nats://"
	discoverySubject = "_discovery"
	idField          = "id"
	capabilitiesKey  = "capabilities"
)

// Transport is a transport.Transport over NATS
type Transport struct {
	config *Config
	mu     sync.Mutex

	started *atomic.Bool

	// define the nats connection
	connection *nats.Conn
	// define a slice of subscriptions
	subscriptions []*nats.Subscription

	handler transport.Handler
	host    placement.Host

	logger log.Logger
}

// enforce compilation error
var (
	_ transport.Transport  = (*Transport)(nil)
	_ placement.Directory  = (*Transport)(nil)
	_ placement.Advertiser = (*Transport)(nil)
)

// NewTransport creates an instance of Transport
func NewTransport(config *Config, opts ...Option) *Transport {
	t := &Transport{
		config:  config,
		started: atomic.NewBool(false),
		logger:  log.DefaultLogger,
	}

	for _, opt := range opts {
		opt.Apply(t)
	}

	return t
}

// Start connects to the NATS server and subscribes to the actor system subject
func (t *Transport) Start(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.started.Load() {
		return nil
	}

	if err := t.config.Validate(); err != nil {
		return err
	}

	if t.config.Timeout <= 0 {
		t.config.Timeout = defaultTimeout
	}

	opts := nats.GetDefaultOptions()
	opts.Url = t.config.NatsServer
	opts.Name = t.config.ActorSystemName
	opts.ReconnectWait = 2 * time.Second
	opts.MaxReconnect = -1

	var connection *nats.Conn

	// attempt to connect five times, with an initial delay of 100ms and a
	// maximum delay of opts.ReconnectWait
	const maxRetries = 5
	retrier := retry.NewRetrier(maxRetries, 100*time.Millisecond, opts.ReconnectWait)
	err := retrier.RunContext(ctx, func(context.Context) error {
		var err error
		connection, err = opts.Connect()
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to connect to %s: %w", t.config.NatsServer, err)
	}

	inbound, err := connection.Subscribe(t.subject(), t.receive)
	if err != nil {
		connection.Close()
		return err
	}

	discovery, err := connection.Subscribe(t.discoverySubject(), t.identify)
	if err != nil {
		connection.Close()
		return err
	}

	if err := connection.Flush(); err != nil {
		connection.Close()
		return err
	}

	t.connection = connection
	t.subscriptions = []*nats.Subscription{inbound, discovery}
	t.started.Store(true)
	t.logger.Infof("nats transport of %s listening on %s", t.config.ActorSystemName, t.subject())
	return nil
}

// Resolve implements transport.Transport
func (t *Transport) Resolve(local *address.Address) *address.Address {
	if !local.IsLocal() {
		return nil
	}
	return address.NewResolved(scheme + t.subject() + "/" + strconv.FormatUint(local.InstanceNum(), 10))
}

// Deliver publishes frame on the subject of the actor system hosting to
func (t *Transport) Deliver(ctx context.Context, to *address.Address, frame []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if !t.started.Load() {
		return transport.ErrNotStarted
	}

	subject, ok := subjectOf(to)
	if !ok {
		return fmt.Errorf("%w: %s", transport.ErrUnknownDestination, to.String())
	}

	t.mu.Lock()
	connection := t.connection
	t.mu.Unlock()
	if connection == nil {
		return transport.ErrNotStarted
	}
	return connection.Publish(subject, frame)
}

// OnReceive implements transport.Transport
func (t *Transport) OnReceive(handler transport.Handler) {
	t.mu.Lock()
	t.handler = handler
	t.mu.Unlock()
}

// Advertise makes host visible to the Candidates of the other actor systems.
// Capabilities are read when a peer asks for them.
func (t *Transport) Advertise(_ context.Context, host placement.Host) error {
	t.mu.Lock()
	t.host = host
	t.mu.Unlock()
	return nil
}

// Withdraw stops answering the identification requests as host
func (t *Transport) Withdraw(context.Context) error {
	t.mu.Lock()
	t.host = nil
	t.mu.Unlock()
	return nil
}

// Candidates asks every actor system on the network for its capabilities and
// collects the answers received before the configured timeout
func (t *Transport) Candidates(ctx context.Context) ([]*placement.Candidate, error) {
	if !t.started.Load() {
		return nil, transport.ErrNotStarted
	}

	t.mu.Lock()
	connection := t.connection
	self := t.config.ActorSystemName
	if t.host != nil {
		self = t.host.ID()
	}
	t.mu.Unlock()
	if connection == nil {
		return nil, transport.ErrNotStarted
	}

	inbox := nats.NewInbox()
	sub, err := connection.SubscribeSync(inbox)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = sub.Unsubscribe()
	}()

	if err := connection.PublishRequest(t.discoverySubject(), inbox, nil); err != nil {
		return nil, err
	}

	deadline := time.Now().Add(t.config.Timeout)
	if ctxDeadline, ok := ctx.Deadline(); ok && ctxDeadline.Before(deadline) {
		deadline = ctxDeadline
	}

	var candidates []*placement.Candidate
	for {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return candidates, nil
		}

		msg, err := sub.NextMsg(remaining)
		if err != nil {
			if errors.Is(err, nats.ErrTimeout) {
				return candidates, nil
			}
			return candidates, err
		}

		candidate, err := decodeCandidate(msg.Data)
		if err != nil {
			t.logger.Warnf("dropping malformed discovery answer: %v", err)
			continue
		}

		if candidate.SystemID == self {
			continue
		}
		candidates = append(candidates, candidate)
	}
}

// Stop unsubscribes and closes the NATS connection
func (t *Transport) Stop(context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.started.Load() {
		return nil
	}
	t.started.Store(false)

	if t.connection == nil {
		return nil
	}

	defer func() {
		t.connection.Close()
		t.connection = nil
		t.subscriptions = nil
	}()

	for _, subscription := range t.subscriptions {
		if subscription != nil && subscription.IsValid() {
			if err := subscription.Unsubscribe(); err != nil {
				return err
			}
		}
	}
	return t.connection.Flush()
}

func (t *Transport) receive(msg *nats.Msg) {
	t.mu.Lock()
	handler := t.handler
	t.mu.Unlock()

	if handler == nil {
		t.logger.Warnf("dropping frame received on %s: no handler", msg.Subject)
		return
	}
	handler(context.Background(), msg.Data)
}

// identify answers a discovery request
func (t *Transport) identify(msg *nats.Msg) {
	t.mu.Lock()
	host := t.host
	t.mu.Unlock()

	if host == nil || msg.Reply == "" {
		return
	}

	bytea, err := t.encodeCandidate(host)
	if err != nil {
		t.logger.Errorf("failed to encode the capabilities of %s: %v", host.ID(), err)
		return
	}

	if err := msg.Respond(bytea); err != nil {
		t.logger.Errorf("failed to reply to a discovery request: %v", err)
	}
}

func (t *Transport) subject() string {
	return t.config.NatsSubject + "." + t.config.ActorSystemName
}

func (t *Transport) discoverySubject() string {
	return t.config.NatsSubject + "." + discoverySubject
}

// encodeCandidate encodes the host as a protobuf Struct. Capabilities that
// have no Struct representation are left out.
func (t *Transport) encodeCandidate(host placement.Host) ([]byte, error) {
	capabilities := &structpb.Struct{Fields: make(map[string]*structpb.Value)}
	for name, value := range host.Capabilities() {
		encoded, err := structpb.NewValue(value)
		if err != nil {
			t.logger.Warnf("capability %s of %s is not advertised: %v", name, host.ID(), err)
			continue
		}
		capabilities.Fields[name] = encoded
	}

	card := &structpb.Struct{Fields: map[string]*structpb.Value{
		idField:         structpb.NewStringValue(host.ID()),
		capabilitiesKey: structpb.NewStructValue(capabilities),
	}}
	return proto.Marshal(card)
}

func decodeCandidate(data []byte) (*placement.Candidate, error) {
	card := new(structpb.Struct)
	if err := proto.Unmarshal(data, card); err != nil {
		return nil, err
	}

	id := card.GetFields()[idField].GetStringValue()
	if id == "" {
		return nil, errors.New("missing actor system id")
	}

	return &placement.Candidate{
		SystemID:     id,
		Capabilities: card.GetFields()[capabilitiesKey].GetStructValue().AsMap(),
	}, nil
}

// subjectOf extracts the subject from an identity minted by Resolve
func subjectOf(addr *address.Address) (string, bool) {
	if !addr.IsResolved() {
		return "", false
	}

	rest, ok := strings.CutPrefix(addr.Identity(), scheme)
	if !ok {
		return "", false
	}

	index := strings.LastIndexByte(rest, '/')
	if index <= 0 {
		return "", false
	}
	return rest[:index], true
}
