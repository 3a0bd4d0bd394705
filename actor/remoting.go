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
	"context"

	"github.com/tochemey/gokernel/address"
	gerrors "github.com/tochemey/gokernel/errors"
	"github.com/tochemey/gokernel/remote"
)

// associate makes a local address reachable through the transport
func (x *actorSystem) associate(local *address.Address) {
	if x.transport == nil {
		return
	}

	resolved := x.transport.Resolve(local)
	if resolved == nil {
		return
	}

	if err := x.manager.AssociateUseableAddress(x.id, local.InstanceNum(), resolved); err != nil {
		x.logger.Warnf("failed to associate %s: %v", local, err)
	}
}

// sendRemote hands a message to the transport. to must come from
// Manager.SendToAddress. A local sender that was never associated fails with
// errors.ErrCannotPickleAddress.
func (x *actorSystem) sendRemote(ctx context.Context, from, to *address.Address, message any) error {
	if x.transport == nil {
		return gerrors.ErrRemotingDisabled
	}

	envelope := &remote.Envelope{Receiver: to, Kind: remote.KindMessage}
	if from != nil {
		envelope.Sender = from
		if exported := x.manager.SendToAddress(from); exported != nil {
			envelope.Sender = exported
		}
	}

	payload := message
	switch msg := message.(type) {
	case *ActorExitRequest:
		envelope.Kind = remote.KindExitRequest
		payload = nil
	case *PoisonMessage:
		envelope.Kind = remote.KindPoison
		payload = msg.PoisonMessage
	}

	if payload != nil {
		bytea, err := x.serializer.Serialize(payload)
		if err != nil {
			return err
		}
		envelope.Payload = bytea
	}

	frame, err := remote.EncodeFrame(envelope, x.compression)
	if err != nil {
		return err
	}
	return x.transport.Deliver(ctx, to, frame)
}

// onFrame handles a frame received from the transport
func (x *actorSystem) onFrame(ctx context.Context, frame []byte) {
	envelope, err := remote.DecodeFrame(frame)
	if err != nil {
		x.logger.Warnf("%v: %v", gerrors.ErrInvalidTransportMessage, err)
		return
	}

	receiver := x.manager.ImportAddr(envelope.Receiver)
	sender := x.manager.ImportAddr(envelope.Sender)

	var message any
	switch envelope.Kind {
	case remote.KindExitRequest:
		message = new(ActorExitRequest)
	default:
		payload, err := x.serializer.Deserialize(envelope.Payload)
		if err != nil {
			x.logger.Warnf("%v: %v", gerrors.ErrInvalidTransportMessage, err)
			x.deadLetter(ctx, sender, receiver, envelope.Payload, err)
			return
		}

		message = payload
		if envelope.Kind == remote.KindPoison {
			message = &PoisonMessage{PoisonMessage: payload, Details: errRemote}
		}
	}

	x.deliverLocal(ctx, sender, receiver, message)
}
