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

package nats

import (
	"errors"
	"time"

	"github.com/tochemey/gokernel/internal/validation"
)

const (
	defaultTimeout = time.Second
	namePattern    = `^[a-zA-Z0-9][a-zA-Z0-9-_]*$`
)

// Config configures the NATS transport
type Config struct {
	// NatsServer defines the nats server in the format nats://host:port
	NatsServer string
	// NatsSubject is the subject prefix shared by the actor systems of one network
	NatsSubject string
	// ActorSystemName is the unique name of the actor system in the network
	ActorSystemName string
	// Timeout bounds how long Candidates waits for peers to answer.
	// It defaults to one second.
	Timeout time.Duration
}

// Validate checks whether the given configuration is valid
func (x Config) Validate() error {
	return validation.New(validation.FailFast()).
		AddValidator(validation.NewEmptyStringValidator("NatsServer", x.NatsServer)).
		AddValidator(validation.NewEmptyStringValidator("NatsSubject", x.NatsSubject)).
		AddValidator(validation.NewEmptyStringValidator("ActorSystemName", x.ActorSystemName)).
		AddValidator(validation.NewPatternValidator(namePattern, x.ActorSystemName,
			errors.New("the [ActorSystemName] must contain only word characters"))).
		AddAssertion(x.Timeout >= 0, "the [Timeout] must not be negative").
		Validate()
}
