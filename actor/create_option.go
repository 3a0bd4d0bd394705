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

import "maps"

// createConfig holds the settings of one CreateActor call
type createConfig struct {
	name         string
	requirements map[string]any
	mailbox      Mailbox
}

func newCreateConfig(opts ...CreateOption) *createConfig {
	config := &createConfig{}
	for _, opt := range opts {
		opt.Apply(config)
	}

	if config.mailbox == nil {
		config.mailbox = NewDefaultMailbox()
	}
	return config
}

// CreateOption configures the creation of an actor
type CreateOption interface {
	// Apply sets the Option value of a config.
	Apply(config *createConfig)
}

var _ CreateOption = createOptionFunc(nil)

type createOptionFunc func(config *createConfig)

func (f createOptionFunc) Apply(config *createConfig) {
	f(config)
}

// WithName sets a label for the actor. It only shows in logs and stats;
// addresses do not depend on it.
func WithName(name string) CreateOption {
	return createOptionFunc(func(config *createConfig) {
		config.name = name
	})
}

// WithRequirements sets the capabilities an actor system must have to host
// the actor
func WithRequirements(requirements map[string]any) CreateOption {
	return createOptionFunc(func(config *createConfig) {
		config.requirements = maps.Clone(requirements)
	})
}

// WithMailbox sets the mailbox of the actor
func WithMailbox(mailbox Mailbox) CreateOption {
	return createOptionFunc(func(config *createConfig) {
		config.mailbox = mailbox
	})
}
