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

package etcd

import (
	"crypto/tls"
	"time"

	"github.com/tochemey/gokernel/internal/validation"
)

const (
	defaultNamespace   = "gokernel"
	defaultTTL         = 30
	defaultDialTimeout = 5 * time.Second
	defaultTimeout     = 5 * time.Second
)

// Config configures the etcd placement directory
type Config struct {
	// Endpoints is a list of etcd cluster endpoints
	Endpoints []string
	// Namespace is the key prefix shared by the actor systems that can host
	// each other's actors.
	// Default: "gokernel"
	Namespace string
	// TTL is the time-to-live of the registration lease in seconds.
	// The lease is kept alive until Withdraw.
	// Default: 30
	TTL int64
	// TLS configuration (optional)
	TLS *tls.Config
	// DialTimeout for etcd client connections.
	// Default: 5s
	DialTimeout time.Duration
	// Username for etcd authentication (optional)
	Username string
	// Password for etcd authentication (optional)
	Password string
	// Timeout for etcd operations.
	// Default: 5s
	Timeout time.Duration
}

var _ validation.Validator = (*Config)(nil)

// Sanitize sets the defaults
func (c *Config) Sanitize() {
	if c.Namespace == "" {
		c.Namespace = defaultNamespace
	}
	if c.TTL == 0 {
		c.TTL = defaultTTL
	}
	if c.DialTimeout == 0 {
		c.DialTimeout = defaultDialTimeout
	}
	if c.Timeout == 0 {
		c.Timeout = defaultTimeout
	}
}

// Validate implements validation.Validator.
func (c *Config) Validate() error {
	return validation.New(validation.FailFast()).
		AddValidator(validation.NewEmptyStringValidator("Namespace", c.Namespace)).
		AddAssertion(len(c.Endpoints) > 0, "Endpoints must not be empty").
		AddAssertion(c.TTL > 0, "TTL must be greater than 0").
		AddAssertion(c.DialTimeout > 0, "DialTimeout must be greater than 0").
		AddAssertion(c.Timeout > 0, "Timeout must be greater than 0").
		Validate()
}
