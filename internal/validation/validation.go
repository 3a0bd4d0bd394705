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

package validation

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"go.uber.org/multierr"
)

// Validator is implemented by every check a Chain can run
type Validator interface {
	Validate() error
}

// Chain runs validators in order and accumulates their violations
type Chain struct {
	failFast   bool
	validators []Validator
}

// ChainOption configures a Chain
type ChainOption func(*Chain)

// New creates a validation chain
func New(opts ...ChainOption) *Chain {
	chain := &Chain{validators: make([]Validator, 0, 4)}
	for _, opt := range opts {
		opt(chain)
	}
	return chain
}

// FailFast stops the chain at the first violation
func FailFast() ChainOption {
	return func(c *Chain) { c.failFast = true }
}

// AddValidator appends a validator to the chain.
func (c *Chain) AddValidator(v Validator) *Chain {
	c.validators = append(c.validators, v)
	return c
}

// AddAssertion appends a boolean check to the chain.
func (c *Chain) AddAssertion(isTrue bool, message string) *Chain {
	return c.AddValidator(NewBooleanValidator(isTrue, message))
}

// Validate runs the chain. Without FailFast every violation is combined.
func (c *Chain) Validate() error {
	var violations error
	for _, v := range c.validators {
		if err := v.Validate(); err != nil {
			if c.failFast {
				return err
			}
			violations = multierr.Append(violations, err)
		}
	}
	return violations
}

type booleanValidator struct {
	ok      bool
	message string
}

// NewBooleanValidator fails with message when ok is false
func NewBooleanValidator(ok bool, message string) Validator {
	return booleanValidator{ok: ok, message: message}
}

func (v booleanValidator) Validate() error {
	if !v.ok {
		return errors.New(v.message)
	}
	return nil
}

type emptyStringValidator struct {
	field string
	value string
}

// NewEmptyStringValidator fails when value is blank
func NewEmptyStringValidator(field, value string) Validator {
	return emptyStringValidator{field: field, value: value}
}

func (v emptyStringValidator) Validate() error {
	if strings.TrimSpace(v.value) == "" {
		return fmt.Errorf("the [%s] is required", v.field)
	}
	return nil
}

type patternValidator struct {
	pattern   *regexp.Regexp
	value     string
	customErr error
}

// NewPatternValidator fails with customErr when value does not match pattern.
// The pattern must be a valid regular expression.
func NewPatternValidator(pattern, value string, customErr error) Validator {
	return patternValidator{
		pattern:   regexp.MustCompile(pattern),
		value:     value,
		customErr: customErr,
	}
}

func (v patternValidator) Validate() error {
	if v.pattern.MatchString(v.value) {
		return nil
	}
	if v.customErr != nil {
		return v.customErr
	}
	return fmt.Errorf("%q does not match %s", v.value, v.pattern.String())
}
