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

// Handlers is a message dispatch table built once per actor type.
//
// Entries are tried in registration order and the first one whose type
// matches the message handles it. Registering an interface type catches every
// message implementing it, so a specific type registered first takes
// precedence over its more general interface. Messages matching no entry go to
// the Otherwise handler, or are reported with ReceiveContext.Unhandled.
//
//	handlers := actor.NewHandlers()
//	actor.On(handlers, func(ctx *actor.ReceiveContext, msg string) { ... })
//	actor.On(handlers, func(ctx *actor.ReceiveContext, msg fmt.Stringer) { ... })
type Handlers struct {
	entries   []func(ctx *ReceiveContext, message any) bool
	otherwise func(ctx *ReceiveContext)
}

// NewHandlers creates an empty dispatch table
func NewHandlers() *Handlers {
	return &Handlers{}
}

// On registers fn for messages of type T and returns h
func On[T any](h *Handlers, fn func(ctx *ReceiveContext, message T)) *Handlers {
	h.entries = append(h.entries, func(ctx *ReceiveContext, message any) bool {
		typed, ok := message.(T)
		if !ok {
			return false
		}
		fn(ctx, typed)
		return true
	})
	return h
}

// Otherwise sets the handler of messages matching no entry
func (h *Handlers) Otherwise(fn func(ctx *ReceiveContext)) *Handlers {
	h.otherwise = fn
	return h
}

// Handle dispatches the message of ctx
func (h *Handlers) Handle(ctx *ReceiveContext) {
	message := ctx.Message()
	for _, entry := range h.entries {
		if entry(ctx, message) {
			return
		}
	}

	if h.otherwise != nil {
		h.otherwise(ctx)
		return
	}
	ctx.Unhandled()
}
