// Copyright (c) 2026 Restkit. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package rest

// Result is the eventual production of a pending outcome.
type Result struct {
	Value any
	Err   error
}

type outcomeKind uint8

const (
	outcomeNone outcomeKind = iota
	outcomeValue
	outcomeFailed
	outcomePending
)

// Outcome is the tagged result of a handler invocation: a direct value, a
// failure, a pending asynchronous result, or nothing at all.
//
// Representing the handler's production explicitly keeps the dispatcher's
// state machine exhaustive instead of relying on runtime type inspection.
type Outcome struct {
	kind   outcomeKind
	value  any
	err    error
	future <-chan Result
}

// Value produces a direct success outcome, serialized immediately.
func Value(v any) Outcome {
	return Outcome{kind: outcomeValue, value: v}
}

// Fail produces a failure outcome. Typed errors propagate unchanged to the
// serializer; anything else is coerced to Internal by the dispatcher.
func Fail(err error) Outcome {
	return Outcome{kind: outcomeFailed, err: err}
}

// None signals that the handler did not produce a response. The dispatcher
// arms a liveness watchdog so the request still receives exactly one
// response; handlers choosing None are expected to finalize through
// [Ctx.Send] before it fires.
func None() Outcome {
	return Outcome{kind: outcomeNone}
}

// Pending wraps an asynchronous result. The dispatcher parks the request on
// the eventual value and serializes it when it lands.
func Pending(future <-chan Result) Outcome {
	return Outcome{kind: outcomePending, future: future}
}

// Defer runs fn on its own goroutine and returns the pending outcome of its
// eventual result.
func Defer(fn func() (any, error)) Outcome {
	future := make(chan Result, 1)
	go func() {
		value, err := fn()
		future <- Result{Value: value, Err: err}
	}()
	return Pending(future)
}
