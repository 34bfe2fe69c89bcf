// Copyright (c) 2026 Restkit. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package rest

import (
	"net/http"
	"sync"
	"sync/atomic"
)

// ResponseWriter decorates the transport response with the single-response
// guarantee: exactly one finalization attempt wins, every later attempt
// (the liveness watchdog included) is ignored instead of double-writing the
// stream.
type ResponseWriter struct {
	http.ResponseWriter
	claimed atomic.Bool
	owned   atomic.Bool
	once    sync.Once
	done    chan struct{}
}

// NewResponseWriter wraps the transport response writer.
func NewResponseWriter(w http.ResponseWriter) *ResponseWriter {
	return &ResponseWriter{ResponseWriter: w, done: make(chan struct{})}
}

// Claim atomically acquires the right to finalize the response. It reports
// true for exactly one caller per request. The winner renders the envelope
// and calls [ResponseWriter.Finish] when the response is fully written.
func (w *ResponseWriter) Claim() bool {
	if w.claimed.CompareAndSwap(false, true) {
		w.owned.Store(true)
		return true
	}
	return false
}

// Finish marks the response fully written, releasing a dispatcher parked in
// [ResponseWriter.Done].
func (w *ResponseWriter) Finish() {
	w.once.Do(func() { close(w.done) })
}

// Done is closed once the response has been fully written.
func (w *ResponseWriter) Done() <-chan struct{} {
	return w.done
}

// WriteHeader marks the response finalized for handlers writing to the
// transport directly, keeping the watchdog from emitting a second body. A
// direct write also counts as completion, so a parked dispatcher is released
// rather than waiting on a Finish call that will never come.
func (w *ResponseWriter) WriteHeader(status int) {
	w.claimed.Store(true)
	w.ResponseWriter.WriteHeader(status)
	if !w.owned.Load() {
		w.Finish()
	}
}

// Write implies finalization the same way WriteHeader does.
func (w *ResponseWriter) Write(body []byte) (int, error) {
	w.claimed.Store(true)
	n, err := w.ResponseWriter.Write(body)
	if !w.owned.Load() {
		w.Finish()
	}
	return n, err
}
