package crud

import (
	"context"
	"encoding/json"
	"fmt"
)

// Result is a single-resolution asynchronous value: it settles exactly once,
// either with JSON data or with an error. Results are shared between all
// callers that hit the same cache entry.
type Result struct {
	done chan struct{}
	data json.RawMessage
	err  error
}

func newResult() *Result {
	return &Result{done: make(chan struct{})}
}

// Resolved returns a result that has already settled with data.
func Resolved(data json.RawMessage) *Result {
	r := newResult()
	r.settle(data, nil)

	return r
}

// Rejected returns a result that has already settled with err.
func Rejected(err error) *Result {
	r := newResult()
	r.settle(nil, err)

	return r
}

func (r *Result) settle(data json.RawMessage, err error) {
	r.data = data
	r.err = err
	close(r.done)
}

// Done is closed once the result has settled.
func (r *Result) Done() <-chan struct{} {
	return r.done
}

// Settled reports whether the result has settled, without blocking.
func (r *Result) Settled() bool {
	select {
	case <-r.done:
		return true
	default:
		return false
	}
}

// Wait blocks until the result settles or ctx is done. Giving up on ctx
// does not stop the underlying request.
func (r *Result) Wait(ctx context.Context) (json.RawMessage, error) {
	select {
	case <-r.done:
		return r.data, r.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Decode waits for the result and unmarshals it into v.
func (r *Result) Decode(ctx context.Context, v any) error {
	data, err := r.Wait(ctx)
	if err != nil {
		return err
	}

	err = json.Unmarshal(data, v)
	if err != nil {
		return fmt.Errorf("parsing response: %w", err)
	}

	return nil
}

// Fetch calls the endpoint and decodes the settled result into T.
func Fetch[T any](ctx context.Context, e *Endpoint, opts *Options, params Params, body any) (T, error) {
	var out T

	err := e.Call(ctx, opts, params, body).Decode(ctx, &out)

	return out, err
}

// FetchPage calls a paginatable endpoint and decodes its normalised page.
func FetchPage[T any](ctx context.Context, e *Endpoint, opts *Options, params Params, body any) (*Page[T], error) {
	page, err := Fetch[Page[T]](ctx, e, opts, params, body)
	if err != nil {
		return nil, err
	}

	return &page, nil
}
