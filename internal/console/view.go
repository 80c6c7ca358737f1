package console

import (
	"context"
	"errors"
	"sync"

	"rmc-erp/internal/apperr"
	"rmc-erp/internal/client"
	"rmc-erp/internal/quality"
)

var (
	// ErrViewClosed is returned by loads that finish after the view was closed. Their
	// results are discarded.
	ErrViewClosed = errors.New("console: view closed")

	// ErrNoOrderSelected rejects an admin form submitted without a target order.
	ErrNoOrderSelected = apperr.Validation("Please select an order")
)

// View ties every load to the view's lifetime. Close cancels in-flight requests.
type View struct {
	ctx    context.Context
	cancel context.CancelFunc

	mu     sync.Mutex
	closed bool
}

func newView(parent context.Context) *View {
	ctx, cancel := context.WithCancel(parent)
	return &View{ctx: ctx, cancel: cancel}
}

// Context is cancelled when the view closes.
func (v *View) Context() context.Context {
	return v.ctx
}

func (v *View) Close() {
	v.mu.Lock()
	v.closed = true
	v.mu.Unlock()
	v.cancel()
}

func (v *View) Closed() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.closed
}

// load runs fetch under the view context and hands the result to apply unless the
// view was closed meanwhile. apply runs with the view lock held.
func load[T any](v *View, fetch func(context.Context) (T, error), apply func(T)) error {
	res, err := fetch(v.ctx)

	v.mu.Lock()
	defer v.mu.Unlock()
	if v.closed {
		return ErrViewClosed
	}
	if err != nil {
		return err
	}
	apply(res)
	return nil
}

// withLock runs fn with the view lock held.
func (v *View) withLock(fn func()) {
	v.mu.Lock()
	defer v.mu.Unlock()
	fn()
}

// Message is the text to show the user for err.
func Message(err error) string {
	if err == nil {
		return ""
	}
	var apiErr *client.APIError
	var netErr *client.NetworkError
	switch {
	case errors.As(err, &apiErr):
		return apiErr.Message
	case errors.As(err, &netErr):
		return "Unable to reach the server. Please try again."
	case errors.Is(err, client.ErrInvalidResponse):
		return client.ErrInvalidResponse.Error()
	case errors.Is(err, quality.ErrCertificateUnavailable):
		return quality.ErrCertificateUnavailable.Error()
	case errors.Is(err, ErrViewClosed):
		return ""
	}
	var authErr *apperr.AuthorizationError
	if errors.As(err, &authErr) {
		return "Access denied"
	}
	return apperr.Message(err, "Something went wrong. Please try again.")
}
