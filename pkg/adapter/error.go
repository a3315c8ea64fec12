package adapter

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// AdapterError carries provider failure metadata so the retry path can
// tell transient pressure apart from hard rejections.
type AdapterError struct {
	Status    int
	Temporary bool
	Err       error
}

func (e *AdapterError) Error() string {
	if e == nil {
		return "adapter error"
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return fmt.Sprintf("adapter error (status=%d)", e.Status)
}

func (e *AdapterError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// IsTransient reports whether a failure is worth waiting out before
// the next attempt. Rate limits, server-side errors, and timeouts
// qualify; auth and validation rejections do not.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	var adapterErr *AdapterError
	if !errors.As(err, &adapterErr) {
		return false
	}
	return adapterErr.Temporary || retryableStatus(adapterErr.Status)
}

// retryableStatus covers rate limiting and server-side failures.
func retryableStatus(status int) bool {
	return status == 429 || (status >= 500 && status <= 599)
}
