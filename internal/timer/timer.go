// Package timer implements the driver's global timer service external
// collaborator: one-shot, cancellable delayed calls used by the command
// tracker's arm_timeout and the source lifecycle's retry backoff.
package timer

import (
	"context"
	"sync"
	"time"
)

// Cancel stops a scheduled call if it has not already fired. Calling it
// after the call has fired, or more than once, is a no-op.
type Cancel func()

// Service schedules delayed, cancellable function calls.
type Service interface {
	Schedule(d time.Duration, fn func()) Cancel
}

// realTime is the production Service, backed by time.AfterFunc.
type realTime struct{}

// New returns the production timer Service.
func New() Service {
	return realTime{}
}

func (realTime) Schedule(d time.Duration, fn func()) Cancel {
	ctx, cancel := context.WithCancel(context.Background())

	t := time.AfterFunc(d, func() {
		select {
		case <-ctx.Done():
			return
		default:
			fn()
		}
	})

	var once sync.Once
	return func() {
		once.Do(func() {
			cancel()
			t.Stop()
		})
	}
}
