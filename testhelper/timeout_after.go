package testhelper

import (
	"fmt"
	"time"
)

// TimeoutAfter runs f and fails if it has not returned within after. f keeps
// running in the background on timeout.
func TimeoutAfter(after time.Duration, f func()) error {
	success := make(chan struct{})
	go func() {
		f()
		close(success)
	}()
	select {
	case <-success:
		return nil
	case <-time.After(after):
		return fmt.Errorf("timed out after %s", after)
	}
}
