package controller

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/Shopify/toxics/pkg/errors"
	"github.com/Shopify/toxics/scenario"
)

// State is a phase of a temporary session.
type State uint8

const (
	Enabled State = iota
	Disabled
	Terminating
)

func (s State) String() string {
	switch s {
	case Enabled:
		return "enabled"
	case Disabled:
		return "disabled"
	case Terminating:
		return "terminating"
	}
	return "unknown"
}

func (s State) next() State {
	if s == Enabled {
		return Disabled
	}
	return Enabled
}

// ParseDuration parses a period given as a positive whole number of seconds.
func ParseDuration(value string) (time.Duration, error) {
	seconds, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64)
	if err != nil || seconds <= 0 || seconds > math.MaxInt64/int64(time.Second) {
		return 0, errors.JoinError(fmt.Errorf("got %q", value), errors.ErrInvalidDuration)
	}
	return time.Duration(seconds) * time.Second, nil
}

// Temporary oscillates scenario id: applied for period, removed for period,
// until ctx is cancelled. Cancellation at any point, mid-sleep or mid-request,
// is followed by exactly one remove, after which Temporary returns without
// re-entering the loop. That final remove runs on a context derived from
// abort and bounded by the configured cleanup timeout, so cancelling abort
// gives up on it.
//
// A clean interruption returns nil. A failed control-plane call inside the
// loop stops the loop, is followed by the same single remove, and is
// returned.
func (c *Controller) Temporary(ctx, abort context.Context, id string, period time.Duration) error {
	if period <= 0 {
		return errors.JoinError(fmt.Errorf("got %s", period), errors.ErrInvalidDuration)
	}
	s, err := scenario.Lookup(id)
	if err != nil {
		return err
	}

	logger := c.logger.With().Str("scenario", s.ID).Dur("period", period).Logger()
	logger.Info().Msg("Starting temporary session")

	state := Enabled
	for {
		if ctx.Err() != nil {
			return c.terminate(abort, s)
		}

		c.transition(s, state)
		if state == Enabled {
			err = c.apply(ctx, s)
		} else {
			err = c.remove(ctx, s)
		}

		if ctx.Err() != nil {
			return c.terminate(abort, s)
		}
		if err != nil {
			logger.Error().Err(err).Str("state", state.String()).Msg("Temporary session aborted")
			_ = c.terminate(abort, s)
			return err
		}

		logger.Debug().Str("state", state.String()).Msg("Holding")
		if !sleep(ctx, period) {
			return c.terminate(abort, s)
		}
		state = state.next()
	}
}

func (c *Controller) terminate(abort context.Context, s scenario.Scenario) error {
	c.transition(s, Terminating)
	logger := c.logger.With().Str("scenario", s.ID).Logger()

	ctx, cancel := c.cleanupContext(abort)
	defer cancel()

	if err := c.remove(ctx, s); err != nil {
		logger.Error().Err(err).Msg("Cleanup failed, the fault may still be active")
		return err
	}
	logger.Info().Msg("Temporary session stopped")
	return nil
}

func (c *Controller) cleanupContext(abort context.Context) (context.Context, context.CancelFunc) {
	if abort == nil {
		abort = context.Background()
	}
	if c.config.CleanupTimeout > 0 {
		return context.WithTimeout(abort, c.config.CleanupTimeout)
	}
	return context.WithCancel(abort)
}

func (c *Controller) transition(s scenario.Scenario, state State) {
	if c.metrics == nil {
		return
	}
	c.metrics.TransitionsTotal.WithLabelValues(s.ID, state.String()).Inc()
}

// sleep waits for d and reports whether it elapsed before ctx was done.
func sleep(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return true
	case <-ctx.Done():
		return false
	}
}
