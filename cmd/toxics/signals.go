package main

import (
	"context"
	"os"
	"os/signal"

	"github.com/rs/zerolog"
	"gopkg.in/tomb.v1"
)

// signalWatcher turns the first signal into cancellation of the running
// session and the second into cancellation of its cleanup.
type signalWatcher struct {
	tomb    tomb.Tomb
	signals chan os.Signal
	logger  zerolog.Logger

	interrupted     context.Context
	cancelInterrupt context.CancelFunc
	aborted         context.Context
	cancelAbort     context.CancelFunc
}

func watchSignals(logger zerolog.Logger, sig ...os.Signal) *signalWatcher {
	w := newSignalWatcher(logger)
	signal.Notify(w.signals, sig...)
	go w.run()
	return w
}

func newSignalWatcher(logger zerolog.Logger) *signalWatcher {
	w := &signalWatcher{
		signals: make(chan os.Signal, 2),
		logger:  logger,
	}
	w.interrupted, w.cancelInterrupt = context.WithCancel(context.Background())
	w.aborted, w.cancelAbort = context.WithCancel(context.Background())
	return w
}

func (w *signalWatcher) run() {
	defer w.tomb.Done()

	received := 0
	for {
		select {
		case <-w.tomb.Dying():
			return
		case sig := <-w.signals:
			received++
			if received == 1 {
				w.logger.Warn().
					Str("signal", sig.String()).
					Msg("Interrupted, removing fault. Signal again to skip cleanup")
				w.cancelInterrupt()
				continue
			}
			w.logger.Warn().
				Str("signal", sig.String()).
				Msg("Abandoning cleanup")
			w.cancelAbort()
			return
		}
	}
}

func (w *signalWatcher) Interrupted() context.Context {
	return w.interrupted
}

func (w *signalWatcher) Aborted() context.Context {
	return w.aborted
}

func (w *signalWatcher) Stop() {
	signal.Stop(w.signals)
	w.tomb.Kill(nil)
	w.tomb.Wait()
	w.cancelInterrupt()
	w.cancelAbort()
}
