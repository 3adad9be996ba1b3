package main

import (
	"os"
	"syscall"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/Shopify/toxics/testhelper"
)

func waitDone(t *testing.T, name string, done <-chan struct{}) {
	t.Helper()
	err := testhelper.TimeoutAfter(time.Second, func() { <-done })
	if err != nil {
		t.Fatalf("%s was not cancelled: %s", name, err)
	}
}

func TestSignalWatcher_SecondSignalAborts(t *testing.T) {
	w := newSignalWatcher(zerolog.Nop())
	go w.run()
	defer w.Stop()

	w.signals <- os.Interrupt
	waitDone(t, "interrupt context", w.Interrupted().Done())

	select {
	case <-w.Aborted().Done():
		t.Fatal("abort context cancelled by the first signal")
	case <-time.After(50 * time.Millisecond):
	}

	w.signals <- syscall.SIGTERM
	waitDone(t, "abort context", w.Aborted().Done())
}

func TestSignalWatcher_Stop(t *testing.T) {
	w := newSignalWatcher(zerolog.Nop())
	go w.run()

	err := testhelper.TimeoutAfter(time.Second, w.Stop)
	if err != nil {
		t.Fatal("Stop did not return", err)
	}

	waitDone(t, "interrupt context", w.Interrupted().Done())
	waitDone(t, "abort context", w.Aborted().Done())
}
