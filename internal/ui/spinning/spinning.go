// Package spinning provides graceful-shutdown signal handling for long-running batch processes
// (self-play, training) that have no interactive terminal to spin a clock on.
package spinning

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"k8s.io/klog/v2"
)

// SafeInterrupt captures SIGINT and SIGTERM, runs onInterrupt in a goroutine, and waits up to
// gracePeriod for the process to exit on its own before forcing termination via klog.Fatalf.
func SafeInterrupt(onInterrupt func(), gracePeriod time.Duration) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		s := <-sigChan
		fmt.Println()
		klog.Errorf("selfplay: got interrupted (signal %q), shutting down... (%s)", s, gracePeriod)
		if onInterrupt != nil {
			go onInterrupt()
		}

		time.Sleep(gracePeriod)
		klog.Fatalf("selfplay: graceful shutdown %s period expired, exiting", gracePeriod)
	}()
}
