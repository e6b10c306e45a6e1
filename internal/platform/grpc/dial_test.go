package grpc

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestWaitReadySucceedsWhenServing(t *testing.T) {
	server, addr := startHealthServer(t)
	server.MarkServing()

	if err := WaitReady(context.Background(), addr, time.Second, nil); err != nil {
		t.Fatalf("wait ready: %v", err)
	}
}

func TestWaitReadyReportsHealthStage(t *testing.T) {
	_, addr := startHealthServer(t)

	start := time.Now()
	err := WaitReady(context.Background(), addr, 200*time.Millisecond, nil)
	if err == nil {
		t.Fatal("expected error while NOT_SERVING")
	}
	var probeErr *ProbeError
	if !errors.As(err, &probeErr) {
		t.Fatalf("expected ProbeError, got %T", err)
	}
	if probeErr.Stage != ProbeStageHealth {
		t.Fatalf("stage = %q, want %q", probeErr.Stage, ProbeStageHealth)
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Fatalf("expected timeout to bound the probe, took %v", elapsed)
	}
}

func TestProbeErrorFormatting(t *testing.T) {
	wrapped := &ProbeError{Addr: "localhost:1", Stage: ProbeStageConnect, Err: errors.New("boom")}
	if !strings.Contains(wrapped.Error(), "gRPC connect localhost:1") {
		t.Fatalf("unexpected error: %s", wrapped.Error())
	}
	if wrapped.Unwrap() == nil {
		t.Fatal("expected wrapped error")
	}

	var nilErr *ProbeError
	if nilErr.Error() == "" || nilErr.Unwrap() != nil {
		t.Fatal("unexpected nil error behavior")
	}
}
