package sim

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestNewRunContext_ZeroDurationIsAlreadyDone(t *testing.T) {
	ctx, cancel := NewRunContext(context.Background(), RealClock{}, 0)
	defer cancel()
	if ctx.Err() == nil {
		t.Error("run context with zero duration is not done")
	}
}

func TestNewRunContext_FiresAfterDuration(t *testing.T) {
	ctx, cancel := NewRunContext(context.Background(), RealClock{}, 20*time.Millisecond)
	defer cancel()
	if ctx.Err() != nil {
		t.Fatal("run context done before its duration elapsed")
	}
	select {
	case <-ctx.Done():
		if !errors.Is(ctx.Err(), context.DeadlineExceeded) {
			t.Errorf("ctx.Err() = %v, want DeadlineExceeded", ctx.Err())
		}
	case <-time.After(time.Second):
		t.Fatal("run context did not fire")
	}
}

func TestNewRunContext_ParentCancelIsManualAbort(t *testing.T) {
	parent, abort := context.WithCancel(context.Background())
	ctx, cancel := NewRunContext(parent, RealClock{}, time.Hour)
	defer cancel()
	abort()
	select {
	case <-ctx.Done():
	case <-time.After(time.Second):
		t.Fatal("parent cancellation did not reach the run context")
	}
}

func TestGuard_ConvertsPanicToError(t *testing.T) {
	err := guard("regular worker 3", func() error { panic("boom") })()
	if err == nil {
		t.Fatal("guard returned nil for a panicking task")
	}
	if !strings.Contains(err.Error(), "regular worker 3") || !strings.Contains(err.Error(), "boom") {
		t.Errorf("guard error = %q, want task name and panic value", err)
	}
}

func TestGuard_PassesThroughErrors(t *testing.T) {
	want := errors.New("failed")
	if err := guard("generator 0", func() error { return want })(); !errors.Is(err, want) {
		t.Errorf("guard error = %v, want %v", err, want)
	}
	if err := guard("generator 0", func() error { return nil })(); err != nil {
		t.Errorf("guard error = %v, want nil", err)
	}
}
