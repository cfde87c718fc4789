package service

import (
	"context"
	"testing"
	"time"

	"github.com/matryer/is"
)

func waitAsync(w *WaitRegistry, ctx context.Context, seen int) <-chan bool {
	done := make(chan bool, 1)
	go func() { done <- w.Wait(ctx, seen) }()
	return done
}

func result(t *testing.T, done <-chan bool, within time.Duration) (bool, bool) {
	t.Helper()
	select {
	case changed := <-done:
		return changed, true
	case <-time.After(within):
		return false, false
	}
}

func TestNotifyWakesWaiters(t *testing.T) {
	is := is.New(t)
	w := NewWaitRegistry(time.Second)

	first := waitAsync(w, context.Background(), 0)
	second := waitAsync(w, context.Background(), 0)
	deadline := time.Now().Add(time.Second)
	for w.Waiting() != 2 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	is.Equal(w.Waiting(), 2)

	w.Notify(0) // same version
	_, returned := result(t, first, 20*time.Millisecond)
	is.True(!returned)

	w.Notify(1)
	changed, returned := result(t, first, time.Second)
	is.True(returned)
	is.True(changed)
	changed, returned = result(t, second, time.Second)
	is.True(returned)
	is.True(changed)
}

func TestWaitReturnsForStaleVersion(t *testing.T) {
	is := is.New(t)
	w := NewWaitRegistry(time.Minute)
	w.Notify(3)
	is.True(w.Wait(context.Background(), 2))
}

func TestWaitTimesOut(t *testing.T) {
	is := is.New(t)
	w := NewWaitRegistry(10 * time.Millisecond)
	is.True(!w.Wait(context.Background(), 0))
	is.Equal(w.Waiting(), 0)
}

func TestCancelReleasesWaiter(t *testing.T) {
	is := is.New(t)
	w := NewWaitRegistry(time.Minute)
	ctx, cancel := context.WithCancel(context.Background())
	done := waitAsync(w, ctx, 0)

	cancel()
	changed, returned := result(t, done, time.Second)
	is.True(returned)
	is.True(!changed)
	is.Equal(w.Waiting(), 0)
}

func TestShutdownReleasesWaiters(t *testing.T) {
	is := is.New(t)
	w := NewWaitRegistry(time.Minute)
	done := waitAsync(w, context.Background(), 0)
	time.Sleep(10 * time.Millisecond)

	w.Shutdown()
	changed, returned := result(t, done, time.Second)
	is.True(returned)
	is.True(!changed)

	// waits after shutdown return at once
	is.True(!w.Wait(context.Background(), 0))
	w.Shutdown()
	w.Notify(5)
}
