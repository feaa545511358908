package testutil

import (
	"sync/atomic"
	"time"
)

// TestStopwatch is a util.Stopwatch that only advances when told to, for deterministic checking windows.
type TestStopwatch struct {
	CurrentTime int64
}

func (t *TestStopwatch) ElapsedTime() time.Duration {
	return time.Duration(atomic.LoadInt64(&t.CurrentTime))
}

func (t *TestStopwatch) Advance(d time.Duration) {
	atomic.AddInt64(&t.CurrentTime, int64(d))
}

func Timed(fn func()) time.Duration {
	startTime := time.Now()
	fn()
	return time.Since(startTime)
}

// Waiter blocks until an expected number of Resume calls has been made.
type Waiter struct {
	count atomic.Int32
	done  chan struct{}
}

func NewWaiter() *Waiter {
	return &Waiter{
		done: make(chan struct{}),
	}
}

// AwaitWithTimeout waits for expectedResumes Resume calls, returning false if the timeout elapses first.
func (w *Waiter) AwaitWithTimeout(expectedResumes int, timeout time.Duration) bool {
	if w.count.Add(int32(expectedResumes)) <= 0 {
		return true
	}
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case <-timer.C:
		return false
	case <-w.done:
		return true
	}
}

// Resume records a resume. Extra resumes beyond those awaited are ignored.
func (w *Waiter) Resume() {
	if w.count.Add(-1) == 0 {
		close(w.done)
	}
}
