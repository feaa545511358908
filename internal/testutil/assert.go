package testutil

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// AssertRateWithin asserts that the actual rate is within the relative tolerance of the expected rate.
func AssertRateWithin(t *testing.T, expected, actual, tolerance float64) bool {
	relativeError := math.Abs(actual-expected) / expected
	return assert.LessOrEqual(t, relativeError, tolerance, "expected rate %.2f, got %.2f", expected, actual)
}

// WaitFor polls condition every interval until it returns true or the timeout elapses, returning the last result.
func WaitFor(timeout time.Duration, interval time.Duration, condition func() bool) bool {
	deadline := time.Now().Add(timeout)
	for {
		if condition() {
			return true
		}
		if time.Now().After(deadline) {
			return false
		}
		time.Sleep(interval)
	}
}
