package util

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMedian(t *testing.T) {
	t.Run("empty", func(t *testing.T) {
		assert.Equal(t, 0, Median([]int{}))
	})

	t.Run("odd count", func(t *testing.T) {
		assert.Equal(t, 5.0, Median([]float64{9, 1, 5}))
	})

	t.Run("even count takes upper median", func(t *testing.T) {
		assert.Equal(t, int64(30), Median([]int64{40, 10, 30, 20}))
	})

	t.Run("does not modify input", func(t *testing.T) {
		values := []int{3, 1, 2}
		Median(values)
		assert.Equal(t, []int{3, 1, 2}, values)
	})

	t.Run("resists outliers", func(t *testing.T) {
		assert.Equal(t, 10, Median([]int{10, 10, 11, 9, 10000}))
	})
}

func TestSmooth(t *testing.T) {
	assert.Equal(t, 100.0, Smooth(100, 200, 0))
	assert.Equal(t, 200.0, Smooth(100, 200, 1))
	assert.InDelta(t, 170.0, Smooth(100, 200, .7), 1e-9)
	assert.InDelta(t, 30.0, Smooth(100, 0, .7), 1e-9)
}

func TestAtomicFloat64(t *testing.T) {
	var f AtomicFloat64
	assert.Equal(t, 0.0, f.Load())
	f.Store(1234.5)
	assert.Equal(t, 1234.5, f.Load())
	f.Store(-0.25)
	assert.Equal(t, -0.25, f.Load())
}

func TestStopwatch(t *testing.T) {
	stopwatch := NewStopwatch()
	first := stopwatch.ElapsedTime()
	time.Sleep(5 * time.Millisecond)
	second := stopwatch.ElapsedTime()
	assert.GreaterOrEqual(t, second-first, 5*time.Millisecond)
}

func TestDigest(t *testing.T) {
	d := NewDigest()
	assert.Equal(t, 0.0, d.Mean())
	assert.Equal(t, 0.0, d.Median())

	for i := 1; i <= 99; i++ {
		d.Add(float64(i))
	}
	assert.Equal(t, uint(99), d.Size)
	assert.Equal(t, 1.0, d.Min)
	assert.Equal(t, 99.0, d.Max)
	assert.InDelta(t, 50.0, d.Mean(), 1e-9)
	assert.InDelta(t, 50.0, d.Median(), 2)

	d.Reset()
	assert.Equal(t, uint(0), d.Size)
	assert.Equal(t, 0.0, d.Median())
}
