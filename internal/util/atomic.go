package util

import (
	"math"
	"sync/atomic"
)

// AtomicFloat64 is a float64 that can be loaded and stored atomically. The zero value is 0.
type AtomicFloat64 struct {
	bits atomic.Uint64
}

func (f *AtomicFloat64) Load() float64 {
	return math.Float64frombits(f.bits.Load())
}

func (f *AtomicFloat64) Store(value float64) {
	f.bits.Store(math.Float64bits(value))
}
