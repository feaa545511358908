package util

import (
	"math"

	"github.com/influxdata/tdigest"
)

// Digest summarizes a stream of samples, tracking exact min, max and mean alongside approximate quantiles.
//
// This type is not concurrency safe.
type Digest struct {
	*tdigest.TDigest
	Min  float64
	Max  float64
	Sum  float64
	Size uint
}

func NewDigest() *Digest {
	return &Digest{
		TDigest: tdigest.NewWithCompression(100),
		Min:     math.Inf(1),
		Max:     math.Inf(-1),
	}
}

func (d *Digest) Add(value float64) {
	d.TDigest.Add(value, 1)
	d.Min = min(d.Min, value)
	d.Max = max(d.Max, value)
	d.Sum += value
	d.Size++
}

// Mean returns the arithmetic mean of the samples, or 0 if there are none.
func (d *Digest) Mean() float64 {
	if d.Size == 0 {
		return 0
	}
	return d.Sum / float64(d.Size)
}

// Median returns the approximate median of the samples, or 0 if there are none.
func (d *Digest) Median() float64 {
	if d.Size == 0 {
		return 0
	}
	return d.Quantile(.5)
}

func (d *Digest) Reset() {
	d.TDigest = tdigest.NewWithCompression(100)
	d.Min = math.Inf(1)
	d.Max = math.Inf(-1)
	d.Sum = 0
	d.Size = 0
}
