package util

// Smooth moves oldValue toward newValue by smoothingFactor, via:
//
//	oldValue + smoothingFactor*(newValue-oldValue)
//
// A smoothingFactor of 1 discards oldValue entirely, and 0 ignores newValue.
func Smooth(oldValue, newValue, smoothingFactor float64) float64 {
	return oldValue + smoothingFactor*(newValue-oldValue)
}
