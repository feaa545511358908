//go:build !linux

package affinity

func pin(int) error {
	return ErrUnsupported
}

// Current returns the CPUs the calling thread may run on.
func Current() ([]int, error) {
	return nil, ErrUnsupported
}
