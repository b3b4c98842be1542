//go:build !darwin && !windows && !linux

package clip

// New returns an in-memory backend suitable for headless containers.
func New() Source {
	return NewMemory("headless (no-op)")
}
