//go:build !debug

package channel

// New creates the channel used on state fan-out paths.
// Production builds buffer up to size states per subscriber.
func New[T any](size int) Channel[T] {
	return NewBuffered[T](size)
}
