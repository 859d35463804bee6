//go:build debug

package channel

// New creates the channel used on state fan-out paths.
// Debug builds ignore size and return an unbuffered channel, so a
// subscriber that cannot keep up drops states immediately instead of
// hiding behind a buffer.
func New[T any](size int) Channel[T] {
	return NewUnbuffered[T]()
}
