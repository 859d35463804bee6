// Package channel wraps Go channels behind small generic interfaces so
// the buffering policy of a fan-out path can be swapped per build.
package channel

// Receiver provides read access to a channel.
type Receiver[T any] interface {
	Receive() <-chan T
	Len() int
}

// Sender provides write access to a channel. TrySend is the non-blocking
// variant used where a slow receiver must not stall the sender.
type Sender[T any] interface {
	Send(T)
	TrySend(T) bool
}

// Channel combines read and write access.
type Channel[T any] interface {
	Receiver[T]
	Sender[T]
	Close()
}

// NewSignal returns a channel used purely as a done/stop signal: it is
// never sent on, only closed.
func NewSignal() chan struct{} {
	return make(chan struct{})
}
