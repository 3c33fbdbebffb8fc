// Package channel provides generic channel interfaces for decoupled communication.
package channel

// Channel is a queue with non-blocking sends and channel-based receives.
type Channel[T any] interface {
	// TrySend enqueues v and reports whether it was accepted.
	TrySend(v T) bool
	Receive() <-chan T
	Len() int
	Close()
}
