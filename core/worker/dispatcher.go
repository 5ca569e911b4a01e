package worker

// Dispatcher marshals a function back onto the loop that owns mutable game
// state. Workers compute results off-loop; anything that must touch
// caller-owned state (publishing a resolved owner id, delivering a load
// callback) goes through Dispatch instead of being applied from the worker
// goroutine.
//
// The host supplies an implementation backed by its own tick/event loop.
type Dispatcher interface {
	Dispatch(fn func())
}

// SyncDispatcher runs the function inline on the calling goroutine. It is
// the fallback for hosts without a loop of their own (tests, CLI commands).
type SyncDispatcher struct{}

// Dispatch runs fn immediately.
func (SyncDispatcher) Dispatch(fn func()) { fn() }
