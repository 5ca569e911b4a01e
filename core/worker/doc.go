// Package worker provides the asynchronous execution model for the gateway.
//
// It contains two halves of a hand-off:
//
//   - Pool: a fixed set of goroutines that execute blocking database jobs so
//     the caller's simulation loop never waits on I/O.
//   - Dispatcher: the way results travel back. A worker never mutates
//     caller-owned state directly; it wraps the mutation in a closure and
//     hands it to the Dispatcher, which the host drains on its own loop.
//
// This keeps the "worker computes, main-context applies" split explicit
// rather than hidden inside a scheduler.
package worker
