// Package poll provides a bounded sampler for observing eventually consistent state.
//
// A [Sampler] re-invokes an operation every poll interval until the caller
// stops consuming its samples or the timeout elapses. Errors returned by the
// operation are logged and treated as "not yet satisfied"; only the timeout
// itself ends the sequence with a [TimeoutError].
//
// [WaitForValue], [WaitFor] and [WaitForStatus] cover the common consumption
// patterns.
package poll
