// Package watch waits for a remote resource to reach a status.
//
// A [Watcher] moves through four states:
//
//	Pending  -> Observed -> Matched
//	                     -> TimedOut
//
// Pending means nothing was fetched yet. Each poll that finds the
// resource moves it to Observed. A status field that is absent, or that
// holds another value, keeps the watcher Observed. When the field matches
// the target the watcher is Matched. When the poll timeout fires first the
// watcher is TimedOut and Wait returns *ResourceWrongStatusError, never the
// poller's own timeout error.
package watch
