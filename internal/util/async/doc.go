// Package async runs independent operations concurrently and joins on
// completion.
//
// [Run] starts one goroutine per [Task], waits for all of them and returns
// one [Result] per task in submission order. Panics inside a task are
// recovered and reported as that task's error. [Join] folds the results
// into a single error for callers that only care whether anything failed.
package async
