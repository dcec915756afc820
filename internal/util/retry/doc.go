// Package retry provides bounded retry with exponential backoff for flaky
// remote operations.
//
// A [Policy] is plain data: maximum attempts, initial delay, backoff
// multiplier and an optional predicate selecting the failure kinds worth
// retrying. [Do] applies a policy to an operation. Errors wrapped with
// [Fatal] are never retried.
package retry
