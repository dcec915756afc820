// Package naming builds the names of run-scoped artifacts and of the
// resources a run creates, so that deploy and cleanup agree on them.
package naming
