// Package report renders the outcome of a run for the console and archives
// it in an S3 bucket.
//
// The console summary is a table with one row per stage and cluster. The
// archive holds a JSON summary and the plain text table under a run scoped
// prefix, and is shared through a presigned link.
package report
