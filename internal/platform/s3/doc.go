// Package s3 wraps the AWS SDK S3 client used to archive run reports.
//
// Any S3-compatible store works: with an explicit endpoint the client
// switches to path-style addressing, otherwise it talks to AWS S3 in the
// configured region.
package s3
