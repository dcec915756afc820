// Package notify delivers per-cluster deployment reports by email and to
// chat webhooks (Slack or Google Chat).
//
// Senders are best effort from the deployment's point of view: the
// notification stage logs their failures and never fails the run.
package notify
