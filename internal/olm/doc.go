// Package olm installs operators through the Operator Lifecycle Manager.
//
// Install resolves the channel and current CSV from the operator's
// PackageManifest, applies a Subscription, and waits until the installed
// ClusterServiceVersion reports phase Succeeded.
package olm
