// Package cluster models the set of OpenShift clusters a run deploys to.
//
// A [Set] is built once from configuration and is read-only afterwards.
// [Context] is the only place that tracks which cluster is active; stage
// code receives explicit [Config] snapshots instead of reading it.
//
// Role scopes select the clusters a stage applies to:
//
//	ScopeAll        every cluster
//	ScopeHub        the cluster flagged as hub
//	ScopeManaged    every cluster except the hub
//	ScopeDataPlane  managed clusters, plus the hub when it is also primary
package cluster
