package config

import (
	"os"
	"strconv"
	"time"
)

// Timeouts holds all configurable wait budgets.
// These values can be customized via environment variables.
type Timeouts struct {
	PackageManifest   time.Duration // Wait for an operator package to show up in the catalog
	Subscription      time.Duration // Wait for a subscription to resolve its CSV
	CSV               time.Duration // Wait for a CSV to reach Succeeded
	CatalogSource     time.Duration // Wait for a custom catalog source to be READY
	MultiClusterHub   time.Duration // Wait for the MultiClusterHub to be Running
	StorageCluster    time.Duration // Wait for the StorageCluster to be Ready
	ManagedCluster    time.Duration // Wait for an imported cluster to join the hub
	GitOpsCluster     time.Duration // Wait for the GitOpsCluster to be successful
	MirrorPeer        time.Duration // Wait for the MirrorPeer to exchange secrets
	DRPolicy          time.Duration // Wait for the DRPolicy validation to succeed
	Poll              time.Duration // Default interval between resource polls
	FastPoll          time.Duration // Interval for waits with a short budget
	ImportSettle      time.Duration // Pause after importing clusters into the hub
	RetryMaxAttempts  int           // Attempts for retried cluster commands
	RetryInitialDelay time.Duration // Delay between retried cluster commands
}

// LoadTimeouts loads timeout configuration from environment variables.
// If an environment variable is not set or invalid, a default value is used.
//
// Environment Variables:
//   - OCP4MCO_TIMEOUT_PACKAGE_MANIFEST (default: 5m)
//   - OCP4MCO_TIMEOUT_SUBSCRIPTION (default: 5m)
//   - OCP4MCO_TIMEOUT_CSV (default: 12m)
//   - OCP4MCO_TIMEOUT_CATALOG_SOURCE (default: 5m)
//   - OCP4MCO_TIMEOUT_MULTICLUSTERHUB (default: 12m)
//   - OCP4MCO_TIMEOUT_STORAGECLUSTER (default: 10m)
//   - OCP4MCO_TIMEOUT_MANAGED_CLUSTER (default: 10m)
//   - OCP4MCO_TIMEOUT_GITOPSCLUSTER (default: 12m)
//   - OCP4MCO_TIMEOUT_MIRRORPEER (default: 800s)
//   - OCP4MCO_TIMEOUT_DRPOLICY (default: 3m)
//   - OCP4MCO_POLL_INTERVAL (default: 10s)
//   - OCP4MCO_FAST_POLL_INTERVAL (default: 3s)
//   - OCP4MCO_IMPORT_SETTLE (default: 90s)
//   - OCP4MCO_RETRY_MAX_ATTEMPTS (default: 3)
//   - OCP4MCO_RETRY_INITIAL_DELAY (default: 30s)
func LoadTimeouts() *Timeouts {
	return &Timeouts{
		PackageManifest:   parseDuration("OCP4MCO_TIMEOUT_PACKAGE_MANIFEST", 5*time.Minute),
		Subscription:      parseDuration("OCP4MCO_TIMEOUT_SUBSCRIPTION", 5*time.Minute),
		CSV:               parseDuration("OCP4MCO_TIMEOUT_CSV", 12*time.Minute),
		CatalogSource:     parseDuration("OCP4MCO_TIMEOUT_CATALOG_SOURCE", 5*time.Minute),
		MultiClusterHub:   parseDuration("OCP4MCO_TIMEOUT_MULTICLUSTERHUB", 12*time.Minute),
		StorageCluster:    parseDuration("OCP4MCO_TIMEOUT_STORAGECLUSTER", 10*time.Minute),
		ManagedCluster:    parseDuration("OCP4MCO_TIMEOUT_MANAGED_CLUSTER", 10*time.Minute),
		GitOpsCluster:     parseDuration("OCP4MCO_TIMEOUT_GITOPSCLUSTER", 12*time.Minute),
		MirrorPeer:        parseDuration("OCP4MCO_TIMEOUT_MIRRORPEER", 800*time.Second),
		DRPolicy:          parseDuration("OCP4MCO_TIMEOUT_DRPOLICY", 3*time.Minute),
		Poll:              parseDuration("OCP4MCO_POLL_INTERVAL", 10*time.Second),
		FastPoll:          parseDuration("OCP4MCO_FAST_POLL_INTERVAL", 3*time.Second),
		ImportSettle:      parseDuration("OCP4MCO_IMPORT_SETTLE", 90*time.Second),
		RetryMaxAttempts:  parseInt("OCP4MCO_RETRY_MAX_ATTEMPTS", 3),
		RetryInitialDelay: parseDuration("OCP4MCO_RETRY_INITIAL_DELAY", 30*time.Second),
	}
}

// parseDuration parses a duration from an environment variable.
// If the variable is not set or parsing fails, the default value is returned.
func parseDuration(envVar string, defaultVal time.Duration) time.Duration {
	val := os.Getenv(envVar)
	if val == "" {
		return defaultVal
	}

	d, err := time.ParseDuration(val)
	if err != nil || d <= 0 {
		return defaultVal
	}

	return d
}

// parseInt parses an integer from an environment variable.
// If the variable is not set or parsing fails, the default value is returned.
func parseInt(envVar string, defaultVal int) int {
	val := os.Getenv(envVar)
	if val == "" {
		return defaultVal
	}

	i, err := strconv.Atoi(val)
	if err != nil || i <= 0 {
		return defaultVal
	}

	return i
}
