package naming

import (
	"fmt"
	"path"
	"path/filepath"
	"strings"
)

const runPrefix = "ocp4mco-"

// RunDir is the directory holding the temporary files of one run.
func RunDir(base, runID string) string {
	return filepath.Join(base, runPrefix+runID)
}

// ClusterDir is the per-cluster subdirectory of a run directory.
func ClusterDir(runDir, cluster string) string {
	return filepath.Join(runDir, cluster)
}

// SSHKeyDir holds the key pair generated for a cluster installation.
func SSHKeyDir(clusterPath string) string {
	return filepath.Join(clusterPath, "ssh")
}

// ArchivePrefix is the object key prefix of a run in the report archive.
func ArchivePrefix(prefix, runID string) string {
	return path.Join(prefix, runPrefix+runID) + "/"
}

// ArchiveKey is the object key of one archived report file.
func ArchiveKey(prefix, runID, name string) string {
	return path.Join(prefix, runPrefix+runID, name)
}

// OperatorGroup names the OperatorGroup created for a namespace.
func OperatorGroup(namespace string) string {
	return fmt.Sprintf("%s-operatorgroup", namespace)
}

// MirrorPeer names the MirrorPeer pairing the given managed clusters.
func MirrorPeer(peers ...string) string {
	return "mirrorpeer-" + strings.Join(peers, "-")
}
