// Package ocp talks to a single OpenShift cluster.
//
// Two collaborators are provided:
//
//   - [Executor] runs a command line (oc, subctl, openshift-install)
//     against a cluster's kubeconfig. A non-zero exit surfaces as
//     *CommandFailedError carrying the captured stderr.
//   - [Accessor] reads and applies resources through the dynamic client.
//     Objects come back as *unstructured.Unstructured so callers can
//     address status fields by path.
//
// Well-known OpenShift, OLM, ACM, ODF and Ramen kinds are declared in
// kinds.go.
package ocp
