// Package manifest renders the embedded Kubernetes manifests used by the
// deployment stages.
//
// Manifests live under manifests/ and are Go templates with the sprig
// function library. A name addresses either a single file
// ("olm/subscription.yaml") or a directory ("gitops/hub"), in which case
// every YAML file in it is rendered and joined into one multi-document
// stream. Files in an override directory shadow the embedded ones.
package manifest
