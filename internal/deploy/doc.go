// Package deploy implements the deployment stages run by the orchestrator.
//
// Each stage is a method on [Deployer] that receives the snapshot of the
// cluster it operates on. Hub scoped stages that reach other clusters (GitOps,
// certificate exchange, DR) open those clusters explicitly through the
// [Connector] instead of switching an ambient context.
//
// Stage order and dependencies:
//
//	ocp -> acm -> odf -> mco -> submariner -> import -> gitops -> ssl -> dr -> notify
//
// submariner, import, gitops, ssl and dr require the hub platform (acm); mco
// requires odf.
package deploy
