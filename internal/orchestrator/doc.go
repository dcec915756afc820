// Package orchestrator runs deployment stages across a cluster set.
//
// Stages run strictly in declaration order. Within a stage the clusters in
// the stage's scope are visited one by one through [cluster.Context.Within],
// or fanned out concurrently for parallel stages. A failure is recorded as a
// [StageResult] and, depending on the stage's [IsolationMode], either the
// sweep continues, the stage stops, or the whole run stops.
//
// Results never gate later stages. Callers inspect [Report.Err] to decide the
// outcome of a run.
package orchestrator
