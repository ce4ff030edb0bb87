// Package workflow runs one asset-management action from preflight to registry report.
//
// A run has four phases, always in this order:
//
//  1. Preflight: independent fatal checks against the node, the action file and the
//     registry. Nothing is mutated.
//  2. Execute: either broadcast a fresh transaction or, when the operator supplies a
//     checkpoint with --use-existing, locate the existing one. Exactly one
//     BroadcastResult is produced.
//  3. Confirm: poll the node until the transaction has more than one confirmation or
//     the confirmation timeout elapses.
//  4. Report: post the kind-specific payload to the registry.
//
// Once a transaction is broadcast, every failure carries the checkpoint the operator
// must pass back with --use-existing, so the registry can be told about the
// transaction without sending it a second time. The optional checkpoint journal
// records the same information locally and blocks fresh broadcasts while an earlier
// one is unresolved.
//
// Errors are grouped into classes (see Classify). Only node connectivity is ever
// retried, and only inside the node client.
package workflow
