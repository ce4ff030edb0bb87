// Package interfaces defines the contracts between the confirmation workflow and
// its external collaborators, separating interface definitions from implementations.
//
// # Collaborator Interfaces
//
// NodeClient: JSON-RPC access to the local Elements node. The node is the source of
// truth for chain state and performs every broadcast (reissueasset, sendmany,
// destroyamount).
//
// Registry: authenticated access to the remote asset registry (AMP). The registry is
// the source of truth for assignments, lost outputs and blinding factors, and receives
// the confirmation reports.
//
// RegistryFactory: creates an authenticated Registry for a given API base URL. The base
// URL comes from the operator's action file, so clients are built per invocation.
//
// # Storage Interfaces
//
// CheckpointJournal: append-only local record of broadcast transactions, so that a
// resumption checkpoint never depends on terminal scrollback alone.
//
// # Wire Types
//
// Node responses that are forwarded to the registry (transaction details, unspent
// outputs, issuances) keep their raw JSON so the registry receives exactly what the
// node reported.
package interfaces
