// Package action models the operator's requested asset-management action.
//
// A Request is loaded once from an action file produced by the registry (reissue,
// distribute and burn) or built from command-line flags (update-blinders) and is
// never modified afterwards. Its Payload is a closed set of kind-specific types.
//
// A Checkpoint identifies a transaction that was already broadcast by an earlier
// run. Passing one makes the workflow skip the broadcast and only finish reporting.
package action
