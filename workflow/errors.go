package workflow

import (
	"errors"

	"github.com/ruteri/amp-confirm/action"
	"github.com/ruteri/amp-confirm/interfaces"
)

// Connectivity
var (
	ErrNodeUnreachable         = interfaces.ErrNodeUnreachable
	ErrBroadcastOutcomeUnknown = interfaces.ErrBroadcastOutcomeUnknown
)

// Preconditions. All of these are detected before anything is broadcast.
var (
	ErrUnsupportedNode        = errors.New("unsupported node")
	ErrNodeNotSynced          = errors.New("node is not fully synchronized")
	ErrWalletLocked           = errors.New("wallet is locked")
	ErrIncompatibleActionFile = errors.New("action file is not supported by this client version")
	ErrActionKindMismatch     = errors.New("action file was generated for a different action")
	ErrRegistryUnhealthy      = errors.New("asset registry is not ready")
	ErrAlreadyDistributed     = errors.New("distribution already carried out")
	ErrAssignmentNotFound     = errors.New("no assignment for distribution")
	ErrMalformedCheckpoint    = action.ErrMalformedCheckpoint
	ErrCheckpointNotFound     = errors.New("checkpoint not found")
	ErrNothingToUpdate        = errors.New("no blinders to update")
	ErrUnresolvedBroadcast    = errors.New("unresolved broadcast for this action")
	ErrInvalidConfig          = errors.New("invalid workflow configuration")
)

// Resources
var (
	ErrResourceMissing     = errors.New("missing utxo")
	ErrInsufficientBalance = errors.New("insufficient balance")
)

// Post-broadcast
var (
	ErrConfirmationTimeout = errors.New("transaction not confirmed")
	ErrReportFailed        = errors.New("registry report failed")
)

// ErrorClass groups workflow errors by how an operator should react to them.
type ErrorClass int

const (
	ClassUnknown ErrorClass = iota
	ClassConnectivity
	ClassPrecondition
	ClassResource
	ClassConfirmationTimeout
	ClassReporting
)

func (c ErrorClass) String() string {
	switch c {
	case ClassConnectivity:
		return "connectivity"
	case ClassPrecondition:
		return "precondition"
	case ClassResource:
		return "resource"
	case ClassConfirmationTimeout:
		return "confirmation_timeout"
	case ClassReporting:
		return "reporting"
	default:
		return "unknown"
	}
}

var preconditionErrors = []error{
	ErrUnsupportedNode,
	ErrNodeNotSynced,
	ErrWalletLocked,
	ErrIncompatibleActionFile,
	ErrActionKindMismatch,
	ErrRegistryUnhealthy,
	ErrAlreadyDistributed,
	ErrAssignmentNotFound,
	ErrMalformedCheckpoint,
	ErrCheckpointNotFound,
	ErrNothingToUpdate,
	ErrUnresolvedBroadcast,
	ErrInvalidConfig,
	action.ErrInvalidActionFile,
}

// Classify returns the class of err. Post-broadcast classes take precedence.
func Classify(err error) ErrorClass {
	switch {
	case err == nil:
		return ClassUnknown
	case errors.Is(err, ErrReportFailed):
		return ClassReporting
	case errors.Is(err, ErrConfirmationTimeout):
		return ClassConfirmationTimeout
	case errors.Is(err, ErrNodeUnreachable), errors.Is(err, ErrBroadcastOutcomeUnknown):
		return ClassConnectivity
	case errors.Is(err, ErrResourceMissing), errors.Is(err, ErrInsufficientBalance):
		return ClassResource
	}
	for _, target := range preconditionErrors {
		if errors.Is(err, target) {
			return ClassPrecondition
		}
	}
	return ClassUnknown
}
