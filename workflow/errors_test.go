package workflow

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/ruteri/amp-confirm/action"
	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		err  error
		want ErrorClass
	}{
		{err: nil, want: ClassUnknown},
		{err: errors.New("something else"), want: ClassUnknown},
		{err: fmt.Errorf("getnetworkinfo: %w", ErrNodeUnreachable), want: ClassConnectivity},
		{err: fmt.Errorf("%w: sendmany", ErrBroadcastOutcomeUnknown), want: ClassConnectivity},
		{err: fmt.Errorf("%w: 0.95", ErrNodeNotSynced), want: ClassPrecondition},
		{err: fmt.Errorf("x: %w", action.ErrInvalidActionFile), want: ClassPrecondition},
		{err: fmt.Errorf("x: %w", action.ErrMalformedCheckpoint), want: ClassPrecondition},
		{err: ErrUnresolvedBroadcast, want: ClassPrecondition},
		{err: fmt.Errorf("burn: %w", ErrResourceMissing), want: ClassResource},
		{err: ErrInsufficientBalance, want: ClassResource},
		{err: fmt.Errorf("%w: %w", ErrConfirmationTimeout, context.Canceled), want: ClassConfirmationTimeout},
		{err: &RecoveryError{Err: fmt.Errorf("%w: 500", ErrReportFailed)}, want: ClassReporting},
	}

	for _, tt := range tests {
		name := "nil"
		if tt.err != nil {
			name = tt.err.Error()
		}
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.err))
		})
	}
}
