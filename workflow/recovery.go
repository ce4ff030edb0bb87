package workflow

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"al.essio.dev/pkg/shellescape"
	"github.com/ruteri/amp-confirm/action"
)

// redactedSecret is what url.Redacted prints in place of a URL password.
const redactedSecret = "xxxxx"

// RecoveryError is returned when a run fails after its transaction was broadcast.
// Its message tells the operator exactly how to finish the run without sending the
// transaction again.
type RecoveryError struct {
	Kind     action.Kind
	Endpoint string
	// Checkpoint is nil for actions that do not broadcast.
	Checkpoint *action.Checkpoint
	// Command is the invocation that resumes the run.
	Command string
	Err     error
}

func (e *RecoveryError) Error() string {
	return e.message() + credentialsHint(e.Command)
}

func (e *RecoveryError) message() string {
	switch {
	case e.Checkpoint == nil:
		return fmt.Sprintf("The registry %q call failed. Run the same command again to resend the remaining payload: %s (%v)",
			e.Endpoint, e.Command, e.Err)
	case errors.Is(e.Err, ErrConfirmationTimeout):
		return fmt.Sprintf("The transaction (%s) has been broadcast, but it was not confirmed in time. "+
			"Once it is confirmed, run this command again with the additional argument \"--use-existing %s\": %s . "+
			"Do not run it again without the above extra argument as it will send the transaction again. (%v)",
			e.Checkpoint.TxID, e.Checkpoint, e.Command, e.Err)
	default:
		return fmt.Sprintf("The transaction (%s) has been broadcast, but the registry %q call failed. "+
			"You will need to resend the payload before doing any other operation. "+
			"Run this command again with the additional argument \"--use-existing %s\": %s . "+
			"Do not run it again without the above extra argument as it will send the transaction again. (%v)",
			e.Checkpoint.TxID, e.Endpoint, e.Checkpoint, e.Command, e.Err)
	}
}

func (e *RecoveryError) Unwrap() error {
	return e.Err
}

// credentialsHint tells the operator which secrets were left out of cmd.
func credentialsHint(cmd string) string {
	if !strings.Contains(cmd, ":"+redactedSecret+"@") {
		return ""
	}
	return fmt.Sprintf(" Replace %s in the node URL with the node RPC password before running it.", redactedSecret)
}

// RecoveryCommand rewrites an invocation so that it resumes from checkpoint.
// Any previous --use-existing is dropped. The registry password is left out so
// that AMP_PASSWORD or the prompt supplies it, and node URL credentials are
// redacted. An empty checkpoint only strips secrets.
func RecoveryCommand(args []string, checkpoint string) string {
	out := make([]string, 0, len(args)+2)

	for i := 0; i < len(args); i++ {
		arg := args[i]
		name, value, hasValue := strings.Cut(arg, "=")
		if !strings.HasPrefix(name, "-") {
			out = append(out, arg)
			continue
		}

		switch strings.TrimLeft(name, "-") {
		case "use-existing":
			if !hasValue {
				i++
			}
		case "p", "password":
			if !hasValue {
				i++
			}
		case "n", "node-url":
			if hasValue {
				out = append(out, name+"="+redactURL(value))
			} else {
				out = append(out, arg)
				if i+1 < len(args) {
					out = append(out, redactURL(args[i+1]))
					i++
				}
			}
		default:
			out = append(out, arg)
		}
	}

	if checkpoint != "" {
		out = append(out, "--use-existing", checkpoint)
	}

	return shellescape.QuoteCommand(out)
}

func redactURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.User == nil {
		return raw
	}
	return u.Redacted()
}
