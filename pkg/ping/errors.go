package ping

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/code-payments/program-pinger/pkg/solana"
)

// Kind classifies why a stage failed.
type Kind uint8

const (
	KindUnknown Kind = iota

	// KindConfiguration is a local problem: a missing or malformed file,
	// setting or parameter. No remote state was touched because of it.
	KindConfiguration

	// KindTransport means the ledger could not be reached, or did not answer
	// in a usable way.
	KindTransport

	// KindRemoteRejection means the ledger answered and refused the request.
	KindRemoteRejection
)

func (k Kind) String() string {
	switch k {
	case KindConfiguration:
		return "configuration"
	case KindTransport:
		return "transport"
	case KindRemoteRejection:
		return "remote rejection"
	default:
		return "unknown"
	}
}

// Stage names a step of the workflow.
type Stage string

const (
	StageConfig    Stage = "config"
	StageConnect   Stage = "connect"
	StageIdentity  Stage = "identity"
	StageProgram   Stage = "program"
	StageFunding   Stage = "funding"
	StageProvision Stage = "provision"
	StageDispatch  Stage = "dispatch"
)

// Error is returned by every failing stage.
type Error struct {
	Kind  Kind
	Stage Stage
	Err   error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s error: %v", e.Stage, e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Cause implements the github.com/pkg/errors causer interface.
func (e *Error) Cause() error {
	return e.Err
}

func configurationError(stage Stage, err error) error {
	return &Error{Kind: KindConfiguration, Stage: stage, Err: err}
}

// remoteError classifies a failed ledger interaction as a rejection or a
// transport problem.
func remoteError(stage Stage, err error) error {
	kind := KindTransport
	if solana.IsRemoteRejection(err) {
		kind = KindRemoteRejection
	}

	return &Error{Kind: kind, Stage: stage, Err: err}
}

// KindOf returns the Kind of the first *Error in err's chain.
func KindOf(err error) Kind {
	var pingErr *Error
	if errors.As(err, &pingErr) {
		return pingErr.Kind
	}
	return KindUnknown
}

// StageOf returns the Stage of the first *Error in err's chain.
func StageOf(err error) Stage {
	var pingErr *Error
	if errors.As(err, &pingErr) {
		return pingErr.Stage
	}
	return ""
}

// failureFields describes err for logs and events. Program specific error
// codes are included when the cluster rejected a transaction with one.
func failureFields(err error) logrus.Fields {
	if err == nil {
		return nil
	}

	fields := logrus.Fields{
		"stage":      string(StageOf(err)),
		"error_kind": KindOf(err).String(),
	}
	if code, ok := solana.CustomErrorCode(err); ok {
		fields["custom_error_code"] = int(code)
	}
	return fields
}
