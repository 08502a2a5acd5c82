package workflow

import (
	"errors"
	"fmt"

	"ContentIngest/internal/domain"
	"ContentIngest/internal/stage"
)

// Graph assembly and routing errors.
var (
	ErrNoEntry         = errors.New("entry node is not set")
	ErrUnknownNode     = errors.New("unknown node")
	ErrDuplicateNode   = errors.New("node declared twice")
	ErrDuplicateEdge   = errors.New("outgoing edge declared twice")
	ErrMissingEdge     = errors.New("node has no outgoing edge")
	ErrUnreachableNode = errors.New("node is unreachable from entry")
	ErrUnknownRoute    = errors.New("router picked a node outside the branch candidates")
)

// FaultError reports a run that stopped because a collaborator failed.
// State is the record as it stood before the failing node ran.
type FaultError struct {
	RunID string
	Node  stage.Kind
	State domain.State
	Err   error
}

func (e *FaultError) Error() string {
	return fmt.Sprintf("run %s failed at node %s: %v", e.RunID, e.Node, e.Err)
}

func (e *FaultError) Unwrap() error {
	return e.Err
}

// AsFault extracts a FaultError from err.
func AsFault(err error) (*FaultError, bool) {
	var fault *FaultError
	if errors.As(err, &fault) {
		return fault, true
	}
	return nil, false
}
