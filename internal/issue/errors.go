package issue

import (
	"errors"
	"fmt"
)

// ErrAssemblyInvariant indicates an internal defect: the TBSCertificate
// bytes embedded in the final structure are not the bytes whose digest was
// signed, or the finished signature does not verify over them. The run
// aborts without emitting an artifact.
var ErrAssemblyInvariant = errors.New("assembly invariant violation")

// IssueError wraps an issuance failure with the pipeline stage it
// occurred in. It supports errors.Is() and errors.As() for improved
// error handling.
type IssueError struct {
	Stage string // "validate", "key", "build", "sign", "assemble", "audit"
	Err   error
}

// Error implements the error interface.
func (e *IssueError) Error() string {
	return fmt.Sprintf("issue %s: %v", e.Stage, e.Err)
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *IssueError) Unwrap() error { return e.Err }

// stageErr builds an IssueError for a stage.
func stageErr(stage string, err error) *IssueError {
	return &IssueError{Stage: stage, Err: err}
}
