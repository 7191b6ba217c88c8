package skills

import (
	"fmt"

	"github.com/pkg/errors"
)

// ErrSkillNotFound is returned when a skill name is not present in the
// current registry snapshot.
var ErrSkillNotFound = errors.New("skill not found")

// ErrFileNotDeclared is returned when a syntactically valid path was not
// discovered by the load scan. The declared file list is authoritative.
var ErrFileNotDeclared = errors.New("file not available for skill")

// ValidationError reports a malformed manifest. A validation failure is
// recovered per skill: the offending directory is skipped and the load
// pass continues.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid skill manifest: %s", e.Reason)
}

// InvalidPathError reports a path rejected by the access policy before
// any storage access happened.
type InvalidPathError struct {
	Path   string
	Reason string
}

func (e *InvalidPathError) Error() string {
	return fmt.Sprintf("invalid path %q: %s", e.Path, e.Reason)
}

// ReadFailureError reports a storage failure on a declared-available
// path. Read failures are never cached.
type ReadFailureError struct {
	Skill string
	Path  string
	Err   error
}

func (e *ReadFailureError) Error() string {
	return fmt.Sprintf("failed to read %q of skill %q: %v", e.Path, e.Skill, e.Err)
}

func (e *ReadFailureError) Unwrap() error { return e.Err }
