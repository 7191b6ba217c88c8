// Package skills implements the skill repository: it discovers skill
// bundles on disk, parses and validates their SKILL.md manifests, caches
// their content, and serves on-demand file reads behind a strict
// path-access policy. Skills are packaged as directories containing a
// SKILL.md file with YAML frontmatter plus optional resource files under
// the scripts/, references/ and assets/ subdirectories.
package skills

import (
	"github.com/hashicorp/go-multierror"
)

// MainFileName is the fixed entry file of every skill bundle.
const MainFileName = "SKILL.md"

// resourceDirs is the fixed set of subdirectories a skill may serve
// resource files from, in scan order.
var resourceDirs = []string{"scripts", "references", "assets"}

// Manifest is the validated frontmatter of a SKILL.md file.
type Manifest struct {
	Name        string
	Description string
	Metadata    map[string]any
}

// Skill is a loaded, registered skill.
type Skill struct {
	Name           string         // Canonical name, unique across the loaded set
	Description    string         // Brief description for catalog rendering
	Metadata       map[string]any // Optional free-form frontmatter metadata
	Path           string         // Skill directory under the skills root
	AvailableFiles []string       // MainFileName first, then <subdir>/<file> entries
}

// HasFile reports whether path was declared available by the load scan.
func (s *Skill) HasFile(path string) bool {
	for _, f := range s.AvailableFiles {
		if f == path {
			return true
		}
	}
	return false
}

// Snapshot is the immutable result of one complete load pass. It is
// never mutated after construction; a forced reload replaces it wholesale.
type Snapshot struct {
	Skills map[string]*Skill
	Report *LoadReport
}

// Lookup returns the skill registered under name, if any.
func (s *Snapshot) Lookup(name string) (*Skill, bool) {
	skill, ok := s.Skills[name]
	return skill, ok
}

// OutcomeKind classifies what happened to one skill directory during a load pass.
type OutcomeKind string

const (
	// OutcomeLoaded means the directory was parsed and registered.
	OutcomeLoaded OutcomeKind = "loaded"
	// OutcomeSkipped means the directory held a valid skill that lost a
	// name collision against an earlier directory.
	OutcomeSkipped OutcomeKind = "skipped"
	// OutcomeFailed means the directory could not be read or its
	// manifest failed validation.
	OutcomeFailed OutcomeKind = "failed"
)

// Outcome is the per-directory result of a load pass.
type Outcome struct {
	Directory string
	Skill     string // Registered (or colliding) skill name, when known
	Kind      OutcomeKind
	Reason    string // Human-readable detail for skipped/failed outcomes
	Err       error  // Underlying error for failed outcomes
}

// LoadReport aggregates the per-directory outcomes of one load pass.
type LoadReport struct {
	Outcomes []Outcome
	// RootErr is set when the skills root itself could not be enumerated.
	// The load still completes with an empty snapshot.
	RootErr error
}

// Loaded returns the number of registered skills.
func (r *LoadReport) Loaded() int { return r.count(OutcomeLoaded) }

// Skipped returns the number of directories dropped by name collisions.
func (r *LoadReport) Skipped() int { return r.count(OutcomeSkipped) }

// Failed returns the number of directories that failed to load.
func (r *LoadReport) Failed() int { return r.count(OutcomeFailed) }

func (r *LoadReport) count(kind OutcomeKind) int {
	n := 0
	for _, o := range r.Outcomes {
		if o.Kind == kind {
			n++
		}
	}
	return n
}

// Err rolls every failed outcome (and the root error, if any) into a
// single error value for callers that report the pass as a whole.
func (r *LoadReport) Err() error {
	var merr *multierror.Error
	if r.RootErr != nil {
		merr = multierror.Append(merr, r.RootErr)
	}
	for _, o := range r.Outcomes {
		if o.Kind == OutcomeFailed && o.Err != nil {
			merr = multierror.Append(merr, o.Err)
		}
	}
	return merr.ErrorOrNil()
}
