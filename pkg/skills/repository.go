package skills

import (
	"context"
	"fmt"
	"path"
	"path/filepath"
	"sort"
	"sync"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
	"golang.org/x/sync/singleflight"

	"github.com/geodocs/skillserve/pkg/logger"
)

const loadKey = "load"

// contentKey identifies one cached file of one skill. A structured key
// avoids collisions with skill names that could contain the separator.
type contentKey struct {
	Skill string
	Path  string
}

// Repository discovers, validates and serves skill bundles under a
// single skills root. It owns the registry snapshot and the content
// cache; construct one per process and pass it by handle.
//
// All published state is replaced wholesale by a load pass. Loads are
// single-flight: concurrent callers during an in-flight load receive the
// same eventual snapshot. Everything else runs lock-free against the
// published snapshot.
type Repository struct {
	fs   afero.Fs
	root string

	group singleflight.Group

	mu       sync.RWMutex
	snapshot *Snapshot
	content  map[contentKey]string
}

// NewRepository creates a repository over the given filesystem and
// skills root directory. No I/O happens until the first Load.
func NewRepository(fsys afero.Fs, root string) *Repository {
	return &Repository{
		fs:      fsys,
		root:    root,
		content: make(map[contentKey]string),
	}
}

// Root returns the skills root directory the repository serves from.
func (r *Repository) Root() string {
	return r.root
}

// Load returns the current registry snapshot, running a load pass if
// none has been published yet. force discards the cached snapshot, the
// content cache and any in-flight result, and starts a fresh pass.
//
// Load never fails: an unreadable skills root completes with an empty
// snapshot, and a panicking pass degrades to an empty snapshot that is
// not cached, so the next caller retries from scratch.
func (r *Repository) Load(ctx context.Context, force bool) *Snapshot {
	if force {
		r.group.Forget(loadKey)
		r.mu.Lock()
		r.snapshot = nil
		r.mu.Unlock()
	} else if snap := r.published(); snap != nil {
		return snap
	}

	result, _, _ := r.group.Do(loadKey, func() (any, error) {
		// A concurrent caller may have published while we waited.
		if !force {
			if snap := r.published(); snap != nil {
				return snap, nil
			}
		}

		snap, content, err := r.runPass(ctx)
		if err != nil {
			logger.G(ctx).WithError(err).Error("skill load pass failed")
			return &Snapshot{
				Skills: map[string]*Skill{},
				Report: &LoadReport{RootErr: err},
			}, nil
		}

		r.mu.Lock()
		r.snapshot = snap
		r.content = content
		r.mu.Unlock()

		return snap, nil
	})

	return result.(*Snapshot)
}

func (r *Repository) published() *Snapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.snapshot
}

// runPass executes one load pass, converting a panic into an error so a
// pathological pass never poisons the singleflight group.
func (r *Repository) runPass(ctx context.Context) (snap *Snapshot, content map[contentKey]string, err error) {
	defer func() {
		if p := recover(); p != nil {
			snap, content = nil, nil
			err = errors.Errorf("skill load panicked: %v", p)
		}
	}()
	snap, content = r.loadPass(ctx)
	return snap, content, nil
}

// loadPass enumerates the immediate subdirectories of the skills root in
// lexical order, loading each one's manifest. A bad skill is skipped,
// never aborting the pass; the first registration wins a name collision.
func (r *Repository) loadPass(ctx context.Context) (*Snapshot, map[contentKey]string) {
	log := logger.G(ctx)
	loaded := make(map[string]*Skill)
	content := make(map[contentKey]string)
	report := &LoadReport{}

	entries, err := afero.ReadDir(r.fs, r.root)
	if err != nil {
		log.WithError(err).WithField("root", r.root).Error("failed to enumerate skills root")
		report.RootErr = err
		return &Snapshot{Skills: loaded, Report: report}, content
	}

	for _, entry := range entries {
		dir := filepath.Join(r.root, entry.Name())

		// Stat rather than trusting the listing entry so symlinked
		// skill directories are followed.
		info, err := r.fs.Stat(dir)
		if err != nil || !info.IsDir() {
			continue
		}

		raw, err := afero.ReadFile(r.fs, filepath.Join(dir, MainFileName))
		if err != nil {
			log.WithError(err).WithField("dir", dir).Warn("failed to read skill main file, skipping")
			report.Outcomes = append(report.Outcomes, Outcome{
				Directory: dir,
				Kind:      OutcomeFailed,
				Reason:    "unreadable " + MainFileName,
				Err:       err,
			})
			continue
		}

		manifest, body, err := ParseManifest(ctx, raw)
		if err != nil {
			log.WithError(err).WithField("dir", dir).Warn("failed to parse skill manifest, skipping")
			report.Outcomes = append(report.Outcomes, Outcome{
				Directory: dir,
				Kind:      OutcomeFailed,
				Reason:    "invalid manifest",
				Err:       err,
			})
			continue
		}

		if existing, taken := loaded[manifest.Name]; taken {
			log.WithFields(logrus.Fields{
				"skill":     manifest.Name,
				"kept":      existing.Path,
				"duplicate": dir,
			}).Warn("duplicate skill name, keeping first registration")
			report.Outcomes = append(report.Outcomes, Outcome{
				Directory: dir,
				Skill:     manifest.Name,
				Kind:      OutcomeSkipped,
				Reason:    fmt.Sprintf("name already registered by %s", existing.Path),
			})
			continue
		}

		skill := &Skill{
			Name:           manifest.Name,
			Description:    manifest.Description,
			Metadata:       manifest.Metadata,
			Path:           dir,
			AvailableFiles: scanResources(r.fs, dir),
		}
		loaded[skill.Name] = skill
		content[contentKey{Skill: skill.Name, Path: MainFileName}] = body
		report.Outcomes = append(report.Outcomes, Outcome{
			Directory: dir,
			Skill:     skill.Name,
			Kind:      OutcomeLoaded,
		})
	}

	if len(loaded) == 0 {
		log.WithField("root", r.root).Warn("no skills found in skills root")
	}
	log.WithFields(logrus.Fields{
		"loaded":  report.Loaded(),
		"skipped": report.Skipped(),
		"failed":  report.Failed(),
	}).Info("skill load complete")

	return &Snapshot{Skills: loaded, Report: report}, content
}

// Lookup returns the named skill from the current snapshot, loading
// lazily on first use.
func (r *Repository) Lookup(ctx context.Context, name string) (*Skill, error) {
	skill, ok := r.Load(ctx, false).Lookup(name)
	if !ok {
		return nil, errors.Wrapf(ErrSkillNotFound, "%q", name)
	}
	return skill, nil
}

// List returns every registered skill sorted by name.
func (r *Repository) List(ctx context.Context) []*Skill {
	snap := r.Load(ctx, false)
	out := make([]*Skill, 0, len(snap.Skills))
	for _, skill := range snap.Skills {
		out = append(out, skill)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// ReadContent serves one declared file of one skill. An empty path reads
// the main file. The path policy runs before the declared-file check and
// both run before any storage access; contents are cached on first
// successful read and read failures are never cached.
func (r *Repository) ReadContent(ctx context.Context, name, relPath string) (string, error) {
	if relPath == "" {
		relPath = MainFileName
	}

	snap := r.Load(ctx, false)
	skill, ok := snap.Lookup(name)
	if !ok {
		return "", errors.Wrapf(ErrSkillNotFound, "%q", name)
	}

	if err := ValidatePath(relPath); err != nil {
		return "", err
	}

	cleaned := path.Clean(relPath)
	if !skill.HasFile(cleaned) {
		return "", errors.Wrapf(ErrFileNotDeclared, "%q of skill %q", cleaned, name)
	}

	key := contentKey{Skill: name, Path: cleaned}
	r.mu.RLock()
	text, hit := r.content[key]
	r.mu.RUnlock()
	if hit {
		return text, nil
	}

	raw, err := afero.ReadFile(r.fs, filepath.Join(skill.Path, filepath.FromSlash(cleaned)))
	if err != nil {
		return "", &ReadFailureError{Skill: name, Path: cleaned, Err: err}
	}

	r.mu.Lock()
	// Only populate if our snapshot is still the published one; a
	// forced reload in between must not see resurrected entries.
	if cur := r.snapshot; cur != nil {
		if s, stillThere := cur.Skills[name]; stillThere && s == skill {
			r.content[key] = string(raw)
		}
	}
	r.mu.Unlock()

	return string(raw), nil
}
