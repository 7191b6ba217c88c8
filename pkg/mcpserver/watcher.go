package mcpserver

import (
	"context"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/pkg/errors"

	"github.com/geodocs/skillserve/pkg/logger"
	"github.com/geodocs/skillserve/pkg/skills"
)

// Watcher triggers a forced registry reload when the skills root changes
// on disk. Events are debounced so a multi-file sync produces one reload.
type Watcher struct {
	repo     *skills.Repository
	debounce time.Duration
	fsw      *fsnotify.Watcher
}

// NewWatcher creates a watcher over the repository's skills root.
func NewWatcher(repo *skills.Repository, debounce time.Duration) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.Wrap(err, "failed to create file watcher")
	}

	if err := fsw.Add(repo.Root()); err != nil {
		fsw.Close()
		return nil, errors.Wrapf(err, "failed to watch skills root %s", repo.Root())
	}

	return &Watcher{
		repo:     repo,
		debounce: debounce,
		fsw:      fsw,
	}, nil
}

// Run blocks until the context is cancelled, reloading the registry
// after each debounced burst of filesystem events.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.fsw.Close()
	log := logger.G(ctx)

	var timer *time.Timer
	var fire <-chan time.Time

	for {
		select {
		case event, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			log.WithField("file", event.Name).WithField("op", event.Op.String()).
				Debug("skills root changed")
			if timer == nil {
				timer = time.NewTimer(w.debounce)
				fire = timer.C
			} else {
				timer.Reset(w.debounce)
			}

		case <-fire:
			timer = nil
			fire = nil
			snap := w.repo.Load(ctx, true)
			log.WithField("loaded", snap.Report.Loaded()).Info("skills reloaded after filesystem change")

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			log.WithError(err).Error("file watcher error")

		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
