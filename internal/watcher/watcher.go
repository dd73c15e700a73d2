// Package watcher keeps the ledger honest about the mirror: when a file
// that was transferred successfully is later removed or modified on
// disk, its ledger entry is reopened so the next resume run repairs it.
package watcher

import (
	"fmt"
	"os"
	"path/filepath"
	"sitemirror/internal/logger"
	"sitemirror/internal/repository"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

type Watcher struct {
	fw     *fsnotify.Watcher
	ledger *repository.LedgerRepository
	doneCh chan struct{}
}

func New(ledger *repository.LedgerRepository) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}

	return &Watcher{
		fw:     fw,
		ledger: ledger,
		doneCh: make(chan struct{}),
	}, nil
}

func (w *Watcher) Watch(dir string) error {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return fmt.Errorf("failed to resolve path: %w", err)
	}

	if _, err := os.Stat(absDir); err != nil {
		return fmt.Errorf("mirror directory not found: %w", err)
	}

	if err := w.addRecursive(absDir); err != nil {
		return err
	}

	go w.run()

	logger.Log.Info("mirror watcher started",
		zap.String("dir", absDir))
	return nil
}

func (w *Watcher) addRecursive(dir string) error {
	return filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if d.IsDir() {
			if err := w.fw.Add(path); err != nil {
				return fmt.Errorf("failed to watch %s: %w", path, err)
			}
			logger.Log.Debug("watching directory",
				zap.String("path", path))
		}

		return nil
	})
}

func (w *Watcher) run() {
	for {
		select {
		case <-w.doneCh:
			logger.Log.Info("mirror watcher stopping")
			return

		case fsEvent, ok := <-w.fw.Events:
			if !ok {
				return
			}

			if fsEvent.Op.Has(fsnotify.Create) {
				if info, err := os.Stat(fsEvent.Name); err == nil && info.IsDir() {
					if err := w.fw.Add(fsEvent.Name); err != nil {
						logger.Log.Warn("failed to watch new directory",
							zap.String("path", fsEvent.Name),
							zap.Error(err))
					}
				}
				continue
			}

			reason := driftReason(fsEvent.Op)
			if reason == "" {
				continue
			}

			w.reopen(fsEvent.Name, reason)

		case err, ok := <-w.fw.Errors:
			if !ok {
				return
			}

			logger.Log.Error("watcher error",
				zap.Error(err))
		}
	}
}

func (w *Watcher) reopen(localPath, reason string) {
	rows, err := w.ledger.Reopen(localPath, reason)
	if err != nil {
		logger.Log.Error("failed to reopen ledger entry",
			zap.String("path", localPath),
			zap.Error(err))
		return
	}

	if rows > 0 {
		logger.Log.Info("mirror drift detected, ledger entry reopened",
			zap.String("path", localPath),
			zap.String("reason", reason))
	}
}

func (w *Watcher) Stop() {
	close(w.doneCh)
	_ = w.fw.Close()
}

func driftReason(op fsnotify.Op) string {
	switch {
	case op.Has(fsnotify.Remove):
		return "removed from mirror"
	case op.Has(fsnotify.Rename):
		return "renamed in mirror"
	case op.Has(fsnotify.Write):
		return "modified in mirror"
	default:
		return ""
	}
}
