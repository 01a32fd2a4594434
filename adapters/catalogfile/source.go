package catalogfile

import (
	"context"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"plan-picker/core/catalog"
	"plan-picker/internal/logging"
)

// Source holds the current offering and swaps it when the file changes.
// Pickers take a snapshot with Current; a reload never alters an offering
// that was already handed out.
type Source struct {
	path   string
	logger *zap.Logger

	mu       sync.RWMutex
	current  *catalog.Offering
	onReload []func(*catalog.Offering, error)
}

// NewSource loads path, or uses the built-in offering when path is empty
func NewSource(path string) (*Source, error) {
	s := &Source{
		path:   path,
		logger: logging.Named("catalog").With(zap.String("path", path)),
	}

	if path == "" {
		offering := catalog.DefaultOffering()
		offering.MustValidate()
		s.current = offering
		return s, nil
	}

	offering, err := LoadFile(path)
	if err != nil {
		return nil, err
	}
	s.current = offering
	s.logger.Info("catalog loaded",
		zap.Int("plans", offering.Plans.Len()),
		zap.Int("tiers", len(offering.Tiers)))
	return s, nil
}

// Path returns the watched file, empty for the built-in offering
func (s *Source) Path() string {
	return s.path
}

// Current returns the offering new pickers should use
func (s *Source) Current() *catalog.Offering {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// OnReload registers a callback run after every reload attempt
func (s *Source) OnReload(fn func(*catalog.Offering, error)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onReload = append(s.onReload, fn)
}

// Reload re-reads the file. An invalid file leaves the current offering in place.
func (s *Source) Reload() error {
	if s.path == "" {
		return nil
	}

	offering, err := LoadFile(s.path)

	s.mu.Lock()
	if err == nil {
		s.current = offering
	}
	callbacks := append([]func(*catalog.Offering, error){}, s.onReload...)
	current := s.current
	s.mu.Unlock()

	if err != nil {
		s.logger.Warn("catalog reload rejected, keeping previous catalog", zap.Error(err))
	} else {
		s.logger.Info("catalog reloaded", zap.Int("plans", offering.Plans.Len()))
	}

	for _, fn := range callbacks {
		fn(current, err)
	}
	return err
}

// Watch starts reloading on file changes until ctx is done. The watcher is
// registered before Watch returns.
func (s *Source) Watch(ctx context.Context) error {
	if s.path == "" {
		return nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	// Watch the directory: editors replace files by rename, which drops a
	// watch placed on the file itself.
	if err := watcher.Add(filepath.Dir(s.path)); err != nil {
		watcher.Close()
		return err
	}

	target := filepath.Clean(s.path)
	go func() {
		defer watcher.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(ev.Name) != target {
					continue
				}
				if ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) || ev.Has(fsnotify.Rename) {
					_ = s.Reload()
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				s.logger.Warn("catalog watcher error", zap.Error(err))
			}
		}
	}()

	s.logger.Debug("watching catalog")
	return nil
}
