// Package sweeper reclaims disk space from interrupted uploads. A
// crash between placing a file in the library and committing its
// record, or between creating a temp file and relocating it, leaves
// bytes on disk that no record points to. The sweeper periodically
// scans for such leftovers and deletes them once they are old enough
// that no in-flight upload can still own them.
package sweeper

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"vidvault/internal/database"
	"vidvault/internal/logging"
	"vidvault/internal/workers"
)

// DefaultGracePeriod is how old a file must be before it is considered
// abandoned. Generous by intent: an upload still streaming owns its
// temp file, and a just-linked media file may not have its record yet.
const DefaultGracePeriod = 24 * time.Hour

const maxSweepWorkers = 8

// RecordLookup answers whether a library id has a committed record.
type RecordLookup interface {
	GetVideo(ctx context.Context, id string) (*database.Video, error)
}

// Sweeper scans the library and its temp directory for orphaned files.
type Sweeper struct {
	db          RecordLookup
	libraryDir  string
	incomingDir string
	interval    time.Duration
	gracePeriod time.Duration
	stopChan    chan struct{}
	stopOnce    sync.Once
}

func New(db RecordLookup, libraryDir, incomingDir string, interval time.Duration) *Sweeper {
	return &Sweeper{
		db:          db,
		libraryDir:  libraryDir,
		incomingDir: incomingDir,
		interval:    interval,
		gracePeriod: DefaultGracePeriod,
		stopChan:    make(chan struct{}),
	}
}

// SetGracePeriod overrides the abandonment age. Intended for tests.
func (s *Sweeper) SetGracePeriod(d time.Duration) {
	s.gracePeriod = d
}

// Start runs a sweep immediately and then on every interval tick until
// Stop is called.
func (s *Sweeper) Start() {
	go func() {
		s.runSweep()
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				s.runSweep()
			case <-s.stopChan:
				return
			}
		}
	}()
}

func (s *Sweeper) Stop() {
	s.stopOnce.Do(func() { close(s.stopChan) })
}

func (s *Sweeper) runSweep() {
	start := time.Now()
	removed, err := s.Sweep(context.Background())
	if err != nil {
		logging.Warn("Sweep failed: %v", err)
		return
	}
	if removed > 0 {
		logging.Info("Sweep removed %d orphaned file(s) in %v", removed, time.Since(start))
	} else {
		logging.Debug("Sweep found nothing to remove (%v)", time.Since(start))
	}
}

// Sweep performs one pass and returns how many files it removed.
func (s *Sweeper) Sweep(ctx context.Context) (int, error) {
	removed := s.sweepIncoming()

	n, err := s.sweepLibrary(ctx)
	if err != nil {
		return removed, err
	}
	return removed + n, nil
}

// sweepIncoming deletes temp files past the grace period. Anything in
// the incoming directory belongs to an upload in flight or a crashed
// one; age is the only thing telling them apart.
func (s *Sweeper) sweepIncoming() int {
	entries, err := os.ReadDir(s.incomingDir)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			logging.Warn("Sweep cannot read %s: %v", s.incomingDir, err)
		}
		return 0
	}

	removed := 0
	cutoff := time.Now().Add(-s.gracePeriod)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil || info.ModTime().After(cutoff) {
			continue
		}
		path := filepath.Join(s.incomingDir, entry.Name())
		if err := os.Remove(path); err != nil {
			logging.Warn("Sweep failed to remove %s: %v", path, err)
			continue
		}
		logging.Debug("Swept stale temp file %s", path)
		removed++
	}
	return removed
}

// sweepLibrary deletes library files whose id has no committed record.
// Lookups run on a bounded worker pool since they are I/O-bound against
// the index.
func (s *Sweeper) sweepLibrary(ctx context.Context) (int, error) {
	entries, err := os.ReadDir(s.libraryDir)
	if err != nil {
		return 0, err
	}

	cutoff := time.Now().Add(-s.gracePeriod)
	var candidates []string
	for _, entry := range entries {
		if entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		info, err := entry.Info()
		if err != nil || info.ModTime().After(cutoff) {
			continue
		}
		candidates = append(candidates, entry.Name())
	}
	if len(candidates) == 0 {
		return 0, nil
	}

	names := make(chan string, len(candidates))
	for _, name := range candidates {
		names <- name
	}
	close(names)

	var (
		mu      sync.Mutex
		removed int
		wg      sync.WaitGroup
	)
	for i := 0; i < workers.ForIO(maxSweepWorkers); i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for name := range names {
				if !s.orphaned(ctx, name) {
					continue
				}
				path := filepath.Join(s.libraryDir, name)
				if err := os.Remove(path); err != nil {
					logging.Warn("Sweep failed to remove orphan %s: %v", path, err)
					continue
				}
				logging.Info("Swept orphaned library file %s", path)
				mu.Lock()
				removed++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	return removed, nil
}

// orphaned reports whether a library file has no owning record. Errors
// other than a missing record count as owned: deleting on a flaky
// lookup would destroy data.
func (s *Sweeper) orphaned(ctx context.Context, name string) bool {
	id := strings.TrimSuffix(name, filepath.Ext(name))
	_, err := s.db.GetVideo(ctx, id)
	return errors.Is(err, database.ErrVideoNotFound)
}
