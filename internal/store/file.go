package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

const (
	// lockPoll is how often a blocked writer retries the lock file.
	lockPoll = 20 * time.Millisecond

	// lockTimeout bounds how long SaveAll waits for another writer.
	lockTimeout = 5 * time.Second

	// staleLock is the age after which a lock file left by a crashed
	// process is removed.
	staleLock = 30 * time.Second
)

// FileStore keeps the job table in a single JSON file. Writers in separate
// processes (reelctl serve next to reelctl poll) take a sibling lock file,
// re-read the table and merge their records into it before replacing it.
type FileStore struct {
	path string
	mu   sync.Mutex
}

// Compile-time interface check.
var _ JobStore = (*FileStore)(nil)

// NewFileStore creates a FileStore backed by path. The file and its parent
// directory are created on first save.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Path returns the backing file path.
func (s *FileStore) Path() string { return s.path }

func (s *FileStore) Load(ctx context.Context) (map[string]JobRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	records := s.read()
	log.Debug().Str("path", s.path).Int("records", len(records)).Msg("Jobs loaded from file")
	return records, nil
}

func (s *FileStore) Get(ctx context.Context, sessionID string) (JobRecord, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.read()[sessionID]
	return rec, ok, nil
}

// read returns the table on disk, or an empty one when the file is missing
// or unreadable.
func (s *FileStore) read() map[string]JobRecord {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		log.Debug().Str("path", s.path).Msg("Jobs file not found, starting with empty table")
		return map[string]JobRecord{}
	}
	if err != nil {
		log.Warn().Err(err).Str("path", s.path).Msg("Failed to read jobs file, starting with empty table")
		return map[string]JobRecord{}
	}

	var records map[string]JobRecord
	if err := json.Unmarshal(data, &records); err != nil {
		log.Warn().Err(err).Str("path", s.path).Int("bytes", len(data)).Msg("Jobs file is corrupt, starting with empty table")
		return map[string]JobRecord{}
	}
	if records == nil {
		records = map[string]JobRecord{}
	}
	for id, rec := range records {
		if rec.SessionID == "" {
			rec.SessionID = id
			records[id] = rec
		}
	}
	return records
}

// SaveAll merges records into the table on disk under the lock file, writes
// the result to a temp file in the same directory, syncs it, and renames it
// over the previous file.
func (s *FileStore) SaveAll(ctx context.Context, records map[string]JobRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create jobs dir: %w", err)
	}

	unlock, err := s.lock(ctx)
	if err != nil {
		return err
	}
	defer unlock()

	table := s.read()
	for id, rec := range records {
		table[id] = rec
	}

	data, err := json.MarshalIndent(table, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal jobs: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".jobs-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp jobs file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("write temp jobs file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("sync temp jobs file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("close temp jobs file: %w", err)
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("replace jobs file: %w", err)
	}

	log.Debug().Str("path", s.path).Int("written", len(records)).Int("records", len(table)).Msg("Jobs persisted to file")
	return nil
}

// lock creates path.lock exclusively, waiting for another holder up to
// lockTimeout. The returned func removes it.
func (s *FileStore) lock(ctx context.Context) (func(), error) {
	lockPath := s.path + ".lock"
	deadline := time.Now().Add(lockTimeout)

	for {
		f, err := os.OpenFile(lockPath, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
		if err == nil {
			fmt.Fprintf(f, "%d\n", os.Getpid())
			f.Close()
			return func() { os.Remove(lockPath) }, nil
		}
		if !errors.Is(err, fs.ErrExist) {
			return nil, fmt.Errorf("create jobs lock: %w", err)
		}

		if info, statErr := os.Stat(lockPath); statErr == nil && time.Since(info.ModTime()) > staleLock {
			log.Warn().Str("lock", lockPath).Dur("age", time.Since(info.ModTime())).Msg("Removing stale jobs lock")
			os.Remove(lockPath)
			continue
		}
		if time.Now().After(deadline) {
			return nil, fmt.Errorf("jobs file %s is locked by another process", s.path)
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(lockPoll):
		}
	}
}
