package storage

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/sirupsen/logrus"
)

const (
	backupDir       = "backups"
	backupTimestamp = "20060102_150405.000000000"
)

var emptyList = json.RawMessage("[]")

// Validator reports whether a stored JSON array is usable by the caller.
type Validator func(raw json.RawMessage) error

// FileStore keeps one JSON array file per collection under dir. All reads and
// writes, for every collection, go through a single mutex.
type FileStore struct {
	mu   sync.Mutex
	dir  string
	keep int
	seq  uint64
	log  *logrus.Entry

	now    func() time.Time
	rename func(oldpath, newpath string) error
}

func NewFileStore(dir string, keep int, log *logrus.Entry) (*FileStore, error) {
	if keep < 1 {
		keep = 1
	}
	if err := os.MkdirAll(filepath.Join(dir, backupDir), 0o755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}
	return &FileStore{
		dir:    dir,
		keep:   keep,
		log:    log.WithField("component", "filestore"),
		now:    time.Now,
		rename: os.Rename,
	}, nil
}

func (s *FileStore) Dir() string { return s.dir }

// Load returns the raw JSON array stored for name. A missing or empty file is
// an empty list; one that is not an array or that valid rejects is replaced
// by the newest backup that passes both checks. valid may be nil.
func (s *FileStore) Load(name string, valid Validator) (json.RawMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load(name, valid)
}

// Save replaces the contents of name with v.
func (s *FileStore) Save(name string, v any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.save(name, v)
}

// Mutate runs fn on the current contents of name and saves what it returns,
// holding the lock throughout. A nil result skips the write.
func (s *FileStore) Mutate(name string, valid Validator, fn func(raw json.RawMessage) (any, error)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, err := s.load(name, valid)
	if err != nil {
		return err
	}
	v, err := fn(raw)
	if err != nil || v == nil {
		return err
	}
	return s.save(name, v)
}

func (s *FileStore) path(name string) string {
	return filepath.Join(s.dir, name+".json")
}

func (s *FileStore) load(name string, valid Validator) (json.RawMessage, error) {
	data, err := os.ReadFile(s.path(name))
	if errors.Is(err, fs.ErrNotExist) {
		return emptyList, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", name, err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return emptyList, nil
	}
	err = usable(data, valid)
	if err == nil {
		return data, nil
	}

	s.log.WithError(err).WithField("collection", name).Warn("data file is corrupt, recovering from backups")
	return s.restore(name, valid), nil
}

func (s *FileStore) restore(name string, valid Validator) json.RawMessage {
	backups, err := s.backups(name)
	if err != nil {
		s.log.WithError(err).WithField("collection", name).Error("listing backups")
		return emptyList
	}
	for i := len(backups) - 1; i >= 0; i-- {
		data, err := os.ReadFile(backups[i].path)
		if err == nil && usable(data, valid) == nil {
			s.log.WithFields(logrus.Fields{"collection": name, "backup": filepath.Base(backups[i].path)}).
				Info("recovered from backup")
			return data
		}
	}
	s.log.WithField("collection", name).Warn("no usable backup, starting empty")
	return emptyList
}

func (s *FileStore) save(name string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding %s: %w", name, err)
	}

	if err := s.backup(name); err != nil {
		s.log.WithError(err).WithField("collection", name).Warn("backup failed")
	}

	tmp, err := os.CreateTemp(s.dir, name+".*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file for %s: %w", name, err)
	}
	tmpName := tmp.Name()
	cleanup := func() {
		_ = os.Remove(tmpName)
	}

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		cleanup()
		return fmt.Errorf("writing %s: %w", name, err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		cleanup()
		return fmt.Errorf("syncing %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return fmt.Errorf("closing %s: %w", name, err)
	}
	if err := s.rename(tmpName, s.path(name)); err != nil {
		cleanup()
		return fmt.Errorf("replacing %s: %w", name, err)
	}
	return nil
}

// backup copies the live file into the backups directory and prunes old
// copies down to s.keep.
func (s *FileStore) backup(name string) error {
	data, err := os.ReadFile(s.path(name))
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}

	s.seq++
	file := fmt.Sprintf("%s_%s_%06d.json", name, s.now().UTC().Format(backupTimestamp), s.seq)
	if err := os.WriteFile(filepath.Join(s.dir, backupDir, file), data, 0o644); err != nil {
		return err
	}
	return s.rotate(name)
}

type backupFile struct {
	path    string
	modTime time.Time
}

// backups lists the backups of name, oldest first.
func (s *FileStore) backups(name string) ([]backupFile, error) {
	matches, err := filepath.Glob(filepath.Join(s.dir, backupDir, name+"_*.json"))
	if err != nil {
		return nil, err
	}
	files := make([]backupFile, 0, len(matches))
	for _, m := range matches {
		info, err := os.Stat(m)
		if err != nil {
			continue
		}
		files = append(files, backupFile{path: m, modTime: info.ModTime()})
	}
	sort.Slice(files, func(i, j int) bool {
		if !files[i].modTime.Equal(files[j].modTime) {
			return files[i].modTime.Before(files[j].modTime)
		}
		return files[i].path < files[j].path
	})
	return files, nil
}

func (s *FileStore) rotate(name string) error {
	files, err := s.backups(name)
	if err != nil {
		return err
	}
	var result *multierror.Error
	for len(files) > s.keep {
		if err := os.Remove(files[0].path); err != nil {
			result = multierror.Append(result, err)
		}
		files = files[1:]
	}
	return result.ErrorOrNil()
}

func usable(data []byte, valid Validator) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '[' || !json.Valid(trimmed) {
		return errors.New("not a JSON array")
	}
	if valid != nil {
		return valid(trimmed)
	}
	return nil
}
