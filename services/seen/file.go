package seen

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"sjsage522/listingwatcher/logger"
	apperrors "sjsage522/listingwatcher/pkg/errors"
)

// FileStore persists the seen set as a JSON array of URLs. The file is
// rewritten wholesale on every insertion through a temp file and rename, so a
// crash leaves either the old or the new set on disk.
type FileStore struct {
	memberSet
	path string
}

// NewFileStore loads the seen set from path; a missing file is an empty set
func NewFileStore(path string) (*FileStore, error) {
	urls, err := readSeenFile(path)
	if err != nil {
		return nil, err
	}

	logger.ForStore().Info().
		Str("path", path).
		Int("count", len(urls)).
		Msg("Loaded seen listings")

	s := &FileStore{path: path}
	s.load(urls)
	return s, nil
}

// Add marks url seen and rewrites the file
func (s *FileStore) Add(ctx context.Context, url string) error {
	return s.add(url, func() error {
		if err := ctx.Err(); err != nil {
			return apperrors.NewPersistence("file", "context done before write", err)
		}
		if err := s.writeLocked(); err != nil {
			return apperrors.NewPersistence("file", "failed to write "+s.path, err)
		}
		return nil
	})
}

// Close is a no-op; every Add already reached the disk
func (s *FileStore) Close() error {
	return nil
}

func (s *FileStore) writeLocked() error {
	urls := s.snapshotLocked()
	sort.Strings(urls)

	data, err := json.Marshal(urls)
	if err != nil {
		return err
	}

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}

	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return err
	}
	return nil
}

func readSeenFile(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read seen file: %w", err)
	}
	if len(data) == 0 {
		return nil, nil
	}

	var urls []string
	if err := json.Unmarshal(data, &urls); err != nil {
		return nil, fmt.Errorf("failed to parse seen file %s: %w", path, err)
	}
	return urls, nil
}
