package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sync"
)

// FileStore persists the whole catalog as one JSON array. Every mutation
// reads the full file, rewrites the full file. A single mutex serializes
// the read-modify-write cycle within this process; the file itself is
// still last-writer-wins across processes.
type FileStore struct {
	mu   sync.Mutex
	path string
}

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

func (s *FileStore) Ping(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.load()
	return err
}

func (s *FileStore) List(ctx context.Context) ([]Course, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load()
}

func (s *FileStore) Find(ctx context.Context, code string) (Course, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	courses, err := s.load()
	if err != nil {
		return Course{}, false, err
	}
	for _, c := range courses {
		if c.Code == code {
			return c, true, nil
		}
	}
	return Course{}, false, nil
}

func (s *FileStore) Append(ctx context.Context, c Course) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	courses, err := s.load()
	if err != nil {
		return err
	}
	for _, existing := range courses {
		if existing.Code == c.Code {
			return fmt.Errorf("%w: %s", ErrDuplicateCode, c.Code)
		}
	}
	return s.save(append(courses, c))
}

func (s *FileStore) Remove(ctx context.Context, code string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	courses, err := s.load()
	if err != nil {
		return false, err
	}

	kept := courses[:0]
	for _, c := range courses {
		if c.Code != code {
			kept = append(kept, c)
		}
	}
	if len(kept) == len(courses) {
		return false, nil
	}
	return true, s.save(kept)
}

// load reads the whole file. A missing file is an empty catalog; a file
// that exists but does not parse is an error propagated as-is.
func (s *FileStore) load() ([]Course, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return []Course{}, nil
	}
	if err != nil {
		return nil, err
	}

	var courses []Course
	if err := json.Unmarshal(data, &courses); err != nil {
		return nil, fmt.Errorf("parse %s: %w", s.path, err)
	}
	return courses, nil
}

func (s *FileStore) save(courses []Course) error {
	data, err := json.MarshalIndent(courses, "", "    ")
	if err != nil {
		return err
	}
	return os.WriteFile(s.path, data, 0o644)
}
