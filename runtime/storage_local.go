package runtime

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// LocalFileStorage implements Storage on a directory.
type LocalFileStorage struct {
	baseDir string
}

// NewLocalFileStorage creates baseDir if needed.
func NewLocalFileStorage(baseDir string) (*LocalFileStorage, error) {
	absPath, err := filepath.Abs(baseDir)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(absPath, 0755); err != nil {
		return nil, err
	}
	return &LocalFileStorage{baseDir: absPath}, nil
}

// fullPath returns the absolute path for a key, ensuring it's within baseDir
func (s *LocalFileStorage) fullPath(key string) (string, error) {
	cleanKey := filepath.Clean(filepath.FromSlash(key))
	if filepath.IsAbs(cleanKey) || cleanKey == ".." || strings.HasPrefix(cleanKey, ".."+string(filepath.Separator)) {
		return "", fs.ErrInvalid
	}
	p := filepath.Join(s.baseDir, cleanKey)
	if p != s.baseDir && !strings.HasPrefix(p, s.baseDir+string(filepath.Separator)) {
		return "", fs.ErrInvalid
	}
	return p, nil
}

func (s *LocalFileStorage) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	path, err := s.fullPath(key)
	if err != nil {
		return nil, err
	}
	file, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNotFound
	}
	return file, err
}

// Put writes through a temporary file so readers never see partial data.
func (s *LocalFileStorage) Put(ctx context.Context, key string, data []byte, contentType string) error {
	path, err := s.fullPath(key)
	if err != nil {
		return err
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, ".put-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

func (s *LocalFileStorage) List(ctx context.Context, prefix string, delimiter string) (*ListResult, error) {
	result := &ListResult{Keys: []string{}, DelimitedPrefixes: []string{}}

	searchDir := s.baseDir
	if prefix != "" {
		prefixPath, err := s.fullPath(prefix)
		if err != nil {
			return result, nil
		}
		if info, err := os.Stat(prefixPath); err == nil && info.IsDir() {
			searchDir = prefixPath
		} else {
			searchDir = filepath.Dir(prefixPath)
		}
	}

	seen := make(map[string]bool)
	err := filepath.WalkDir(searchDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return fs.SkipAll
			}
			return err
		}
		if d.IsDir() || strings.HasPrefix(d.Name(), ".put-") {
			return nil
		}
		rel, err := filepath.Rel(s.baseDir, path)
		if err != nil {
			return nil
		}
		rel = filepath.ToSlash(rel)
		if !strings.HasPrefix(rel, prefix) {
			return nil
		}
		if delimiter != "" {
			rest := rel[len(prefix):]
			if i := strings.Index(rest, delimiter); i >= 0 {
				p := prefix + rest[:i+len(delimiter)]
				if !seen[p] {
					seen[p] = true
					result.DelimitedPrefixes = append(result.DelimitedPrefixes, p)
				}
				return nil
			}
		}
		result.Keys = append(result.Keys, rel)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Delete removes key. Missing keys are not an error.
func (s *LocalFileStorage) Delete(ctx context.Context, key string) error {
	path, err := s.fullPath(key)
	if err != nil {
		return err
	}
	err = os.Remove(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}
