package gitrepo

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// FileInfo describes one file inside a snapshot.
type FileInfo struct {
	// Path is relative to the snapshot root, using forward slashes.
	Path string
	// Size is advisory, in bytes.
	Size int64
}

// Snapshot is an isolated local checkout of one repository branch. It is
// exclusively owned by the analysis run that acquired it.
type Snapshot struct {
	root        string
	owner       string
	name        string
	branch      string
	eligibility Eligibility
	logger      *slog.Logger

	cleanupOnce sync.Once
}

// Root returns the snapshot directory on disk.
func (s *Snapshot) Root() string { return s.root }

// Branch returns the branch the snapshot was cloned from.
func (s *Snapshot) Branch() string { return s.branch }

// Eligibility returns the manifest check outcome computed at acquisition.
func (s *Snapshot) Eligibility() Eligibility { return s.eligibility }

// ListFiles walks the snapshot and returns every regular file, skipping
// dotfiles and dot-directories (including .git). Walk errors on individual
// entries are skipped, not fatal.
func (s *Snapshot) ListFiles() []FileInfo {
	var files []FileInfo

	err := filepath.Walk(s.root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil
		}
		name := info.Name()
		if info.IsDir() {
			if path != s.root && strings.HasPrefix(name, ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if strings.HasPrefix(name, ".") || !info.Mode().IsRegular() {
			return nil
		}

		rel, relErr := filepath.Rel(s.root, path)
		if relErr != nil {
			return nil
		}
		files = append(files, FileInfo{
			Path: filepath.ToSlash(rel),
			Size: info.Size(),
		})
		return nil
	})
	if err != nil {
		s.logger.Debug("Error walking snapshot", "root", s.root, "error", err)
	}

	return files
}

// ReadFile returns the content of a snapshot-relative path. The boolean is
// false when the file cannot be read; a single unreadable file is not an
// error condition for the run.
func (s *Snapshot) ReadFile(relPath string) (string, bool) {
	full := filepath.Join(s.root, filepath.FromSlash(relPath))

	// Refuse paths escaping the snapshot root.
	if !strings.HasPrefix(full, filepath.Clean(s.root)+string(os.PathSeparator)) {
		return "", false
	}

	// #nosec G304 -- full is confined to the snapshot directory above
	data, err := os.ReadFile(full)
	if err != nil {
		return "", false
	}
	return string(data), true
}

// Cleanup removes the snapshot directory. Idempotent; must be invoked exactly
// once per successful acquisition regardless of downstream outcome.
func (s *Snapshot) Cleanup() {
	s.cleanupOnce.Do(func() {
		if err := os.RemoveAll(s.root); err != nil {
			s.logger.Warn("Failed to remove snapshot", "root", s.root, "error", err)
		}
	})
}
