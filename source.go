package settings

import (
	"context"
	"errors"
	"fmt"
	"os"
	"reflect"
	"sort"
	"time"
)

// Polling intervals for FileSource.Poll.
const (
	MinPollInterval     = 100 * time.Millisecond // Hard floor for file stat polling
	DefaultPollInterval = time.Second
)

// ErrPermissionsChanged is returned when a watched file's group or world
// permission bits changed since the last applied read. The file is not applied.
var ErrPermissionsChanged = errors.New("settings file permissions changed")

// FileSource re-applies a settings file to a Manager when the file changes.
// It runs on the caller's goroutine: Refresh and Poll never spawn goroutines,
// so the Manager's single-threaded model holds.
type FileSource struct {
	manager *Manager
	path    string

	// VerifyPermissions refuses to apply a file whose group/world permission
	// bits changed since it was last applied.
	VerifyPermissions bool

	lastModTime time.Time
	lastSize    int64
	lastMode    os.FileMode
	applied     bool
	// manager generation the file was last applied to
	generation uint64
}

// NewFileSource binds path to m. Nothing is read until Refresh.
func NewFileSource(m *Manager, path string) *FileSource {
	return &FileSource{manager: m, path: path, VerifyPermissions: true}
}

// Path returns the watched file path.
func (s *FileSource) Path() string {
	return s.path
}

// Refresh applies the file if it changed since the last applied read, or if
// the manager was reset since then, and returns the sorted dot paths whose
// values changed. Values removed from the file keep their current setting,
// since resolution only merges.
func (s *FileSource) Refresh() ([]string, error) {
	info, err := os.Stat(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrFileNotFound, s.path)
		}
		return nil, fmt.Errorf("failed to stat settings file '%s': %w", s.path, err)
	}

	if s.applied && s.generation == s.manager.Generation() &&
		info.ModTime().Equal(s.lastModTime) && info.Size() == s.lastSize && info.Mode() == s.lastMode {
		return nil, nil
	}
	if s.VerifyPermissions && s.applied && (info.Mode()&0077) != (s.lastMode&0077) {
		return nil, fmt.Errorf("%w: %s", ErrPermissionsChanged, s.path)
	}

	before := flattenMap(s.manager.Data(), "")
	if err := s.manager.LoadFile(s.path); err != nil {
		return nil, err
	}
	s.lastModTime = info.ModTime()
	s.lastSize = info.Size()
	s.lastMode = info.Mode()
	s.applied = true
	s.generation = s.manager.Generation()

	return changedPaths(before, flattenMap(s.manager.Data(), "")), nil
}

// Poll calls Refresh every interval until ctx is done, reporting each
// non-empty change set or error to onChange. It blocks the caller.
func (s *FileSource) Poll(ctx context.Context, interval time.Duration, onChange func(paths []string, err error)) error {
	if interval < MinPollInterval {
		interval = MinPollInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			paths, err := s.Refresh()
			if onChange != nil && (err != nil || len(paths) > 0) {
				onChange(paths, err)
			}
		}
	}
}

func changedPaths(before, after map[string]any) []string {
	var paths []string
	for path, newVal := range after {
		if oldVal, existed := before[path]; !existed || !reflect.DeepEqual(oldVal, newVal) {
			paths = append(paths, path)
		}
	}
	for path := range before {
		if _, exists := after[path]; !exists {
			paths = append(paths, path)
		}
	}
	sort.Strings(paths)
	return paths
}
