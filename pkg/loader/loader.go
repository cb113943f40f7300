package loader

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/getmockd/oasmock/pkg/logging"
	"github.com/getmockd/oasmock/pkg/service"
)

// ErrDirectoryNotFound is returned when a services directory does not exist.
var ErrDirectoryNotFound = errors.New("directory does not exist")

// LoadError describes a service directory that could not be read.
type LoadError struct {
	Path    string
	Message string
	Err     error
}

func (e *LoadError) Error() string {
	if errors.Is(e.Err, ErrDirectoryNotFound) {
		return fmt.Sprintf("directory %s does not exist", e.Path)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Path, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Path, e.Message)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// LoadResult is the outcome of loading every services directory.
type LoadResult struct {
	// Defs are the service definitions in directory order.
	Defs []service.Def

	// Errors are service directories that could not be read. They do not stop loading.
	Errors []LoadError
}

// FS loads service definitions from services directories.
type FS struct {
	// Directories are services directories or doublestar patterns matching them.
	Directories []string

	log *slog.Logger
}

// New creates a loader for dirs.
func New(dirs ...string) *FS {
	return &FS{Directories: dirs, log: logging.Nop()}
}

// SetLogger sets the operational logger.
func (l *FS) SetLogger(log *slog.Logger) {
	if log != nil {
		l.log = logging.Component(log, "loader")
	}
}

// Load reads every service of every services directory. A services directory that does not
// exist is an error.
func (l *FS) Load() (*LoadResult, error) {
	result := &LoadResult{}
	for _, pattern := range l.Directories {
		dirs, err := expand(pattern)
		if err != nil {
			return nil, err
		}
		for _, dir := range dirs {
			defs, errs, err := l.loadDirectory(dir)
			if err != nil {
				return nil, err
			}
			result.Defs = append(result.Defs, defs...)
			result.Errors = append(result.Errors, errs...)
		}
	}
	l.log.Debug("loaded service definitions", "services", len(result.Defs), "errors", len(result.Errors))
	return result, nil
}

// LoadDirectory reads every service below dir.
func LoadDirectory(dir string) ([]service.Def, error) {
	defs, errs, err := New().loadDirectory(dir)
	if err != nil {
		return nil, err
	}
	if len(errs) > 0 {
		return defs, &errs[0]
	}
	return defs, nil
}

func (l *FS) loadDirectory(dir string) ([]service.Def, []LoadError, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to resolve %s: %w", dir, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil, &LoadError{Path: dir, Err: ErrDirectoryNotFound}
		}
		return nil, nil, &LoadError{Path: dir, Message: "failed to access directory", Err: err}
	}
	if !info.IsDir() {
		return nil, nil, &LoadError{Path: dir, Message: "path is not a directory"}
	}

	entries, err := os.ReadDir(abs)
	if err != nil {
		return nil, nil, &LoadError{Path: dir, Message: "failed to scan directory", Err: err}
	}

	var (
		defs []service.Def
		errs []LoadError
	)
	for _, entry := range entries {
		if !entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		def, err := readServiceDirectory(filepath.Join(abs, entry.Name()))
		if err != nil {
			l.log.Warn("failed to read service directory", "path", entry.Name(), "error", err)
			errs = append(errs, LoadError{Path: filepath.Join(dir, entry.Name()), Message: "failed to read service", Err: err})
			continue
		}
		defs = append(defs, def)
	}
	return defs, errs, nil
}

// readServiceDirectory reads the regular files directly inside dir.
func readServiceDirectory(dir string) (service.Def, error) {
	def := service.Def{
		AbsolutePath:  dir,
		DirectoryName: filepath.Base(dir),
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return def, err
	}
	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}
		contents, err := os.ReadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			return def, err
		}
		def.ServiceFiles = append(def.ServiceFiles, service.File{
			Basename: entry.Name(),
			Contents: contents,
		})
	}
	return def, nil
}

// expand resolves a services directory pattern. Plain paths are returned as is so that a
// missing directory is reported by name.
func expand(pattern string) ([]string, error) {
	if !hasMeta(pattern) {
		return []string{pattern}, nil
	}
	matches, err := doublestar.FilepathGlob(pattern)
	if err != nil {
		return nil, fmt.Errorf("expanding glob pattern %s: %w", pattern, err)
	}
	dirs := matches[:0]
	for _, match := range matches {
		if info, err := os.Stat(match); err == nil && info.IsDir() {
			dirs = append(dirs, match)
		}
	}
	sort.Strings(dirs)
	return dirs, nil
}

func hasMeta(path string) bool {
	return strings.ContainsAny(path, "*?[{")
}
