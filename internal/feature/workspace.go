package feature

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"sort"

	"github.com/spf13/afero"

	"github.com/appgen-dev/appgen/internal/logging"
	"github.com/appgen-dev/appgen/internal/render"
)

const defaultFileMode os.FileMode = 0o644

// Workspace is the project tree providers write into. Paths are
// project-relative and slash separated.
type Workspace struct {
	// Fs is rooted at the project directory.
	Fs afero.Fs
	// Root is the project directory, for display.
	Root      string
	Templates *render.Loader
	Logger    *slog.Logger

	written []string
}

// NewWorkspace roots fsys at root. An empty root uses fsys as is; otherwise
// root should be absolute.
func NewWorkspace(fsys afero.Fs, root string, templates *render.Loader, logger *slog.Logger) *Workspace {
	if root != "" {
		fsys = afero.NewBasePathFs(fsys, root)
	}
	if logger == nil {
		logger = logging.Discard()
	}
	return &Workspace{Fs: fsys, Root: root, Templates: templates, Logger: logger}
}

// Exists reports whether name exists in the project.
func (w *Workspace) Exists(name string) bool {
	ok, err := afero.Exists(w.Fs, name)
	return err == nil && ok
}

// ReadFile reads an existing project file. A missing file is a
// *MissingFileError.
func (w *Workspace) ReadFile(name string) ([]byte, error) {
	data, err := afero.ReadFile(w.Fs, name)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, &MissingFileError{Path: name, Err: err}
		}
		return nil, fmt.Errorf("read %q: %w", name, err)
	}
	return data, nil
}

// WriteFile writes a project file, creating parent directories. A zero
// mode keeps the mode of an existing file and uses 0644 for a new one.
func (w *Workspace) WriteFile(name string, data []byte, mode os.FileMode) error {
	explicit := mode != 0
	if !explicit {
		mode = defaultFileMode
		if info, err := w.Fs.Stat(name); err == nil {
			mode = info.Mode().Perm()
		}
	}
	if dir := path.Dir(name); dir != "." && dir != "/" {
		if err := w.Fs.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	if err := afero.WriteFile(w.Fs, name, data, mode); err != nil {
		return fmt.Errorf("write %q: %w", name, err)
	}
	if explicit {
		// afero.WriteFile keeps the mode of an existing file.
		if err := w.Fs.Chmod(name, mode); err != nil {
			return fmt.Errorf("chmod %q: %w", name, err)
		}
	}
	w.written = append(w.written, name)
	w.Logger.Debug("wrote file", "path", name, "bytes", len(data))
	return nil
}

// RenderFile renders f and writes it to its target.
func (w *Workspace) RenderFile(f File) error {
	out, err := w.Templates.Render(f.Template, f.Context)
	if err != nil {
		return fmt.Errorf("render %q: %w", f.Target, err)
	}
	return w.WriteFile(f.Target, []byte(out), f.Mode)
}

// RenderFiles renders every file in order and stops at the first failure.
func (w *Workspace) RenderFiles(files []File) error {
	for _, f := range files {
		if err := w.RenderFile(f); err != nil {
			return err
		}
	}
	return nil
}

// Written returns the sorted, unique paths written so far.
func (w *Workspace) Written() []string {
	seen := make(map[string]struct{}, len(w.written))
	out := make([]string, 0, len(w.written))
	for _, name := range w.written {
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
