package render

import (
	"errors"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
)

// TemplateExt is the file extension of template files in a pack.
const TemplateExt = ".tmpl"

const defaultCacheSize = 128

// TemplateNotFoundError reports a template that does not exist in the pack.
type TemplateNotFoundError struct {
	// Name is the requested template name.
	Name string
	// Err is the underlying filesystem error.
	Err error
}

func (e *TemplateNotFoundError) Error() string {
	if e == nil {
		return "template not found"
	}
	return fmt.Sprintf("template %q not found", e.Name)
}

func (e *TemplateNotFoundError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// IsTemplateNotFound reports whether err indicates a missing template.
func IsTemplateNotFound(err error) bool {
	var target *TemplateNotFoundError
	return errors.As(err, &target)
}

// Loader reads templates from a pack and caches their text.
type Loader struct {
	fsys  fs.FS
	cache *lru.Cache[string, string]
}

// NewLoader constructs a Loader over fsys. A non-positive size uses the default cache size.
func NewLoader(fsys fs.FS, size int) (*Loader, error) {
	if fsys == nil {
		return nil, errors.New("render: template filesystem is nil")
	}
	if size <= 0 {
		size = defaultCacheSize
	}
	cache, err := lru.New[string, string](size)
	if err != nil {
		return nil, fmt.Errorf("create template cache: %w", err)
	}
	return &Loader{fsys: fsys, cache: cache}, nil
}

// Load returns the raw text of the named template. The name is slash
// separated and may omit the .tmpl extension.
func (l *Loader) Load(name string) (string, error) {
	key := normalizeName(name)
	if text, ok := l.cache.Get(key); ok {
		return text, nil
	}
	raw, err := fs.ReadFile(l.fsys, key)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", &TemplateNotFoundError{Name: key, Err: err}
		}
		return "", fmt.Errorf("read template %q: %w", key, err)
	}
	text := string(raw)
	l.cache.Add(key, text)
	return text, nil
}

// Render loads the named template and renders it with ctx.
func (l *Loader) Render(name string, ctx Context) (string, error) {
	text, err := l.Load(name)
	if err != nil {
		return "", err
	}
	return Render(text, ctx), nil
}

// Names lists every template in the pack, sorted.
func (l *Loader) Names() ([]string, error) {
	var names []string
	err := fs.WalkDir(l.fsys, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.HasSuffix(p, TemplateExt) {
			names = append(names, p)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list templates: %w", err)
	}
	sort.Strings(names)
	return names, nil
}

func normalizeName(name string) string {
	name = path.Clean(strings.TrimPrefix(strings.TrimSpace(name), "/"))
	if !strings.HasSuffix(name, TemplateExt) {
		name += TemplateExt
	}
	return name
}
