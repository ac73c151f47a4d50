package feature

import (
	"embed"
	"io/fs"

	"github.com/appgen-dev/appgen/internal/render"
)

//go:embed templates
var builtinTemplates embed.FS

// Templates returns the built-in template pack rooted at its top directory.
func Templates() fs.FS {
	sub, err := fs.Sub(builtinTemplates, "templates")
	if err != nil {
		panic(err) // the embedded directory always exists
	}
	return sub
}

// NewLoader returns a cached loader over the built-in template pack.
func NewLoader() (*render.Loader, error) {
	return render.NewLoader(Templates(), 0)
}
