package schema

import (
	"embed"
	"io/fs"
)

//go:embed defaults/*.json
var embeddedPages embed.FS

// DefaultPageName is the embedded API gateway page.
const DefaultPageName = "api_gateway.json"

// EmbeddedFS returns the bundled page definitions. Pass it to a Loader with
// WithFileSystem and SourceFromFS(DefaultPageName) to load them.
func EmbeddedFS() fs.FS {
	sub, err := fs.Sub(embeddedPages, "defaults")
	if err != nil {
		panic(err)
	}
	return sub
}

// DefaultPage parses the bundled API gateway page.
func DefaultPage() (Page, error) {
	data, err := fs.ReadFile(EmbeddedFS(), DefaultPageName)
	if err != nil {
		return Page{}, &LoadError{Source: DefaultPageName, Err: err}
	}
	return Parse(data, DefaultPageName)
}

// MustDefaultPage is DefaultPage for package initialization and tests.
func MustDefaultPage() Page {
	page, err := DefaultPage()
	if err != nil {
		panic(err)
	}
	return page
}
