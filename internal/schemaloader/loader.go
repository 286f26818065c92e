package schemaloader

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"time"

	"github.com/alpaka/formengine/pkg/schema"
)

// Loader implements schema.Loader by delegating to file, fs.FS, or HTTP
// strategies and then parsing the page.
type Loader struct {
	fs        fs.FS
	http      *http.Client
	allowHTTP bool
	timeout   time.Duration
	warn      func(source, message string)
}

var _ schema.Loader = (*Loader)(nil)

// New constructs a Loader from pre-resolved options.
func New(options schema.LoaderOptions) *Loader {
	timeout := options.RequestTimeout

	var httpClient *http.Client
	switch {
	case options.HTTPClient != nil:
		clone := *options.HTTPClient
		if timeout > 0 && clone.Timeout == 0 {
			clone.Timeout = timeout
		}
		httpClient = &clone
	case options.AllowHTTPFallback:
		httpClient = &http.Client{Timeout: timeout}
	}

	return &Loader{
		fs:        options.FileSystem,
		http:      httpClient,
		allowHTTP: httpClient != nil,
		timeout:   timeout,
		warn:      options.Warn,
	}
}

// Load fetches the page behind src, parses it, and reports warnings through the
// configured handler.
func (l *Loader) Load(ctx context.Context, src schema.Source) (schema.Page, error) {
	if src == nil {
		return schema.Page{}, errors.New("schema loader: source is nil")
	}

	var (
		data []byte
		err  error
	)

	switch src.Kind() {
	case schema.SourceKindFile:
		data, err = loadFile(ctx, src.Location())
	case schema.SourceKindFS:
		data, err = loadFromFS(ctx, l.fs, src.Location())
	case schema.SourceKindURL:
		if !l.allowHTTP {
			return schema.Page{}, &schema.LoadError{Source: src.Location(), Err: errors.New("http support disabled")}
		}
		data, err = loadHTTP(ctx, l.http, src.Location(), l.timeout)
	default:
		err = fmt.Errorf("unsupported source kind %q", src.Kind())
	}
	if err != nil {
		return schema.Page{}, &schema.LoadError{Source: src.Location(), Err: err}
	}

	page, err := schema.Parse(data, src.Location())
	if err != nil {
		return schema.Page{}, err
	}
	if l.warn != nil {
		for _, msg := range schema.Warnings(page) {
			l.warn(src.Location(), msg)
		}
	}
	return page, nil
}
