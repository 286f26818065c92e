// Package schema describes form pages: trees of Section, Input, Select, and
// Checkbox nodes that drive document initialization, rendering, and
// validation. Pages are authored as JSON or YAML and loaded through a Loader;
// the bundled API gateway page is available via DefaultPage.
package schema
