// Package docpath reads and writes values inside nested JSON-like documents
// using dotted field paths such as "routes.0.upstream_url". Segments that parse
// as non-negative integers address sequence elements; every other segment is a
// mapping key.
//
// Set and Delete are copy-on-write: they return a new root, clone only the
// containers along the path, and never mutate their input. Renderers,
// validators, and sessions all compute paths with Join so that error maps and
// bindings agree on the same keys.
package docpath
