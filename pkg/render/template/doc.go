// Package template defines the template engine seam used by the HTML
// renderers. Adapters live in subpackages.
package template
