// Package openapi describes form documents as OpenAPI 3 schemas. The payload
// schema mirrors the shapes the form engine writes (empty strings for cleared
// fields, sequences for repeatable sections) so other services can check a
// stored payload without loading the form page. Visibility rules cannot be
// expressed in a schema, so "required" is left to the validation package.
package openapi
