// Package changerequest talks to the change-request backend that stores
// gateway configuration payloads. It exposes the resource types, a
// context-aware REST client, and the capability checks used to decide whether
// a form opens editable or read-only.
package changerequest
