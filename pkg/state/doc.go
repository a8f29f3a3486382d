// Package state holds the single record a form component owns: a mapping from
// field name to a tagged Value (text, boolean, selected option, ordered option
// list, or file handle) plus the pure update function that derives a new record
// from one change event.
//
// Keys present at construction are never removed. Apply accepts any field
// name verbatim, so an event for an unknown field adds a key renderers never
// read; callers that care can check Known before dispatching.
package state
