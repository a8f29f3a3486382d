// Package template defines the seam renderers use to execute templates so the
// HTML renderer does not depend on a specific engine. The pongo subpackage
// provides the default pongo2-backed implementation.
package template
