// Package model exposes the form catalogue consumed by the component and the
// renderers. A FormModel lists one Field per native HTML control in render
// order; each Field carries the stable `data-testid` external automation uses
// to locate it, the option list for radio/select controls and, for the
// conditional extra-info field, the visibility rule that gates it. Builders
// live in internal/model but return the types defined here.
package model
