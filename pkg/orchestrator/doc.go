// Package orchestrator turns a form component into rendered output: it picks a
// renderer from a registry, resolves the requested theme and runs view
// transformers (label presets and the like) before handing the view over.
package orchestrator
