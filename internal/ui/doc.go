// Package ui renders user-facing output: colored step lines, warnings,
// errors and the tree of generated files.
package ui
