// Package vcs initializes a git repository for a generated project and
// keeps its .gitignore in shape.
package vcs
