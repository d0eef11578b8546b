// Package project holds the project descriptor: the validated name a
// scaffold run is keyed on and the display forms derived from it.
package project
