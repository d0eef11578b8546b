// Package schema compiles embedded JSON schemas once and validates JSON or
// YAML documents against them, flattening the validator's error tree into a
// list of path/keyword/message issues.
package schema
