// Package manifest edits npm package.json files in place. Edits are applied
// as path-level sets on the raw document so existing keys keep their order
// and values, and the result is schema-checked before it is written back.
package manifest
