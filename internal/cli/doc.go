// Package cli defines the Cobra command tree for the mernbuilder CLI. Each
// file registers one top-level command with the root command. Commands only
// parse flags, prompt and print; scaffolding lives in internal/scaffold.
package cli
