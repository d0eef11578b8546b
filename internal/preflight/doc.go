// Package preflight checks that every external tool a scaffold run needs is
// installed, and new enough, before anything touches the filesystem. The
// same report backs the doctor command.
package preflight
