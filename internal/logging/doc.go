// Package logging builds the zap logger used for diagnostic output. User
// facing progress goes through the ui package on stdout; the logger writes
// to stderr and is quiet (warn) unless --log-level asks for more.
package logging
