// Package runner executes external commands for the scaffolder. Commands are
// discrete argument vectors with an explicit working directory; nothing is
// routed through a shell. Exec is the os/exec implementation and Fake is a
// recording stand-in for tests.
package runner
