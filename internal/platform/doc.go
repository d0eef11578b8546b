// Package platform provides the filesystem primitives the scaffolder builds
// on: idempotent directory trees rooted at an explicit path, whole-file
// writes, best-effort removal and permission management. Every failure is an
// *FSError so callers can tell filesystem trouble apart from tool failures.
package platform
