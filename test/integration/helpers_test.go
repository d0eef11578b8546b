//go:build integration

package integration_test

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
)

// testEnv holds paths to isolated test directories.
type testEnv struct {
	HomeDir   string // HOME, so no real config is read
	BinDir    string // stub npm, npx and node, first on PATH
	ParentDir string // where projects are created
	LogFile   string // one line per stub invocation: "<cwd>|<tool> <args>"
}

// setupTestEnv puts shell stubs for the node toolchain first on PATH. The
// stubs leave behind the files the real tools would create.
func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell stubs need a POSIX shell")
	}

	env := &testEnv{
		HomeDir:   t.TempDir(),
		BinDir:    t.TempDir(),
		ParentDir: t.TempDir(),
	}
	env.LogFile = filepath.Join(env.BinDir, "calls.log")

	t.Setenv("HOME", env.HomeDir)
	t.Setenv("PATH", env.BinDir+string(os.PathListSeparator)+os.Getenv("PATH"))
	t.Setenv("STUB_LOG", env.LogFile)

	writeStub(t, env.BinDir, "node", `
case "$1" in
  --version) echo "${STUB_NODE_VERSION:-v20.11.1}" ;;
esac
`)
	writeStub(t, env.BinDir, "npm", `
case "$1" in
  --version) echo "10.2.4" ;;
  init)
    printf '{\n  "name": "%s",\n  "version": "1.0.0",\n  "main": "index.js",\n  "scripts": {\n    "test": "exit 1"\n  },\n  "license": "ISC"\n}\n' "$(basename "$PWD")" > package.json ;;
  create)
    printf '{\n  "name": "frontend",\n  "private": true,\n  "type": "module",\n  "scripts": {\n    "dev": "vite",\n    "build": "vite build"\n  }\n}\n' > package.json
    mkdir -p src/assets
    echo '#root {}' > src/App.css
    echo 'export default function App() {}' > src/App.jsx
    echo '<svg/>' > src/assets/react.svg ;;
  install) exit "${STUB_INSTALL_EXIT:-0}" ;;
esac
`)
	writeStub(t, env.BinDir, "npx", `
case "$1 $2" in
  "tailwindcss init")
    echo 'export default {}' > tailwind.config.js
    echo 'export default {}' > postcss.config.js ;;
esac
`)
	return env
}

// writeStub writes an executable sh script that logs its invocation before
// running body.
func writeStub(t *testing.T, dir, name, body string) {
	t.Helper()
	script := "#!/bin/sh\n" +
		`[ -n "$STUB_LOG" ] && echo "$PWD|` + name + ` $*" >> "$STUB_LOG"` + "\n" +
		strings.TrimLeft(body, "\n")
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(script), 0755); err != nil {
		t.Fatalf("writing stub %s: %v", name, err)
	}
}

// calls returns the logged stub invocations.
func (e *testEnv) calls(t *testing.T) []string {
	t.Helper()
	data, err := os.ReadFile(e.LogFile)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		t.Fatalf("reading stub log: %v", err)
	}
	return strings.Split(strings.TrimSpace(string(data)), "\n")
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatalf("creating dir %s: %v", dir, err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("writing %s: %v", path, err)
	}
}

// assertFileExists fails the test if the file does not exist.
func assertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); err != nil {
		t.Errorf("expected file to exist: %s (error: %v)", path, err)
	}
}

// assertFileNotExists fails the test if the file exists.
func assertFileNotExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); err == nil {
		t.Errorf("expected file NOT to exist: %s", path)
	}
}

// assertDirExists fails the test if the directory does not exist.
func assertDirExists(t *testing.T, path string) {
	t.Helper()
	info, err := os.Stat(path)
	if err != nil {
		t.Errorf("expected directory to exist: %s (error: %v)", path, err)
		return
	}
	if !info.IsDir() {
		t.Errorf("expected %s to be a directory, but it is a file", path)
	}
}

// assertFileContains fails if the file doesn't exist or doesn't contain substr.
func assertFileContains(t *testing.T, path, substr string) {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Errorf("reading %s: %v", path, err)
		return
	}
	if !strings.Contains(string(data), substr) {
		t.Errorf("file %s does not contain %q.\nContents:\n%s", path, substr, string(data))
	}
}
