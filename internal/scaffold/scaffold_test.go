package scaffold

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"go.uber.org/zap/zapcore"

	"github.com/MarshallNickolauson/mern-builder-script/internal/logging"
	"github.com/MarshallNickolauson/mern-builder-script/internal/manifest"
	"github.com/MarshallNickolauson/mern-builder-script/internal/platform"
	"github.com/MarshallNickolauson/mern-builder-script/internal/preflight"
	"github.com/MarshallNickolauson/mern-builder-script/internal/project"
	"github.com/MarshallNickolauson/mern-builder-script/internal/runner"
	"github.com/MarshallNickolauson/mern-builder-script/internal/templates"
)

const npmInitJSON = `{
  "name": "pkg",
  "version": "1.0.0",
  "description": "",
  "main": "index.js",
  "scripts": {
    "test": "echo \"Error: no test specified\" && exit 1"
  },
  "keywords": [],
  "author": "",
  "license": "ISC"
}
`

const viteJSON = `{
  "name": "frontend",
  "private": true,
  "version": "0.0.0",
  "type": "module",
  "scripts": {
    "dev": "vite",
    "build": "vite build",
    "preview": "vite preview"
  },
  "dependencies": {
    "react": "^18.3.1",
    "react-dom": "^18.3.1"
  }
}
`

// fakeNPM returns a Fake whose npm/npx commands leave behind the files the
// real tools would.
func fakeNPM(t *testing.T) *runner.Fake {
	t.Helper()
	fake := runner.NewFake()
	write := func(dir, rel, content string) error {
		_, err := platform.WriteFile(dir, rel, []byte(content), 0644)
		return err
	}
	fake.On("npm init -y", func(cmd runner.Command) error {
		return write(cmd.Dir, "package.json", npmInitJSON)
	})
	fake.On("npm create vite@latest", func(cmd runner.Command) error {
		for rel, content := range map[string]string{
			"package.json":         viteJSON,
			"index.html":           "<title>Vite + React</title>\n",
			"src/App.css":          "#root {}\n",
			"src/App.jsx":          "export default function App() {}\n",
			"src/main.jsx":         "import App from './App.jsx'\n",
			"src/index.css":        ":root {}\n",
			"src/assets/react.svg": "<svg/>\n",
		} {
			if err := write(cmd.Dir, rel, content); err != nil {
				return err
			}
		}
		return nil
	})
	fake.On("npx tailwindcss init -p", func(cmd runner.Command) error {
		if err := write(cmd.Dir, "tailwind.config.js", "export default {}\n"); err != nil {
			return err
		}
		return write(cmd.Dir, "postcss.config.js", "export default {}\n")
	})
	return fake
}

func testSet(t *testing.T) *templates.Set {
	t.Helper()
	s, err := templates.Default()
	if err != nil {
		t.Fatalf("templates.Default() error: %v", err)
	}
	return s
}

func testData(t *testing.T, s *templates.Set, name string) templates.Data {
	t.Helper()
	p, err := project.New(name)
	if err != nil {
		t.Fatal(err)
	}
	d := templates.NewData(p)
	d.JWTSecret = "fixed-secret"
	d.Options = s.DefaultOptions()
	return d
}

type recorder struct {
	mu        sync.Mutex
	steps     []string
	preflight *preflight.Report
}

func (r *recorder) Step(tier templates.Tier, step string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.steps = append(r.steps, string(tier)+": "+step)
}

func (r *recorder) Preflight(report *preflight.Report) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.preflight = report
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading %s: %v", path, err)
	}
	return string(data)
}

func assertExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); err != nil {
		t.Errorf("expected %s to exist: %v", path, err)
	}
}

func assertMissing(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Errorf("expected %s to be absent (err = %v)", path, err)
	}
}

func assertContains(t *testing.T, content, substr string) {
	t.Helper()
	if !strings.Contains(content, substr) {
		t.Errorf("expected content to contain %q, got:\n%s", substr, content)
	}
}

func scriptMap(t *testing.T, path string) map[string]string {
	t.Helper()
	scripts, err := manifest.Scripts(path)
	if err != nil {
		t.Fatalf("manifest.Scripts(%s) error: %v", path, err)
	}
	m := make(map[string]string, len(scripts))
	for _, s := range scripts {
		m[s.Name] = s.Run
	}
	return m
}

func TestGenerate_Shopcart(t *testing.T) {
	parent := t.TempDir()
	set := testSet(t)
	fake := fakeNPM(t)
	rec := &recorder{}
	e := New(fake, set, nil)
	e.Reporter = rec

	res, err := e.Generate(context.Background(), Request{
		Parent:   parent,
		Data:     testData(t, set, "shopcart"),
		StartDev: true,
	})
	if err != nil {
		t.Fatalf("Generate() error: %v", err)
	}

	root := filepath.Join(parent, "shopcart")
	if res.Root != root {
		t.Errorf("Root = %s, want %s", res.Root, root)
	}

	for _, d := range []string{"config", "controllers", "middleware", "models", "routes"} {
		info, err := os.Stat(filepath.Join(root, "backend", d))
		if err != nil || !info.IsDir() {
			t.Errorf("backend/%s is not a directory", d)
		}
	}
	env := readFile(t, filepath.Join(root, "backend", ".env"))
	assertContains(t, env, "MONGO_URI=mongodb://localhost:27017/shopcart")
	assertContains(t, env, "JWT_SECRET=fixed-secret")
	for _, f := range []string{"server.js", "middleware/errorMiddleware.js", "config/db.js", ".gitignore"} {
		assertExists(t, filepath.Join(root, "backend", f))
	}

	fe := filepath.Join(root, "frontend")
	for _, f := range []string{
		"src/screens/HomeScreen.jsx",
		"src/screens/NotFoundScreen.jsx",
		"src/layouts/MainLayout.jsx",
		"src/components/Header.jsx",
		"src/components/Footer.jsx",
		"src/slices/apiSlice.js",
		"src/constants.js",
		"src/store.js",
		"src/.babelrc",
		"vite.config.js",
		"README.md",
	} {
		assertExists(t, filepath.Join(fe, f))
	}
	assertContains(t, readFile(t, filepath.Join(fe, "index.html")), "<title>shopcart</title>")
	assertContains(t, readFile(t, filepath.Join(fe, "src", "main.jsx")), "RouterProvider")
	assertContains(t, readFile(t, filepath.Join(fe, "tailwind.config.js")), "./src/**/*.{js,ts,jsx,tsx}")
	assertExists(t, filepath.Join(fe, "postcss.config.js"))
	assertMissing(t, filepath.Join(fe, "src", "App.css"))
	assertMissing(t, filepath.Join(fe, "src", "App.jsx"))
	assertMissing(t, filepath.Join(fe, "src", "assets", "react.svg"))

	rootScripts := scriptMap(t, filepath.Join(root, "package.json"))
	if rootScripts["dev"] != `concurrently "npm run server" "npm run client"` {
		t.Errorf("root dev script = %q", rootScripts["dev"])
	}
	if rootScripts["server"] != "npm run server --prefix backend" || rootScripts["client"] != "npm run dev --prefix frontend" {
		t.Errorf("root scripts = %v", rootScripts)
	}

	backendPkg := filepath.Join(root, "backend", "package.json")
	backendScripts := scriptMap(t, backendPkg)
	if backendScripts["start"] != "node server.js" || backendScripts["server"] != "nodemon server.js" {
		t.Errorf("backend scripts = %v", backendScripts)
	}
	backendJSON := readFile(t, backendPkg)
	assertContains(t, backendJSON, `"type": "module"`)
	assertContains(t, backendJSON, `"license": "ISC"`)

	frontendScripts := scriptMap(t, filepath.Join(fe, "package.json"))
	if frontendScripts["test"] != "jest" || frontendScripts["dev"] != "vite" {
		t.Errorf("frontend scripts = %v", frontendScripts)
	}

	wantCalls := []struct{ prefix, dir string }{
		{"npm init -y", root},
		{"npm install --save-dev concurrently", root},
		{"npm init -y", filepath.Join(root, "backend")},
		{"npm install express dotenv mongoose", filepath.Join(root, "backend")},
		{"npm install --save-dev nodemon", filepath.Join(root, "backend")},
		{"npm create vite@latest . -- --template react", fe},
		{"npm install react-icons", fe},
		{"npm install --save-dev jest", fe},
		{"npx tailwindcss init -p", fe},
	}
	calls := fake.Calls()
	if len(calls) != len(wantCalls) {
		t.Fatalf("got %d calls, want %d:\n%s", len(calls), len(wantCalls), strings.Join(fake.Lines(), "\n"))
	}
	for i, want := range wantCalls {
		if !strings.HasPrefix(calls[i].String(), want.prefix) {
			t.Errorf("call %d = %q, want prefix %q", i, calls[i].String(), want.prefix)
		}
		if calls[i].Dir != want.dir {
			t.Errorf("call %d dir = %s, want %s", i, calls[i].Dir, want.dir)
		}
	}

	started := fake.Started()
	if len(started) != 1 || started[0].String() != "npm run dev" || started[0].Dir != root {
		t.Errorf("started = %+v", started)
	}
	if res.DevPID != 4242 {
		t.Errorf("DevPID = %d", res.DevPID)
	}
	if len(res.Removed) != 3 {
		t.Errorf("Removed = %v", res.Removed)
	}
	if len(rec.steps) == 0 {
		t.Error("reporter saw no steps")
	}
}

func TestGenerate_ShellMetacharactersRejected(t *testing.T) {
	parent := t.TempDir()
	set := testSet(t)
	fake := fakeNPM(t)
	e := New(fake, set, nil)

	data := templates.NewData(project.Descriptor{Name: "my project; rm -rf /"})
	data.Options = set.DefaultOptions()

	_, err := e.Generate(context.Background(), Request{Parent: parent, Data: data, StartDev: true})
	if !errors.Is(err, project.ErrInvalidName) {
		t.Fatalf("err = %v, want ErrInvalidName", err)
	}
	if n := len(fake.Calls()) + len(fake.Started()); n != 0 {
		t.Errorf("%d commands composed for an invalid name", n)
	}
	entries, _ := os.ReadDir(parent)
	if len(entries) != 0 {
		t.Errorf("parent dir touched: %v", entries)
	}

	if _, err := e.Backend(context.Background(), filepath.Join(parent, "x"), data); !errors.Is(err, project.ErrInvalidName) {
		t.Errorf("Backend() err = %v, want ErrInvalidName", err)
	}
	if _, err := e.Frontend(context.Background(), filepath.Join(parent, "x"), data); !errors.Is(err, project.ErrInvalidName) {
		t.Errorf("Frontend() err = %v, want ErrInvalidName", err)
	}
}

func TestBackend_Idempotent(t *testing.T) {
	root := filepath.Join(t.TempDir(), "shopcart")
	set := testSet(t)
	e := New(fakeNPM(t), set, nil)
	data := testData(t, set, "shopcart")

	first, err := e.Backend(context.Background(), root, data)
	if err != nil {
		t.Fatalf("first Backend() error: %v", err)
	}
	snapshot := make(map[string]string)
	for _, f := range first.Files {
		snapshot[f] = readFile(t, filepath.Join(root, filepath.FromSlash(f)))
	}

	second, err := e.Backend(context.Background(), root, data)
	if err != nil {
		t.Fatalf("second Backend() error: %v", err)
	}
	if len(second.Files) != len(first.Files) {
		t.Fatalf("file count changed: %d -> %d", len(first.Files), len(second.Files))
	}
	for _, f := range second.Files {
		if got := readFile(t, filepath.Join(root, filepath.FromSlash(f))); got != snapshot[f] {
			t.Errorf("%s changed between runs", f)
		}
	}
}

func TestBackend_RelativeRootRejected(t *testing.T) {
	set := testSet(t)
	fake := fakeNPM(t)
	e := New(fake, set, nil)
	if _, err := e.Backend(context.Background(), "shopcart", testData(t, set, "shopcart")); err == nil {
		t.Fatal("expected error for relative root")
	}
	if len(fake.Calls()) != 0 {
		t.Error("commands ran for a relative root")
	}
}

func TestBackend_InstallFailureHalts(t *testing.T) {
	root := filepath.Join(t.TempDir(), "shopcart")
	set := testSet(t)
	fake := fakeNPM(t)
	fake.FailOn("npm install express", 3)
	e := New(fake, set, nil)

	_, err := e.Backend(context.Background(), root, testData(t, set, "shopcart"))
	if !errors.Is(err, runner.ErrCommandFailed) {
		t.Fatalf("err = %v, want ErrCommandFailed", err)
	}
	var stepErr *StepError
	if !errors.As(err, &stepErr) {
		t.Fatalf("expected *StepError, got %T", err)
	}
	if stepErr.Tier != templates.TierBackend {
		t.Errorf("Tier = %s, want backend", stepErr.Tier)
	}
	if runner.ExitCode(err) != 3 {
		t.Errorf("ExitCode = %d, want 3", runner.ExitCode(err))
	}

	lines := fake.Lines()
	if last := lines[len(lines)-1]; !strings.HasPrefix(last, "npm install express") {
		t.Errorf("commands continued after failure: %v", lines)
	}
	assertMissing(t, filepath.Join(root, "backend", ".env"))
	assertMissing(t, filepath.Join(root, "backend", "server.js"))
	assertMissing(t, filepath.Join(root, "backend", "config"))
	// Earlier steps are not rolled back.
	assertExists(t, filepath.Join(root, "package.json"))
}

func TestGenerate_FrontendFailureHalts(t *testing.T) {
	parent := t.TempDir()
	set := testSet(t)
	fake := fakeNPM(t)
	fake.FailOn("npx tailwindcss", 7)
	e := New(fake, set, nil)

	res, err := e.Generate(context.Background(), Request{Parent: parent, Data: testData(t, set, "shopcart"), StartDev: true})
	if runner.ExitCode(err) != 7 {
		t.Fatalf("ExitCode(%v) = %d, want 7", err, runner.ExitCode(err))
	}
	fe := filepath.Join(parent, "shopcart", "frontend")
	assertExists(t, filepath.Join(fe, "src", "App.jsx"))
	assertMissing(t, filepath.Join(fe, "src", "screens"))
	assertMissing(t, filepath.Join(fe, "vite.config.js"))
	if len(fake.Started()) != 0 {
		t.Error("dev command started after a failed run")
	}
	if res == nil || len(res.Files) == 0 {
		t.Error("partial result should list the backend files already written")
	}
}

func TestBackend_ManifestMissing(t *testing.T) {
	root := filepath.Join(t.TempDir(), "shopcart")
	set := testSet(t)
	e := New(runner.NewFake(), set, nil)

	_, err := e.Backend(context.Background(), root, testData(t, set, "shopcart"))
	if !errors.Is(err, manifest.ErrManifestMissing) {
		t.Fatalf("err = %v, want ErrManifestMissing", err)
	}
	var stepErr *StepError
	if !errors.As(err, &stepErr) || stepErr.Tier != templates.TierRoot {
		t.Errorf("want root tier StepError, got %v", err)
	}
}

func TestGenerate_PortConsistency(t *testing.T) {
	parent := t.TempDir()
	set := testSet(t)
	e := New(fakeNPM(t), set, nil)
	data := testData(t, set, "shopcart")
	data.BackendPort = 5055
	data.FrontendPort = 3033

	if _, err := e.Generate(context.Background(), Request{Parent: parent, Data: data}); err != nil {
		t.Fatal(err)
	}
	root := filepath.Join(parent, "shopcart")
	assertContains(t, readFile(t, filepath.Join(root, "backend", ".env")), "BACKEND_PORT=5055\n")
	vite := readFile(t, filepath.Join(root, "frontend", "vite.config.js"))
	assertContains(t, vite, "target: 'http://localhost:5055'")
	assertContains(t, vite, "port: 3033,")
	assertContains(t, readFile(t, filepath.Join(root, "frontend", "src", "constants.js")), "'http://localhost:5055'")
}

func TestGenerate_WithoutAuth(t *testing.T) {
	parent := t.TempDir()
	set := testSet(t)
	fake := fakeNPM(t)
	e := New(fake, set, nil)
	data := testData(t, set, "shopcart")
	opts, err := set.ResolveOptions([]string{"auth"})
	if err != nil {
		t.Fatal(err)
	}
	data.Options = opts

	if _, err := e.Generate(context.Background(), Request{Parent: parent, Data: data}); err != nil {
		t.Fatal(err)
	}
	for _, line := range fake.Lines() {
		if strings.Contains(line, "jsonwebtoken") || strings.Contains(line, "cookie-parser") {
			t.Errorf("auth package installed: %s", line)
		}
	}
	env := readFile(t, filepath.Join(parent, "shopcart", "backend", ".env"))
	if strings.Contains(env, "JWT_SECRET") {
		t.Errorf(".env has a secret with auth off:\n%s", env)
	}
}

func TestGenerate_NonEmptyRoot(t *testing.T) {
	parent := t.TempDir()
	set := testSet(t)
	root := filepath.Join(parent, "shopcart")
	if err := os.MkdirAll(root, 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(root, "notes.txt"), []byte("keep"), 0644); err != nil {
		t.Fatal(err)
	}

	fake := fakeNPM(t)
	e := New(fake, set, nil)
	req := Request{Parent: parent, Data: testData(t, set, "shopcart")}
	if _, err := e.Generate(context.Background(), req); !errors.Is(err, ErrRootNotEmpty) {
		t.Fatalf("err = %v, want ErrRootNotEmpty", err)
	}
	if len(fake.Calls()) != 0 {
		t.Error("commands ran against a non-empty root")
	}

	req.Force = true
	if _, err := e.Generate(context.Background(), req); err != nil {
		t.Fatalf("Generate(force) error: %v", err)
	}
	if readFile(t, filepath.Join(root, "notes.txt")) != "keep" {
		t.Error("unrelated file modified")
	}
}

func TestGenerate_PreflightBlocks(t *testing.T) {
	parent := t.TempDir()
	set := testSet(t)
	fake := fakeNPM(t)
	rec := &recorder{}
	e := New(fake, set, nil)
	e.Reporter = rec
	e.Checker = preflight.New(fake, nil)
	e.Checker.LookPath = func(file string) (string, error) {
		if file == "npx" {
			return "", errors.New("not found")
		}
		return "/usr/bin/" + file, nil
	}
	fake.SetOutput("node --version", "v20.11.1")
	fake.SetOutput("npm --version", "10.2.4")

	_, err := e.Generate(context.Background(), Request{Parent: parent, Data: testData(t, set, "shopcart")})
	if !errors.Is(err, preflight.ErrToolMissing) {
		t.Fatalf("err = %v, want ErrToolMissing", err)
	}
	if rec.preflight == nil || rec.preflight.OK() {
		t.Error("reporter did not receive the failing report")
	}
	for _, line := range fake.Lines() {
		if !strings.HasSuffix(line, "--version") {
			t.Errorf("non-probe command ran: %s", line)
		}
	}
	if _, err := os.Stat(filepath.Join(parent, "shopcart")); !os.IsNotExist(err) {
		t.Error("project directory created despite failed preflight")
	}

	// Skipping preflight lets the run proceed.
	if _, err := e.Generate(context.Background(), Request{Parent: parent, Data: testData(t, set, "shopcart"), SkipPreflight: true}); err != nil {
		t.Fatalf("Generate(skip preflight) error: %v", err)
	}
}

func TestGenerate_Git(t *testing.T) {
	parent := t.TempDir()
	set := testSet(t)
	e := New(fakeNPM(t), set, nil)

	if _, err := e.Generate(context.Background(), Request{Parent: parent, Data: testData(t, set, "shopcart"), Git: true}); err != nil {
		t.Fatal(err)
	}
	root := filepath.Join(parent, "shopcart")
	assertExists(t, filepath.Join(root, ".git", "HEAD"))
	ignore := readFile(t, filepath.Join(root, ".gitignore"))
	if ignore != "node_modules\n.env\ndist\n" {
		t.Errorf(".gitignore = %q", ignore)
	}
}

func TestGenerate_StartFailureIsWarning(t *testing.T) {
	parent := t.TempDir()
	set := testSet(t)
	fake := fakeNPM(t)
	fake.FailOn("npm run dev", 1)
	e := New(fake, set, nil)

	res, err := e.Generate(context.Background(), Request{Parent: parent, Data: testData(t, set, "shopcart"), StartDev: true})
	if err != nil {
		t.Fatalf("Generate() error: %v", err)
	}
	if res.DevPID != 0 || len(res.Warnings) == 0 {
		t.Errorf("DevPID = %d, Warnings = %v", res.DevPID, res.Warnings)
	}
}

func TestGenerate_Logs(t *testing.T) {
	parent := t.TempDir()
	set := testSet(t)
	log, logs := logging.NewObserved(zapcore.InfoLevel)
	e := New(fakeNPM(t), set, log)

	if _, err := e.Generate(context.Background(), Request{Parent: parent, Data: testData(t, set, "shopcart")}); err != nil {
		t.Fatal(err)
	}
	for _, msg := range []string{"scaffolding backend", "scaffolding frontend", "project scaffolded"} {
		if logs.FilterMessage(msg).Len() != 1 {
			t.Errorf("expected one %q entry", msg)
		}
	}
	entries := logs.FilterMessage("running").All()
	if len(entries) != len(e.Runner.(*runner.Fake).Calls()) {
		t.Errorf("logged %d commands, ran %d", len(entries), len(e.Runner.(*runner.Fake).Calls()))
	}
}
