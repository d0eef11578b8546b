package templates

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"text/template"

	"go.yaml.in/yaml/v3"

	"github.com/MarshallNickolauson/mern-builder-script/internal/schema"
)

// IndexFile is the name of the index inside a template set directory.
const IndexFile = "set.yaml"

var (
	// ErrUnknownTemplate is returned by Render for an id the set does not
	// declare.
	ErrUnknownTemplate = errors.New("unknown template")
	// ErrUnknownOption is returned when an option name is not declared by
	// the set.
	ErrUnknownOption = errors.New("unknown option")
	// ErrInvalidSet is returned when a set index fails validation.
	ErrInvalidSet = errors.New("invalid template set")
)

//go:embed mern
var builtinFS embed.FS

//go:embed schema/set.schema.json
var setSchemaBytes []byte

var setSchema = schema.New("set.schema.json", setSchemaBytes)

// Set is a loaded and validated template set.
type Set struct {
	Name        string             `yaml:"name" json:"name"`
	Description string             `yaml:"description" json:"description,omitempty"`
	Options     []Option           `yaml:"options" json:"options,omitempty"`
	Install     Command            `yaml:"install" json:"install"`
	InstallDev  Command            `yaml:"install_dev" json:"install_dev"`
	Dev         Command            `yaml:"dev" json:"dev"`
	Tiers       map[Tier]*TierSpec `yaml:"tiers" json:"tiers"`
	FileList    []File             `yaml:"files" json:"files"`

	fsys   fs.FS
	parsed map[string]*template.Template
}

// Default loads the embedded mern set.
func Default() (*Set, error) {
	sub, err := fs.Sub(builtinFS, "mern")
	if err != nil {
		return nil, fmt.Errorf("opening embedded template set: %w", err)
	}
	return Load(sub)
}

// LoadDir loads a template set from a directory on disk.
func LoadDir(dir string) (*Set, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("opening template set %s: %w", dir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("template set %s is not a directory", dir)
	}
	s, err := Load(os.DirFS(dir))
	if err != nil {
		return nil, fmt.Errorf("loading template set %s: %w", dir, err)
	}
	return s, nil
}

// Load reads set.yaml from fsys, validates it and parses every
// parameterized payload.
func Load(fsys fs.FS) (*Set, error) {
	data, err := fs.ReadFile(fsys, IndexFile)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", IndexFile, err)
	}

	res, err := setSchema.ValidateYAML(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSet, err)
	}
	if !res.Valid {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSet, res.Err())
	}

	var s Set
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("%w: decoding %s: %v", ErrInvalidSet, IndexFile, err)
	}
	s.fsys = fsys
	if err := s.check(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSet, err)
	}
	if err := s.parse(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSet, err)
	}
	return &s, nil
}

// check enforces the cross references the schema cannot express.
func (s *Set) check() error {
	declared := make(map[string]bool, len(s.Options))
	for _, o := range s.Options {
		if declared[o.Name] {
			return fmt.Errorf("option %q declared twice", o.Name)
		}
		declared[o.Name] = true
	}
	gate := func(where, when string) error {
		if when != "" && !declared[when] {
			return fmt.Errorf("%s: %w %q", where, ErrUnknownOption, when)
		}
		return nil
	}

	for tier, spec := range s.Tiers {
		if filepath.IsAbs(spec.Dir) || strings.HasPrefix(path.Clean(spec.Dir), "..") {
			return fmt.Errorf("tier %s: dir %q must stay inside the project", tier, spec.Dir)
		}
		for _, p := range append(append([]Package{}, spec.Packages.Runtime...), spec.Packages.Dev...) {
			if err := gate(fmt.Sprintf("tier %s package %s", tier, p.Name), p.When); err != nil {
				return err
			}
		}
	}

	ids := make(map[string]bool, len(s.FileList))
	for _, f := range s.FileList {
		if ids[f.ID] {
			return fmt.Errorf("file id %q declared twice", f.ID)
		}
		ids[f.ID] = true
		if _, ok := s.Tiers[f.Tier]; !ok {
			return fmt.Errorf("file %s: unknown tier %q", f.ID, f.Tier)
		}
		if err := gate("file "+f.ID, f.When); err != nil {
			return err
		}
		if err := parseMode(f.Mode); err != nil {
			return fmt.Errorf("file %s: %w", f.ID, err)
		}
		if _, err := fs.Stat(s.fsys, f.Source); err != nil {
			return fmt.Errorf("file %s: source %s: %w", f.ID, f.Source, err)
		}
	}
	return nil
}

func (s *Set) parse() error {
	s.parsed = make(map[string]*template.Template)
	for _, f := range s.FileList {
		if !f.Parameterized() {
			continue
		}
		src, err := fs.ReadFile(s.fsys, f.Source)
		if err != nil {
			return fmt.Errorf("reading template %s: %w", f.Source, err)
		}
		tmpl, err := template.New(f.ID).Funcs(funcs).Option("missingkey=error").Parse(string(src))
		if err != nil {
			return fmt.Errorf("parsing template %s: %w", f.Source, err)
		}
		s.parsed[f.ID] = tmpl
	}
	return nil
}

// Tier returns the spec for t. Every loaded set has all three tiers.
func (s *Set) Tier(t Tier) *TierSpec {
	return s.Tiers[t]
}

// File returns the file declared with id.
func (s *Set) File(id string) (File, bool) {
	for _, f := range s.FileList {
		if f.ID == id {
			return f, true
		}
	}
	return File{}, false
}

// Files returns the tier's files enabled under opts, in declaration order.
func (s *Set) Files(tier Tier, opts Options) []File {
	var files []File
	for _, f := range s.FileList {
		if f.Tier != tier {
			continue
		}
		if f.When != "" && !opts.Has(f.When) {
			continue
		}
		files = append(files, f)
	}
	return files
}

// Render produces the content of the file declared with id. Static files
// are returned unchanged; parameterized files are executed against data.
// Render has no side effects and is deterministic for equal inputs.
func (s *Set) Render(id string, data Data) ([]byte, error) {
	f, ok := s.File(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTemplate, id)
	}
	if !f.Parameterized() {
		content, err := fs.ReadFile(s.fsys, f.Source)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", f.Source, err)
		}
		return content, nil
	}

	var buf bytes.Buffer
	if err := s.parsed[id].Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("rendering %s: %w", id, err)
	}
	return buf.Bytes(), nil
}

// DefaultOptions returns the options the set enables by default.
func (s *Set) DefaultOptions() Options {
	opts := make(Options, len(s.Options))
	for _, o := range s.Options {
		opts[o.Name] = o.Default
	}
	return opts
}

// ResolveOptions starts from the defaults and switches off every option in
// without. Names the set does not declare are an error.
func (s *Set) ResolveOptions(without []string) (Options, error) {
	opts := s.DefaultOptions()
	for _, name := range without {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		if _, ok := opts[name]; !ok {
			return nil, fmt.Errorf("%w %q (available: %s)", ErrUnknownOption, name, strings.Join(s.optionNames(), ", "))
		}
		opts[name] = false
	}
	return opts, nil
}

func (s *Set) optionNames() []string {
	names := make([]string, len(s.Options))
	for i, o := range s.Options {
		names[i] = o.Name
	}
	return names
}

// Executables lists every distinct program the set runs, sorted.
func (s *Set) Executables() []string {
	seen := map[string]bool{}
	add := func(cmds ...Command) {
		for _, c := range cmds {
			if name := c.Name(); name != "" {
				seen[name] = true
			}
		}
	}
	add(s.Install, s.InstallDev, s.Dev)
	for _, spec := range s.Tiers {
		add(spec.Create...)
		add(spec.Setup...)
	}
	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
