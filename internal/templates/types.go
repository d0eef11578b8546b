package templates

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"go.yaml.in/yaml/v3"

	"github.com/MarshallNickolauson/mern-builder-script/internal/manifest"
)

// Tier is one sub-application of the generated project.
type Tier string

// Tier names.
const (
	TierRoot     Tier = "root"
	TierBackend  Tier = "backend"
	TierFrontend Tier = "frontend"
)

// Command is an external command from the set index. In YAML it is either
// a plain argument list or a mapping with args and env.
type Command struct {
	Args []string `yaml:"args" json:"args"`
	Env  []string `yaml:"env,omitempty" json:"env,omitempty"`
}

// UnmarshalYAML accepts both the list and the mapping form.
func (c *Command) UnmarshalYAML(n *yaml.Node) error {
	if n.Kind == yaml.SequenceNode {
		return n.Decode(&c.Args)
	}
	type plain Command
	return n.Decode((*plain)(c))
}

// Name returns the executable.
func (c Command) Name() string {
	if len(c.Args) == 0 {
		return ""
	}
	return c.Args[0]
}

// With returns a copy of c with extra arguments appended.
func (c Command) With(args ...string) Command {
	out := Command{Args: make([]string, 0, len(c.Args)+len(args))}
	out.Args = append(append(out.Args, c.Args...), args...)
	out.Env = append(out.Env, c.Env...)
	return out
}

// Package is an npm package spec, optionally gated by an option.
// In YAML it is either a bare string or a mapping with name and when.
type Package struct {
	Name string `yaml:"name" json:"name"`
	When string `yaml:"when,omitempty" json:"when,omitempty"`
}

// UnmarshalYAML accepts both the scalar and the mapping form.
func (p *Package) UnmarshalYAML(n *yaml.Node) error {
	if n.Kind == yaml.ScalarNode {
		p.Name = n.Value
		return nil
	}
	type plain Package
	return n.Decode((*plain)(p))
}

// Packages splits a tier's dependencies into runtime and dev-only sets.
type Packages struct {
	Runtime []Package `yaml:"runtime" json:"runtime,omitempty"`
	Dev     []Package `yaml:"dev" json:"dev,omitempty"`
}

// Select returns the names of the packages enabled under opts.
func Select(pkgs []Package, opts Options) []string {
	var names []string
	for _, p := range pkgs {
		if p.When == "" || opts.Has(p.When) {
			names = append(names, p.Name)
		}
	}
	return names
}

// TierSpec is everything the set declares for one tier.
type TierSpec struct {
	Dir         string            `yaml:"dir" json:"dir"`
	Create      []Command         `yaml:"create" json:"create,omitempty"`
	Packages    Packages          `yaml:"packages" json:"packages"`
	Setup       []Command         `yaml:"setup" json:"setup,omitempty"`
	Scripts     []manifest.Script `yaml:"scripts" json:"scripts,omitempty"`
	Type        string            `yaml:"type" json:"type,omitempty"`
	Directories []string          `yaml:"directories" json:"directories,omitempty"`
	Remove      []string          `yaml:"remove" json:"remove,omitempty"`
	Cleanup     []string          `yaml:"cleanup" json:"cleanup,omitempty"`
}

// Mutations returns the manifest edits the tier declares.
func (t *TierSpec) Mutations() []manifest.Mutation {
	var muts []manifest.Mutation
	if len(t.Scripts) > 0 {
		muts = append(muts, manifest.SetScripts(t.Scripts...))
	}
	if t.Type != "" {
		muts = append(muts, manifest.SetType(t.Type))
	}
	return muts
}

// File is one output file of the set.
type File struct {
	ID     string `yaml:"id" json:"id"`
	Tier   Tier   `yaml:"tier" json:"tier"`
	Path   string `yaml:"path" json:"path"`
	Source string `yaml:"source" json:"source"`
	When   string `yaml:"when,omitempty" json:"when,omitempty"`
	Mode   string `yaml:"mode,omitempty" json:"mode,omitempty"`
}

// Parameterized reports whether the file is rendered rather than copied.
func (f File) Parameterized() bool {
	return strings.HasSuffix(f.Source, ".tmpl")
}

// Perm returns the file mode to write with, 0644 unless the set says
// otherwise.
func (f File) Perm() os.FileMode {
	if f.Mode == "" {
		return 0644
	}
	m, err := strconv.ParseUint(f.Mode, 8, 32)
	if err != nil {
		return 0644
	}
	return os.FileMode(m)
}

// Option is an optional feature declared by the set.
type Option struct {
	Name        string `yaml:"name" json:"name"`
	Description string `yaml:"description" json:"description,omitempty"`
	Default     bool   `yaml:"default" json:"default"`
}

// Options is the set of enabled optional features.
type Options map[string]bool

// Has reports whether the named option is enabled.
func (o Options) Has(name string) bool { return o[name] }

// Enabled lists the enabled options in sorted order.
func (o Options) Enabled() []string {
	var names []string
	for name, on := range o {
		if on {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

func (o Options) String() string {
	enabled := o.Enabled()
	if len(enabled) == 0 {
		return "none"
	}
	return strings.Join(enabled, ",")
}

func parseMode(s string) error {
	if s == "" {
		return nil
	}
	if _, err := strconv.ParseUint(s, 8, 32); err != nil {
		return fmt.Errorf("invalid mode %q", s)
	}
	return nil
}
