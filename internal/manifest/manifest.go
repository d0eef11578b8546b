package manifest

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/tidwall/gjson"
	"github.com/tidwall/pretty"
	"github.com/tidwall/sjson"

	"github.com/MarshallNickolauson/mern-builder-script/internal/schema"
)

// FileName is the manifest file npm reads in every tier.
const FileName = "package.json"

var (
	// ErrManifestMissing is returned when package.json does not exist.
	ErrManifestMissing = errors.New("manifest missing")
	// ErrManifestCorrupt is returned when package.json is not a JSON object
	// or an edit leaves it in a shape npm would reject.
	ErrManifestCorrupt = errors.New("manifest corrupt")
)

//go:embed schema/package.schema.json
var schemaBytes []byte

var packageSchema = schema.New("package.schema.json", schemaBytes)

// Width 0 keeps every array one item per line, the way npm writes them.
var prettyOptions = &pretty.Options{Width: 0, Indent: "  "}

// Script is one entry of the "scripts" object.
type Script struct {
	Name string `yaml:"name" json:"name"`
	Run  string `yaml:"run" json:"run"`
}

// Mutation edits a raw package.json document.
type Mutation func(doc []byte) ([]byte, error)

// SetScripts sets each script, replacing an existing entry of the same name
// in place and appending new ones in the given order.
func SetScripts(scripts ...Script) Mutation {
	return func(doc []byte) ([]byte, error) {
		var err error
		for _, s := range scripts {
			doc, err = sjson.SetBytes(doc, "scripts."+escapeKey(s.Name), s.Run)
			if err != nil {
				return nil, fmt.Errorf("setting script %q: %w", s.Name, err)
			}
		}
		return doc, nil
	}
}

// SetType sets the top-level module type ("module" or "commonjs").
func SetType(typ string) Mutation {
	return SetField("type", typ)
}

// SetField sets a value at a dotted path. Use a backslash to escape a
// literal dot inside a key.
func SetField(path string, value interface{}) Mutation {
	return func(doc []byte) ([]byte, error) {
		out, err := sjson.SetBytes(doc, path, value)
		if err != nil {
			return nil, fmt.Errorf("setting %s: %w", path, err)
		}
		return out, nil
	}
}

// Update reads the manifest at path, applies the mutations in order,
// validates and reformats the result and writes it back with the original
// file mode.
func Update(path string, mutations ...Mutation) error {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%w: %s", ErrManifestMissing, path)
		}
		return fmt.Errorf("reading manifest %s: %w", path, err)
	}

	doc, err := Read(path)
	if err != nil {
		return err
	}
	for _, m := range mutations {
		if doc, err = m(doc); err != nil {
			return fmt.Errorf("updating %s: %w", path, err)
		}
	}

	if err := check(path, doc); err != nil {
		return err
	}

	if err := os.WriteFile(path, Format(doc), info.Mode().Perm()); err != nil {
		return fmt.Errorf("writing manifest %s: %w", path, err)
	}
	return nil
}

// Read returns the raw manifest after checking it is a JSON object.
func Read(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrManifestMissing, path)
		}
		return nil, fmt.Errorf("reading manifest %s: %w", path, err)
	}
	if !gjson.ValidBytes(data) || !gjson.ParseBytes(data).IsObject() {
		return nil, fmt.Errorf("%w: %s is not a JSON object", ErrManifestCorrupt, path)
	}
	return data, nil
}

// Validate checks the manifest at path against the package.json schema.
func Validate(path string) error {
	doc, err := Read(path)
	if err != nil {
		return err
	}
	return check(path, doc)
}

func check(path string, doc []byte) error {
	res, err := packageSchema.ValidateJSON(doc)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrManifestCorrupt, path, err)
	}
	if !res.Valid {
		return fmt.Errorf("%w: %s: %v", ErrManifestCorrupt, path, res.Err())
	}
	return nil
}

// Scripts returns the manifest's scripts in document order.
func Scripts(path string) ([]Script, error) {
	data, err := Read(path)
	if err != nil {
		return nil, err
	}
	var scripts []Script
	gjson.GetBytes(data, "scripts").ForEach(func(key, value gjson.Result) bool {
		scripts = append(scripts, Script{Name: key.String(), Run: value.String()})
		return true
	})
	return scripts, nil
}

// Format re-indents a document with two spaces and a trailing newline.
func Format(doc []byte) []byte {
	out := pretty.PrettyOptions(doc, prettyOptions)
	if len(out) == 0 || out[len(out)-1] != '\n' {
		out = append(out, '\n')
	}
	return out
}

// escapeKey turns a script name into a single sjson path component. The
// leading ':' keeps numeric names as object keys; path metacharacters are
// backslash-escaped.
func escapeKey(key string) string {
	var b strings.Builder
	b.Grow(len(key) + 1)
	b.WriteByte(':')
	for i := 0; i < len(key); i++ {
		switch key[i] {
		case '.', '*', '?', '|', '#', '@', '\\', ':', '!', '=', '<', '>', '%':
			b.WriteByte('\\')
		}
		b.WriteByte(key[i])
	}
	return b.String()
}
