package templates

import (
	"fmt"
	"regexp"
	"strings"
	"text/template"

	"github.com/MarshallNickolauson/mern-builder-script/internal/project"
)

// Render data defaults.
const (
	DefaultBackendPort  = 5000
	DefaultFrontendPort = 3000
	DefaultAPIPrefix    = "/api"
	DefaultMongoURI     = "mongodb://localhost:27017"
)

// Data is the input to every parameterized template.
type Data struct {
	Project      project.Descriptor
	BackendPort  int
	FrontendPort int
	APIPrefix    string
	MongoURI     string // server URI without a database path
	JWTSecret    string
	Options      Options
}

// NewData returns render data for p with default ports and URIs. Options
// is empty; callers fill it from the set.
func NewData(p project.Descriptor) Data {
	return Data{
		Project:      p,
		BackendPort:  DefaultBackendPort,
		FrontendPort: DefaultFrontendPort,
		APIPrefix:    DefaultAPIPrefix,
		MongoURI:     DefaultMongoURI,
		Options:      Options{},
	}
}

// DatabaseURI is the connection string for the project's database.
func (d Data) DatabaseURI() string {
	return strings.TrimRight(d.MongoURI, "/") + "/" + d.Project.Database()
}

// BackendURL is the local address the backend listens on in development.
func (d Data) BackendURL() string {
	return fmt.Sprintf("http://localhost:%d", d.BackendPort)
}

// FrontendURL is the local address of the frontend dev server.
func (d Data) FrontendURL() string {
	return fmt.Sprintf("http://localhost:%d", d.FrontendPort)
}

var funcs = template.FuncMap{
	"dotenv": dotenvValue,
	"upper":  strings.ToUpper,
	"lower":  strings.ToLower,
}

var dotenvBare = regexp.MustCompile(`^[A-Za-z0-9_./:@+,-]*$`)

// dotenvValue renders s as a .env value: bare when it only holds safe
// characters, otherwise double-quoted with backslash escapes.
func dotenvValue(s string) string {
	if dotenvBare.MatchString(s) {
		return s
	}
	r := strings.NewReplacer(`\`, `\\`, `"`, `\"`, "\n", `\n`, "\r", `\r`, "$", `\$`)
	return `"` + r.Replace(s) + `"`
}
