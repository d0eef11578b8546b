package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"

	"github.com/MarshallNickolauson/mern-builder-script/internal/branding"
)

const (
	fileName = "config"
	fileType = "yaml"
)

// ErrUnknownKey is returned by Get and Set for keys that are not settings.
var ErrUnknownKey = errors.New("unknown config key")

// Setting keys.
const (
	KeyBackendPort  = "backend_port"
	KeyFrontendPort = "frontend_port"
	KeyAPIPrefix    = "api_prefix"
	KeyMongoURI     = "mongo_uri"
	KeyTemplateDir  = "template_dir"
	KeyStartDev     = "start_dev"
	KeyGitInit      = "git_init"
	KeyLogLevel     = "log_level"
	KeyLogFormat    = "log_format"
	KeyWithout      = "without"
)

type kind int

const (
	kindString kind = iota
	kindInt
	kindBool
)

var keys = map[string]struct {
	kind kind
	def  interface{}
}{
	KeyBackendPort:  {kindInt, 5000},
	KeyFrontendPort: {kindInt, 3000},
	KeyAPIPrefix:    {kindString, "/api"},
	KeyMongoURI:     {kindString, "mongodb://localhost:27017"},
	KeyTemplateDir:  {kindString, ""},
	KeyStartDev:     {kindBool, true},
	KeyGitInit:      {kindBool, false},
	KeyLogLevel:     {kindString, "warn"},
	KeyLogFormat:    {kindString, "console"},
	KeyWithout:      {kindString, ""},
}

// Settings is the resolved configuration.
type Settings struct {
	BackendPort  int    `mapstructure:"backend_port" validate:"min=1,max=65535,nefield=FrontendPort"`
	FrontendPort int    `mapstructure:"frontend_port" validate:"min=1,max=65535"`
	APIPrefix    string `mapstructure:"api_prefix" validate:"required,startswith=/,excludesall= '\"\\"`
	MongoURI     string `mapstructure:"mongo_uri" validate:"required,startswith=mongodb"`
	TemplateDir  string `mapstructure:"template_dir"`
	StartDev     bool   `mapstructure:"start_dev"`
	GitInit      bool   `mapstructure:"git_init"`
	LogLevel     string `mapstructure:"log_level" validate:"omitempty,oneof=debug info warn error"`
	LogFormat    string `mapstructure:"log_format" validate:"omitempty,oneof=console json"`
	Without      string `mapstructure:"without"`
}

// WithoutList splits the comma-separated without setting.
func (s Settings) WithoutList() []string {
	var out []string
	for _, part := range strings.Split(s.Without, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks ranges and formats.
func (s Settings) Validate() error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("validating settings: %w", err)
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, describe(fe))
	}
	return fmt.Errorf("invalid settings: %s", strings.Join(msgs, "; "))
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "min", "max":
		return fmt.Sprintf("%s must be between 1 and 65535", fe.Field())
	case "nefield":
		return "backend and frontend ports must differ"
	case "startswith":
		return fmt.Sprintf("%s must start with %q", fe.Field(), fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of %s", fe.Field(), fe.Param())
	case "excludesall":
		return fmt.Sprintf("%s must not contain spaces, quotes or backslashes", fe.Field())
	default:
		return fmt.Sprintf("%s is %s", fe.Field(), fe.Tag())
	}
}

// Dir returns the path to the config directory (~/.mernbuilder/).
func Dir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", branding.HomeDir())
	}
	return filepath.Join(home, branding.HomeDir())
}

// FilePath returns the full path to the config file.
func FilePath() string {
	return filepath.Join(Dir(), fileName+"."+fileType)
}

// EnsureDir creates the config directory if it does not exist.
func EnsureDir() error {
	dir := Dir()
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating config directory %s: %w", dir, err)
	}
	return nil
}

// Load initializes Viper to read from the config file and environment.
// A missing config file is not an error; a malformed one is.
func Load() error {
	viper.SetConfigFile(FilePath())
	viper.SetConfigType(fileType)
	viper.SetEnvPrefix(branding.EnvPrefix())
	viper.AutomaticEnv()
	for key, spec := range keys {
		viper.SetDefault(key, spec.def)
	}

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) || errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("reading config file %s: %w", FilePath(), err)
	}
	return nil
}

// Current returns the validated settings from Viper.
func Current() (Settings, error) {
	var s Settings
	if err := viper.Unmarshal(&s); err != nil {
		return Settings{}, fmt.Errorf("decoding settings: %w", err)
	}
	if err := s.Validate(); err != nil {
		return Settings{}, err
	}
	return s, nil
}

// Keys lists the setting keys in sorted order.
func Keys() []string {
	out := make([]string, 0, len(keys))
	for k := range keys {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Get returns a config value by key.
func Get(key string) (string, error) {
	if _, ok := keys[key]; !ok {
		return "", fmt.Errorf("%w %q (known: %s)", ErrUnknownKey, key, strings.Join(Keys(), ", "))
	}
	return viper.GetString(key), nil
}

// Set writes a config key-value pair and saves the config file. The value
// is parsed according to the key's type and the resulting settings must
// validate.
func Set(key, value string) error {
	spec, ok := keys[key]
	if !ok {
		return fmt.Errorf("%w %q (known: %s)", ErrUnknownKey, key, strings.Join(Keys(), ", "))
	}

	var typed interface{} = value
	switch spec.kind {
	case kindInt:
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("%s must be an integer: %w", key, err)
		}
		typed = n
	case kindBool:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("%s must be true or false: %w", key, err)
		}
		typed = b
	}

	prev := viper.Get(key)
	viper.Set(key, typed)
	if _, err := Current(); err != nil {
		viper.Set(key, prev)
		return err
	}

	if err := EnsureDir(); err != nil {
		return err
	}
	configFile := FilePath()
	if err := viper.WriteConfigAs(configFile); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
