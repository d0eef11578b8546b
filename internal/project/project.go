package project

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// MaxNameLength bounds the project name so it stays usable as a directory,
// npm package and database name. MongoDB database names must be shorter
// than 64 bytes.
const MaxNameLength = 63

// ErrInvalidName is returned for names that are empty, too long, or contain
// anything besides letters, digits, hyphens and underscores.
var ErrInvalidName = errors.New("invalid project name")

var namePattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_-]*$`)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("projectname", func(fl validator.FieldLevel) bool {
		return namePattern.MatchString(fl.Field().String())
	})
	return v
}

// Descriptor identifies the project being generated. It is immutable once
// created with New.
type Descriptor struct {
	Name string `validate:"required,max=63,projectname"`
}

// New validates name and returns its descriptor.
func New(name string) (Descriptor, error) {
	d := Descriptor{Name: name}
	if err := d.Validate(); err != nil {
		return Descriptor{}, err
	}
	return d, nil
}

// Validate checks the descriptor. Failures wrap ErrInvalidName.
func (d Descriptor) Validate() error {
	err := validate.Struct(d)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return fmt.Errorf("%w: %v", ErrInvalidName, err)
	}
	return fmt.Errorf("%w %q: %s", ErrInvalidName, d.Name, reason(verrs[0]))
}

func reason(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "name is required"
	case "max":
		return fmt.Sprintf("must be at most %d characters", MaxNameLength)
	default:
		return "use letters, digits, '-' or '_', starting with a letter or digit"
	}
}

// String returns the raw name.
func (d Descriptor) String() string { return d.Name }

// Title returns the name with '-' replaced by spaces. It is used for the
// HTML page title.
func (d Descriptor) Title() string {
	return strings.ReplaceAll(d.Name, "-", " ")
}

// DisplayName returns the title-cased form used in README headings. Both
// '-' and '_' separate words.
func (d Descriptor) DisplayName() string {
	words := strings.NewReplacer("-", " ", "_", " ").Replace(d.Name)
	return cases.Title(language.English, cases.NoLower).String(words)
}

// Database returns the MongoDB database name for the project.
func (d Descriptor) Database() string {
	return d.Name
}
