package cli

import (
	"fmt"
	"strings"

	"github.com/AlecAivazis/survey/v2"
	"github.com/google/uuid"
	"github.com/lithammer/dedent"
	"github.com/spf13/cobra"

	"github.com/MarshallNickolauson/mern-builder-script/internal/config"
	"github.com/MarshallNickolauson/mern-builder-script/internal/preflight"
	"github.com/MarshallNickolauson/mern-builder-script/internal/project"
	"github.com/MarshallNickolauson/mern-builder-script/internal/scaffold"
	"github.com/MarshallNickolauson/mern-builder-script/internal/templates"
	"github.com/MarshallNickolauson/mern-builder-script/internal/ui"
)

var (
	newDir           string
	newForce         bool
	newNoStart       bool
	newSkipPreflight bool
)

// askName prompts for a project name when none is given on the command line.
var askName = func() (string, error) {
	var name string
	prompt := &survey.Input{Message: "Project name:"}
	err := survey.AskOne(prompt, &name, survey.WithValidator(survey.Required), survey.WithValidator(func(ans interface{}) error {
		s, _ := ans.(string)
		_, err := project.New(s)
		return err
	}))
	return name, err
}

func init() {
	f := newCmd.Flags()
	f.StringVar(&newDir, "dir", ".", "Directory to create the project in")
	f.BoolVar(&newForce, "force", false, "Scaffold into an existing non-empty project directory")
	f.BoolVar(&newNoStart, "no-start", false, "Do not launch the dev servers when done")
	f.BoolVar(&newSkipPreflight, "skip-preflight", false, "Skip the node/npm toolchain check")
	f.Bool("git", false, "Initialize a git repository")
	f.String("template-dir", "", "Load the template set from this directory instead of the built-in one")
	f.Int("backend-port", templates.DefaultBackendPort, "Backend port written to .env and the frontend proxy")
	f.Int("frontend-port", templates.DefaultFrontendPort, "Frontend dev server port")
	f.String("without", "", "Comma-separated template options to disable (auth, bootstrap)")

	rootCmd.AddCommand(newCmd)
}

var newCmd = &cobra.Command{
	Use:   "new [name]",
	Short: "Scaffold a new MERN project",
	Long: strings.TrimSpace(dedent.Dedent(`
		Scaffold a new project directory containing a backend (Express, Mongoose)
		and a frontend (Vite, React, Tailwind, Redux Toolkit).

		The name may contain letters, digits, '-' and '_'. It is used as the
		directory name, the database name and the page title. When omitted you
		are prompted for it.

		Examples:
		  mernbuilder new shopcart
		  mernbuilder new shopcart --dir ~/src --git --no-start
		  mernbuilder new blog --without auth,bootstrap --backend-port 5050`)),
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var name string
		if len(args) == 1 {
			name = args[0]
		} else {
			n, err := askName()
			if err != nil {
				return fmt.Errorf("reading project name: %w", err)
			}
			name = n
		}

		p, err := project.New(name)
		if err != nil {
			return err
		}
		settings, err := config.Current()
		if err != nil {
			return err
		}
		set, err := loadSet(settings.TemplateDir)
		if err != nil {
			return err
		}
		data, err := buildData(p, settings, set, settings.WithoutList())
		if err != nil {
			return err
		}
		data.JWTSecret = newSecret()

		out := printer(cmd)
		r := newRunner(log)
		engine := scaffold.New(r, set, log)
		engine.Reporter = out
		engine.Checker = preflight.New(r, log)
		if lookPath != nil {
			engine.Checker.LookPath = lookPath
		}

		out.Heading("Creating %s (%s)", p.DisplayName(), data.Options)
		res, err := engine.Generate(cmd.Context(), scaffold.Request{
			Parent:        newDir,
			Data:          data,
			Force:         newForce,
			Git:           settings.GitInit,
			StartDev:      settings.StartDev && !newNoStart,
			SkipPreflight: newSkipPreflight,
		})
		if err != nil {
			return err
		}

		printSummary(out, res, data)
		return nil
	},
}

// newSecret returns 64 hex characters for the generated JWT secret.
func newSecret() string {
	return strings.ReplaceAll(uuid.NewString()+uuid.NewString(), "-", "")
}

func printSummary(out *ui.Printer, res *scaffold.Result, data templates.Data) {
	out.Println("")
	out.Success("Created %s at %s", data.Project.Name, res.Root)

	paths := make([]string, 0, len(res.Directories)+len(res.Files)+len(res.Manifests))
	paths = append(paths, res.Directories...)
	paths = append(paths, res.Files...)
	paths = append(paths, res.Manifests...)
	if err := out.Tree(data.Project.Name, paths); err != nil {
		out.Warn("%v", err)
	}

	for _, w := range res.Warnings {
		out.Warn("%s", w)
	}

	if res.DevPID != 0 {
		out.Println("")
		out.Success("Dev servers starting (pid %d)", res.DevPID)
	}
	out.Println(dedent.Dedent(fmt.Sprintf(`
		Next steps:
		  cd %s
		  npm run dev      backend on %s, frontend on %s
		  npm test --prefix frontend`, data.Project.Name, data.BackendURL(), data.FrontendURL())))
}
