package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/MarshallNickolauson/mern-builder-script/internal/config"
	"github.com/MarshallNickolauson/mern-builder-script/internal/project"
	"github.com/MarshallNickolauson/mern-builder-script/internal/templates"
)

var (
	templatesJSON bool
	renderName    string
	renderWithout string
)

func init() {
	templatesListCmd.Flags().BoolVar(&templatesJSON, "json", false, "Output as JSON")
	templatesRenderCmd.Flags().StringVar(&renderName, "name", "example", "Project name to render with")
	templatesRenderCmd.Flags().StringVar(&renderWithout, "without", "", "Comma-separated options to disable")

	templatesCmd.AddCommand(templatesListCmd)
	templatesCmd.AddCommand(templatesRenderCmd)
	rootCmd.AddCommand(templatesCmd)
}

// loadSet returns the built-in set, or the one in dir when dir is set.
func loadSet(dir string) (*templates.Set, error) {
	if dir == "" {
		return templates.Default()
	}
	return templates.LoadDir(dir)
}

// buildData fills template data for p from the settings.
func buildData(p project.Descriptor, s config.Settings, set *templates.Set, without []string) (templates.Data, error) {
	opts, err := set.ResolveOptions(without)
	if err != nil {
		return templates.Data{}, err
	}
	data := templates.NewData(p)
	data.BackendPort = s.BackendPort
	data.FrontendPort = s.FrontendPort
	data.APIPrefix = s.APIPrefix
	data.MongoURI = s.MongoURI
	data.Options = opts
	return data, nil
}

var templatesCmd = &cobra.Command{
	Use:   "templates",
	Short: "Inspect the template set",
	Long:  `List the files of the active template set or render one of them to stdout.`,
}

var templatesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the files the template set writes",
	RunE: func(cmd *cobra.Command, args []string) error {
		settings, err := config.Current()
		if err != nil {
			return err
		}
		set, err := loadSet(settings.TemplateDir)
		if err != nil {
			return err
		}
		w := cmd.OutOrStdout()

		if templatesJSON {
			out, err := json.MarshalIndent(set, "", "  ")
			if err != nil {
				return fmt.Errorf("marshaling template set: %w", err)
			}
			fmt.Fprintln(w, string(out))
			return nil
		}

		fmt.Fprintf(w, "%s: %s\n", set.Name, set.Description)
		if len(set.Options) > 0 {
			fmt.Fprintln(w, "\nOptions:")
			for _, o := range set.Options {
				fmt.Fprintf(w, "  %-12s default %-5t %s\n", o.Name, o.Default, o.Description)
			}
		}
		for _, tier := range []templates.Tier{templates.TierRoot, templates.TierBackend, templates.TierFrontend} {
			fmt.Fprintf(w, "\n%s (%s):\n", tier, set.Tier(tier).Dir)
			for _, f := range set.FileList {
				if f.Tier != tier {
					continue
				}
				var notes []string
				if f.Parameterized() {
					notes = append(notes, "rendered")
				}
				if f.When != "" {
					notes = append(notes, "when "+f.When)
				}
				line := fmt.Sprintf("  %-30s %s", f.Path, f.ID)
				if len(notes) > 0 {
					line += " [" + strings.Join(notes, ", ") + "]"
				}
				fmt.Fprintln(w, line)
			}
		}
		return nil
	},
}

var templatesRenderCmd = &cobra.Command{
	Use:   "render <id>",
	Short: "Render one template file to stdout",
	Long: `Render one file of the template set with the configured ports and the
given project name, without touching the filesystem.

Example:
  mernbuilder templates render frontend/vite-config --name shopcart`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := project.New(renderName)
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
		without := settings.WithoutList()
		if renderWithout != "" {
			without = strings.Split(renderWithout, ",")
		}
		data, err := buildData(p, settings, set, without)
		if err != nil {
			return err
		}
		data.JWTSecret = "change-me"

		content, err := set.Render(args[0], data)
		if err != nil {
			return err
		}
		_, err = cmd.OutOrStdout().Write(content)
		return err
	},
}
