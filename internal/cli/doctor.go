package cli

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/MarshallNickolauson/mern-builder-script/internal/config"
	"github.com/MarshallNickolauson/mern-builder-script/internal/manifest"
	"github.com/MarshallNickolauson/mern-builder-script/internal/preflight"
)

var (
	checkRuntime   bool
	checkConfig    bool
	checkTemplates bool
	checkManifest  string
)

// lookPath overrides exec.LookPath in preflight checks when set.
var lookPath func(file string) (string, error)

func init() {
	doctorCmd.Flags().BoolVar(&checkRuntime, "check-runtime", false, "Verify node, npm and npx are installed and recent enough")
	doctorCmd.Flags().BoolVar(&checkConfig, "check-config", false, "Validate the merged configuration")
	doctorCmd.Flags().BoolVar(&checkTemplates, "check-templates", false, "Load and validate the template set")
	doctorCmd.Flags().StringVar(&checkManifest, "check-manifest", "", "Validate a package.json at the given path")
	rootCmd.AddCommand(doctorCmd)
}

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check the toolchain and configuration",
	Long:  `Run diagnostic checks on the node toolchain, the configuration and the template set.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		w := cmd.OutOrStdout()
		all := !checkRuntime && !checkConfig && !checkTemplates && checkManifest == ""

		var errs []error
		if all || checkConfig {
			errs = append(errs, runConfigCheck(w))
		}
		if all || checkTemplates {
			errs = append(errs, runTemplatesCheck(w))
		}
		if all || checkRuntime {
			errs = append(errs, runRuntimeCheck(cmd, w))
		}
		if checkManifest != "" {
			errs = append(errs, runManifestCheck(w, checkManifest))
		}
		return errors.Join(errs...)
	},
}

func runConfigCheck(w io.Writer) error {
	fmt.Fprintln(w, "Config:")
	if _, err := config.Current(); err != nil {
		fmt.Fprintf(w, "  [FAIL] %v\n", err)
		return err
	}
	fmt.Fprintf(w, "  [ OK ] %s\n", config.FilePath())
	return nil
}

func runTemplatesCheck(w io.Writer) error {
	fmt.Fprintln(w, "Template set:")
	set, err := loadSet(viper.GetString(config.KeyTemplateDir))
	if err != nil {
		fmt.Fprintf(w, "  [FAIL] %v\n", err)
		return err
	}
	fmt.Fprintf(w, "  [ OK ] %s (%d files, options: %s)\n", set.Name, len(set.FileList), set.DefaultOptions())
	return nil
}

func runRuntimeCheck(cmd *cobra.Command, w io.Writer) error {
	set, err := loadSet(viper.GetString(config.KeyTemplateDir))
	if err != nil {
		return err
	}
	checker := preflight.New(newRunner(log), log)
	if lookPath != nil {
		checker.LookPath = lookPath
	}
	report, err := checker.Run(cmd.Context(), set.Executables())
	if err != nil {
		return err
	}
	report.Print(w)
	return report.Err()
}

func runManifestCheck(w io.Writer, path string) error {
	fmt.Fprintln(w, "Manifest:")
	if err := manifest.Validate(path); err != nil {
		fmt.Fprintf(w, "  [FAIL] %v\n", err)
		return err
	}
	fmt.Fprintf(w, "  [ OK ] %s\n", path)
	return nil
}
