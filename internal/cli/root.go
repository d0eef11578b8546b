package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/lithammer/dedent"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/MarshallNickolauson/mern-builder-script/internal/branding"
	"github.com/MarshallNickolauson/mern-builder-script/internal/config"
	"github.com/MarshallNickolauson/mern-builder-script/internal/logging"
	"github.com/MarshallNickolauson/mern-builder-script/internal/runner"
	"github.com/MarshallNickolauson/mern-builder-script/internal/ui"
)

var (
	buildVersion string
	buildCommit  string
	buildDate    string
)

var (
	noColor bool
	log     = zap.NewNop()
)

// newRunner builds the runner commands use to reach npm and friends.
var newRunner = func(log *zap.Logger) runner.Runner {
	return runner.NewExec(log)
}

var rootCmd = &cobra.Command{
	Use:   branding.CLIName(),
	Short: branding.Description(),
	Long: strings.TrimSpace(dedent.Dedent(fmt.Sprintf(`
		%s creates a runnable MERN skeleton from a project name: an Express
		and MongoDB backend, a Vite + React + Tailwind frontend, and root
		scripts that run both together.

		Defaults are read from ~/%s/config.yaml and %s_* environment
		variables. Flags override both.`, branding.DisplayName(), branding.HomeDir(), branding.EnvPrefix()))),
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		bindFlags(cmd.Root())
		if err := config.Load(); err != nil {
			return err
		}
		l, err := logging.New(logging.Options{
			Level:  viper.GetString(config.KeyLogLevel),
			Format: viper.GetString(config.KeyLogFormat),
		})
		if err != nil {
			return fmt.Errorf("configuring logger: %w", err)
		}
		log = l
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = log.Sync()
	},
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.String("log-level", "", "Log level: debug, info, warn or error")
	pf.String("log-format", "", "Log format: console or json")
	pf.BoolVar(&noColor, "no-color", false, "Disable colored output")
}

// bindFlags ties the flags that mirror settings to their viper keys.
func bindFlags(root *cobra.Command) {
	pf := root.PersistentFlags()
	_ = viper.BindPFlag(config.KeyLogLevel, pf.Lookup("log-level"))
	_ = viper.BindPFlag(config.KeyLogFormat, pf.Lookup("log-format"))

	f := newCmd.Flags()
	_ = viper.BindPFlag(config.KeyGitInit, f.Lookup("git"))
	_ = viper.BindPFlag(config.KeyTemplateDir, f.Lookup("template-dir"))
	_ = viper.BindPFlag(config.KeyBackendPort, f.Lookup("backend-port"))
	_ = viper.BindPFlag(config.KeyFrontendPort, f.Lookup("frontend-port"))
	_ = viper.BindPFlag(config.KeyWithout, f.Lookup("without"))
}

// printer returns a Printer on the command's stdout.
func printer(cmd *cobra.Command) *ui.Printer {
	return ui.New(cmd.OutOrStdout(), noColor)
}

// Execute runs the root command with build info injected via ldflags. The
// returned error has already been printed.
func Execute(version, commit, date string) error {
	buildVersion = version
	buildCommit = commit
	buildDate = date
	err := rootCmd.Execute()
	if err != nil {
		printError(os.Stderr, err)
	}
	return err
}

func printError(w io.Writer, err error) {
	ui.New(w, noColor).Error(err)
}
