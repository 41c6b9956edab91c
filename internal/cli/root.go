package cli

import (
	"os"

	"github.com/allhands-labs/allhands/internal/branding"
	"github.com/allhands-labs/allhands/internal/config"
	"github.com/allhands-labs/allhands/internal/updater"
	"github.com/spf13/cobra"
)

var (
	buildVersion string
	buildCommit  string
	buildDate    string
)

var rootCmd = &cobra.Command{
	Use:   branding.CLIName(),
	Short: branding.Description(),
	Long: branding.DisplayName() + ` distributes a shared agent tooling framework (flows, agents,
skills, hooks, and schemas) from a template repository into consumer repos,
and contributes local improvements back upstream as pull requests.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		config.Load()

		if cmd.Name() == "version" {
			return
		}

		// Non-blocking banner from cached version check.
		u := updater.New(buildVersion)
		u.CheckAndPrintBanner(os.Stderr, config.Dir())
	},
}

// Execute runs the root command with build info injected via ldflags.
func Execute(version, commit, date string) error {
	buildVersion = version
	buildCommit = commit
	buildDate = date
	return rootCmd.Execute()
}
