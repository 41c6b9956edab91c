package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/allhands-labs/allhands/internal/branding"
	"github.com/allhands-labs/allhands/internal/config"
	"github.com/allhands-labs/allhands/internal/manifest"
	"github.com/allhands-labs/allhands/internal/syncer"
	"github.com/allhands-labs/allhands/internal/vcs"
	"github.com/spf13/cobra"
)

var (
	syncInit   bool
	syncYes    bool
	syncStrict bool
	syncDryRun bool
)

func init() {
	syncCmd.Flags().BoolVar(&syncInit, "init", false, "First-time setup: also copy init-only files and scaffold "+manifest.IgnoreFileName)
	syncCmd.Flags().BoolVarP(&syncYes, "yes", "y", false, "Assume yes; replace locally modified files (a backup is always taken)")
	syncCmd.Flags().BoolVar(&syncStrict, "strict", false, "Exit non-zero when any local modification conflicts with incoming changes")
	syncCmd.Flags().BoolVar(&syncDryRun, "dry-run", false, "Report what would change without writing anything")
	rootCmd.AddCommand(syncCmd)
}

var syncCmd = &cobra.Command{
	Use:   "sync [target]",
	Short: "Copy framework files from the template repository into a repo",
	Long: `Copy the distributable framework files from the configured template
repository into a target repository (default: current directory).

Files you have edited locally are replaced with the upstream version, but the
local bytes are saved first under ` + branding.HomeDir() + `/backups/<timestamp>/ and every
replacement is reported as a conflict.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		target := "."
		if len(args) == 1 {
			target = args[0]
		}

		upstream, classifier, gateway, err := loadUpstream()
		if err != nil {
			return err
		}

		if syncInit && !gateway.IsRepository(target) {
			fmt.Fprintf(os.Stderr, "Warning: %s is not a git repository\n", target)
		}

		engine := syncer.New(upstream, classifier, gateway)
		result, err := engine.Run(cmd.Context(), syncer.Options{
			TargetRoot: target,
			Init:       syncInit,
			DryRun:     syncDryRun,
			Strict:     syncStrict,
		})
		if result != nil {
			printSyncReport(result, syncDryRun)
		}
		if errors.Is(err, syncer.ErrConflicts) {
			return err
		}
		if err != nil {
			return fmt.Errorf("syncing into %s: %w", target, err)
		}
		return nil
	},
}

func printSyncReport(result *syncer.SyncResult, dryRun bool) {
	verb := "Synced"
	if dryRun {
		verb = "Would sync"
	}
	fmt.Printf("%s %d file(s)\n", verb, len(result.Written))

	for _, w := range result.Written {
		fmt.Printf("  + %s\n", w)
	}
	for _, s := range result.Skipped {
		fmt.Printf("  - %s (%s)\n", s.Path, s.Reason)
	}

	if len(result.Conflicts) > 0 {
		fmt.Printf("\n%d conflict(s) with local modifications:\n", len(result.Conflicts))
		for _, c := range result.Conflicts {
			fmt.Printf("  ! %s: %s\n", c.Path, c.Resolution)
		}
		if result.BackupDir != "" {
			fmt.Printf("Local versions backed up under %s\n", result.BackupDir)
		}
	}

	for _, e := range result.Errors {
		fmt.Fprintf(os.Stderr, "Error: %s: %v\n", e.Path, e.Err)
	}
}

// loadUpstream resolves the configured template checkout and its manifest.
func loadUpstream() (string, *manifest.Classifier, vcs.Gateway, error) {
	upstream := config.UpstreamPath()
	if upstream == "" {
		return "", nil, nil, fmt.Errorf("upstream repository not configured; run '%s config set %s <dir>'",
			branding.CLIName(), config.KeyUpstreamPath)
	}

	classifier, err := manifest.Load(upstream)
	if err != nil {
		return "", nil, nil, err
	}
	return upstream, classifier, vcs.NewShellGateway(), nil
}
