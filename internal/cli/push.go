package cli

import (
	"fmt"
	"os"

	"github.com/allhands-labs/allhands/internal/config"
	"github.com/allhands-labs/allhands/internal/push"
	"github.com/spf13/cobra"
)

var (
	pushInclude []string
	pushExclude []string
	pushDryRun  bool
	pushTitle   string
	pushBody    string
)

func init() {
	pushCmd.Flags().StringArrayVar(&pushInclude, "include", nil, "Glob pattern of extra paths to contribute (repeatable)")
	pushCmd.Flags().StringArrayVar(&pushExclude, "exclude", nil, "Glob pattern of paths to hold back (repeatable)")
	pushCmd.Flags().BoolVar(&pushDryRun, "dry-run", false, "Print the contribution plan without touching any repository")
	pushCmd.Flags().StringVar(&pushTitle, "title", "", "Pull request title (default: synthesized from repo and branch)")
	pushCmd.Flags().StringVar(&pushBody, "body", "", "Pull request body (default: synthesized from the plan)")
	rootCmd.AddCommand(pushCmd)
}

var pushCmd = &cobra.Command{
	Use:   "push",
	Short: "Contribute local framework changes upstream as a pull request",
	Long: `Compute the set of framework files in the current repository that differ
from the template repository, then fork, branch, commit, and open a pull
request with them.

Init-only files never leave the repository, even with --include. Paths listed
in the ignore file or matched by the repository's own ignore rules are held
back; --dry-run prints the reason for every kept and dropped path.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		repoRoot, err := os.Getwd()
		if err != nil {
			return fmt.Errorf("getting current directory: %w", err)
		}

		upstream, classifier, gateway, err := loadUpstream()
		if err != nil {
			return err
		}

		engine := push.New(repoRoot, upstream, classifier, gateway, config.Get(config.KeyPushBaseBranch))
		plan, err := engine.Plan(cmd.Context(), push.PlanOptions{
			Include: pushInclude,
			Exclude: pushExclude,
		})
		if err != nil {
			return err
		}

		printPlan(plan, pushDryRun)
		if pushDryRun {
			return nil
		}
		if len(plan.Entries) == 0 {
			fmt.Println("Nothing to push.")
			return nil
		}

		handle, err := engine.Materialize(cmd.Context(), plan, push.MaterializeOptions{
			Title: pushTitle,
			Body:  pushBody,
		})
		if err != nil {
			return err
		}
		if handle == nil {
			fmt.Println("Upstream already has these changes; no pull request opened.")
			return nil
		}

		fmt.Printf("\nOpened pull request from branch %s:\n  %s\n", handle.Branch, handle.URL)
		return nil
	},
}

func printPlan(plan *push.Plan, full bool) {
	fmt.Printf("Contributing %d file(s):\n", len(plan.Entries))
	for _, e := range plan.Entries {
		fmt.Printf("  + %s (%s)\n", e.Path, e.Reason)
	}

	// Full accounting on dry-run: every dropped path and why.
	if full && len(plan.Dropped) > 0 {
		fmt.Printf("\nHeld back %d file(s):\n", len(plan.Dropped))
		for _, e := range plan.Dropped {
			fmt.Printf("  - %s (%s)\n", e.Path, e.Reason)
		}
	}
}
