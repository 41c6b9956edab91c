package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/allhands-labs/allhands/internal/fsutil"
	"github.com/allhands-labs/allhands/internal/syncer"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(statusCmd)
}

var statusCmd = &cobra.Command{
	Use:   "status [target]",
	Short: "Show how upstream files classify and which local files diverged",
	Long: `List every file in the template repository with its distribution class,
then compare the target repository (default: current directory) against the
last sync snapshot to show files with pending local modifications.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		target := "."
		if len(args) == 1 {
			target = args[0]
		}

		upstream, classifier, _, err := loadUpstream()
		if err != nil {
			return err
		}

		files, err := fsutil.EnumerateFiles(upstream)
		if err != nil {
			return fmt.Errorf("enumerating upstream: %w", err)
		}

		fmt.Printf("Upstream: %s (%d files)\n", upstream, len(files))
		for _, rel := range files {
			fmt.Printf("  %-13s %s\n", classifier.Classify(rel), rel)
		}

		state, err := syncer.LoadState(target)
		if err != nil {
			return err
		}
		if len(state.Files) == 0 {
			fmt.Println("\nNo sync snapshot; run 'allhands sync' first.")
			return nil
		}
		if state.SourceCommit != "" {
			fmt.Printf("\nLast synced from commit %s\n", state.SourceCommit)
		}

		var modified, missing []string
		for rel, snapHash := range state.Files {
			hash, err := fsutil.HashFile(filepath.Join(target, filepath.FromSlash(rel)))
			if err != nil {
				if os.IsNotExist(err) {
					missing = append(missing, rel)
					continue
				}
				return fmt.Errorf("hashing %s: %w", rel, err)
			}
			if hash != snapHash {
				modified = append(modified, rel)
			}
		}

		sort.Strings(modified)
		sort.Strings(missing)

		if len(modified) == 0 && len(missing) == 0 {
			fmt.Println("Target matches the last sync snapshot.")
			return nil
		}
		for _, rel := range modified {
			fmt.Printf("  modified: %s (next sync will back it up and replace it)\n", rel)
		}
		for _, rel := range missing {
			fmt.Printf("  deleted:  %s (next sync will restore it)\n", rel)
		}
		return nil
	},
}
