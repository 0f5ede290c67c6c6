package cmd

import (
	"errors"
	"log/slog"
	"os"
	"path"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/crissyfield/supericons/internal/patcher"
)

// CmdRestore defines the 'restore' command.
var CmdRestore = &cobra.Command{
	Use:   "restore [flags] info_plist...",
	Short: "Restore the original icon of one or more applications",
	Args:  cobra.MinimumNArgs(1),
	Run:   runRestore,
}

// Initialize command options
func init() {
	CmdRestore.Flags().IntP("jobs", "j", 4, "number of bundles restored in parallel")
}

// runRestore is called when the 'restore' sub-command is used.
func runRestore(cmd *cobra.Command, args []string) {
	jobs, _ := cmd.Flags().GetInt("jobs")

	p, closeFn, err := openPatcher()
	if err != nil {
		slog.Error("Failed to prepare patcher", slog.Any("error", err))
		os.Exit(1)
	}

	defer closeFn()

	// A bundle must never be restored twice at the same time
	paths := dedupe(args)
	results := make([]patcher.Result, len(paths))

	var g errgroup.Group
	g.SetLimit(max(jobs, 1))

	for i, metadataPath := range paths {
		g.Go(func() error {
			err := p.Restore(metadataPath)
			if (err != nil) && !errors.Is(err, patcher.ErrNoBackup) {
				slog.Error("Failed to restore icon", slog.String("bundle", patcher.BundleRef{MetadataPath: metadataPath}.Dir()), slog.Any("error", err))
			}

			results[i] = patcher.ResultOf(err)
			return nil
		})
	}

	g.Wait() //nolint

	// Report in argument order
	ok := true

	for i, metadataPath := range paths {
		ok = report(metadataPath, results[i]) && ok
	}

	if !ok {
		closeFn()
		os.Exit(1)
	}
}

// dedupe removes repeated paths, keeping the first occurrence.
func dedupe(paths []string) []string {
	seen := make(map[string]bool, len(paths))

	var out []string

	for _, p := range paths {
		p = path.Clean(p)
		if seen[p] {
			continue
		}

		seen[p] = true
		out = append(out, p)
	}

	return out
}
