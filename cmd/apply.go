package cmd

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/crissyfield/supericons/internal/patcher"
)

// CmdApply defines the 'apply' command.
var CmdApply = &cobra.Command{
	Use:   "apply [flags] info_plist icon",
	Short: "Replace an application's icon with a PNG or JPEG image",
	Args:  cobra.ExactArgs(2),
	Run:   runApply,
}

// Initialize command options
func init() {
}

// runApply is called when the 'apply' sub-command is used.
func runApply(_ *cobra.Command, args []string) {
	p, closeFn, err := openPatcher()
	if err != nil {
		slog.Error("Failed to prepare patcher", slog.Any("error", err))
		os.Exit(1)
	}

	defer closeFn()

	// Apply icon
	err = p.Apply(args[0], args[1], cfg.Icon.Name)
	if err != nil {
		slog.Error("Failed to change icon", slog.String("bundle", patcher.BundleRef{MetadataPath: args[0]}.Dir()), slog.Any("error", err))
	}

	if !report(args[0], patcher.ResultOf(err)) {
		closeFn()
		os.Exit(1)
	}
}
