package cmd

import (
	"log/slog"
	"os"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/crissyfield/supericons/internal/device"
)

// CmdList defines the 'list' command.
var CmdList = &cobra.Command{
	Use:   "list [flags]",
	Short: "List the applications whose icon can be changed",
	Args:  cobra.NoArgs,
	Run:   runList,
}

// Initialize command options
func init() {
	CmdList.Flags().StringP("search", "s", "", "only list applications whose name contains this text")
}

// runList is called when the 'list' sub-command is used.
func runList(cmd *cobra.Command, _ []string) {
	search, _ := cmd.Flags().GetString("search")

	// Find the USB device
	dev, err := device.FindDevice()
	if err != nil {
		slog.Error("Failed to find device", slog.Any("error", err))
		os.Exit(1)
	}

	// Ensure the device meets the requirements
	if !dev.Jailbroken() {
		slog.Error("Jailbroken 64-bit iOS device required")
		os.Exit(1)
	}

	slog.Info("Found device", slog.String("os", dev.OS), slog.String("version", dev.OSVersion))

	// List applications
	apps, err := dev.ListApplications()
	if err != nil {
		slog.Error("Failed to list applications", slog.Any("error", err))
		os.Exit(1)
	}

	// Render table
	data := pterm.TableData{{"Name", "Bundle ID", "Version", "Info.plist"}}

	for _, app := range device.FilterApplications(apps, search) {
		data = append(data, []string{app.Name, app.Identifier, app.Version, app.InfoPlistPath()})
	}

	err = pterm.DefaultTable.WithHasHeader().WithData(data).Render()
	if err != nil {
		slog.Error("Failed to render applications", slog.Any("error", err))
		os.Exit(1)
	}
}
