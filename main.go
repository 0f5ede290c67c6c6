package main

import (
	"log/slog"
	"os"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/crissyfield/supericons/cmd"
	"github.com/crissyfield/supericons/internal/config"
)

// rootCmd is the top-level command.
var rootCmd = &cobra.Command{
	Use:               "supericons",
	Short:             "Change the home screen icon of iOS applications on a jailbroken device",
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
}

// Initialize global options
func init() {
	flags := rootCmd.PersistentFlags()

	flags.String("config", "", "config file (default is $HOME/.supericons.yaml)")
	flags.BoolP("verbose", "v", false, "enable debug logging")
	flags.String("transport", config.TransportLocal, "where the helpers run: local or ssh")
	flags.String("ssh-host", "localhost", "SSH host of the device")
	flags.String("ssh-port", "2222", "SSH port of the device")
	flags.String("ssh-user", "root", "SSH user on the device")
	flags.String("ssh-password", "alpine", "SSH password on the device")

	viper.BindPFlag("transport", flags.Lookup("transport"))       //nolint
	viper.BindPFlag("ssh.host", flags.Lookup("ssh-host"))         //nolint
	viper.BindPFlag("ssh.port", flags.Lookup("ssh-port"))         //nolint
	viper.BindPFlag("ssh.user", flags.Lookup("ssh-user"))         //nolint
	viper.BindPFlag("ssh.password", flags.Lookup("ssh-password")) //nolint

	rootCmd.AddCommand(cmd.CmdList, cmd.CmdApply, cmd.CmdRestore)
}

// setup configures logging and loads the configuration before any sub-command runs.
func setup(c *cobra.Command, _ []string) error {
	verbose, _ := c.Flags().GetBool("verbose")
	cfgFile, _ := c.Flags().GetString("config")

	// Route slog through pterm
	logger := pterm.DefaultLogger.WithLevel(pterm.LogLevelInfo)
	if verbose {
		logger = pterm.DefaultLogger.WithLevel(pterm.LogLevelDebug)
	}

	slog.SetDefault(slog.New(pterm.NewSlogHandler(logger)))

	// Load configuration
	cfg, err := config.Load(viper.GetViper(), cfgFile)
	if err != nil {
		return err
	}

	cmd.Configure(cfg)

	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		slog.Error("Failed to run command", slog.Any("error", err))
		os.Exit(1)
	}
}
