package cmd

import (
	"fmt"
	"log/slog"

	"github.com/pterm/pterm"
	"github.com/spf13/afero"

	"github.com/crissyfield/supericons/internal/config"
	"github.com/crissyfield/supericons/internal/device"
	"github.com/crissyfield/supericons/internal/operator"
	"github.com/crissyfield/supericons/internal/patcher"
)

// cfg is the configuration resolved at startup.
var cfg *config.Config

// Configure hands the resolved configuration to the sub-commands.
func Configure(c *config.Config) {
	cfg = c
}

// openPatcher builds a patcher for the configured transport. The returned function
// releases any connection it holds.
func openPatcher() (*patcher.Patcher, func(), error) {
	var (
		runner  operator.Runner = operator.LocalRunner{}
		fs                      = afero.NewOsFs()
		closeFn                 = func() {}
	)

	opts := []patcher.Option{
		patcher.WithScratchRoot(cfg.ScratchRoot),
		patcher.WithIconName(cfg.Icon.Name),
	}

	if cfg.Transport == config.TransportSSH {
		// Helpers run on the device, icons are read from this machine
		session, err := device.Connect(cfg.SSH)
		if err != nil {
			return nil, nil, fmt.Errorf("connect to device: %w", err)
		}

		runner = operator.NewSSHRunner(session.SSH)
		fs = session.Fs()
		closeFn = session.Close

		opts = append(opts, patcher.WithSourceFs(afero.NewOsFs()))
	}

	// Resolve helper binaries once, against the device they run on
	helpers, err := cfg.ResolveHelpers(fs)
	if err != nil {
		closeFn()
		return nil, nil, err
	}

	slog.Debug("Resolved helpers", slog.String("cp", helpers.Copy), slog.String("mv", helpers.Move), slog.String("rm", helpers.Remove))

	opts = append(opts, patcher.WithFs(fs))

	return patcher.New(operator.New(runner, helpers), opts...), closeFn, nil
}

// report prints a result and returns whether it was a success.
func report(path string, res patcher.Result) bool {
	if res.Success {
		pterm.Success.Printfln("%s: %s", path, res.Message)
	} else {
		pterm.Error.Printfln("%s: %s", path, res.Message)
	}

	return res.Success
}
