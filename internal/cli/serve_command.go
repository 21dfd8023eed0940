package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/temirov/flattree/internal/flatten"
	"github.com/temirov/flattree/internal/services/web"
	"github.com/temirov/flattree/internal/tokenizer"
	"github.com/temirov/flattree/internal/utils"
)

const (
	serveUse              = "serve"
	serveShortDescription = "serve the web interface and scan API"
	serveLongDescription  = `Start the HTTP server. Requested paths are resolved inside the base directory
(base_dir, DATA_DIR_BASE). The server stops on SIGINT or SIGTERM.`
	serveUsageExample = `  # Serve the current directory on the default address
  flattree serve

  # Serve /data on localhost only
  DATA_DIR_BASE=/data flattree serve --address 127.0.0.1:3000`

	addressFlagName            = "address"
	baseDirectoryFlagName      = "base-dir"
	scanTimeoutFlagName        = "scan-timeout"
	addressFlagDescription     = "listen address"
	baseDirFlagDescription     = "directory that confines requested paths"
	scanTimeoutFlagDescription = "maximum duration of a single scan"
	listeningMessageFormat     = "Listening on http://%s (serving %s)\n"
)

type serveOptions struct {
	address       string
	baseDirectory string
	scanTimeout   time.Duration
}

func (app *application) newServeCommand() *cobra.Command {
	var options serveOptions

	serveCommand := &cobra.Command{
		Use:     serveUse,
		Short:   serveShortDescription,
		Long:    serveLongDescription,
		Example: serveUsageExample,
		Args:    cobra.NoArgs,
		RunE: func(command *cobra.Command, arguments []string) error {
			flags := command.Flags()
			settings := app.configuration
			if !flags.Changed(addressFlagName) {
				options.address = settings.Server.Address
			}
			if !flags.Changed(baseDirectoryFlagName) {
				options.baseDirectory = settings.BaseDirectory
			}
			if !flags.Changed(scanTimeoutFlagName) {
				options.scanTimeout = settings.Server.ScanTimeout
			}

			counter, _, counterErr := tokenizer.NewCounter(tokenizer.Config{Model: settings.Tokens.Model})
			if counterErr != nil {
				return counterErr
			}
			server, serverErr := web.NewServer(web.Config{
				Address:               options.address,
				ShutdownTimeout:       settings.Server.ShutdownTimeout,
				ScanTimeout:           options.scanTimeout,
				BaseDirectory:         options.baseDirectory,
				DefaultIgnorePatterns: settings.Scan.DefaultIgnore,
				UseGitIgnore:          settings.Scan.GitignoreEnabled(),
				Pipeline:              flatten.Pipeline{Logger: app.logger, Counter: counter},
				Logger:                app.logger,
				Version:               utils.GetApplicationVersion(),
			})
			if serverErr != nil {
				return serverErr
			}
			return server.Run(command.Context(), func(address string) {
				fmt.Fprintf(app.dependencies.Stderr, listeningMessageFormat, address, server.BaseDirectory())
			})
		},
	}

	flags := serveCommand.Flags()
	flags.StringVar(&options.address, addressFlagName, "", addressFlagDescription)
	flags.StringVar(&options.baseDirectory, baseDirectoryFlagName, "", baseDirFlagDescription)
	flags.DurationVar(&options.scanTimeout, scanTimeoutFlagName, 0, scanTimeoutFlagDescription)
	return serveCommand
}
