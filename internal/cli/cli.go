// Package cli provides the command line interface.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/temirov/flattree/internal/config"
	"github.com/temirov/flattree/internal/services/clipboard"
	"github.com/temirov/flattree/internal/utils"
)

const (
	versionFlagName      = "version"
	configFlagName       = "config"
	logLevelFlagName     = "log-level"
	versionTemplate      = "flattree version: %s\n"
	rootShortDescription = "flatten a directory tree into one numbered document"
	rootLongDescription  = `flattree packages a source tree into a single text document: a directory listing
followed by the numbered contents of every file that is not excluded, plus a
cl100k_base token count of the result.

Run "flattree flatten" for a local scan or "flattree serve" for the web interface.`
	versionFlagDescription  = "display application version"
	configFlagDescription   = "path to a configuration file (defaults to ./config.yaml)"
	logLevelFlagDescription = "log level: error, warn, info or debug (overrides LOG_LEVEL)"
)

// Dependencies are the external collaborators of the command tree.
type Dependencies struct {
	Stdout io.Writer
	Stderr io.Writer
	Copier clipboard.Copier
	// Logger replaces the configured application logger when set.
	Logger *zap.Logger
	// WorkingDirectory is used to locate the local configuration file.
	WorkingDirectory string
}

// application carries state shared by every subcommand after the root pre-run.
type application struct {
	dependencies  Dependencies
	configuration config.ApplicationConfiguration
	logger        *zap.Logger
	configPath    string
	logLevel      string
}

// Execute runs the flattree application until it finishes or receives SIGINT/SIGTERM.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	rootCommand := NewRootCommand(Dependencies{
		Stdout: os.Stdout,
		Stderr: os.Stderr,
		Copier: clipboard.NewService(),
	})
	return rootCommand.ExecuteContext(ctx)
}

// NewRootCommand builds the root Cobra command.
func NewRootCommand(dependencies Dependencies) *cobra.Command {
	if dependencies.Stdout == nil {
		dependencies.Stdout = os.Stdout
	}
	if dependencies.Stderr == nil {
		dependencies.Stderr = os.Stderr
	}
	if dependencies.Copier == nil {
		dependencies.Copier = clipboard.NewService()
	}
	app := &application{dependencies: dependencies}
	var showVersion bool

	rootCommand := &cobra.Command{
		Use:           utils.ApplicationName,
		Short:         rootShortDescription,
		Long:          rootLongDescription,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(command *cobra.Command, arguments []string) error {
			if showVersion {
				fmt.Fprintf(command.OutOrStdout(), versionTemplate, utils.GetApplicationVersion())
				return nil
			}
			return command.Help()
		},
		PersistentPreRunE: func(command *cobra.Command, arguments []string) error {
			return app.initialize()
		},
	}
	rootCommand.SetOut(dependencies.Stdout)
	rootCommand.SetErr(dependencies.Stderr)
	rootCommand.Flags().BoolVar(&showVersion, versionFlagName, false, versionFlagDescription)
	rootCommand.PersistentFlags().StringVar(&app.configPath, configFlagName, "", configFlagDescription)
	rootCommand.PersistentFlags().StringVar(&app.logLevel, logLevelFlagName, "", logLevelFlagDescription)
	rootCommand.AddCommand(
		app.newFlattenCommand(),
		app.newServeCommand(),
		app.newSymbolsCommand(),
		app.newInitCommand(),
	)
	rootCommand.InitDefaultHelpCmd()
	rootCommand.InitDefaultCompletionCmd()
	return rootCommand
}

// initialize loads configuration once and builds the logger from the resolved level.
func (app *application) initialize() error {
	configuration, loadErr := config.LoadApplicationConfiguration(config.LoadOptions{
		WorkingDirectory: app.dependencies.WorkingDirectory,
		ExplicitFilePath: app.configPath,
	})
	if loadErr != nil {
		return loadErr
	}
	if app.logLevel != "" {
		configuration.LogLevel = app.logLevel
	}
	app.configuration = configuration

	if app.dependencies.Logger != nil {
		app.logger = app.dependencies.Logger
		return nil
	}
	logger, loggerErr := utils.NewApplicationLogger(configuration.LogLevel)
	if loggerErr != nil {
		return fmt.Errorf(utils.LoggerInitializationFailedMessageFormat, loggerErr)
	}
	app.logger = logger
	return nil
}
