package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/temirov/flattree/internal/config"
)

const (
	initUse                = "init"
	initShortDescription   = "write a default configuration file"
	initLongDescription    = `Write the default configuration to ./config.yaml, or to ~/.flattree/config.yaml with --global.`
	globalFlagName         = "global"
	forceFlagName          = "force"
	globalFlagDescription  = "write the global configuration"
	forceFlagDescription   = "overwrite an existing configuration file"
	initializedMessageFile = "Configuration written to %s\n"
)

func (app *application) newInitCommand() *cobra.Command {
	var global bool
	var force bool

	initCommand := &cobra.Command{
		Use:   initUse,
		Short: initShortDescription,
		Long:  initLongDescription,
		Args:  cobra.NoArgs,
		RunE: func(command *cobra.Command, arguments []string) error {
			target := config.InitTargetLocal
			if global {
				target = config.InitTargetGlobal
			}
			path, initErr := config.InitializeConfiguration(config.InitOptions{
				Target:           target,
				Force:            force,
				WorkingDirectory: app.dependencies.WorkingDirectory,
			})
			if initErr != nil {
				return initErr
			}
			_, writeErr := fmt.Fprintf(app.dependencies.Stdout, initializedMessageFile, path)
			return writeErr
		},
	}
	initCommand.Flags().BoolVar(&global, globalFlagName, false, globalFlagDescription)
	initCommand.Flags().BoolVar(&force, forceFlagName, false, forceFlagDescription)
	return initCommand
}
