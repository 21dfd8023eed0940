package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/temirov/flattree/internal/summary"
)

const (
	symbolsUse              = "symbols <file>"
	symbolsShortDescription = "list functions, classes and enums declared in a source file"
	symbolsUsageExample     = `  # Summarize a Rust source file
  flattree symbols src/main.rs`
	errorUnsupportedFileFormat = "unsupported file type '%s' (supported: .rs, .js, .jsx, .ts, .tsx, .py)"
	errorReadSourceFormat      = "read %s: %w"
)

func (app *application) newSymbolsCommand() *cobra.Command {
	return &cobra.Command{
		Use:     symbolsUse,
		Short:   symbolsShortDescription,
		Example: symbolsUsageExample,
		Args:    cobra.ExactArgs(1),
		RunE: func(command *cobra.Command, arguments []string) error {
			sourcePath := arguments[0]
			extension := filepath.Ext(sourcePath)
			if !summary.Supported(extension) {
				return fmt.Errorf(errorUnsupportedFileFormat, extension)
			}
			content, readErr := os.ReadFile(sourcePath)
			if readErr != nil {
				return fmt.Errorf(errorReadSourceFormat, sourcePath, readErr)
			}
			_, writeErr := fmt.Fprint(app.dependencies.Stdout, summary.Format(summary.Summarize(extension, content)))
			return writeErr
		},
	}
}
