package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/temirov/flattree/internal/flatten"
	"github.com/temirov/flattree/internal/output"
	"github.com/temirov/flattree/internal/services/stream"
	"github.com/temirov/flattree/internal/tokenizer"
)

const (
	flattenUse              = "flatten [path]"
	flattenAlias            = "f"
	flattenShortDescription = "flatten a directory into one document (" + flattenAlias + ")"
	flattenLongDescription  = `Walk a directory, skip excluded entries and print the listing followed by every
file with aligned line numbers. The token count is printed on stderr in raw format.
Use --format to select raw, json, or ndjson output.`
	flattenUsageExample = `  # Flatten the current directory
  flattree flatten

  # Exclude logs and build output, copying the result to the clipboard
  flattree flatten -e '*.log' -e build --clipboard ./service

  # Stream progress and the result as newline-delimited JSON
  flattree flatten --format ndjson ./service`

	exclusionFlagName       = "exclude"
	exclusionShorthand      = "e"
	noDefaultIgnoreFlagName = "no-default-ignore"
	formatFlagName          = "format"
	progressFlagName        = "progress"
	clipboardFlagName       = "clipboard"
	gitignoreFlagName       = "gitignore"
	followSymlinksFlagName  = "follow-symlinks"
	timeoutFlagName         = "timeout"
	modelFlagName           = "model"

	exclusionFlagDescription       = "exclude entries whose relative path matches the glob (repeatable)"
	noDefaultIgnoreFlagDescription = "do not apply scan.default_ignore from the configuration"
	formatFlagDescription          = "output format: raw, json, or ndjson"
	progressFlagDescription        = "draw scan progress on stderr"
	clipboardFlagDescription       = "copy the flattened document to the clipboard"
	gitignoreFlagDescription       = "also honor the root .gitignore"
	followSymlinksFlagDescription  = "descend into symbolic links to directories"
	timeoutFlagDescription         = "abort the scan after this duration (0 disables)"
	modelFlagDescription           = "tokenizer encoding or model name"

	defaultPath          = "."
	invalidFormatMessage = "invalid format value '%s'"
	clipboardCopiedLine  = "Copied to clipboard.\n"
	errorClipboardFormat = "copy to clipboard: %w"
)

type flattenOptions struct {
	exclusionPatterns []string
	noDefaultIgnore   bool
	format            string
	progress          bool
	clipboard         bool
	gitignore         bool
	followSymlinks    bool
	timeout           time.Duration
	model             string
}

func isSupportedFormat(format string) bool {
	switch format {
	case output.FormatRaw, output.FormatJSON, output.FormatNDJSON:
		return true
	default:
		return false
	}
}

func (app *application) newFlattenCommand() *cobra.Command {
	var options flattenOptions

	flattenCommand := &cobra.Command{
		Use:     flattenUse,
		Aliases: []string{flattenAlias},
		Short:   flattenShortDescription,
		Long:    flattenLongDescription,
		Example: flattenUsageExample,
		Args:    cobra.MaximumNArgs(1),
		RunE: func(command *cobra.Command, arguments []string) error {
			root := defaultPath
			if len(arguments) == 1 {
				root = arguments[0]
			}
			app.applyFlattenDefaults(command, &options)
			options.format = strings.ToLower(options.format)
			if !isSupportedFormat(options.format) {
				return fmt.Errorf(invalidFormatMessage, options.format)
			}
			return app.runFlatten(command.Context(), root, options)
		},
	}

	flags := flattenCommand.Flags()
	flags.StringArrayVarP(&options.exclusionPatterns, exclusionFlagName, exclusionShorthand, nil, exclusionFlagDescription)
	flags.BoolVar(&options.noDefaultIgnore, noDefaultIgnoreFlagName, false, noDefaultIgnoreFlagDescription)
	flags.StringVar(&options.format, formatFlagName, output.FormatRaw, formatFlagDescription)
	flags.BoolVar(&options.progress, progressFlagName, false, progressFlagDescription)
	flags.BoolVar(&options.clipboard, clipboardFlagName, false, clipboardFlagDescription)
	flags.BoolVar(&options.gitignore, gitignoreFlagName, false, gitignoreFlagDescription)
	flags.BoolVar(&options.followSymlinks, followSymlinksFlagName, false, followSymlinksFlagDescription)
	flags.DurationVar(&options.timeout, timeoutFlagName, 0, timeoutFlagDescription)
	flags.StringVar(&options.model, modelFlagName, "", modelFlagDescription)
	return flattenCommand
}

// applyFlattenDefaults fills options the user did not set from the loaded configuration.
func (app *application) applyFlattenDefaults(command *cobra.Command, options *flattenOptions) {
	flags := command.Flags()
	scan := app.configuration.Scan
	if !flags.Changed(formatFlagName) && scan.Format != "" {
		options.format = scan.Format
	}
	if !flags.Changed(clipboardFlagName) {
		options.clipboard = scan.ClipboardEnabled()
	}
	if !flags.Changed(gitignoreFlagName) {
		options.gitignore = scan.GitignoreEnabled()
	}
	if !flags.Changed(followSymlinksFlagName) {
		options.followSymlinks = scan.FollowSymlinksEnabled()
	}
	if !flags.Changed(modelFlagName) {
		options.model = app.configuration.Tokens.Model
	}
}

func (app *application) runFlatten(ctx context.Context, root string, options flattenOptions) error {
	if ctx == nil {
		ctx = context.Background()
	}
	counter, model, counterErr := tokenizer.NewCounter(tokenizer.Config{Model: options.model})
	if counterErr != nil {
		return counterErr
	}
	app.logger.Debug("tokenizer selected", zap.String("model", model))

	var patterns []string
	if !options.noDefaultIgnore {
		patterns = append(patterns, app.configuration.Scan.DefaultIgnore...)
	}
	patterns = append(patterns, options.exclusionPatterns...)

	renderer, rendererErr := output.NewStreamRenderer(options.format, app.dependencies.Stdout, app.dependencies.Stderr)
	if rendererErr != nil {
		return rendererErr
	}
	if options.progress {
		interactive := false
		if stderrFile, isFile := app.dependencies.Stderr.(*os.File); isFile {
			interactive = output.IsTerminal(stderrFile)
		}
		renderer = output.Combine(output.NewProgressRenderer(app.dependencies.Stderr, interactive), renderer)
	}

	scanOptions := stream.ScanOptions{
		Pipeline: flatten.Pipeline{
			Logger:         app.logger,
			Counter:        counter,
			FollowSymlinks: options.followSymlinks,
		},
		Request: flatten.Request{
			Root:           root,
			IgnorePatterns: patterns,
			UseGitIgnore:   options.gitignore,
		},
		Timeout: options.timeout,
		Logger:  app.logger,
	}

	var flattened *flatten.Result
	var failure string
	dispatchErr := stream.Dispatch(ctx,
		func(streamCtx context.Context, events chan<- stream.Event) error {
			return stream.Scan(streamCtx, scanOptions, events)
		},
		func(event stream.Event) error {
			switch event.Kind {
			case stream.EventKindDone:
				flattened = event.Result
			case stream.EventKindError:
				if event.Err != nil {
					failure = event.Err.Message
				}
			}
			return renderer.Handle(event)
		},
	)
	if dispatchErr != nil {
		return dispatchErr
	}
	if flushErr := renderer.Flush(); flushErr != nil {
		return flushErr
	}
	if flattened == nil {
		if failure != "" {
			return errors.New(failure)
		}
		return output.ErrNoResult
	}

	if options.clipboard {
		if copyErr := app.dependencies.Copier.Copy(flattened.Content); copyErr != nil {
			return fmt.Errorf(errorClipboardFormat, copyErr)
		}
		fmt.Fprint(app.dependencies.Stderr, clipboardCopiedLine)
	}
	return nil
}
