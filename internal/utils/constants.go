package utils

// EmptyString represents a reusable empty string constant.
const EmptyString = ""

const (
	// ApplicationName is the command and configuration namespace.
	ApplicationName = "flattree"
	// ConfigFileName is the name of the configuration file searched locally and globally.
	ConfigFileName = "config.yaml"
	// GlobalConfigDirectoryName is the directory under the user's home holding the global configuration.
	GlobalConfigDirectoryName = ".flattree"
	// GitIgnoreFileName is the name of the Git ignore file.
	GitIgnoreFileName = ".gitignore"
)

const (
	// LoggerInitializationFailedMessageFormat reports logger construction failures.
	LoggerInitializationFailedMessageFormat = "failed to initialize logger: %w"
	// ApplicationExecutionFailedMessage prefixes fatal command errors.
	ApplicationExecutionFailedMessage = "flattree failed"
)
