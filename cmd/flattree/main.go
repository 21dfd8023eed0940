package main

import (
	"fmt"

	"github.com/temirov/flattree/internal/cli"
	"github.com/temirov/flattree/internal/utils"
)

// main is the entry point for the flattree command.
func main() {
	loggerInstance, loggerInitializationError := utils.NewApplicationLogger(utils.LogLevelError)
	if loggerInitializationError != nil {
		panic(fmt.Errorf(utils.LoggerInitializationFailedMessageFormat, loggerInitializationError))
	}
	defer loggerInstance.Sync()
	if applicationExecutionError := cli.Execute(); applicationExecutionError != nil {
		loggerInstance.Fatal(utils.ApplicationExecutionFailedMessage + ": " + applicationExecutionError.Error())
	}
}
