package utils

import (
	"os/exec"
	"runtime/debug"
	"strings"
)

const (
	unknownVersion     = "unknown"
	develModuleVersion = "(devel)"
)

// Version is injected at build time with -ldflags "-X github.com/temirov/flattree/internal/utils.Version=v1.2.3".
var Version = EmptyString

// GetApplicationVersion resolves the application version from the linker-injected Version,
// the module build info, or `git describe` in that order.
func GetApplicationVersion() string {
	if strings.TrimSpace(Version) != "" {
		return Version
	}
	if buildInfo, available := debug.ReadBuildInfo(); available {
		moduleVersion := buildInfo.Main.Version
		if moduleVersion != "" && moduleVersion != develModuleVersion {
			return moduleVersion
		}
	}
	// #nosec G204
	describeOutput, describeError := exec.Command("git", "describe", "--tags", "--always", "--dirty").Output()
	if describeError == nil {
		if described := strings.TrimSpace(string(describeOutput)); described != "" {
			return described
		}
	}
	return unknownVersion
}
