package web

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"

	"github.com/temirov/flattree/internal/utils"
)

const (
	errorInvalidPathFormat  = "Error: path '%s' does not exist or is invalid."
	errorEscapesBaseFormat  = "Error: path '%s' is outside the served directory."
	errorNotDirectoryFormat = "Error: path '%s' is not a directory."
	errorNotFileFormat      = "Error: path '%s' is not a regular file."
	errorBaseDirectory      = "resolve base directory %s: %w"
)

// sandbox confines requested paths to a canonical base directory.
type sandbox struct {
	base string
}

func newSandbox(baseDirectory string) (sandbox, error) {
	if baseDirectory == "" {
		baseDirectory = "."
	}
	absoluteBase, absErr := filepath.Abs(baseDirectory)
	if absErr != nil {
		return sandbox{}, fmt.Errorf(errorBaseDirectory, baseDirectory, absErr)
	}
	canonicalBase, evalErr := filepath.EvalSymlinks(absoluteBase)
	if evalErr != nil {
		return sandbox{}, fmt.Errorf(errorBaseDirectory, baseDirectory, evalErr)
	}
	return sandbox{base: canonicalBase}, nil
}

// resolve joins requested to the base, canonicalizes it and rejects paths that do not exist or
// resolve outside the base. Failures are client errors.
func (box sandbox) resolve(requested string) (string, os.FileInfo, error) {
	joined := filepath.Join(box.base, requested)
	canonical, evalErr := filepath.EvalSymlinks(joined)
	if evalErr != nil {
		return "", nil, NewRequestError(http.StatusBadRequest, fmt.Errorf(errorInvalidPathFormat, requested))
	}
	canonical, _ = filepath.Abs(canonical)
	if !utils.IsWithinDirectory(box.base, canonical) {
		return "", nil, NewRequestError(http.StatusBadRequest, fmt.Errorf(errorEscapesBaseFormat, requested))
	}
	info, statErr := os.Stat(canonical)
	if statErr != nil {
		return "", nil, NewRequestError(http.StatusBadRequest, fmt.Errorf(errorInvalidPathFormat, requested))
	}
	return canonical, info, nil
}

func (box sandbox) resolveDirectory(requested string) (string, error) {
	canonical, info, err := box.resolve(requested)
	if err != nil {
		return "", err
	}
	if !info.IsDir() {
		return "", NewRequestError(http.StatusBadRequest, fmt.Errorf(errorNotDirectoryFormat, requested))
	}
	return canonical, nil
}

func (box sandbox) resolveFile(requested string) (string, error) {
	canonical, info, err := box.resolve(requested)
	if err != nil {
		return "", err
	}
	if !info.Mode().IsRegular() {
		return "", NewRequestError(http.StatusBadRequest, fmt.Errorf(errorNotFileFormat, requested))
	}
	return canonical, nil
}
