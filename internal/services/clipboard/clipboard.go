// Package clipboard copies flattened documents to the system clipboard.
package clipboard

import (
	"errors"
	"fmt"

	"github.com/atotto/clipboard"
)

// ErrUnsupported is returned when no clipboard utility is available on the host.
var ErrUnsupported = errors.New("clipboard unavailable on this system")

// Copier copies textual data to a clipboard.
type Copier interface {
	Copy(text string) error
}

// CopierFunc adapts a function to Copier.
type CopierFunc func(text string) error

// Copy invokes the underlying function.
func (copierFunc CopierFunc) Copy(text string) error {
	return copierFunc(text)
}

// Service implements Copier using github.com/atotto/clipboard.
type Service struct{}

// NewService constructs the system clipboard service.
func NewService() *Service {
	return &Service{}
}

// Copy writes text to the system clipboard.
func (service *Service) Copy(text string) error {
	if clipboard.Unsupported {
		return ErrUnsupported
	}
	if err := clipboard.WriteAll(text); err != nil {
		return fmt.Errorf("write clipboard: %w", err)
	}
	return nil
}

var _ Copier = (*Service)(nil)
