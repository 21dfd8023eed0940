package clipboard_test

import (
	"testing"

	"github.com/temirov/flattree/internal/services/clipboard"
)

func TestCopierFuncReceivesText(t *testing.T) {
	var received string
	var copier clipboard.Copier = clipboard.CopierFunc(func(text string) error {
		received = text
		return nil
	})
	if err := copier.Copy(".\n\n\n"); err != nil {
		t.Fatalf("Copy error: %v", err)
	}
	if received != ".\n\n\n" {
		t.Fatalf("unexpected text %q", received)
	}
}
