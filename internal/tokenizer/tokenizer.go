// Package tokenizer counts byte-pair-encoding tokens for flattened documents.
package tokenizer

import (
	"fmt"
	"strings"
	"sync"

	"github.com/pkoukk/tiktoken-go"
)

// Counter estimates token counts for text content.
type Counter interface {
	Name() string
	CountString(input string) (int, error)
}

// Config captures tokenizer selection parameters.
type Config struct {
	// Model is either a tiktoken encoding name (cl100k_base, o200k_base, ...) or an OpenAI model name.
	Model string
}

const (
	// DefaultEncodingName is the vocabulary used when no model is configured.
	DefaultEncodingName = "cl100k_base"
	allSpecialTokens    = "all"
)

var knownEncodingNames = map[string]struct{}{
	"cl100k_base": {},
	"o200k_base":  {},
	"p50k_base":   {},
	"p50k_edit":   {},
	"r50k_base":   {},
}

var openAIModelPrefixes = []string{
	"gpt-",
	"text-embedding",
	"davinci",
	"curie",
	"babbage",
	"ada",
	"code-",
}

// encodingCache holds vocabularies that were initialized once and are read-only afterwards.
var encodingCache = struct {
	sync.Mutex
	entries map[string]*encodingEntry
}{entries: map[string]*encodingEntry{}}

type encodingEntry struct {
	once     sync.Once
	encoding *tiktoken.Tiktoken
	err      error
}

// NewCounter returns a Counter for the requested model together with the resolved vocabulary name.
// Unknown models fall back to DefaultEncodingName.
func NewCounter(cfg Config) (Counter, string, error) {
	model := strings.ToLower(strings.TrimSpace(cfg.Model))
	if model == "" {
		model = DefaultEncodingName
	}

	if _, isEncodingName := knownEncodingNames[model]; isEncodingName {
		encoding, err := sharedEncoding(model, func() (*tiktoken.Tiktoken, error) {
			return tiktoken.GetEncoding(model)
		})
		if err != nil {
			return nil, "", fmt.Errorf("initialize tokenizer %s: %w", model, err)
		}
		return openAICounter{encoding: encoding, name: model}, model, nil
	}

	if isOpenAIModel(model) {
		encoding, err := sharedEncoding(model, func() (*tiktoken.Tiktoken, error) {
			return tiktoken.EncodingForModel(model)
		})
		if err == nil && encoding != nil {
			return openAICounter{encoding: encoding, name: model}, model, nil
		}
	}

	fallback, fallbackErr := DefaultEncoding()
	if fallbackErr != nil {
		return nil, "", fmt.Errorf("initialize fallback tokenizer: %w", fallbackErr)
	}
	return openAICounter{encoding: fallback, name: DefaultEncodingName}, DefaultEncodingName, nil
}

// DefaultEncoding returns the process-wide cl100k_base vocabulary, loading it on first use.
func DefaultEncoding() (*tiktoken.Tiktoken, error) {
	return sharedEncoding(DefaultEncodingName, func() (*tiktoken.Tiktoken, error) {
		return tiktoken.GetEncoding(DefaultEncodingName)
	})
}

func sharedEncoding(key string, load func() (*tiktoken.Tiktoken, error)) (*tiktoken.Tiktoken, error) {
	encodingCache.Lock()
	entry, found := encodingCache.entries[key]
	if !found {
		entry = &encodingEntry{}
		encodingCache.entries[key] = entry
	}
	encodingCache.Unlock()

	entry.once.Do(func() {
		entry.encoding, entry.err = load()
	})
	return entry.encoding, entry.err
}

func isOpenAIModel(model string) bool {
	for _, prefix := range openAIModelPrefixes {
		if strings.HasPrefix(model, prefix) {
			return true
		}
	}
	return false
}
