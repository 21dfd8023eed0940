package tokenizer

import (
	"errors"

	"github.com/pkoukk/tiktoken-go"
)

type openAICounter struct {
	encoding *tiktoken.Tiktoken
	name     string
}

func (counter openAICounter) Name() string {
	return counter.name
}

// CountString encodes input with every special token of the vocabulary allowed, so markers such
// as <|endoftext|> inside scanned files count as single tokens instead of failing the encode.
func (counter openAICounter) CountString(input string) (int, error) {
	if counter.encoding == nil {
		return 0, errors.New("nil tiktoken encoder")
	}
	tokenIDs := counter.encoding.Encode(input, []string{allSpecialTokens}, nil)
	return len(tokenIDs), nil
}
