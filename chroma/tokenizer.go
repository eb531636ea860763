// Package chroma provides syntax highlighting using the chroma library.
package chroma

import (
	"path/filepath"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/fwojciec/redline"
)

// Compile-time interface verification.
var _ redline.Tokenizer = (*Tokenizer)(nil)

// Tokenizer extracts syntax tokens using chroma.
type Tokenizer struct{}

// NewTokenizer creates a new chroma-based tokenizer.
func NewTokenizer() *Tokenizer {
	return &Tokenizer{}
}

// LanguageForPath guesses a language name from a file path, for callers
// that only track URIs. Returns "" when no lexer matches.
func LanguageForPath(path string) string {
	lexer := lexers.Match(filepath.Base(path))
	if lexer == nil {
		return ""
	}
	return lexer.Config().Name
}

// Tokenize splits source code into styled tokens for the given language.
// Returns nil if the language is not supported or tokenization fails, and
// an empty slice for empty source.
func (t *Tokenizer) Tokenize(language, source string) []redline.Token {
	if source == "" {
		return []redline.Token{}
	}

	lexer := lexers.Get(language)
	if lexer == nil {
		return nil
	}
	lexer = chroma.Coalesce(lexer)

	iterator, err := lexer.Tokenise(nil, source)
	if err != nil {
		return nil
	}

	var tokens []redline.Token
	for token := iterator(); token != chroma.EOF; token = iterator() {
		tokens = append(tokens, redline.Token{
			Text:  token.Value,
			Style: styleFor(token.Type),
		})
	}
	return tokens
}

// Palette loosely based on One Dark, keyed by token category so subtypes
// inherit their category's color.
var palette = map[chroma.TokenType]redline.Style{
	chroma.Keyword:      {Foreground: "#c678dd", Bold: true},
	chroma.Comment:      {Foreground: "#5c6370"},
	chroma.String:       {Foreground: "#98c379"},
	chroma.Number:       {Foreground: "#d19a66"},
	chroma.Operator:     {Foreground: "#56b6c2"},
	chroma.NameBuiltin:  {Foreground: "#e5c07b"},
	chroma.NameFunction: {Foreground: "#61afef"},
	chroma.Name:         {Foreground: "#e06c75"},
}

// styleFor resolves a token type against the palette, walking from the
// most specific type up through its categories.
func styleFor(tt chroma.TokenType) redline.Style {
	for _, key := range [...]chroma.TokenType{tt, tt.SubCategory(), tt.Category()} {
		if s, ok := palette[key]; ok {
			return s
		}
	}
	return redline.Style{}
}
