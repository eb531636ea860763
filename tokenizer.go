package redline

// Style describes how a token should be rendered.
type Style struct {
	Foreground string // hex color, empty for default
	Bold       bool
}

// Token is a run of source text with a single style.
type Token struct {
	Text  string
	Style Style
}

// Tokenizer splits source code into syntax-highlighted tokens for a
// language. Implementations return nil when the language is unsupported.
type Tokenizer interface {
	Tokenize(language, source string) []Token
}
