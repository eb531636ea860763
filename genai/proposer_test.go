package genai_test

import (
	"testing"

	"github.com/fwojciec/redline/genai"
	"github.com/stretchr/testify/assert"
)

func TestExtractCode(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "bare text passes through",
			in:   "a\nb\nc\n",
			want: "a\nb\nc\n",
		},
		{
			name: "fenced block is unwrapped",
			in:   "```go\na\nb\n```\n",
			want: "a\nb\n",
		},
		{
			name: "open fence mid-stream keeps partial content",
			in:   "```go\na\nb",
			want: "a\nb",
		},
		{
			name: "only an opening fence so far",
			in:   "```go",
			want: "",
		},
		{
			name: "backticks inside the file are preserved",
			in:   "```\nuse `go build`\nmore\n```\n",
			want: "use `go build`\nmore\n",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, genai.ExtractCode(tt.in))
		})
	}
}
