// Package genai streams file rewrites from the Gemini API.
package genai

import (
	"context"
	"fmt"
	"strings"

	"github.com/fwojciec/redline"
	"google.golang.org/genai"
)

// Compile-time interface verification.
var _ redline.Proposer = (*Proposer)(nil)

// Proposer asks a Gemini model for a full rewrite of a file and streams
// the result back chunk by chunk.
type Proposer struct {
	client *genai.Client
	model  string
}

// NewProposer creates a proposer for the given model. Credentials come
// from the environment (GEMINI_API_KEY or application default
// credentials).
func NewProposer(ctx context.Context, model string) (*Proposer, error) {
	client, err := genai.NewClient(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("creating genai client: %w", err)
	}
	return &Proposer{client: client, model: model}, nil
}

// Propose streams the rewritten file, calling fn with the text received
// so far after each chunk. An error from fn cancels the stream.
func (p *Proposer) Propose(ctx context.Context, path, content, instruction string, fn func(modifiedSoFar string) error) error {
	prompt := buildPrompt(path, content, instruction)

	var sb strings.Builder
	for resp, err := range p.client.Models.GenerateContentStream(ctx, p.model, genai.Text(prompt), nil) {
		if err != nil {
			return fmt.Errorf("streaming from %s: %w", p.model, err)
		}
		sb.WriteString(resp.Text())
		if err := fn(ExtractCode(sb.String())); err != nil {
			return err
		}
	}
	return nil
}

func buildPrompt(path, content, instruction string) string {
	var sb strings.Builder
	sb.WriteString("Rewrite the following file according to the instruction.\n")
	sb.WriteString("Output the complete rewritten file and nothing else.\n")
	sb.WriteString("Do not explain the changes.\n\n")
	fmt.Fprintf(&sb, "Instruction: %s\n\n", instruction)
	fmt.Fprintf(&sb, "File: %s\n", path)
	sb.WriteString("```\n")
	sb.WriteString(content)
	if !strings.HasSuffix(content, "\n") {
		sb.WriteString("\n")
	}
	sb.WriteString("```\n")
	return sb.String()
}

// ExtractCode strips a surrounding markdown code fence from streamed
// model output, tolerating a fence that is still open mid-stream.
func ExtractCode(s string) string {
	trimmed := strings.TrimLeft(s, " \t\r\n")
	if !strings.HasPrefix(trimmed, "```") {
		return s
	}
	// Drop the opening fence line, language tag included.
	if i := strings.IndexByte(trimmed, '\n'); i >= 0 {
		trimmed = trimmed[i+1:]
	} else {
		return ""
	}
	// Drop a closing fence if one has arrived.
	if i := strings.LastIndex(trimmed, "\n```"); i >= 0 {
		rest := strings.TrimRight(trimmed[i+4:], " \t\r\n")
		if rest == "" {
			return trimmed[:i+1]
		}
	}
	return trimmed
}
