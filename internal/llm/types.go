// Package llm talks to the chat-completion backend.
package llm

import "context"

// Prompt is one completion request: a system message and a single user message.
type Prompt struct {
	System      string
	User        string
	Temperature float64
	MaxTokens   int64
}

// Completer returns the text of a single completion.
type Completer interface {
	Complete(ctx context.Context, p Prompt) (string, error)
}

// CompleterFunc adapts a function to Completer.
type CompleterFunc func(ctx context.Context, p Prompt) (string, error)

func (f CompleterFunc) Complete(ctx context.Context, p Prompt) (string, error) {
	return f(ctx, p)
}
