package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jimdaga/nextrend/internal/apperr"
)

// Stub returns canned completions for local development without an API key.
type Stub struct {
	Delay time.Duration
}

// NewStub creates a stub completer with a short simulated delay.
func NewStub() *Stub {
	return &Stub{Delay: 400 * time.Millisecond}
}

// Complete echoes the requested content type back as placeholder copy.
func (s *Stub) Complete(ctx context.Context, p Prompt) (string, error) {
	select {
	case <-ctx.Done():
		return "", apperr.Generation("llm.Stub", 0, ctx.Err())
	case <-time.After(s.Delay):
	}

	firstLine, _, _ := strings.Cut(p.User, "\n")
	if strings.HasPrefix(firstLine, "Summarize") {
		return "Confident, warm and practical. Short sentences mixed with quick client stories. " +
			"Plain language, no jargon, always ends with a helpful next step.", nil
	}

	subject := strings.TrimPrefix(firstLine, "Generate a ")
	if i := strings.Index(subject, " ("); i > 0 {
		subject = subject[:i]
	}
	return fmt.Sprintf("[stub %s]\nRates moved this week, and here's what that means for you. "+
		"Thinking about buying or refinancing? Let's talk.", subject), nil
}
