// Package llm wraps the generative-AI backend behind a narrow interface so
// services and tests never touch the SDK directly.
package llm

import (
	"context"
	"errors"
)

var ErrEmptyResponse = errors.New("model returned an empty response")

// Provider generates free text from a prompt. Implementations must respect
// ctx cancellation; the caller owns the timeout.
type Provider interface {
	Generate(ctx context.Context, model, prompt string) (string, error)
}
