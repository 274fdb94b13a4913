package llm

import "context"

// Client abstracts the text-completion transport used for recommendations.
// Complete returns the raw reply text for a composed payload.
type Client interface {
	Complete(ctx context.Context, payload string) (string, error)
}
