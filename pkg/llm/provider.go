package llm

import "context"

// StreamHandler receives each incremental token as the engine produces it.
type StreamHandler func(token string)

// StreamingProvider is the narrow interface to the external generation
// engine. GenerateStream sends the system instruction and prompt, invokes
// onToken for every fragment until the engine reports completion, and
// returns the full accumulated reply.
type StreamingProvider interface {
	GenerateStream(ctx context.Context, system, prompt string, onToken StreamHandler) (string, error)
}
