package ai

import "context"

// Request is a single completion request.
type Request struct {
	Prompt      string
	MaxTokens   int64
	Temperature float64
	// JSONOnly asks the provider to constrain the output to one JSON object.
	JSONOnly bool
}

// Response carries the model output and, when the provider surfaces it, the
// total token usage of the call.
type Response struct {
	Content     string
	TotalTokens int64
}

// Completer is the LLM collaborator. The evaluator treats it as a black box
// that turns a prompt into JSON-shaped text.
type Completer interface {
	Complete(ctx context.Context, req *Request) (*Response, error)
	Model() string
}
