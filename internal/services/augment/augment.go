// Package augment defines the generative-text rewrite port. The rewrite
// is advisory only: callers must fall back to their draft response on
// any failure, and control flow never depends on the rewritten text.
package augment

import "context"

// Turn is one prior exchange supplied as rewrite context.
type Turn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Request carries everything the rewrite needs: the persona system
// prompt, the stage guidance, a bounded slice of recent history, the
// user's message and the rule-based draft to base the answer on.
type Request struct {
	SystemPrompt string
	FlowGuidance string
	History      []Turn
	UserMessage  string
	Draft        string
}

// Rewriter rewrites a templated draft into more natural text.
type Rewriter interface {
	// Rewrite returns the rewritten response, or an error when the
	// service failed, timed out or produced an empty result.
	Rewrite(ctx context.Context, req *Request) (string, error)
}
