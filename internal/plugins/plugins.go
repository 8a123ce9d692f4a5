package plugins

import (
	"context"

	"github.com/personachat/personachat/internal/integrations/e2b"
	"github.com/personachat/personachat/internal/integrations/github"
	"github.com/personachat/personachat/internal/integrations/tavily"
	"github.com/personachat/personachat/internal/rag"
)

// Plugin is the minimal contract every plugin satisfies
type Plugin interface {
	Name() string
	Description() string
}

// InputHook lets a plugin inspect and rewrite user input before it
// reaches the model. A result with BypassAI set short-circuits the
// provider call and returns Response directly.
type InputHook interface {
	ProcessInput(ctx context.Context, pc *Context, input string) (*InputResult, error)
}

// OutputHook lets a plugin rewrite the model response before it is
// stored and returned
type OutputHook interface {
	ProcessOutput(ctx context.Context, pc *Context, output string) (string, error)
}

// InputResult is what an input hook produces
type InputResult struct {
	Text     string
	BypassAI bool
	Response string
}

// Context gives plugins access to the configured tool integrations
type Context struct {
	Tavily *tavily.Client
	E2B    *e2b.Client
	GitHub *github.Client
	RAG    *rag.Service
}
