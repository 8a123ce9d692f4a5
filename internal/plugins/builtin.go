package plugins

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// Hello is a trivial command plugin used to verify the plugin pipeline
type Hello struct{}

func (p *Hello) Name() string        { return "Hello" }
func (p *Hello) Description() string { return "Responds to /hello without calling the model" }

func (p *Hello) ProcessInput(ctx context.Context, pc *Context, input string) (*InputResult, error) {
	if strings.TrimSpace(input) != "/hello" {
		return nil, nil
	}
	return &InputResult{
		BypassAI: true,
		Response: "Hello! The plugin system is working.",
	}, nil
}

// WebSearch answers /search commands with Tavily results
type WebSearch struct{}

func (p *WebSearch) Name() string        { return "Web Search" }
func (p *WebSearch) Description() string { return "Searches the web with /search <query>" }

func (p *WebSearch) ProcessInput(ctx context.Context, pc *Context, input string) (*InputResult, error) {
	query, ok := strings.CutPrefix(strings.TrimSpace(input), "/search ")
	if !ok {
		return nil, nil
	}
	query = strings.TrimSpace(query)
	if query == "" {
		return &InputResult{BypassAI: true, Response: "Usage: /search <query>"}, nil
	}
	if pc == nil || !pc.Tavily.Available() {
		return &InputResult{BypassAI: true, Response: "Web search is not configured. Set TAVILY_API_KEY to enable it."}, nil
	}

	resp, err := pc.Tavily.Search(ctx, query, 5)
	if err != nil {
		return nil, fmt.Errorf("web search failed: %w", err)
	}

	var sb strings.Builder
	if resp.Answer != "" {
		sb.WriteString(resp.Answer)
		sb.WriteString("\n\n")
	}
	sb.WriteString("Sources:\n")
	for _, r := range resp.Results {
		sb.WriteString(fmt.Sprintf("- %s (%s)\n", r.Title, r.URL))
	}

	return &InputResult{BypassAI: true, Response: sb.String()}, nil
}

// CodeRunner stages code sent with /execute and runs it in an E2B
// sandbox once the user confirms with the returned ID. /deny discards
// staged code.
type CodeRunner struct {
	mu      sync.Mutex
	pending map[string]string
}

// NewCodeRunner creates the code runner plugin
func NewCodeRunner() *CodeRunner {
	return &CodeRunner{pending: make(map[string]string)}
}

func (p *CodeRunner) Name() string { return "Code Runner" }
func (p *CodeRunner) Description() string {
	return "Runs code in a sandbox via /execute, with /deny to cancel"
}

func (p *CodeRunner) ProcessInput(ctx context.Context, pc *Context, input string) (*InputResult, error) {
	trimmed := strings.TrimSpace(input)

	if arg, ok := strings.CutPrefix(trimmed, "/deny "); ok {
		id := strings.TrimSpace(arg)
		p.mu.Lock()
		_, found := p.pending[id]
		delete(p.pending, id)
		p.mu.Unlock()
		if !found {
			return &InputResult{BypassAI: true, Response: fmt.Sprintf("No staged code with ID %s.", id)}, nil
		}
		return &InputResult{BypassAI: true, Response: "Execution cancelled."}, nil
	}

	arg, ok := strings.CutPrefix(trimmed, "/execute ")
	if !ok {
		return nil, nil
	}
	arg = strings.TrimSpace(arg)
	if arg == "" {
		return &InputResult{BypassAI: true, Response: "Usage: /execute <code>"}, nil
	}

	if pc == nil || !pc.E2B.Available() {
		return &InputResult{BypassAI: true, Response: "Code execution is not configured. Set E2B_API_KEY to enable it."}, nil
	}

	// A bare ID confirms previously staged code
	p.mu.Lock()
	code, confirmed := p.pending[arg]
	if confirmed {
		delete(p.pending, arg)
	}
	p.mu.Unlock()

	if confirmed {
		exec, err := pc.E2B.RunCode(ctx, "python", code)
		if err != nil {
			return nil, fmt.Errorf("code execution failed: %w", err)
		}
		var sb strings.Builder
		sb.WriteString("Execution finished.\n")
		if exec.Stdout != "" {
			sb.WriteString("stdout:\n" + exec.Stdout + "\n")
		}
		if exec.Stderr != "" {
			sb.WriteString("stderr:\n" + exec.Stderr + "\n")
		}
		if exec.Error != "" {
			sb.WriteString("error: " + exec.Error + "\n")
		}
		return &InputResult{BypassAI: true, Response: strings.TrimRight(sb.String(), "\n")}, nil
	}

	id := uuid.New().String()
	p.mu.Lock()
	p.pending[id] = arg
	p.mu.Unlock()

	response := fmt.Sprintf(
		"Code staged for execution with ID %s.\nConfirm with /execute %s or cancel with /deny %s.",
		id, id, id,
	)
	return &InputResult{BypassAI: true, Response: response}, nil
}
