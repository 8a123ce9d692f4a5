package services

import (
	"github.com/personachat/personachat/internal/integrations/astra"
	"github.com/personachat/personachat/internal/integrations/clearml"
	"github.com/personachat/personachat/internal/integrations/e2b"
	"github.com/personachat/personachat/internal/integrations/github"
	"github.com/personachat/personachat/internal/integrations/hfhub"
	"github.com/personachat/personachat/internal/integrations/tavily"
	"github.com/personachat/personachat/internal/rag"
)

// Integrations bundles the optional tool clients. Each client is inert
// until its credential is configured.
type Integrations struct {
	Tavily  *tavily.Client
	E2B     *e2b.Client
	GitHub  *github.Client
	ClearML *clearml.Client
	HFHub   *hfhub.Client
	Astra   *astra.Client
	RAG     *rag.Service
}

// Status reports which integrations have credentials configured
func (i *Integrations) Status() map[string]bool {
	return map[string]bool{
		"tavily":      i.Tavily.Available(),
		"e2b":         i.E2B.Available(),
		"github":      i.GitHub.Available(),
		"clearml":     i.ClearML.Available(),
		"huggingface": i.HFHub.Available(),
		"astra":       i.Astra.Available(),
		"rag":         i.RAG.Available(),
	}
}
