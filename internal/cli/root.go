package cli

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/personachat/personachat/internal/config"
	"github.com/personachat/personachat/internal/embeddings"
	"github.com/personachat/personachat/internal/history"
	"github.com/personachat/personachat/internal/integrations/astra"
	"github.com/personachat/personachat/internal/integrations/clearml"
	"github.com/personachat/personachat/internal/integrations/e2b"
	"github.com/personachat/personachat/internal/integrations/github"
	"github.com/personachat/personachat/internal/integrations/hfhub"
	"github.com/personachat/personachat/internal/integrations/tavily"
	"github.com/personachat/personachat/internal/llm"
	"github.com/personachat/personachat/internal/llm/google"
	"github.com/personachat/personachat/internal/llm/openaicompat"
	"github.com/personachat/personachat/internal/logger"
	"github.com/personachat/personachat/internal/plugins"
	"github.com/personachat/personachat/internal/rag"
	"github.com/personachat/personachat/internal/services"
	"github.com/personachat/personachat/internal/vectorstore/qdrant"
)

var (
	cfg          *config.Config
	store        history.Store
	registry     *llm.Registry
	manager      *plugins.Manager
	ragSvc       *rag.Service
	integrations *services.Integrations
	chatSvc      *services.ChatService
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "personachat",
	Short: "Chat backend with pluggable AI providers",
	Long: `PersonaChat is a chat backend that routes conversations to hosted AI
providers, persists history, and extends the chat pipeline with plugins,
web search, sandboxed code execution and document retrieval.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		logger.Init(logger.ParseLogLevel(cfg.LogLevel), os.Stdout)
		if err := logger.InitSentry(cfg.SentryDSN); err != nil {
			logger.Warning("Sentry disabled: %v", err)
		}

		if err := cfg.Validate(); err != nil {
			return err
		}

		store = history.Open(cfg.DatabaseURL)
		if err := store.Connect(context.Background()); err != nil {
			return fmt.Errorf("failed to connect to history store: %w", err)
		}

		registry = buildRegistry(cfg)
		ragSvc = buildRAG(cfg)

		integrations = &services.Integrations{
			Tavily:  tavily.New(cfg.TavilyAPIKey),
			E2B:     e2b.New(cfg.E2BAPIKey),
			GitHub:  github.New(cfg.GitHubPAT),
			ClearML: clearml.New(cfg.ClearMLAccessKey, cfg.ClearMLSecretKey, cfg.ClearMLHost),
			HFHub:   hfhub.New(cfg.HuggingFaceToken),
			Astra:   astra.New(cfg.AstraDBToken, cfg.AstraDBID, cfg.AstraDBSecret, cfg.AstraKeyspace, ""),
			RAG:     ragSvc,
		}

		manager = plugins.NewManager(cfg, &plugins.Context{
			Tavily: integrations.Tavily,
			E2B:    integrations.E2B,
			GitHub: integrations.GitHub,
			RAG:    ragSvc,
		})
		manager.LoadExternal()

		chatSvc = services.NewChatService(cfg, store, registry, manager, ragSvc, integrations.ClearML)

		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		if store != nil {
			if err := store.Disconnect(context.Background()); err != nil {
				logger.Warning("Failed to disconnect history store: %v", err)
			}
		}
		return nil
	},
}

// buildRegistry registers every provider that has a credential configured
func buildRegistry(cfg *config.Config) *llm.Registry {
	reg := llm.NewRegistry()

	for _, name := range config.Providers() {
		key := cfg.ProviderAPIKey(name)
		if key == "" {
			continue
		}

		switch name {
		case "google":
			reg.Register(google.New(key))
		case "modal":
			// Modal authenticates with a key/secret pair
			secret := cfg.ModalAPISecret()
			if secret == "" {
				logger.Warning("MODAL_API_KEY set without MODAL_API_SECRET, skipping modal provider")
				continue
			}
			reg.Register(openaicompat.New(name, key+":"+secret, ""))
		default:
			reg.Register(openaicompat.New(name, key, ""))
		}
	}

	logger.Info("Registered providers: %v", reg.Names())
	return reg
}

// buildRAG wires the retrieval service when both the vector store and
// the embedding credential are configured
func buildRAG(cfg *config.Config) *rag.Service {
	if cfg.QdrantURL == "" || cfg.HuggingFaceToken == "" {
		return nil
	}
	return rag.NewService(
		qdrant.New(cfg.QdrantURL, cfg.QdrantAPIKey),
		embeddings.New(cfg.HuggingFaceToken),
	)
}

// retentionDays reads the history retention window from settings
func retentionDays(cfg *config.Config) int {
	raw := cfg.Setting("HISTORY_RETENTION_DAYS", "0")
	days, err := strconv.Atoi(raw)
	if err != nil || days < 0 {
		logger.Warning("Invalid HISTORY_RETENTION_DAYS %q, retention disabled", raw)
		return 0
	}
	return days
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
