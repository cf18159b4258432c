package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/adrg/xdg"
	"github.com/spf13/afero"

	"github.com/launchpad-agents/launchpad/src/agent"
	"github.com/launchpad-agents/launchpad/src/config"
	"github.com/launchpad-agents/launchpad/src/executor"
	"github.com/launchpad-agents/launchpad/src/launchpadagent"
	"github.com/launchpad-agents/launchpad/src/llmclient"
	"github.com/launchpad-agents/launchpad/src/mcptools"
	"github.com/launchpad-agents/launchpad/src/server"
	"github.com/launchpad-agents/launchpad/src/shop"
	"github.com/launchpad-agents/launchpad/src/storage"
)

// ServeCmd runs the agent HTTP server.
type ServeCmd struct {
	Host string `help:"Bind address (overrides config)"`
	Port int    `help:"Bind port (overrides config)"`

	APIKey  string `env:"LAUNCHPAD_API_KEY,OPENAI_API_KEY" help:"API key for the LLM endpoint"`
	BaseURL string `env:"LAUNCHPAD_BASE_URL" help:"Base URL of the OpenAI-compatible API (overrides config)"`
	Model   string `env:"LAUNCHPAD_MODEL" help:"Model id (overrides config)"`
}

// Run executes the serve command
func (c *ServeCmd) Run(cli *CLI) error {
	logger := createLogger(cli.LogLevel)
	fs := afero.NewOsFs()

	settings, err := config.Load(fs, cli.Config)
	if err != nil {
		return err
	}
	c.applyOverrides(settings)
	if err := settings.Validate(); err != nil {
		return err
	}

	client, err := llmclient.NewClient(llmclient.Config{
		APIKey:  settings.LLM.APIKey,
		BaseURL: settings.LLM.BaseURL,
		Model:   settings.LLM.ModelID,
		Logger:  logger,
	})
	if err != nil {
		return fmt.Errorf("failed to create model client: %w", err)
	}

	bioStore, closeBio, err := openBioStore(settings.Tools.BioDatabasePath)
	if err != nil {
		return err
	}
	defer closeBio()

	ctx := context.Background()

	session, err := openShopSession(ctx, settings.Tools, logger)
	if err != nil {
		return err
	}

	mcpTools, closeMCP, err := attachMCPServers(ctx, settings.MCPServers, logger)
	if err != nil {
		return err
	}
	defer closeMCP()

	toolbox, err := launchpadagent.BuildToolbox(launchpadagent.ToolboxConfig{
		Settings: settings.Tools,
		Session:  session,
		BioStore: bioStore,
		MCPTools: mcpTools,
		Logger:   logger,
	})
	if err != nil {
		return fmt.Errorf("failed to build toolbox: %w", err)
	}
	logger.Info("toolbox ready", "tools", toolbox.Names())

	orchestrator, err := executor.New(executor.Config{
		Client:       client,
		Toolbox:      toolbox,
		Logger:       logger,
		MaxToolCalls: settings.Agent.MaxToolCalls,
		Temperature:  settings.Agent.Temperature,
		Seed:         settings.Agent.Seed,
	})
	if err != nil {
		return err
	}

	prompts := buildPromptSource(fs, settings, bioStore)
	srv := server.New(server.Config{
		Orchestrator: orchestrator,
		SystemPrompt: prompts.SystemPrompt,
		Logger:       logger,
	})

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start(settings.Addr())
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-sigCh:
		logger.Info("shutting down", "signal", sig.String())
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func (c *ServeCmd) applyOverrides(settings *config.Settings) {
	if c.Host != "" {
		settings.Host = c.Host
	}
	if c.Port != 0 {
		settings.Port = c.Port
	}
	if c.APIKey != "" {
		settings.LLM.APIKey = config.CleanEnv(c.APIKey)
	}
	if c.BaseURL != "" {
		settings.LLM.BaseURL = config.CleanEnv(c.BaseURL)
	}
	if c.Model != "" {
		settings.LLM.ModelID = config.CleanEnv(c.Model)
	}
}

// openBioStore opens the user-fact database, defaulting to the XDG data dir.
func openBioStore(path string) (*storage.BioStore, func(), error) {
	if path == "" {
		var err error
		path, err = xdg.DataFile("launchpad/bio.db")
		if err != nil {
			return nil, nil, fmt.Errorf("failed to resolve bio database path: %w", err)
		}
	}
	db, err := storage.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open bio database: %w", err)
	}
	return storage.NewBioStore(db), func() { _ = db.Close() }, nil
}

// openShopSession builds the storefront session and signs in when
// credentials are configured. Returns nil when no storefront is configured.
func openShopSession(ctx context.Context, tools config.ToolSettings, logger *slog.Logger) (*shop.Session, error) {
	if tools.ShopBaseURL == "" {
		return nil, nil
	}
	session, err := shop.NewSession(tools.ShopBaseURL, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create storefront session: %w", err)
	}
	if tools.ShopEmail != "" && tools.ShopPassword != "" {
		if err := session.SignIn(ctx, tools.ShopEmail, tools.ShopPassword); err != nil {
			return nil, fmt.Errorf("storefront sign-in failed: %w", err)
		}
		logger.Info("signed in to storefront", "url", tools.ShopBaseURL)
	}
	return session, nil
}

// attachMCPServers connects to each configured MCP server and collects its
// tools, keyed by server name. The returned closer stops all sessions.
func attachMCPServers(ctx context.Context, servers []config.MCPServerSettings, logger *slog.Logger) (map[string][]agent.Tool, func(), error) {
	if len(servers) == 0 {
		return nil, func() {}, nil
	}

	byServer := make(map[string][]agent.Tool, len(servers))
	var clients []*mcptools.Client
	closeAll := func() {
		for _, c := range clients {
			_ = c.Close()
		}
	}

	for _, srv := range servers {
		client, err := mcptools.NewStdioClient(ctx, srv.Command, srv.Args, mcptools.WithEnv(srv.Env))
		if err != nil {
			closeAll()
			return nil, nil, fmt.Errorf("failed to start MCP server %s: %w", srv.Name, err)
		}
		clients = append(clients, client)

		tools, err := client.Tools(ctx)
		if err != nil {
			closeAll()
			return nil, nil, fmt.Errorf("failed to list tools of MCP server %s: %w", srv.Name, err)
		}
		byServer[srv.Name] = tools
		logger.Info("attached MCP server", "name", srv.Name, "tools", len(tools))
	}
	return byServer, closeAll, nil
}

func buildPromptSource(fs afero.Fs, settings *config.Settings, bio *storage.BioStore) *launchpadagent.PromptSource {
	opts := []launchpadagent.PromptOption{launchpadagent.WithBio(bio)}
	switch {
	case settings.Agent.SystemPrompt != "":
		opts = append(opts, launchpadagent.WithStaticPrompt(settings.Agent.SystemPrompt))
	case settings.Agent.SystemPromptPath != "":
		opts = append(opts, launchpadagent.WithPromptFile(fs, settings.Agent.SystemPromptPath))
	}
	return launchpadagent.NewPromptSource(opts...)
}
