package launchpadagent

import (
	"fmt"
	"log/slog"

	"github.com/launchpad-agents/launchpad/src/agent"
	"github.com/launchpad-agents/launchpad/src/config"
	"github.com/launchpad-agents/launchpad/src/launchpadagent/tools"
	"github.com/launchpad-agents/launchpad/src/launchpadagent/tools/tool_searchleak"
	"github.com/launchpad-agents/launchpad/src/launchpadagent/tools/tool_searchweb"
	"github.com/launchpad-agents/launchpad/src/launchpadagent/tools/tool_sequentialthinking"
	"github.com/launchpad-agents/launchpad/src/shop"
	"github.com/launchpad-agents/launchpad/src/storage"
)

// ToolboxConfig carries the dependencies each tool group needs. A group whose
// dependency is nil (or whose endpoint is unset) is left out of the toolbox.
type ToolboxConfig struct {
	Settings config.ToolSettings

	// Session is the shared storefront session. Nil disables the
	// shopping_browsing and purchase_management groups.
	Session *shop.Session

	// BioStore backs the memory group. Nil disables it.
	BioStore *storage.BioStore

	// MCPTools maps an MCP server name to the tools it exposes. Each server
	// becomes its own group without a persona instruction.
	MCPTools map[string][]agent.Tool

	Logger *slog.Logger
}

// BuildToolbox assembles the full toolbox from the configured groups and
// attaches logging middleware.
func BuildToolbox(cfg ToolboxConfig) (*agent.Toolbox, error) {
	tb := agent.NewToolbox()

	if cfg.Settings.GroupEnabled(GroupResearch) {
		if err := registerResearchTools(tb, cfg.Settings); err != nil {
			return nil, err
		}
	}

	if cfg.Session != nil {
		if cfg.Settings.GroupEnabled(GroupShoppingBrowsing) {
			tb.AddGroup(GroupShoppingBrowsing, shoppingBrowsingInstruction)
			for _, tool := range tools.ShoppingBrowsingTools(cfg.Session) {
				if err := tb.RegisterTool(GroupShoppingBrowsing, tool); err != nil {
					return nil, err
				}
			}
		}
		if cfg.Settings.GroupEnabled(GroupPurchaseManagement) {
			tb.AddGroup(GroupPurchaseManagement, purchaseManagementInstruction)
			for _, tool := range tools.PurchaseManagementTools(cfg.Session) {
				if err := tb.RegisterTool(GroupPurchaseManagement, tool); err != nil {
					return nil, err
				}
			}
		}
	}

	if cfg.BioStore != nil && cfg.Settings.GroupEnabled(GroupMemory) {
		if err := registerMemoryTools(tb, cfg.BioStore); err != nil {
			return nil, err
		}
	}

	for name, mcpTools := range cfg.MCPTools {
		for _, tool := range mcpTools {
			if err := tb.RegisterTool("mcp:"+name, tool); err != nil {
				return nil, err
			}
		}
	}

	if cfg.Logger != nil {
		tb.RegisterMiddleware(agent.LoggingMiddleware(cfg.Logger))
	}
	return tb, nil
}

func registerResearchTools(tb *agent.Toolbox, settings config.ToolSettings) error {
	scrape, err := tools.ScrapeTool()
	if err != nil {
		return fmt.Errorf("failed to create scrape tool: %w", err)
	}
	if err := tb.RegisterTool(GroupResearch, scrape); err != nil {
		return err
	}

	thinking, err := tools.SequentialThinkingTool(tool_sequentialthinking.NewRecorder())
	if err != nil {
		return fmt.Errorf("failed to create sequential_thinking tool: %w", err)
	}
	if err := tb.RegisterTool(GroupResearch, thinking); err != nil {
		return err
	}

	if settings.SearxURL != "" {
		searchWeb, err := tools.SearchWebTool(tool_searchweb.Config{BaseURL: settings.SearxURL})
		if err != nil {
			return fmt.Errorf("failed to create search_web tool: %w", err)
		}
		if err := tb.RegisterTool(GroupResearch, searchWeb); err != nil {
			return err
		}
	}

	if settings.LeakAPIURL != "" && settings.LeakAPIToken != "" {
		leakCfg := tool_searchleak.Config{APIURL: settings.LeakAPIURL, Token: settings.LeakAPIToken}
		searchLeak, err := tools.SearchLeakTool(leakCfg)
		if err != nil {
			return fmt.Errorf("failed to create search_leak tool: %w", err)
		}
		if err := tb.RegisterTool(GroupResearch, searchLeak); err != nil {
			return err
		}
		batchLeak, err := tools.BatchSearchLeakTool(leakCfg)
		if err != nil {
			return fmt.Errorf("failed to create batch_search_leak tool: %w", err)
		}
		if err := tb.RegisterTool(GroupResearch, batchLeak); err != nil {
			return err
		}
	}
	return nil
}

func registerMemoryTools(tb *agent.Toolbox, store *storage.BioStore) error {
	bio, err := tools.BioTool(store)
	if err != nil {
		return fmt.Errorf("failed to create bio tool: %w", err)
	}
	if err := tb.RegisterTool(GroupMemory, bio); err != nil {
		return err
	}
	getBio, err := tools.GetBioTool(store)
	if err != nil {
		return fmt.Errorf("failed to create get_bio tool: %w", err)
	}
	return tb.RegisterTool(GroupMemory, getBio)
}
