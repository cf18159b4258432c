package tools

// This file provides barrel-style re-exports for all tools, making them
// accessible from the main tools package for convenience.

import (
	"github.com/launchpad-agents/launchpad/src/agent"
	tool_bio "github.com/launchpad-agents/launchpad/src/launchpadagent/tools/tool_bio"
	tool_scrape "github.com/launchpad-agents/launchpad/src/launchpadagent/tools/tool_scrape"
	tool_searchleak "github.com/launchpad-agents/launchpad/src/launchpadagent/tools/tool_searchleak"
	tool_searchweb "github.com/launchpad-agents/launchpad/src/launchpadagent/tools/tool_searchweb"
	tool_sequentialthinking "github.com/launchpad-agents/launchpad/src/launchpadagent/tools/tool_sequentialthinking"
	tool_shop "github.com/launchpad-agents/launchpad/src/launchpadagent/tools/tool_shop"
	"github.com/launchpad-agents/launchpad/src/shop"
	"github.com/launchpad-agents/launchpad/src/storage"
)

// Tool name constants - re-exported from individual packages
const (
	SearchWebName          = tool_searchweb.Name
	ScrapeName             = tool_scrape.Name
	SequentialThinkingName = tool_sequentialthinking.Name
	SearchLeakName         = tool_searchleak.Name
	BatchSearchLeakName    = tool_searchleak.BatchName
	BioName                = tool_bio.Name
	GetBioName             = tool_bio.GetName

	SearchProductsName   = tool_shop.SearchProductsName
	GetProductDetailName = tool_shop.GetProductDetailName
	AddToCartName        = tool_shop.AddToCartName
	GoToCartName         = tool_shop.GoToCartName
	AdjustCartName       = tool_shop.AdjustCartName
	CheckOutName         = tool_shop.CheckOutName
	GetOrderHistoryName  = tool_shop.GetOrderHistoryName
	CancelOrderName      = tool_shop.CancelOrderName
	RequestRefundName    = tool_shop.RequestRefundName
)

// Research tools
func SearchWebTool(cfg tool_searchweb.Config) (agent.Tool, error) { return tool_searchweb.Tool(cfg) }
func ScrapeTool() (agent.Tool, error)                             { return tool_scrape.Tool() }
func SequentialThinkingTool(recorder *tool_sequentialthinking.Recorder) (agent.Tool, error) {
	return tool_sequentialthinking.Tool(recorder)
}
func SearchLeakTool(cfg tool_searchleak.Config) (agent.Tool, error) { return tool_searchleak.Tool(cfg) }
func BatchSearchLeakTool(cfg tool_searchleak.Config) (agent.Tool, error) {
	return tool_searchleak.BatchTool(cfg)
}

// Memory tools
func BioTool(store *storage.BioStore) (agent.Tool, error)    { return tool_bio.Tool(store) }
func GetBioTool(store *storage.BioStore) (agent.Tool, error) { return tool_bio.GetTool(store) }

// Storefront tool groups over a shared session
func ShoppingBrowsingTools(session *shop.Session) []agent.Tool {
	return tool_shop.BrowsingTools(session)
}
func PurchaseManagementTools(session *shop.Session) []agent.Tool {
	return tool_shop.PurchaseTools(session)
}
