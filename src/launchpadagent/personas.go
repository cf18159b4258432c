package launchpadagent

// Tool group names. Each group carries a persona instruction injected as a
// system message when the conversation first uses one of its tools.
const (
	GroupResearch           = "research"
	GroupShoppingBrowsing   = "shopping_browsing"
	GroupPurchaseManagement = "purchase_management"
	GroupMemory             = "memory"
)

// Persona instructions per group. The research and memory groups carry no
// instruction: their tools do not change how the agent should behave.
const (
	shoppingBrowsingInstruction   = "You are a shopping browsing agent. You are responsible for browsing products and adding them to the cart."
	purchaseManagementInstruction = "You are a purchase management agent. You are responsible for managing the purchase of a product. You are not allowed to search for products or add them to the cart."
)
