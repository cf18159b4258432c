// Package tool_shop exposes the storefront session to the model. Browsing
// tools (search, detail, cart) and purchase tools (orders, cancel, refund)
// are split into separate groups so the conversation loop can switch persona
// between them.
package tool_shop

import (
	"context"
	"fmt"

	"github.com/launchpad-agents/launchpad/src/agent"
	"github.com/launchpad-agents/launchpad/src/shop"
)

// Tool name constants
const (
	SearchProductsName   = "search_products"
	GetProductDetailName = "get_product_detail"
	AddToCartName        = "add_to_cart"
	GoToCartName         = "go_to_cart"
	AdjustCartName       = "adjust_cart"
	CheckOutName         = "check_out"
	GetOrderHistoryName  = "get_order_history"
	CancelOrderName      = "cancel_order"
	RequestRefundName    = "request_refund"
)

// SearchProductsInput represents the parameters for search_products
type SearchProductsInput struct {
	Query string `json:"query" required:"true" description:"The query to search for. For example, 'laptop'"`
}

// ProductLinkInput identifies a product by its link.
type ProductLinkInput struct {
	Link string `json:"link" required:"true" description:"The link of the product"`
}

// EmptyInput is used by tools that take no parameters.
type EmptyInput struct{}

// AdjustCartInput represents the parameters for adjust_cart
type AdjustCartInput struct {
	ItemID string `json:"item_id" required:"true" description:"The cart item id, as returned by go_to_cart"`
	Action string `json:"action" required:"true" description:"One of increment, decrement or remove"`
}

// OrderIDInput identifies an order.
type OrderIDInput struct {
	OrderID string `json:"order_id" required:"true" description:"The ID of the order"`
}

type productsResult struct {
	Status   string         `json:"status"`
	Products []shop.Product `json:"products"`
}

type cartResult struct {
	Status       string          `json:"status"`
	CartContents []shop.CartItem `json:"cart_contents"`
}

type ordersResult struct {
	Status string       `json:"status"`
	Orders []shop.Order `json:"orders"`
}

type messageResult struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// BrowsingTools returns the shopping_browsing tool group over a shared
// storefront session.
func BrowsingTools(session *shop.Session) []agent.Tool {
	return []agent.Tool{
		agent.MustNewGenericStreamingTool(SearchProductsName,
			"Search products with the specified criteria.",
			func(ctx context.Context, input SearchProductsInput, progress agent.ProgressFunc) (*productsResult, error) {
				progress(fmt.Sprintf("searching the catalog for %q", input.Query))
				products, err := session.SearchProducts(ctx, input.Query)
				if err != nil {
					return nil, err
				}
				progress(fmt.Sprintf("read %d results", len(products)))
				return &productsResult{Status: "success", Products: products}, nil
			}),
		agent.MustNewGenericStreamingTool(GetProductDetailName,
			"Get product detail from the link.",
			func(ctx context.Context, input ProductLinkInput, progress agent.ProgressFunc) (*shop.ProductDetail, error) {
				progress("opening the product page")
				return session.ProductDetail(ctx, input.Link)
			}),
		agent.MustNewGenericStreamingTool(AddToCartName,
			"Add the product at the given link to the cart.",
			func(ctx context.Context, input ProductLinkInput, progress agent.ProgressFunc) (*messageResult, error) {
				progress("adding the product to the cart")
				if err := session.AddToCart(ctx, input.Link); err != nil {
					return nil, err
				}
				return &messageResult{Status: "success", Message: "Product added to cart."}, nil
			}),
		agent.MustNewGenericStreamingTool(GoToCartName,
			"Open the shopping cart page.",
			func(ctx context.Context, input EmptyInput, progress agent.ProgressFunc) (*cartResult, error) {
				progress("opening the cart")
				items, err := session.Cart(ctx)
				if err != nil {
					return nil, err
				}
				return &cartResult{Status: "success", CartContents: items}, nil
			}),
		agent.MustNewGenericStreamingTool(AdjustCartName,
			"Adjust the quantity of a product in the cart, or remove it.",
			func(ctx context.Context, input AdjustCartInput, progress agent.ProgressFunc) (*messageResult, error) {
				progress(fmt.Sprintf("applying %s to cart item %s", input.Action, input.ItemID))
				msg, err := session.AdjustCart(ctx, input.ItemID, shop.CartAction(input.Action))
				if err != nil {
					return nil, err
				}
				return &messageResult{Status: "success", Message: msg}, nil
			}),
		agent.MustNewGenericStreamingTool(CheckOutName,
			"Complete the checkout process until the order is placed.",
			func(ctx context.Context, input EmptyInput, progress agent.ProgressFunc) (*messageResult, error) {
				progress("placing the order")
				confirmation, err := session.Checkout(ctx)
				if err != nil {
					return nil, err
				}
				progress("checkout completed")
				return &messageResult{Status: "success", Message: confirmation}, nil
			}),
	}
}

// PurchaseTools returns the purchase_management tool group over a shared
// storefront session.
func PurchaseTools(session *shop.Session) []agent.Tool {
	return []agent.Tool{
		agent.MustNewGenericStreamingTool(GetOrderHistoryName,
			"Get the order history of the user.",
			func(ctx context.Context, input EmptyInput, progress agent.ProgressFunc) (*ordersResult, error) {
				progress("opening order history")
				orders, err := session.Orders(ctx)
				if err != nil {
					return nil, err
				}
				return &ordersResult{Status: "success", Orders: orders}, nil
			}),
		agent.MustNewGenericStreamingTool(CancelOrderName,
			"Cancel an order by its ID.",
			func(ctx context.Context, input OrderIDInput, progress agent.ProgressFunc) (*messageResult, error) {
				progress(fmt.Sprintf("canceling order %s", input.OrderID))
				msg, err := session.CancelOrder(ctx, input.OrderID)
				if err != nil {
					return nil, err
				}
				return &messageResult{Status: "success", Message: msg}, nil
			}),
		agent.MustNewGenericStreamingTool(RequestRefundName,
			"Request a refund for an order by its ID.",
			func(ctx context.Context, input OrderIDInput, progress agent.ProgressFunc) (*messageResult, error) {
				progress(fmt.Sprintf("requesting a refund for order %s", input.OrderID))
				msg, err := session.RequestRefund(ctx, input.OrderID)
				if err != nil {
					return nil, err
				}
				if msg == "" {
					msg = fmt.Sprintf("Refund request for order %s has been initiated.", input.OrderID)
				}
				return &messageResult{Status: "success", Message: msg}, nil
			}),
	}
}
