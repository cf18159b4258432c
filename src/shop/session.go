// Package shop is an HTTP client for the demo storefront. One Session holds
// the sign-in cookie and is shared by all shopping tools, the same way a
// single browser profile would be. Pages are plain server-rendered HTML and
// are parsed with goquery.
package shop

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Product is one search result row.
type Product struct {
	Name   string `json:"name"`
	Link   string `json:"link"`
	Price  string `json:"price"`
	Rating string `json:"rating,omitempty"`
}

// ProductDetail is a full product page.
type ProductDetail struct {
	Name         string `json:"name"`
	Price        string `json:"price"`
	Rating       string `json:"rating,omitempty"`
	Description  string `json:"description,omitempty"`
	Availability string `json:"availability,omitempty"`
	Link         string `json:"link"`
}

// CartItem is one row of the cart page.
type CartItem struct {
	ItemID   string `json:"item_id"`
	Name     string `json:"name"`
	Price    string `json:"price"`
	Quantity int    `json:"quantity"`
}

// Order is one row of the order history page.
type Order struct {
	OrderID string `json:"order_id"`
	Date    string `json:"date,omitempty"`
	Status  string `json:"status"`
	Total   string `json:"total,omitempty"`
}

// CartAction adjusts one cart item.
type CartAction string

const (
	CartIncrement CartAction = "increment"
	CartDecrement CartAction = "decrement"
	CartRemove    CartAction = "remove"
)

// Session is a logged-in storefront client.
type Session struct {
	baseURL *url.URL
	client  *http.Client
	logger  *slog.Logger
}

// NewSession creates a session against the storefront at baseURL. The cookie
// jar keeps the storefront's session cookie across calls.
func NewSession(baseURL string, logger *slog.Logger) (*Session, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid shop base URL: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("shop base URL must be absolute: %s", baseURL)
	}
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Session{
		baseURL: u,
		client:  &http.Client{Jar: jar},
		logger:  logger.With("component", "shop"),
	}, nil
}

// SignIn posts credentials and keeps the resulting session cookie.
func (s *Session) SignIn(ctx context.Context, email, password string) error {
	doc, err := s.postForm(ctx, "/login", url.Values{
		"email":    {email},
		"password": {password},
	})
	if err != nil {
		return err
	}
	if msg := doc.Find(".error").First().Text(); msg != "" {
		return fmt.Errorf("sign in failed: %s", strings.TrimSpace(msg))
	}
	return nil
}

// SearchProducts runs a catalog search and returns the result rows.
func (s *Session) SearchProducts(ctx context.Context, query string) ([]Product, error) {
	doc, err := s.get(ctx, "/search?"+url.Values{"q": {query}}.Encode())
	if err != nil {
		return nil, err
	}

	var products []Product
	doc.Find("ul.products li.product").Each(func(_ int, sel *goquery.Selection) {
		link, _ := sel.Find("a.title").Attr("href")
		products = append(products, Product{
			Name:   strings.TrimSpace(sel.Find("a.title").Text()),
			Link:   s.absolute(link),
			Price:  strings.TrimSpace(sel.Find(".price").Text()),
			Rating: strings.TrimSpace(sel.Find(".rating").Text()),
		})
	})
	return products, nil
}

// ProductDetail loads a product page by its link.
func (s *Session) ProductDetail(ctx context.Context, link string) (*ProductDetail, error) {
	doc, err := s.get(ctx, link)
	if err != nil {
		return nil, err
	}
	title := strings.TrimSpace(doc.Find("h1.product-title").Text())
	if title == "" {
		return nil, fmt.Errorf("product page has no title, wrong link?")
	}
	return &ProductDetail{
		Name:         title,
		Price:        strings.TrimSpace(doc.Find(".price").First().Text()),
		Rating:       strings.TrimSpace(doc.Find(".rating").First().Text()),
		Description:  strings.TrimSpace(doc.Find("#description").Text()),
		Availability: strings.TrimSpace(doc.Find(".availability").Text()),
		Link:         s.absolute(link),
	}, nil
}

// AddToCart adds one unit of a product to the cart.
func (s *Session) AddToCart(ctx context.Context, link string) error {
	doc, err := s.postForm(ctx, "/cart/add", url.Values{"product": {link}})
	if err != nil {
		return err
	}
	if msg := doc.Find(".error").First().Text(); msg != "" {
		return fmt.Errorf("add to cart failed: %s", strings.TrimSpace(msg))
	}
	return nil
}

// Cart returns the current cart contents.
func (s *Session) Cart(ctx context.Context) ([]CartItem, error) {
	doc, err := s.get(ctx, "/cart")
	if err != nil {
		return nil, err
	}
	var items []CartItem
	doc.Find("table.cart tr.cart-item").Each(func(_ int, sel *goquery.Selection) {
		id, _ := sel.Attr("data-item-id")
		qty, _ := strconv.Atoi(strings.TrimSpace(sel.Find(".qty").Text()))
		items = append(items, CartItem{
			ItemID:   id,
			Name:     strings.TrimSpace(sel.Find(".name").Text()),
			Price:    strings.TrimSpace(sel.Find(".price").Text()),
			Quantity: qty,
		})
	})
	return items, nil
}

// AdjustCart increments, decrements or removes a cart item.
func (s *Session) AdjustCart(ctx context.Context, itemID string, action CartAction) (string, error) {
	switch action {
	case CartIncrement, CartDecrement, CartRemove:
	default:
		return "", fmt.Errorf("unknown cart action: %s", action)
	}
	doc, err := s.postForm(ctx, "/cart/adjust", url.Values{
		"item":   {itemID},
		"action": {string(action)},
	})
	if err != nil {
		return "", err
	}
	if msg := doc.Find(".error").First().Text(); msg != "" {
		return "", fmt.Errorf("adjust cart failed: %s", strings.TrimSpace(msg))
	}
	return strings.TrimSpace(doc.Find(".message").First().Text()), nil
}

// Checkout places the order for the current cart and returns the
// confirmation text.
func (s *Session) Checkout(ctx context.Context) (string, error) {
	doc, err := s.postForm(ctx, "/checkout", nil)
	if err != nil {
		return "", err
	}
	confirmation := strings.TrimSpace(doc.Find("#confirmation").Text())
	if confirmation == "" {
		return "", fmt.Errorf("checkout did not return a confirmation")
	}
	return confirmation, nil
}

// Orders returns the order history.
func (s *Session) Orders(ctx context.Context) ([]Order, error) {
	doc, err := s.get(ctx, "/orders")
	if err != nil {
		return nil, err
	}
	var orders []Order
	doc.Find("ul.orders li.order").Each(func(_ int, sel *goquery.Selection) {
		id, _ := sel.Attr("data-order-id")
		orders = append(orders, Order{
			OrderID: id,
			Date:    strings.TrimSpace(sel.Find(".date").Text()),
			Status:  strings.TrimSpace(sel.Find(".status").Text()),
			Total:   strings.TrimSpace(sel.Find(".total").Text()),
		})
	})
	return orders, nil
}

// CancelOrder cancels an order by id and returns the storefront's message.
func (s *Session) CancelOrder(ctx context.Context, orderID string) (string, error) {
	return s.orderAction(ctx, "/orders/cancel", orderID)
}

// RequestRefund initiates a refund for an order by id.
func (s *Session) RequestRefund(ctx context.Context, orderID string) (string, error) {
	return s.orderAction(ctx, "/orders/refund", orderID)
}

func (s *Session) orderAction(ctx context.Context, path, orderID string) (string, error) {
	doc, err := s.postForm(ctx, path, url.Values{"order_id": {orderID}})
	if err != nil {
		return "", err
	}
	if msg := doc.Find(".error").First().Text(); msg != "" {
		return "", fmt.Errorf("%s", strings.TrimSpace(msg))
	}
	return strings.TrimSpace(doc.Find(".message").First().Text()), nil
}

func (s *Session) get(ctx context.Context, path string) (*goquery.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.absolute(path), nil)
	if err != nil {
		return nil, err
	}
	return s.do(req)
}

func (s *Session) postForm(ctx context.Context, path string, form url.Values) (*goquery.Document, error) {
	body := ""
	if form != nil {
		body = form.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.absolute(path), strings.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return s.do(req)
}

func (s *Session) do(req *http.Request) (*goquery.Document, error) {
	s.logger.Debug("storefront request", "method", req.Method, "url", req.URL.String())
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("storefront request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("storefront returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse storefront page: %w", err)
	}
	return doc, nil
}

// absolute resolves a path or link against the storefront base URL. Links
// that are already absolute pass through.
func (s *Session) absolute(link string) string {
	u, err := url.Parse(link)
	if err != nil {
		return link
	}
	return s.baseURL.ResolveReference(u).String()
}
