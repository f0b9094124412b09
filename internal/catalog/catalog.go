// Package catalog drives product list filtering, search and autocomplete
// against the storefront backend.
package catalog

import (
	"context"
	"net/url"
	"strings"
	"sync"
	"unicode/utf8"

	"go.uber.org/zap"

	"emeraldsecrets.org/storefront/internal/gateway"
	"emeraldsecrets.org/storefront/internal/ui"
)

const (
	listPath    = "/products/"
	searchPath  = "/products/search/"
	suggestPath = "/products/search-suggestions/"

	wishlistTogglePath  = "/products/wishlist/toggle/"
	newsletterSubscribe = "/products/newsletter/subscribe/"

	minSuggestQuery = 2
	maxSuggestions  = 8
)

// Filters is the transient filter state of the product list. It exists only
// long enough to be encoded into the URL; the server renders the result.
type Filters struct {
	Category string
	MinPrice string
	MaxPrice string
	Sort     string
}

// Query encodes the filters, dropping empty fields. Numeric ranges are not
// cross-checked client-side; the server is the final authority.
func (f Filters) Query() url.Values {
	q := url.Values{}
	set := func(key, val string) {
		if v := strings.TrimSpace(val); v != "" {
			q.Set(key, v)
		}
	}
	set("category", f.Category)
	set("min_price", f.MinPrice)
	set("max_price", f.MaxPrice)
	set("sort", f.Sort)
	return q
}

// Controller owns the search box state and filter navigation.
type Controller struct {
	gw     *gateway.Client
	nav    ui.Navigator
	toasts *ui.Toaster
	badges *ui.Badges
	log    *zap.Logger

	seq gateway.Sequencer

	mu          sync.Mutex
	query       string
	suggestions []string
}

// NewController wires the catalog controller. badges may be nil when the
// page has no wishlist counter.
func NewController(gw *gateway.Client, nav ui.Navigator, toasts *ui.Toaster, badges *ui.Badges, log *zap.Logger) *Controller {
	if log == nil {
		log = zap.NewNop()
	}
	return &Controller{gw: gw, nav: nav, toasts: toasts, badges: badges, log: log}
}

// ApplyFilters navigates to the product list with only the non-empty filter
// fields present as query parameters.
func (c *Controller) ApplyFilters(f Filters) {
	target := listPath
	if enc := f.Query().Encode(); enc != "" {
		target += "?" + enc
	}
	c.nav.Navigate(target)
}

// ClearFilters navigates back to the bare product list.
func (c *Controller) ClearFilters() {
	c.nav.Navigate(listPath)
}

// SearchProducts navigates to the search results page. Blank or
// whitespace-only queries surface a warning toast and never navigate.
func (c *Controller) SearchProducts(query string) bool {
	query = strings.TrimSpace(query)
	if query == "" {
		c.toasts.Warning("Please enter a search term")
		return false
	}
	c.nav.Navigate(searchPath + "?" + url.Values{"q": {query}}.Encode())
	return true
}

// Suggest fetches autocomplete suggestions for the current input. Inputs
// shorter than two runes clear the list without a request. Responses for
// superseded inputs are discarded and their requests cancelled; fetch
// failures are logged and otherwise swallowed, the feature is non-critical.
func (c *Controller) Suggest(ctx context.Context, input string) []string {
	input = strings.TrimSpace(input)
	c.setQuery(input)
	if utf8.RuneCountInString(input) < minSuggestQuery {
		// Still begin a sequence so an older in-flight request is cancelled.
		_, _ = c.seq.Begin(ctx)
		c.setSuggestions(nil)
		return nil
	}

	reqCtx, seq := c.seq.Begin(ctx)
	var payload struct {
		Suggestions []string `json:"suggestions"`
	}
	err := c.gw.GetJSON(reqCtx, suggestPath, url.Values{"q": {input}}, &payload)
	if c.seq.Stale(seq) {
		return c.Suggestions()
	}
	if err != nil {
		c.log.Debug("suggestions fetch failed", zap.String("q", input), zap.Error(err))
		return c.Suggestions()
	}
	list := payload.Suggestions
	if len(list) > maxSuggestions {
		list = list[:maxSuggestions]
	}
	c.setSuggestions(list)
	return c.Suggestions()
}

// Choose copies the indexed suggestion into the search box and immediately
// triggers the search navigation.
func (c *Controller) Choose(i int) {
	c.mu.Lock()
	if i < 0 || i >= len(c.suggestions) {
		c.mu.Unlock()
		return
	}
	pick := c.suggestions[i]
	c.query = pick
	c.suggestions = nil
	c.mu.Unlock()
	c.SearchProducts(pick)
}

// ToggleWishlist flips a product's wishlist membership and patches the
// wishlist badge from the returned count slice.
func (c *Controller) ToggleWishlist(ctx context.Context, productID int) error {
	res, err := c.gw.PostJSON(ctx, itemPath(wishlistTogglePath, productID), nil)
	if err != nil {
		c.toasts.Danger("Something went wrong. Please try again.")
		c.log.Warn("wishlist toggle failed", zap.Int("product", productID), zap.Error(err))
		return err
	}
	if !res.OK {
		c.toasts.Danger(orDefault(res.Message, "Could not update wishlist"))
		return nil
	}
	c.toasts.Success(orDefault(res.Message, "Wishlist updated"))
	var count int
	if c.badges != nil && res.Field("wishlist_count", &count) {
		c.badges.Set(ui.BadgeWishlist, count)
	}
	return nil
}

// SubscribeNewsletter submits the newsletter form. A blank email is rejected
// before any request is made.
func (c *Controller) SubscribeNewsletter(ctx context.Context, email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		c.toasts.Warning("Please enter a valid email.")
		return &gateway.ValidationError{Field: "email", Reason: "empty"}
	}
	res, err := c.gw.PostForm(ctx, newsletterSubscribe, url.Values{"email": {email}})
	if err != nil {
		c.toasts.Danger("Something went wrong. Please try again.")
		return err
	}
	if !res.OK {
		c.toasts.Danger(orDefault(res.Message, "Subscription failed"))
		return nil
	}
	c.toasts.Success(orDefault(res.Message, "Subscribed to newsletter!"))
	return nil
}

// Query returns the current search box content.
func (c *Controller) Query() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.query
}

// Suggestions returns the currently rendered autocomplete rows.
func (c *Controller) Suggestions() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.suggestions...)
}

func (c *Controller) setQuery(q string) {
	c.mu.Lock()
	c.query = q
	c.mu.Unlock()
}

func (c *Controller) setSuggestions(list []string) {
	c.mu.Lock()
	c.suggestions = list
	c.mu.Unlock()
}
