// Package cart mutates the shopping cart through the request gateway and
// reconciles the local cart view from the state slices each response returns.
package cart

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"emeraldsecrets.org/storefront/internal/gateway"
	"emeraldsecrets.org/storefront/internal/ui"
)

const (
	addPath    = "/orders/add-to-cart/"
	updatePath = "/orders/update-cart/"
	removePath = "/orders/remove-from-cart/"
	couponPath = "/orders/apply-coupon/"
	clearPath  = "/orders/clear-cart/"
)

const genericFailure = "Something went wrong. Please try again."

// Line is one cart row.
type Line struct {
	ItemID    int
	Name      string
	Quantity  int
	UnitPrice decimal.Decimal
	LineTotal decimal.Decimal
}

// View is the client-side cart state. Mutations patch it in place from the
// response state slices; the page is never reloaded.
type View struct {
	Lines    []Line
	Subtotal decimal.Decimal
	Discount decimal.Decimal
	Total    decimal.Decimal
	Coupon   string
}

// Controller performs the cart operations.
type Controller struct {
	gw      *gateway.Client
	toasts  *ui.Toaster
	badges  *ui.Badges
	confirm ui.Confirmer
	log     *zap.Logger

	mu   sync.Mutex
	view View
	seqs map[int]*gateway.Sequencer
}

// NewController wires the cart controller. confirm gates destructive
// operations; ui.DenyAll makes them inert.
func NewController(gw *gateway.Client, toasts *ui.Toaster, badges *ui.Badges, confirm ui.Confirmer, log *zap.Logger) *Controller {
	if log == nil {
		log = zap.NewNop()
	}
	if confirm == nil {
		confirm = ui.DenyAll
	}
	return &Controller{
		gw:      gw,
		toasts:  toasts,
		badges:  badges,
		confirm: confirm,
		log:     log,
		seqs:    map[int]*gateway.Sequencer{},
	}
}

// SetView seeds the cart state rendered by the server on page load.
func (c *Controller) SetView(v View) {
	c.mu.Lock()
	c.view = v
	c.mu.Unlock()
}

// View returns a copy of the current cart state.
func (c *Controller) View() View {
	c.mu.Lock()
	defer c.mu.Unlock()
	v := c.view
	v.Lines = append([]Line(nil), c.view.Lines...)
	return v
}

// Add puts a product in the cart. Quantities below 1 are rejected before any
// request is sent. Success updates the cart badge in place.
func (c *Controller) Add(ctx context.Context, productID, quantity int) error {
	if quantity < 1 {
		c.toasts.Warning("Invalid quantity.")
		return &gateway.ValidationError{Field: "quantity", Reason: "must be at least 1"}
	}
	res, err := c.gw.PostJSON(ctx, itemPath(addPath, productID), map[string]int{"quantity": quantity})
	if err != nil {
		c.toasts.Danger(genericFailure)
		c.log.Warn("add to cart failed", zap.Int("product", productID), zap.Error(err))
		return err
	}
	if !res.OK {
		c.toasts.Danger(orDefault(res.Message, "Could not add to cart"))
		return nil
	}
	c.toasts.Success(orDefault(res.Message, "Product added to cart"))
	c.apply(res, 0)
	return nil
}

// UpdateQuantity changes a line's quantity. Values below 1 never reach the
// network. Rapid edits of the same line are sequenced: the response of a
// superseded edit is discarded and its request cancelled.
func (c *Controller) UpdateQuantity(ctx context.Context, itemID, quantity int) error {
	if quantity < 1 {
		c.toasts.Warning("Quantity must be at least 1.")
		return &gateway.ValidationError{Field: "quantity", Reason: "must be at least 1"}
	}
	seq := c.sequencer(itemID)
	reqCtx, n := seq.Begin(ctx)
	res, err := c.gw.PostJSON(reqCtx, itemPath(updatePath, itemID), map[string]int{"quantity": quantity})
	if seq.Stale(n) {
		return nil
	}
	if err != nil {
		c.toasts.Danger(genericFailure)
		c.log.Warn("update quantity failed", zap.Int("item", itemID), zap.Error(err))
		return err
	}
	if !res.OK {
		c.toasts.Danger(orDefault(res.Message, "Could not update quantity"))
		return nil
	}
	c.apply(res, itemID)
	return nil
}

// Remove deletes a line after explicit confirmation. A declined confirmation
// sends nothing.
func (c *Controller) Remove(ctx context.Context, itemID int) error {
	if !c.confirm("Remove this item from your cart?") {
		return nil
	}
	res, err := c.gw.PostJSON(ctx, itemPath(removePath, itemID), nil)
	if err != nil {
		c.toasts.Danger(genericFailure)
		c.log.Warn("remove from cart failed", zap.Int("item", itemID), zap.Error(err))
		return err
	}
	if !res.OK {
		c.toasts.Danger(orDefault(res.Message, "Could not remove item"))
		return nil
	}
	c.dropLine(itemID)
	c.apply(res, 0)
	c.toasts.Success(orDefault(res.Message, "Item removed from cart."))
	return nil
}

// ApplyCoupon submits a coupon code. Failure shows the server's message and
// leaves the cart state untouched.
func (c *Controller) ApplyCoupon(ctx context.Context, code string) error {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		c.toasts.Warning("Please enter a coupon code.")
		return &gateway.ValidationError{Field: "code", Reason: "empty"}
	}
	res, err := c.gw.PostJSON(ctx, couponPath, map[string]string{"code": code})
	if err != nil {
		c.toasts.Danger(genericFailure)
		c.log.Warn("apply coupon failed", zap.String("code", code), zap.Error(err))
		return err
	}
	if !res.OK {
		c.toasts.Danger(orDefault(res.Message, "Invalid coupon code."))
		return nil
	}
	c.mu.Lock()
	c.view.Coupon = code
	c.mu.Unlock()
	c.apply(res, 0)
	c.toasts.Success(orDefault(res.Message, "Coupon applied!"))
	return nil
}

// Clear empties the cart after confirmation.
func (c *Controller) Clear(ctx context.Context) error {
	if !c.confirm("Remove all items from your cart?") {
		return nil
	}
	res, err := c.gw.PostJSON(ctx, clearPath, nil)
	if err != nil {
		c.toasts.Danger(genericFailure)
		c.log.Warn("clear cart failed", zap.Error(err))
		return err
	}
	if !res.OK {
		c.toasts.Danger(orDefault(res.Message, "Could not clear cart"))
		return nil
	}
	c.mu.Lock()
	c.view = View{}
	c.mu.Unlock()
	if c.badges != nil {
		c.badges.Set(ui.BadgeCart, 0)
	}
	c.toasts.Success(orDefault(res.Message, "Cart cleared."))
	return nil
}

// apply patches the view from whatever state slices the envelope carried.
// itemID selects the line for per-line slices; zero means cart-level only.
func (c *Controller) apply(res gateway.Result, itemID int) {
	c.mu.Lock()
	if itemID != 0 {
		for i := range c.view.Lines {
			if c.view.Lines[i].ItemID != itemID {
				continue
			}
			res.Field("quantity", &c.view.Lines[i].Quantity)
			res.Field("line_total", &c.view.Lines[i].LineTotal)
			break
		}
	}
	res.Field("cart_subtotal", &c.view.Subtotal)
	res.Field("discount", &c.view.Discount)
	res.Field("cart_total", &c.view.Total)
	c.mu.Unlock()

	var count int
	if c.badges != nil && res.Field("cart_count", &count) {
		c.badges.Set(ui.BadgeCart, count)
	}
}

func (c *Controller) dropLine(itemID int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, line := range c.view.Lines {
		if line.ItemID == itemID {
			c.view.Lines = append(c.view.Lines[:i], c.view.Lines[i+1:]...)
			return
		}
	}
}

func (c *Controller) sequencer(itemID int) *gateway.Sequencer {
	c.mu.Lock()
	defer c.mu.Unlock()
	s, ok := c.seqs[itemID]
	if !ok {
		s = &gateway.Sequencer{}
		c.seqs[itemID] = s
	}
	return s
}

func itemPath(base string, id int) string {
	return fmt.Sprintf("%s%d/", base, id)
}

func orDefault(msg, fallback string) string {
	if strings.TrimSpace(msg) == "" {
		return fallback
	}
	return msg
}
