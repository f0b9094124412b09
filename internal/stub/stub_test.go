package stub_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"emeraldsecrets.org/storefront/internal/affiliate"
	"emeraldsecrets.org/storefront/internal/cart"
	"emeraldsecrets.org/storefront/internal/catalog"
	"emeraldsecrets.org/storefront/internal/gateway"
	"emeraldsecrets.org/storefront/internal/stub"
	"emeraldsecrets.org/storefront/internal/ui"
)

type harness struct {
	srv    *stub.Server
	gw     *gateway.Client
	toasts *ui.Toaster
	badges *ui.Badges
	cart   *cart.Controller
	cat    *catalog.Controller
	aff    *affiliate.Controller
	loc    *ui.Location
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	log := zaptest.NewLogger(t)
	s := stub.New(log)
	ts := httptest.NewServer(s.Router())
	t.Cleanup(ts.Close)

	gw, err := gateway.NewClient(ts.URL, gateway.WithLogger(log))
	require.NoError(t, err)

	toasts := ui.NewToaster(time.Minute)
	t.Cleanup(toasts.Close)
	badges := ui.NewBadges(gw, map[string]string{
		ui.BadgeCart:     "/orders/cart-count/",
		ui.BadgeWishlist: "/products/wishlist-count/",
	}, log)
	loc := ui.NewLocation("/products/")

	h := &harness{
		srv:    s,
		gw:     gw,
		toasts: toasts,
		badges: badges,
		loc:    loc,
		cart:   cart.NewController(gw, toasts, badges, ui.ConfirmAll, log),
		cat:    catalog.NewController(gw, loc, toasts, badges, log),
		aff:    affiliate.NewController(gw, toasts, ui.ConfirmAll, &ui.MemoryClipboard{}, log),
	}
	// The first page-load fetch seeds the csrftoken cookie in the jar, the
	// way a browser session would.
	h.badges.Refresh(context.Background())
	return h
}

func (h *harness) lastToast(t *testing.T) ui.Toast {
	t.Helper()
	active := h.toasts.Active()
	require.NotEmpty(t, active)
	return active[len(active)-1]
}

func TestCartFlowEndToEnd(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	require.NoError(t, h.cart.Add(ctx, 1, 2))
	assert.Equal(t, ui.LevelSuccess, h.lastToast(t).Level)
	assert.Equal(t, 2, h.badges.Count(ui.BadgeCart))

	// subtotal 2998.00 clears the SAVE10 minimum
	require.NoError(t, h.cart.ApplyCoupon(ctx, "SAVE10"))
	v := h.cart.View()
	assert.Equal(t, "SAVE10", v.Coupon)
	assert.True(t, v.Discount.Equal(decimal.RequireFromString("299.8")), "got %s", v.Discount)
	assert.True(t, v.Total.Equal(decimal.RequireFromString("2698.2")), "got %s", v.Total)
	assert.Contains(t, h.lastToast(t).Message, "You save")
}

func TestCouponRejections(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	require.NoError(t, h.cart.Add(ctx, 1, 1))

	require.NoError(t, h.cart.ApplyCoupon(ctx, "EXPIRED"))
	toast := h.lastToast(t)
	assert.Equal(t, ui.LevelDanger, toast.Level)
	assert.Equal(t, "This coupon is no longer valid.", toast.Message)

	require.NoError(t, h.cart.ApplyCoupon(ctx, "NOPE"))
	assert.Equal(t, "Invalid coupon code.", h.lastToast(t).Message)

	// FLAT200 needs a 1000 minimum; a single 1499 scarf passes, one soap
	// would not
	require.NoError(t, h.cart.ApplyCoupon(ctx, "FLAT200"))
	assert.Equal(t, ui.LevelSuccess, h.lastToast(t).Level)
}

func TestStockLimitSurfaced(t *testing.T) {
	h := newHarness(t)

	require.NoError(t, h.cart.Add(context.Background(), 4, 1)) // out of stock
	toast := h.lastToast(t)
	assert.Equal(t, ui.LevelDanger, toast.Level)
	assert.Equal(t, "Only 0 items available.", toast.Message)
	assert.Zero(t, h.badges.Count(ui.BadgeCart))
}

func TestUpdateAndRemoveReconcile(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	require.NoError(t, h.cart.Add(ctx, 3, 1))
	h.cart.SetView(cart.View{Lines: []cart.Line{{ItemID: 3, Name: "Sandalwood Soap", Quantity: 1}}})

	require.NoError(t, h.cart.UpdateQuantity(ctx, 3, 4))
	v := h.cart.View()
	require.Len(t, v.Lines, 1)
	assert.Equal(t, 4, v.Lines[0].Quantity)
	assert.True(t, v.Lines[0].LineTotal.Equal(decimal.RequireFromString("996")))
	assert.Equal(t, 4, h.badges.Count(ui.BadgeCart))

	require.NoError(t, h.cart.Remove(ctx, 3))
	assert.Empty(t, h.cart.View().Lines)
	assert.Zero(t, h.badges.Count(ui.BadgeCart))
}

func TestSuggestionsAndWishlist(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	got := h.cat.Suggest(ctx, "emerald")
	assert.Equal(t, []string{"Emerald Pendant", "Emerald Silk Scarf"}, got)

	require.NoError(t, h.cat.ToggleWishlist(ctx, 2))
	assert.Equal(t, 1, h.badges.Count(ui.BadgeWishlist))
	require.NoError(t, h.cat.ToggleWishlist(ctx, 2))
	assert.Zero(t, h.badges.Count(ui.BadgeWishlist))
}

func TestAffiliateFlow(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	require.NoError(t, h.aff.RequestWithdrawal(ctx, decimal.NewFromInt(100)))
	toast := h.lastToast(t)
	assert.Equal(t, ui.LevelDanger, toast.Level)
	assert.Contains(t, toast.Message, "Minimum withdrawal amount is")

	require.NoError(t, h.aff.RequestWithdrawal(ctx, decimal.NewFromInt(600)))
	assert.True(t, h.aff.Balance().Equal(decimal.NewFromInt(1900)))

	require.NoError(t, h.aff.RequestWithdrawal(ctx, decimal.NewFromInt(5000)))
	assert.Equal(t, "Insufficient balance", h.lastToast(t).Message)

	require.NoError(t, h.aff.UpdateBankDetails(ctx, affiliate.BankDetails{
		BankName:      "State Bank",
		AccountHolder: "A Kumar",
		AccountNumber: "12345678",
		IFSC:          "SBIN0001",
	}))
	state := h.srv.AffiliateState()
	assert.Equal(t, "State Bank", state.BankName)
	assert.Equal(t, "SBIN0001", state.IFSC)
}

func TestCSRFEnforced(t *testing.T) {
	log := zaptest.NewLogger(t)
	s := stub.New(log)
	ts := httptest.NewServer(s.Router())
	defer ts.Close()

	// a raw POST without the header is forbidden
	resp, err := http.Post(ts.URL+"/orders/apply-coupon/", "application/json", strings.NewReader(`{"code":"SAVE10"}`))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	// a gateway client that never fetched anything has no token yet; the
	// rejection surfaces as a failed result with the server's message
	gw, err := gateway.NewClient(ts.URL, gateway.WithLogger(log))
	require.NoError(t, err)
	res, err := gw.PostJSON(context.Background(), "/orders/apply-coupon/", map[string]string{"code": "SAVE10"})
	require.NoError(t, err)
	assert.False(t, res.OK)
	assert.Equal(t, "invalid CSRF token", res.Message)
}

func TestProductListFilters(t *testing.T) {
	log := zaptest.NewLogger(t)
	s := stub.New(log)
	ts := httptest.NewServer(s.Router())
	defer ts.Close()
	gw, err := gateway.NewClient(ts.URL)
	require.NoError(t, err)

	var payload struct {
		Products []struct {
			Name  string `json:"name"`
			Price string `json:"price"`
		} `json:"products"`
		Count int `json:"results_count"`
	}
	q := catalog.Filters{MinPrice: "500", MaxPrice: "2000", Sort: "price"}.Query()
	require.NoError(t, gw.GetJSON(context.Background(), "/products/", q, &payload))
	require.Equal(t, 2, payload.Count)
	assert.Equal(t, "Saffron Body Oil", payload.Products[0].Name)
	assert.Equal(t, "Emerald Silk Scarf", payload.Products[1].Name)
}
