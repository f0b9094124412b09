package affiliate

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"emeraldsecrets.org/storefront/internal/gateway"
	"emeraldsecrets.org/storefront/internal/ui"
)

func newTestController(t *testing.T, confirm ui.Confirmer, handler http.Handler) (*Controller, *ui.Toaster, *ui.MemoryClipboard) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	gw, err := gateway.NewClient(srv.URL, gateway.WithTokenSource(gateway.StaticToken("t")))
	require.NoError(t, err)
	toasts := ui.NewToaster(time.Minute)
	t.Cleanup(toasts.Close)
	clip := &ui.MemoryClipboard{}
	c := NewController(gw, toasts, confirm, clip, zaptest.NewLogger(t))
	return c, toasts, clip
}

func TestCopyReferralLink(t *testing.T) {
	c, _, clip := newTestController(t, ui.ConfirmAll, http.NotFoundHandler())

	require.NoError(t, c.CopyReferralLink("https://shop.example/affiliate/track/AB12/"))
	assert.Equal(t, "https://shop.example/affiliate/track/AB12/", clip.Last())
	assert.Equal(t, "Copied!", c.LinkCopied.Label())
	assert.Empty(t, c.BannerCopied.Label())
}

func TestRequestWithdrawalValidatesAmount(t *testing.T) {
	var hits atomic.Int32
	c, toasts, _ := newTestController(t, ui.ConfirmAll, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
	}))

	for _, amount := range []string{"0", "-10"} {
		err := c.RequestWithdrawal(context.Background(), decimal.RequireFromString(amount))
		var verr *gateway.ValidationError
		require.ErrorAs(t, err, &verr, "amount %s", amount)
	}
	assert.Zero(t, hits.Load())
	assert.Len(t, toasts.Active(), 2)
}

func TestRequestWithdrawalDeclinedSendsNothing(t *testing.T) {
	var hits atomic.Int32
	c, _, _ := newTestController(t, ui.DenyAll, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
	}))

	require.NoError(t, c.RequestWithdrawal(context.Background(), decimal.NewFromInt(500)))
	assert.Zero(t, hits.Load())
}

func TestRequestWithdrawalRejectedSurfacesServerMessage(t *testing.T) {
	c, toasts, _ := newTestController(t, ui.ConfirmAll, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":"Insufficient balance"}`))
	}))

	require.NoError(t, c.RequestWithdrawal(context.Background(), decimal.NewFromInt(9999)))

	active := toasts.Active()
	require.Len(t, active, 1)
	assert.Equal(t, ui.LevelDanger, active[0].Level)
	assert.Equal(t, "Insufficient balance", active[0].Message)
}

func TestRequestWithdrawalSuccessPatchesBalance(t *testing.T) {
	c, toasts, _ := newTestController(t, ui.ConfirmAll, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "500", r.FormValue("amount"))
		_, _ = w.Write([]byte(`{"success":true,"message":"Withdrawal request of ₹500.00 submitted!","balance":"2000"}`))
	}))
	c.SetBalance(decimal.NewFromInt(2500))

	require.NoError(t, c.RequestWithdrawal(context.Background(), decimal.NewFromInt(500)))
	assert.True(t, c.Balance().Equal(decimal.NewFromInt(2000)))

	active := toasts.Active()
	require.Len(t, active, 1)
	assert.Equal(t, ui.LevelSuccess, active[0].Level)
}

func TestUpdateBankDetailsMultipart(t *testing.T) {
	c, toasts, _ := newTestController(t, ui.ConfirmAll, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "State Bank", r.FormValue("bank_name"))
		assert.Equal(t, "A Kumar", r.FormValue("account_holder"))
		assert.Equal(t, "12345678", r.FormValue("account_number"))
		assert.Equal(t, "SBIN0001", r.FormValue("ifsc_code"))
		_, _ = w.Write([]byte(`{"success":true,"message":"Settings updated successfully!"}`))
	}))

	err := c.UpdateBankDetails(context.Background(), BankDetails{
		BankName:      "State Bank",
		AccountHolder: "A Kumar",
		AccountNumber: "12345678",
		IFSC:          "SBIN0001",
	})
	require.NoError(t, err)

	active := toasts.Active()
	require.Len(t, active, 1)
	assert.Equal(t, ui.LevelSuccess, active[0].Level)
}
