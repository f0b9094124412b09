// Package affiliate drives the affiliate dashboard actions: referral link
// sharing, withdrawal requests and payout account settings.
package affiliate

import (
	"context"
	"net/url"
	"strings"
	"sync"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"emeraldsecrets.org/storefront/internal/format"
	"emeraldsecrets.org/storefront/internal/gateway"
	"emeraldsecrets.org/storefront/internal/ui"
)

const (
	withdrawPath = "/affiliate/request-withdrawal/"
	bankPath     = "/affiliate/update-bank-details/"
)

const genericFailure = "Something went wrong. Please try again."

// BankDetails is the payout account form.
type BankDetails struct {
	BankName      string
	AccountHolder string
	AccountNumber string
	IFSC          string
}

// Controller performs the affiliate dashboard operations.
type Controller struct {
	gw      *gateway.Client
	toasts  *ui.Toaster
	confirm ui.Confirmer
	clip    ui.Clipboard
	log     *zap.Logger

	// Transient "Copied!" labels for the two copy affordances.
	LinkCopied   *ui.CopyStatus
	BannerCopied *ui.CopyStatus

	mu      sync.Mutex
	balance decimal.Decimal
}

// NewController wires the affiliate controller.
func NewController(gw *gateway.Client, toasts *ui.Toaster, confirm ui.Confirmer, clip ui.Clipboard, log *zap.Logger) *Controller {
	if log == nil {
		log = zap.NewNop()
	}
	if confirm == nil {
		confirm = ui.DenyAll
	}
	return &Controller{
		gw:           gw,
		toasts:       toasts,
		confirm:      confirm,
		clip:         clip,
		log:          log,
		LinkCopied:   ui.NewCopyStatus(),
		BannerCopied: ui.NewCopyStatus(),
	}
}

// CopyReferralLink puts the referral link on the clipboard and flashes the
// "Copied!" label.
func (c *Controller) CopyReferralLink(link string) error {
	if err := c.clip.Copy(link); err != nil {
		c.toasts.Danger("Could not copy link")
		c.log.Warn("copy referral link failed", zap.Error(err))
		return err
	}
	c.LinkCopied.Mark()
	return nil
}

// CopyBannerCode puts the banner embed snippet on the clipboard.
func (c *Controller) CopyBannerCode(code string) error {
	if err := c.clip.Copy(code); err != nil {
		c.toasts.Danger("Could not copy banner code")
		c.log.Warn("copy banner code failed", zap.Error(err))
		return err
	}
	c.BannerCopied.Mark()
	return nil
}

// RequestWithdrawal submits a payout request. The amount must be positive
// and the user must confirm; the server enforces the program minimum and the
// available balance and its message is surfaced verbatim on rejection.
func (c *Controller) RequestWithdrawal(ctx context.Context, amount decimal.Decimal) error {
	if amount.Sign() <= 0 {
		c.toasts.Warning("Please enter a valid amount.")
		return &gateway.ValidationError{Field: "amount", Reason: "must be positive"}
	}
	if !c.confirm("Request withdrawal of " + format.Currency(amount) + "?") {
		return nil
	}
	res, err := c.gw.PostForm(ctx, withdrawPath, url.Values{"amount": {amount.String()}})
	if err != nil {
		c.toasts.Danger(genericFailure)
		c.log.Warn("withdrawal request failed", zap.String("amount", amount.String()), zap.Error(err))
		return err
	}
	if !res.OK {
		c.toasts.Danger(orDefault(res.Message, "Withdrawal request failed"))
		return nil
	}
	c.toasts.Success(orDefault(res.Message, "Withdrawal request of "+format.Currency(amount)+" submitted!"))
	var balance decimal.Decimal
	if res.Field("balance", &balance) {
		c.mu.Lock()
		c.balance = balance
		c.mu.Unlock()
	}
	return nil
}

// UpdateBankDetails submits the payout account form as multipart form data.
// Success only shows a toast; nothing else changes client-side.
func (c *Controller) UpdateBankDetails(ctx context.Context, d BankDetails) error {
	fields := map[string]string{
		"bank_name":      strings.TrimSpace(d.BankName),
		"account_holder": strings.TrimSpace(d.AccountHolder),
		"account_number": strings.TrimSpace(d.AccountNumber),
		"ifsc_code":      strings.TrimSpace(d.IFSC),
	}
	res, err := c.gw.PostMultipart(ctx, bankPath, fields)
	if err != nil {
		c.toasts.Danger(genericFailure)
		c.log.Warn("bank details update failed", zap.Error(err))
		return err
	}
	if !res.OK {
		c.toasts.Danger(orDefault(res.Message, "Could not update bank details"))
		return nil
	}
	c.toasts.Success(orDefault(res.Message, "Settings updated successfully!"))
	return nil
}

// SetBalance seeds the balance rendered on page load.
func (c *Controller) SetBalance(b decimal.Decimal) {
	c.mu.Lock()
	c.balance = b
	c.mu.Unlock()
}

// Balance returns the last known available balance.
func (c *Controller) Balance() decimal.Decimal {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.balance
}

func orDefault(msg, fallback string) string {
	if strings.TrimSpace(msg) == "" {
		return fallback
	}
	return msg
}
