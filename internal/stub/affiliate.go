package stub

import (
	"net/http"
	"strings"

	"github.com/shopspring/decimal"

	"emeraldsecrets.org/storefront/internal/format"
)

const maxBankForm = 1 << 20

func (s *Server) requestWithdrawal(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeReject(w, http.StatusBadRequest, "invalid form")
		return
	}
	amount, err := decimal.NewFromString(strings.TrimSpace(r.FormValue("amount")))
	if err != nil || amount.Sign() <= 0 {
		writeReject(w, http.StatusBadRequest, "Invalid amount")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if amount.LessThan(s.affiliate.MinWithdrawal) {
		writeReject(w, http.StatusBadRequest,
			"Minimum withdrawal amount is "+format.Currency(s.affiliate.MinWithdrawal))
		return
	}
	if amount.GreaterThan(s.affiliate.Balance) {
		writeReject(w, http.StatusBadRequest, "Insufficient balance")
		return
	}
	s.affiliate.Balance = s.affiliate.Balance.Sub(amount)
	writeEnvelope(w, http.StatusOK, true,
		"Withdrawal request of "+format.Currency(amount)+" submitted!",
		map[string]any{"balance": s.affiliate.Balance})
}

func (s *Server) updateBankDetails(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxBankForm); err != nil {
		writeEnvelope(w, http.StatusBadRequest, false, "Invalid form data", nil)
		return
	}
	s.mu.Lock()
	s.affiliate.BankName = strings.TrimSpace(r.FormValue("bank_name"))
	s.affiliate.AccountHolder = strings.TrimSpace(r.FormValue("account_holder"))
	s.affiliate.AccountNumber = strings.TrimSpace(r.FormValue("account_number"))
	s.affiliate.IFSC = strings.TrimSpace(r.FormValue("ifsc_code"))
	s.mu.Unlock()
	writeEnvelope(w, http.StatusOK, true, "Settings updated successfully!", nil)
}

// AffiliateState returns a copy of the affiliate account, for tests.
func (s *Server) AffiliateState() Affiliate {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.affiliate
}
