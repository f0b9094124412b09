// Package stub is an in-memory stand-in for the storefront backend. It
// implements every endpoint the client consumes, issues the csrftoken
// cookie and enforces the double-submit header on mutating requests. It
// backs local development and the integration tests.
package stub

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"emeraldsecrets.org/storefront/internal/gateway"
)

// Product is a sellable item.
type Product struct {
	ID    int
	Name  string
	Price decimal.Decimal
	Stock int
}

// Coupon mirrors the backend coupon table.
type Coupon struct {
	Code        string
	Percent     bool
	Value       decimal.Decimal
	MinPurchase decimal.Decimal
	Valid       bool
}

// Affiliate is the single affiliate account the stub serves.
type Affiliate struct {
	Balance       decimal.Decimal
	MinWithdrawal decimal.Decimal
	BankName      string
	AccountHolder string
	AccountNumber string
	IFSC          string
}

// Server holds the stub state.
type Server struct {
	log   *zap.Logger
	token string

	mu         sync.Mutex
	products   map[int]Product
	cart       map[int]int // product id -> quantity
	wishlist   map[int]bool
	coupons    map[string]Coupon
	applied    string
	affiliate  Affiliate
	newsletter map[string]bool
}

// New builds a stub server seeded with a small catalog, two coupons and an
// affiliate account.
func New(log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	s := &Server{
		log:        log,
		token:      newToken(),
		cart:       map[int]int{},
		wishlist:   map[int]bool{},
		newsletter: map[string]bool{},
		products: map[int]Product{
			1: {ID: 1, Name: "Emerald Silk Scarf", Price: decimal.NewFromInt(1499), Stock: 12},
			2: {ID: 2, Name: "Emerald Pendant", Price: decimal.NewFromInt(4999), Stock: 3},
			3: {ID: 3, Name: "Sandalwood Soap", Price: decimal.NewFromInt(249), Stock: 40},
			4: {ID: 4, Name: "Saffron Body Oil", Price: decimal.NewFromInt(899), Stock: 0},
		},
		coupons: map[string]Coupon{
			"SAVE10":  {Code: "SAVE10", Percent: true, Value: decimal.NewFromInt(10), MinPurchase: decimal.NewFromInt(500), Valid: true},
			"FLAT200": {Code: "FLAT200", Percent: false, Value: decimal.NewFromInt(200), MinPurchase: decimal.NewFromInt(1000), Valid: true},
			"EXPIRED": {Code: "EXPIRED", Percent: true, Value: decimal.NewFromInt(20), Valid: false},
		},
		affiliate: Affiliate{
			Balance:       decimal.NewFromInt(2500),
			MinWithdrawal: decimal.NewFromInt(500),
		},
	}
	return s
}

// Token returns the CSRF token the server expects, for tests that bypass
// the cookie jar.
func (s *Server) Token() string { return s.token }

// Router assembles the HTTP surface.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(s.requestLogger)
	r.Use(chimw.Recoverer)
	r.Use(s.csrf)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("ok"))
	})

	r.Route("/orders", func(r chi.Router) {
		r.Post("/add-to-cart/{id}/", s.addToCart)
		r.Post("/update-cart/{id}/", s.updateCart)
		r.Post("/remove-from-cart/{id}/", s.removeFromCart)
		r.Post("/apply-coupon/", s.applyCoupon)
		r.Post("/clear-cart/", s.clearCart)
		r.Get("/cart-count/", s.cartCount)
	})

	r.Route("/products", func(r chi.Router) {
		r.Get("/", s.productList)
		r.Get("/search/", s.search)
		r.Get("/search-suggestions/", s.suggestions)
		r.Post("/wishlist/toggle/{id}/", s.wishlistToggle)
		r.Post("/newsletter/subscribe/", s.newsletterSubscribe)
		r.Get("/wishlist-count/", s.wishlistCount)
	})

	r.Route("/affiliate", func(r chi.Router) {
		r.Post("/request-withdrawal/", s.requestWithdrawal)
		r.Post("/update-bank-details/", s.updateBankDetails)
	})

	return r
}

// csrf sets the csrftoken cookie on every response and verifies the
// double-submit header on unsafe methods.
func (s *Server) csrf(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		needSet := true
		if c, err := r.Cookie(gateway.CSRFCookieName); err == nil && c.Value == s.token {
			needSet = false
		}
		if needSet {
			http.SetCookie(w, &http.Cookie{
				Name:     gateway.CSRFCookieName,
				Value:    s.token,
				Path:     "/",
				SameSite: http.SameSiteLaxMode,
				Expires:  time.Now().Add(24 * time.Hour),
			})
		}
		if !isSafeMethod(r.Method) {
			if hdr := r.Header.Get("X-CSRFToken"); hdr == "" || hdr != s.token {
				writeReject(w, http.StatusForbidden, "invalid CSRF token")
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(sw, r)
		s.log.Info("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", sw.status),
			zap.Duration("took", time.Since(start)),
			zap.String("request_id", chimw.GetReqID(r.Context())))
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func isSafeMethod(m string) bool {
	switch m {
	case http.MethodGet, http.MethodHead, http.MethodOptions, http.MethodTrace:
		return true
	default:
		return false
	}
}

func newToken() string {
	b := make([]byte, 16)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeEnvelope emits the shared {success, message, ...} contract.
func writeEnvelope(w http.ResponseWriter, status int, success bool, message string, extra map[string]any) {
	body := map[string]any{"success": success}
	if message != "" {
		body["message"] = message
	}
	for k, v := range extra {
		body[k] = v
	}
	writeJSON(w, status, body)
}

// writeReject emits the bare {error} shape some legacy endpoints use.
func writeReject(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
