package stub

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"emeraldsecrets.org/storefront/internal/format"
)

type quantityPayload struct {
	Quantity int `json:"quantity"`
}

func (s *Server) addToCart(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var body quantityPayload
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		body.Quantity = 1
	}
	if body.Quantity < 1 {
		writeEnvelope(w, http.StatusBadRequest, false, "Invalid quantity.", nil)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	p, exists := s.products[id]
	if !exists {
		writeEnvelope(w, http.StatusNotFound, false, "Product not found", nil)
		return
	}
	if s.cart[id]+body.Quantity > p.Stock {
		writeEnvelope(w, http.StatusBadRequest, false,
			fmt.Sprintf("Only %d items available.", p.Stock), nil)
		return
	}
	s.cart[id] += body.Quantity
	writeEnvelope(w, http.StatusOK, true, "Product added to cart", s.cartSlicesLocked(0))
}

func (s *Server) updateCart(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var body quantityPayload
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Quantity < 1 {
		writeEnvelope(w, http.StatusBadRequest, false, "Invalid quantity.", nil)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, inCart := s.cart[id]; !inCart {
		writeEnvelope(w, http.StatusNotFound, false, "Item not in cart", nil)
		return
	}
	p := s.products[id]
	if body.Quantity > p.Stock {
		writeEnvelope(w, http.StatusBadRequest, false,
			fmt.Sprintf("Only %d items available.", p.Stock), nil)
		return
	}
	s.cart[id] = body.Quantity
	writeEnvelope(w, http.StatusOK, true, "", s.cartSlicesLocked(id))
}

func (s *Server) removeFromCart(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, inCart := s.cart[id]; !inCart {
		writeEnvelope(w, http.StatusNotFound, false, "Item not in cart", nil)
		return
	}
	name := s.products[id].Name
	delete(s.cart, id)
	writeEnvelope(w, http.StatusOK, true, name+" removed from cart.", s.cartSlicesLocked(0))
}

func (s *Server) applyCoupon(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Code string `json:"code"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeEnvelope(w, http.StatusBadRequest, false, "Invalid coupon code.", nil)
		return
	}
	code := strings.ToUpper(strings.TrimSpace(body.Code))

	s.mu.Lock()
	defer s.mu.Unlock()
	coupon, exists := s.coupons[code]
	if !exists {
		writeEnvelope(w, http.StatusBadRequest, false, "Invalid coupon code.", nil)
		return
	}
	if !coupon.Valid {
		writeEnvelope(w, http.StatusBadRequest, false, "This coupon is no longer valid.", nil)
		return
	}
	subtotal, _, _, _ := s.totalsLocked()
	if subtotal.LessThan(coupon.MinPurchase) {
		writeEnvelope(w, http.StatusBadRequest, false,
			"Minimum purchase of "+format.Currency(coupon.MinPurchase)+" required.", nil)
		return
	}
	s.applied = code
	_, discount, _, _ := s.totalsLocked()
	writeEnvelope(w, http.StatusOK, true,
		"Coupon applied! You save "+format.Currency(discount), s.cartSlicesLocked(0))
}

func (s *Server) clearCart(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cart = map[int]int{}
	s.applied = ""
	writeEnvelope(w, http.StatusOK, true, "Cart cleared.", s.cartSlicesLocked(0))
}

func (s *Server) cartCount(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	_, _, _, count := s.totalsLocked()
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]int{"count": count})
}

// totalsLocked computes subtotal, coupon discount, total and item count.
// Callers hold s.mu.
func (s *Server) totalsLocked() (subtotal, discount, total decimal.Decimal, count int) {
	for id, qty := range s.cart {
		p := s.products[id]
		subtotal = subtotal.Add(p.Price.Mul(decimal.NewFromInt(int64(qty))))
		count += qty
	}
	if coupon, ok := s.coupons[s.applied]; ok && coupon.Valid {
		if coupon.Percent {
			discount = subtotal.Mul(coupon.Value).Div(decimal.NewFromInt(100))
		} else {
			discount = coupon.Value
		}
		if discount.GreaterThan(subtotal) {
			discount = subtotal
		}
	}
	total = subtotal.Sub(discount)
	return subtotal, discount, total, count
}

// cartSlicesLocked builds the state slices attached to cart envelopes.
// itemID, when non-zero, adds the per-line quantity and total.
func (s *Server) cartSlicesLocked(itemID int) map[string]any {
	subtotal, discount, total, count := s.totalsLocked()
	slices := map[string]any{
		"cart_count":    count,
		"cart_subtotal": subtotal,
		"discount":      discount,
		"cart_total":    total,
	}
	if itemID != 0 {
		qty := s.cart[itemID]
		p := s.products[itemID]
		slices["quantity"] = qty
		slices["line_total"] = p.Price.Mul(decimal.NewFromInt(int64(qty)))
	}
	return slices
}

func pathID(w http.ResponseWriter, r *http.Request) (int, bool) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil || id <= 0 {
		writeReject(w, http.StatusBadRequest, "invalid id")
		return 0, false
	}
	return id, true
}
