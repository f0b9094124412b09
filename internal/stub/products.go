package stub

import (
	"net/http"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

var validSorts = map[string]bool{
	"-created_at": true,
	"created_at":  true,
	"price":       true,
	"-price":      true,
	"name":        true,
}

type productJSON struct {
	ID    int    `json:"id"`
	Name  string `json:"name"`
	Price string `json:"price"`
	Stock int    `json:"stock"`
}

// productList applies the filter query parameters the client encodes:
// min_price, max_price and a whitelisted sort. Unknown sorts are ignored.
func (s *Server) productList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	minPrice, hasMin := parsePrice(q.Get("min_price"))
	maxPrice, hasMax := parsePrice(q.Get("max_price"))
	sortBy := q.Get("sort")
	if !validSorts[sortBy] {
		sortBy = "-created_at"
	}

	s.mu.Lock()
	items := make([]Product, 0, len(s.products))
	for _, p := range s.products {
		if hasMin && p.Price.LessThan(minPrice) {
			continue
		}
		if hasMax && p.Price.GreaterThan(maxPrice) {
			continue
		}
		items = append(items, p)
	}
	s.mu.Unlock()

	sort.Slice(items, func(i, j int) bool {
		switch sortBy {
		case "price":
			return items[i].Price.LessThan(items[j].Price)
		case "-price":
			return items[j].Price.LessThan(items[i].Price)
		case "name":
			return items[i].Name < items[j].Name
		case "created_at":
			return items[i].ID < items[j].ID
		default: // -created_at
			return items[j].ID < items[i].ID
		}
	})

	out := make([]productJSON, len(items))
	for i, p := range items {
		out[i] = productJSON{ID: p.ID, Name: p.Name, Price: p.Price.StringFixed(2), Stock: p.Stock}
	}
	writeJSON(w, http.StatusOK, map[string]any{"products": out, "results_count": len(out)})
}

func (s *Server) search(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("q"))
	s.mu.Lock()
	var matches []productJSON
	for _, p := range s.products {
		if query == "" || containsFold(p.Name, query) {
			matches = append(matches, productJSON{ID: p.ID, Name: p.Name, Price: p.Price.StringFixed(2), Stock: p.Stock})
		}
	}
	s.mu.Unlock()
	sort.Slice(matches, func(i, j int) bool { return matches[i].ID < matches[j].ID })
	writeJSON(w, http.StatusOK, map[string]any{
		"query":         query,
		"products":      matches,
		"results_count": len(matches),
	})
}

func (s *Server) suggestions(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("q"))
	var names []string
	if len(query) >= 2 {
		s.mu.Lock()
		for _, p := range s.products {
			if containsFold(p.Name, query) {
				names = append(names, p.Name)
			}
		}
		s.mu.Unlock()
		sort.Strings(names)
	}
	if names == nil {
		names = []string{}
	}
	writeJSON(w, http.StatusOK, map[string][]string{"suggestions": names})
}

func (s *Server) wishlistToggle(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	p, exists := s.products[id]
	if !exists {
		writeEnvelope(w, http.StatusNotFound, false, "Product not found", nil)
		return
	}
	var added bool
	var message string
	if s.wishlist[id] {
		delete(s.wishlist, id)
		message = p.Name + " removed from wishlist."
	} else {
		s.wishlist[id] = true
		added = true
		message = p.Name + " added to wishlist!"
	}
	writeEnvelope(w, http.StatusOK, true, message, map[string]any{
		"added":          added,
		"wishlist_count": len(s.wishlist),
	})
}

func (s *Server) wishlistCount(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	count := len(s.wishlist)
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]int{"count": count})
}

func (s *Server) newsletterSubscribe(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeEnvelope(w, http.StatusBadRequest, false, "Please enter a valid email.", nil)
		return
	}
	email := strings.ToLower(strings.TrimSpace(r.FormValue("email")))
	if email == "" || !strings.Contains(email, "@") {
		writeEnvelope(w, http.StatusBadRequest, false, "Please enter a valid email.", nil)
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.newsletter[email] {
		writeEnvelope(w, http.StatusOK, true, "You are already subscribed.", nil)
		return
	}
	s.newsletter[email] = true
	writeEnvelope(w, http.StatusOK, true, "Subscribed to newsletter!", nil)
}

func containsFold(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}

func parsePrice(raw string) (decimal.Decimal, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return decimal.Decimal{}, false
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Decimal{}, false
	}
	return d, true
}
