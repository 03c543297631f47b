// Package backendtest runs an in-memory stand-in for the remote e-commerce
// API so handlers and stores can be tested end to end.
package backendtest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"
)

var signingKey = []byte("backendtest")

type account struct {
	user     domain.User
	password string
}

type failure struct {
	status  int
	message string
}

// Server is a fake remote API. All fields are guarded by mu.
type Server struct {
	*httptest.Server

	mu        sync.Mutex
	accounts  map[string]*account // by email
	tokens    map[string]string   // token -> user id
	products  []domain.Product
	carts     map[string][]domain.CartLine
	orders    map[string][]domain.Order
	addresses map[string][]domain.Address
	payments  map[string][]domain.PaymentMethod
	failures  map[string]failure
	calls     map[string]int
	seq       int

	// OrderRejection makes place-order answer 200 with success=false.
	OrderRejection string
	// BeforeCartWrite runs before a cart mutation is applied.
	BeforeCartWrite func(route string)
	// TokenTTL is the lifetime of issued tokens.
	TokenTTL time.Duration
}

func New(t testing.TB) *Server {
	t.Helper()
	s := &Server{
		accounts:  make(map[string]*account),
		tokens:    make(map[string]string),
		carts:     make(map[string][]domain.CartLine),
		orders:    make(map[string][]domain.Order),
		addresses: make(map[string][]domain.Address),
		payments:  make(map[string][]domain.PaymentMethod),
		failures:  make(map[string]failure),
		calls:     make(map[string]int),
		TokenTTL:  time.Hour,
	}
	s.Server = httptest.NewServer(s.router())
	t.Cleanup(s.Close)
	return s
}

func (s *Server) router() http.Handler {
	r := chi.NewRouter()
	r.Use(s.countAndFail)

	r.Post("/api/auth/register", s.register)
	r.Post("/api/auth/login", s.login)
	r.Get("/api/products", s.listProducts)

	r.Group(func(r chi.Router) {
		r.Use(s.auth)
		r.Post("/api/products", s.createProduct)
		r.Put("/api/products/{id}", s.updateProduct)
		r.Delete("/api/products/{id}", s.deleteProduct)

		r.Get("/api/cart", s.getCart)
		r.Post("/api/cart/add", s.cartWrite("add"))
		r.Post("/api/cart/update", s.cartWrite("update"))
		r.Post("/api/cart/remove", s.cartWrite("remove"))

		r.Post("/api/orders/place-order", s.placeOrder)
		r.Get("/api/orders/history/{userID}", s.history)

		r.Get("/api/users/{userID}", s.getUser)
		r.Put("/api/users/{userID}", s.updateUser)
		r.Delete("/api/users/{userID}", s.deleteUser)
		r.Put("/api/users/{userID}/role", s.updateRole)
		r.Get("/api/users/{userID}/addresses", s.listAddresses)
		r.Post("/api/users/{userID}/addresses", s.addAddress)
		r.Delete("/api/users/{userID}/addresses/{id}", s.deleteAddress)
		r.Get("/api/users/{userID}/payments", s.listPayments)
		r.Post("/api/users/{userID}/payments", s.addPayment)
		r.Delete("/api/users/{userID}/payments/{id}", s.deletePayment)

		r.Get("/api/admin/dashboard", s.dashboard("admin"))
		r.Get("/api/superadmin/dashboard", s.dashboard("superadmin"))
	})
	return r
}

// --- test controls ---

// AddUser registers an account directly and returns its id.
func (s *Server) AddUser(fullname, email, password string, role domain.Role) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	id := fmt.Sprintf("u%d", s.seq)
	s.accounts[strings.ToLower(email)] = &account{
		user:     domain.User{ID: id, Fullname: fullname, Email: email, Role: role},
		password: password,
	}
	return id
}

// Token issues a bearer credential for an existing user id.
func (s *Server) Token(userID string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.issueLocked(userID)
}

func (s *Server) SetProducts(products ...domain.Product) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.products = append([]domain.Product(nil), products...)
}

// SetPrice changes a catalog price without touching carts that already
// hold the product.
func (s *Server) SetPrice(productID string, price float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.products {
		if s.products[i].ID == productID {
			s.products[i].Price = price
		}
	}
}

func (s *Server) SetPayments(userID string, methods ...domain.PaymentMethod) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.payments[userID] = append([]domain.PaymentMethod(nil), methods...)
}

func (s *Server) SetAddresses(userID string, addrs ...domain.Address) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.addresses[userID] = append([]domain.Address(nil), addrs...)
}

// Fail makes every request to "METHOD /path" answer status with message.
func (s *Server) Fail(route string, status int, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[route] = failure{status: status, message: message}
}

func (s *Server) Recover(route string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.failures, route)
}

// Calls returns how many requests hit "METHOD /path".
func (s *Server) Calls(route string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[route]
}

func (s *Server) CartOf(userID string) []domain.CartLine {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.CartLine(nil), s.carts[userID]...)
}

func (s *Server) Orders(userID string) []domain.Order {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.Order(nil), s.orders[userID]...)
}

func (s *Server) User(userID string) (domain.User, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range s.accounts {
		if a.user.ID == userID {
			return a.user, true
		}
	}
	return domain.User{}, false
}

// --- middleware ---

func routeKey(r *http.Request) string {
	return r.Method + " " + r.URL.Path
}

func (s *Server) countAndFail(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		key := routeKey(r)
		s.calls[key]++
		f, failing := s.failures[key]
		s.mu.Unlock()

		if failing {
			writeJSON(w, f.status, map[string]string{"message": f.message})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) auth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
		s.mu.Lock()
		userID, ok := s.tokens[token]
		s.mu.Unlock()
		if token == "" || !ok {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "Not authorized"})
			return
		}
		r.Header.Set("X-Test-User", userID)
		next.ServeHTTP(w, r)
	})
}

func caller(r *http.Request) string {
	return r.Header.Get("X-Test-User")
}

// --- handlers ---

func (s *Server) issueLocked(userID string) string {
	claims := jwt.RegisteredClaims{
		Subject:   userID,
		ID:        fmt.Sprintf("t%d", len(s.tokens)+1),
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(s.TokenTTL)),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(signingKey)
	if err != nil {
		panic(err)
	}
	s.tokens[token] = userID
	return token
}

func (s *Server) register(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Fullname string `json:"fullname"`
		Email    string `json:"email"`
		Phone    string `json:"phone"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Email == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "Invalid registration"})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.accounts[strings.ToLower(req.Email)]; exists {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "User already exists"})
		return
	}
	s.seq++
	u := domain.User{ID: fmt.Sprintf("u%d", s.seq), Fullname: req.Fullname, Email: req.Email, Phone: req.Phone, Role: domain.RoleUser}
	s.accounts[strings.ToLower(req.Email)] = &account{user: u, password: req.Password}
	writeJSON(w, http.StatusCreated, map[string]any{"user": u, "token": s.issueLocked(u.ID)})
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	_ = json.NewDecoder(r.Body).Decode(&req)

	s.mu.Lock()
	defer s.mu.Unlock()
	acc, ok := s.accounts[strings.ToLower(req.Email)]
	if !ok || acc.password != req.Password {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "Invalid email or password"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"user": acc.user, "token": s.issueLocked(acc.user.ID)})
}

func (s *Server) listProducts(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	products := append([]domain.Product{}, s.products...)
	writeJSON(w, http.StatusOK, products)
}

func (s *Server) createProduct(w http.ResponseWriter, r *http.Request) {
	var p domain.Product
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "Invalid product"})
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	p.ID = fmt.Sprintf("p%d", s.seq)
	s.products = append(s.products, p)
	writeJSON(w, http.StatusCreated, p)
}

func (s *Server) updateProduct(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var p domain.Product
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "Invalid product"})
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.products {
		if s.products[i].ID == id {
			p.ID = id
			s.products[i] = p
			writeJSON(w, http.StatusOK, p)
			return
		}
	}
	writeJSON(w, http.StatusNotFound, map[string]string{"message": "Product not found"})
}

func (s *Server) deleteProduct(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.products {
		if s.products[i].ID == id {
			s.products = append(s.products[:i], s.products[i+1:]...)
			writeJSON(w, http.StatusOK, map[string]string{"message": "Product deleted"})
			return
		}
	}
	writeJSON(w, http.StatusNotFound, map[string]string{"message": "Product not found"})
}

func (s *Server) productLocked(id string) (domain.Product, bool) {
	for _, p := range s.products {
		if p.ID == id {
			return p, true
		}
	}
	return domain.Product{}, false
}

func (s *Server) cartBody(userID string) map[string]any {
	lines := append([]domain.CartLine{}, s.carts[userID]...)
	return map[string]any{"cart": map[string]any{"products": lines}}
}

func (s *Server) getCart(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	writeJSON(w, http.StatusOK, s.cartBody(caller(r)))
}

func (s *Server) cartWrite(op string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			ProductID string `json:"productId"`
			Quantity  int    `json:"quantity"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"message": "Invalid cart request"})
			return
		}
		if hook := s.BeforeCartWrite; hook != nil {
			hook(op)
		}

		s.mu.Lock()
		defer s.mu.Unlock()
		userID := caller(r)
		lines := s.carts[userID]
		idx := -1
		for i, l := range lines {
			if l.Product.ID == req.ProductID {
				idx = i
			}
		}

		switch op {
		case "add":
			p, ok := s.productLocked(req.ProductID)
			if !ok {
				writeJSON(w, http.StatusNotFound, map[string]string{"message": "Product not found"})
				return
			}
			if idx >= 0 {
				lines[idx].Quantity += req.Quantity
			} else {
				lines = append(lines, domain.CartLine{Product: p, Quantity: req.Quantity})
			}
		case "update":
			if idx < 0 {
				writeJSON(w, http.StatusNotFound, map[string]string{"message": "Item not in cart"})
				return
			}
			if req.Quantity < 1 {
				writeJSON(w, http.StatusBadRequest, map[string]string{"message": "Quantity must be at least 1"})
				return
			}
			lines[idx].Quantity = req.Quantity
		case "remove":
			if idx >= 0 {
				lines = append(lines[:idx], lines[idx+1:]...)
			}
		}
		s.carts[userID] = lines
		writeJSON(w, http.StatusOK, s.cartBody(userID))
	}
}

func (s *Server) placeOrder(w http.ResponseWriter, r *http.Request) {
	var req domain.PlaceOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "Invalid order"})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.OrderRejection != "" {
		writeJSON(w, http.StatusOK, map[string]any{"success": false, "message": s.OrderRejection})
		return
	}
	s.seq++
	order := domain.Order{
		ID:             fmt.Sprintf("o%d", s.seq),
		UserID:         req.UserID,
		Items:          req.Items,
		Total:          req.Total,
		PaymentMethod:  req.PaymentMethod,
		PaymentDetails: req.PaymentDetails,
		CreatedAt:      time.Now().UTC(),
	}
	s.orders[req.UserID] = append(s.orders[req.UserID], order)
	s.carts[req.UserID] = nil
	writeJSON(w, http.StatusCreated, map[string]any{"success": true, "message": "Order placed", "order": order})
}

func (s *Server) history(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	orders := append([]domain.Order{}, s.orders[chi.URLParam(r, "userID")]...)
	writeJSON(w, http.StatusOK, orders)
}

func (s *Server) findAccountLocked(userID string) *account {
	for _, a := range s.accounts {
		if a.user.ID == userID {
			return a
		}
	}
	return nil
}

func (s *Server) getUser(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a := s.findAccountLocked(chi.URLParam(r, "userID"))
	if a == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"message": "User not found"})
		return
	}
	writeJSON(w, http.StatusOK, a.user)
}

func (s *Server) updateUser(w http.ResponseWriter, r *http.Request) {
	var upd struct {
		Fullname string `json:"fullname"`
		Email    string `json:"email"`
		Phone    string `json:"phone"`
	}
	_ = json.NewDecoder(r.Body).Decode(&upd)

	s.mu.Lock()
	defer s.mu.Unlock()
	a := s.findAccountLocked(chi.URLParam(r, "userID"))
	if a == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"message": "User not found"})
		return
	}
	if upd.Fullname != "" {
		a.user.Fullname = upd.Fullname
	}
	if upd.Phone != "" {
		a.user.Phone = upd.Phone
	}
	writeJSON(w, http.StatusOK, a.user)
}

func (s *Server) deleteUser(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := chi.URLParam(r, "userID")
	for email, a := range s.accounts {
		if a.user.ID == id {
			delete(s.accounts, email)
			writeJSON(w, http.StatusOK, map[string]string{"message": "User deleted"})
			return
		}
	}
	writeJSON(w, http.StatusNotFound, map[string]string{"message": "User not found"})
}

func (s *Server) updateRole(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Role domain.Role `json:"role"`
	}
	_ = json.NewDecoder(r.Body).Decode(&req)

	s.mu.Lock()
	defer s.mu.Unlock()
	a := s.findAccountLocked(chi.URLParam(r, "userID"))
	if a == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"message": "User not found"})
		return
	}
	a.user.Role = req.Role
	writeJSON(w, http.StatusOK, a.user)
}

func (s *Server) listAddresses(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	writeJSON(w, http.StatusOK, append([]domain.Address{}, s.addresses[chi.URLParam(r, "userID")]...))
}

func (s *Server) addAddress(w http.ResponseWriter, r *http.Request) {
	var a domain.Address
	_ = json.NewDecoder(r.Body).Decode(&a)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	a.ID = fmt.Sprintf("a%d", s.seq)
	userID := chi.URLParam(r, "userID")
	s.addresses[userID] = append(s.addresses[userID], a)
	writeJSON(w, http.StatusCreated, a)
}

func (s *Server) deleteAddress(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	userID, id := chi.URLParam(r, "userID"), chi.URLParam(r, "id")
	kept := s.addresses[userID][:0]
	for _, a := range s.addresses[userID] {
		if a.ID != id {
			kept = append(kept, a)
		}
	}
	s.addresses[userID] = kept
	writeJSON(w, http.StatusOK, map[string]string{"message": "Address deleted"})
}

func (s *Server) listPayments(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	writeJSON(w, http.StatusOK, append([]domain.PaymentMethod{}, s.payments[chi.URLParam(r, "userID")]...))
}

func (s *Server) addPayment(w http.ResponseWriter, r *http.Request) {
	var pm domain.PaymentMethod
	_ = json.NewDecoder(r.Body).Decode(&pm)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	pm.ID = fmt.Sprintf("pm%d", s.seq)
	userID := chi.URLParam(r, "userID")
	s.payments[userID] = append(s.payments[userID], pm)
	writeJSON(w, http.StatusCreated, pm)
}

func (s *Server) deletePayment(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	userID, id := chi.URLParam(r, "userID"), chi.URLParam(r, "id")
	kept := s.payments[userID][:0]
	for _, pm := range s.payments[userID] {
		if pm.ID != id {
			kept = append(kept, pm)
		}
	}
	s.payments[userID] = kept
	writeJSON(w, http.StatusOK, map[string]string{"message": "Payment deleted"})
}

func (s *Server) dashboard(kind string) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		s.mu.Lock()
		defer s.mu.Unlock()
		writeJSON(w, http.StatusOK, map[string]any{
			"kind":          kind,
			"totalUsers":    len(s.accounts),
			"totalProducts": len(s.products),
		})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
