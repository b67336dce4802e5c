package mockapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"savora/internal/models"
	"savora/internal/pricing"
	"savora/pkg/apierrors"
)

// handleSignup registers an account for the given role and signs it in.
func (s *Server) handleSignup(role models.Role) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req models.SignupRequest
		if err := decodeBody(r, &req); err != nil {
			writeError(w, err)
			return
		}
		if req.Email == "" || req.Password == "" {
			writeError(w, apierrors.New(apierrors.CodeValidation, "email and password are required"))
			return
		}
		if _, exists := s.users.findByEmail(req.Email, role); exists {
			writeError(w, apierrors.New(apierrors.CodeConflict, "email already registered"))
			return
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
		if err != nil {
			writeError(w, apierrors.Wrap(err, apierrors.CodeInternal, "hash password"))
			return
		}
		user := &storedUser{
			User: models.User{
				ID:        uuid.NewString(),
				Name:      req.Name,
				Email:     req.Email,
				Role:      role,
				CreatedAt: time.Now().UTC(),
			},
			PasswordHash: hash,
		}
		s.users.save(user)

		token, err := s.tokens.issue(user.User, time.Now())
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, models.AuthResponse{
			Message: "account created",
			User:    user.User,
			Token:   token,
		})
	}
}

func (s *Server) handleLogin(role models.Role) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req models.LoginRequest
		if err := decodeBody(r, &req); err != nil {
			writeError(w, err)
			return
		}
		user, ok := s.users.findByEmail(req.Email, role)
		if !ok {
			writeError(w, apierrors.New(apierrors.CodeUnauthorized, "invalid credentials"))
			return
		}
		if bcrypt.CompareHashAndPassword(user.PasswordHash, []byte(req.Password)) != nil {
			writeError(w, apierrors.New(apierrors.CodeUnauthorized, "invalid credentials"))
			return
		}
		token, err := s.tokens.issue(user.User, time.Now())
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, models.AuthResponse{
			Message: "signed in",
			User:    user.User,
			Token:   token,
		})
	}
}

func (s *Server) handleListProducts(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, models.ProductsResponse{Products: s.products.list()})
}

func (s *Server) handleGetProduct(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	product, ok := s.products.find(id)
	if !ok {
		writeError(w, apierrors.New(apierrors.CodeNotFound, "product not found"))
		return
	}
	writeJSON(w, http.StatusOK, models.ProductResponse{Product: *product})
}

func (s *Server) handleProductsByCategory(w http.ResponseWriter, r *http.Request) {
	category := r.URL.Query().Get("category")
	if category == "" {
		writeError(w, apierrors.New(apierrors.CodeBadRequest, "category is required"))
		return
	}
	writeJSON(w, http.StatusOK, models.ProductsResponse{Products: s.products.listByCategory(category)})
}

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, models.CategoriesResponse{Categories: s.categories.list()})
}

func (s *Server) handleGetCart(w http.ResponseWriter, r *http.Request) {
	claims := claimsFrom(r.Context())
	writeJSON(w, http.StatusOK, models.CartResponse{Cart: models.Cart{
		User:  claims.Subject,
		Lines: s.carts.get(claims.Subject),
	}})
}

func (s *Server) handleAddToCart(w http.ResponseWriter, r *http.Request) {
	claims := claimsFrom(r.Context())
	var req models.AddToCartRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}
	product, ok := s.products.find(req.ProductID)
	if !ok {
		writeError(w, apierrors.New(apierrors.CodeNotFound, "product not found"))
		return
	}
	if req.Qty < 1 {
		writeError(w, apierrors.New(apierrors.CodeValidation, "quantity must be at least 1"))
		return
	}
	lines := s.carts.upsert(claims.Subject, *product, req.Qty)
	writeJSON(w, http.StatusOK, models.CartResponse{Cart: models.Cart{User: claims.Subject, Lines: lines}})
}

func (s *Server) handleUpdateCart(w http.ResponseWriter, r *http.Request) {
	claims := claimsFrom(r.Context())
	var req models.UpdateCartRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if req.Qty < 1 {
		writeError(w, apierrors.New(apierrors.CodeValidation, "quantity must be at least 1"))
		return
	}
	lines, ok := s.carts.setQty(claims.Subject, req.ProductID, req.Qty)
	if !ok {
		writeError(w, apierrors.New(apierrors.CodeNotFound, "cart line not found"))
		return
	}
	writeJSON(w, http.StatusOK, models.CartResponse{Cart: models.Cart{User: claims.Subject, Lines: lines}})
}

func (s *Server) handleRemoveFromCart(w http.ResponseWriter, r *http.Request) {
	claims := claimsFrom(r.Context())
	var req models.RemoveFromCartRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}
	lines, ok := s.carts.remove(claims.Subject, req.ProductID)
	if !ok {
		writeError(w, apierrors.New(apierrors.CodeNotFound, "cart line not found"))
		return
	}
	writeJSON(w, http.StatusOK, models.CartResponse{Cart: models.Cart{User: claims.Subject, Lines: lines}})
}

func (s *Server) handleCreateOrder(w http.ResponseWriter, r *http.Request) {
	claims := claimsFrom(r.Context())
	var req models.CreateOrderRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}
	lines := s.carts.get(claims.Subject)
	if len(lines) == 0 {
		writeError(w, apierrors.New(apierrors.CodeBadRequest, "cart is empty"))
		return
	}

	totals := pricing.ComputeOrderTotals(lines, s.taxRate)
	order := &models.Order{
		ID:        uuid.NewString(),
		User:      claims.Subject,
		Lines:     lines,
		Subtotal:  totals.Subtotal,
		Tax:       totals.Tax,
		Total:     totals.Total,
		Status:    models.OrderPending,
		CreatedAt: time.Now().UTC(),
	}
	s.orders.save(order)
	s.carts.clear(claims.Subject)

	writeJSON(w, http.StatusCreated, models.OrderResponse{Order: *order})
}
