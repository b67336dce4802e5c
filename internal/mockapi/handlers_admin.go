package mockapi

import (
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"savora/internal/models"
	"savora/pkg/apierrors"
)

// handleCreateProduct accepts multipart/form-data: text fields plus an
// optional "image" file part. The image bytes are not stored; the mock
// records the filename the way a CDN URL would come back.
func (s *Server) handleCreateProduct(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(8 << 20); err != nil {
		writeError(w, apierrors.New(apierrors.CodeBadRequest, "expected multipart form"))
		return
	}
	name := r.FormValue("name")
	if name == "" {
		writeError(w, apierrors.New(apierrors.CodeValidation, "name is required"))
		return
	}
	price, err := strconv.ParseFloat(r.FormValue("price"), 64)
	if err != nil || price <= 0 {
		writeError(w, apierrors.New(apierrors.CodeValidation, "price must be a positive number"))
		return
	}
	categoryID := r.FormValue("category")
	if _, ok := s.categories.find(categoryID); !ok {
		writeError(w, apierrors.New(apierrors.CodeValidation, "unknown category"))
		return
	}

	image := ""
	if file, header, err := r.FormFile("image"); err == nil {
		// Drain the part so the body is fully consumed.
		_, _ = io.Copy(io.Discard, file)
		file.Close()
		image = "/images/" + header.Filename
	}

	product := &models.Product{
		ID:          uuid.NewString(),
		Name:        name,
		Description: r.FormValue("description"),
		Price:       price,
		Image:       image,
		Category:    models.CategoryID(categoryID),
		InStock:     true,
	}
	s.products.save(product)
	writeJSON(w, http.StatusCreated, models.ProductResponse{Product: *product})
}

func (s *Server) handleUpdateProduct(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	product, ok := s.products.find(id)
	if !ok {
		writeError(w, apierrors.New(apierrors.CodeNotFound, "product not found"))
		return
	}
	var req models.UpdateProductRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}

	updated := *product
	if req.Name != "" {
		updated.Name = req.Name
	}
	if req.Description != "" {
		updated.Description = req.Description
	}
	if req.Price > 0 {
		updated.Price = req.Price
	}
	if req.CategoryID != "" {
		if _, ok := s.categories.find(req.CategoryID); !ok {
			writeError(w, apierrors.New(apierrors.CodeValidation, "unknown category"))
			return
		}
		updated.Category = models.CategoryID(req.CategoryID)
	}
	if req.InStock != nil {
		updated.InStock = *req.InStock
	}
	s.products.save(&updated)
	writeJSON(w, http.StatusOK, models.ProductResponse{Product: updated})
}

func (s *Server) handleDeleteProducts(w http.ResponseWriter, r *http.Request) {
	var req models.DeleteProductsRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if len(req.IDs) == 0 {
		writeError(w, apierrors.New(apierrors.CodeValidation, "ids must not be empty"))
		return
	}
	removed := s.products.delete(req.IDs)
	writeJSON(w, http.StatusOK, models.MessageResponse{
		Message: strconv.Itoa(removed) + " products deleted",
	})
}

func (s *Server) handleGetCategory(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	category, ok := s.categories.find(id)
	if !ok {
		writeError(w, apierrors.New(apierrors.CodeNotFound, "category not found"))
		return
	}
	writeJSON(w, http.StatusOK, models.CategoryResponse{Category: *category})
}

func (s *Server) handleCreateCategory(w http.ResponseWriter, r *http.Request) {
	var req models.CategoryRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if req.Name == "" {
		writeError(w, apierrors.New(apierrors.CodeValidation, "name is required"))
		return
	}
	category := &models.Category{ID: uuid.NewString(), Name: req.Name, Image: req.Image}
	s.categories.save(category)
	writeJSON(w, http.StatusCreated, models.CategoryResponse{Category: *category})
}

func (s *Server) handleUpdateCategory(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	category, ok := s.categories.find(id)
	if !ok {
		writeError(w, apierrors.New(apierrors.CodeNotFound, "category not found"))
		return
	}
	var req models.CategoryRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}
	updated := *category
	if req.Name != "" {
		updated.Name = req.Name
	}
	if req.Image != "" {
		updated.Image = req.Image
	}
	s.categories.save(&updated)
	writeJSON(w, http.StatusOK, models.CategoryResponse{Category: updated})
}

func (s *Server) handleDeleteCategory(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if !s.categories.delete(id) {
		writeError(w, apierrors.New(apierrors.CodeNotFound, "category not found"))
		return
	}
	writeJSON(w, http.StatusOK, models.MessageResponse{Message: "category deleted"})
}

func (s *Server) handleListOrders(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, models.OrdersResponse{Orders: s.orders.list()})
}

func (s *Server) handleUpdateOrderStatus(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	order, ok := s.orders.find(id)
	if !ok {
		writeError(w, apierrors.New(apierrors.CodeNotFound, "order not found"))
		return
	}
	var req models.UpdateOrderStatusRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}
	switch req.Status {
	case models.OrderPending, models.OrderPreparing, models.OrderDelivered, models.OrderCancelled:
	default:
		writeError(w, apierrors.New(apierrors.CodeValidation, "unknown order status"))
		return
	}
	updated := *order
	updated.Status = req.Status
	s.orders.save(&updated)
	writeJSON(w, http.StatusOK, models.OrderResponse{Order: updated})
}

func (s *Server) handleListUsers(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, models.UsersResponse{Users: s.users.listByRole(models.RoleUser)})
}
