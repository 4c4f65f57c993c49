package api

import (
	"encoding/json"
	"net/http"

	"github.com/example/brownie-shop/internal/admin"
	"github.com/example/brownie-shop/internal/api/middleware"
	"github.com/example/brownie-shop/internal/domain/product"
)

// AdminHandlers serves the admin console. Every route is behind
// RequireRole(admin).
type AdminHandlers struct {
	admin *admin.Service
}

func NewAdminHandlers(adminService *admin.Service) *AdminHandlers {
	return &AdminHandlers{admin: adminService}
}

func (h *AdminHandlers) GetStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.admin.Stats(r.Context())
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, stats)
}

// Products

func (h *AdminHandlers) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var req product.Product
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSONError(w, r, "Invalid request body", http.StatusBadRequest)
		return
	}

	p, err := h.admin.CreateProduct(r.Context(), req)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusCreated, p)
}

func (h *AdminHandlers) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	var req product.Product
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSONError(w, r, "Invalid request body", http.StatusBadRequest)
		return
	}

	p, err := h.admin.UpdateProduct(r.Context(), r.PathValue("id"), req)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, p)
}

func (h *AdminHandlers) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	if err := h.admin.DeleteProduct(r.Context(), r.PathValue("id")); err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, map[string]string{"message": "Product deleted"})
}

// Orders

func (h *AdminHandlers) GetOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.admin.ListOrders(r.Context())
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, orders)
}

func (h *AdminHandlers) UpdateOrderStatus(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSONError(w, r, "Invalid request body", http.StatusBadRequest)
		return
	}

	o, err := h.admin.UpdateOrderStatus(r.Context(), r.PathValue("userId"), r.PathValue("orderId"), req.Status)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, o)
}

// Users

func (h *AdminHandlers) GetUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.admin.ListUsers(r.Context())
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, users)
}

func (h *AdminHandlers) GetUser(w http.ResponseWriter, r *http.Request) {
	u, err := h.admin.GetUser(r.Context(), r.PathValue("id"))
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, u)
}

func (h *AdminHandlers) DeleteUser(w http.ResponseWriter, r *http.Request) {
	adminID := middleware.GetUserID(r.Context())
	if err := h.admin.DeleteUser(r.Context(), adminID, r.PathValue("id")); err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, map[string]string{"message": "User deleted"})
}

func (h *AdminHandlers) BlockUser(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Reason string `json:"reason"`
	}
	// An empty body falls back to the default reason.
	_ = json.NewDecoder(r.Body).Decode(&req)

	adminID := middleware.GetUserID(r.Context())
	rec, err := h.admin.BlockUser(r.Context(), adminID, r.PathValue("id"), req.Reason)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusCreated, rec)
}

func (h *AdminHandlers) UnblockUser(w http.ResponseWriter, r *http.Request) {
	removed, err := h.admin.UnblockUser(r.Context(), r.PathValue("id"))
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, map[string]int{"removed": removed})
}
