package api

import (
	"encoding/json"
	"net/http"

	"github.com/example/brownie-shop/internal/account"
	"github.com/example/brownie-shop/internal/domain/address"
	"github.com/example/brownie-shop/internal/domain/user"
)

// AuthHandlers serves sign-up, sign-in and the shopper's own profile.
type AuthHandlers struct {
	accounts *account.Service
}

func NewAuthHandlers(accounts *account.Service) *AuthHandlers {
	return &AuthHandlers{accounts: accounts}
}

// Register handles user registration. The new account is not signed in.
func (h *AuthHandlers) Register(w http.ResponseWriter, r *http.Request) {
	var req user.Registration
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSONError(w, r, "Invalid request body", http.StatusBadRequest)
		return
	}

	acc, err := h.accounts.Register(r.Context(), mustSession(r), req)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusCreated, acc.Public())
}

// Login handles user login
func (h *AuthHandlers) Login(w http.ResponseWriter, r *http.Request) {
	var req user.Credentials
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSONError(w, r, "Invalid request body", http.StatusBadRequest)
		return
	}

	acc, err := h.accounts.Login(r.Context(), mustSession(r), req)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, acc.Public())
}

// Logout signs the account out. The session and its cart survive.
func (h *AuthHandlers) Logout(w http.ResponseWriter, r *http.Request) {
	h.accounts.Logout(r.Context(), mustSession(r))
	respondJSON(w, r, http.StatusOK, map[string]string{"message": "Logged out"})
}

// Me returns the signed-in account
func (h *AuthHandlers) Me(w http.ResponseWriter, r *http.Request) {
	acc, err := h.accounts.Current(mustSession(r))
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, acc)
}

func (h *AuthHandlers) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	var req user.ProfilePatch
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSONError(w, r, "Invalid request body", http.StatusBadRequest)
		return
	}

	acc, err := h.accounts.UpdateProfile(r.Context(), mustSession(r), req)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, acc.Public())
}

func (h *AuthHandlers) AddAddress(w http.ResponseWriter, r *http.Request) {
	var req address.Address
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSONError(w, r, "Invalid request body", http.StatusBadRequest)
		return
	}

	acc, err := h.accounts.AddAddress(r.Context(), mustSession(r), req)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusCreated, acc.Profile.Addresses)
}

func (h *AuthHandlers) UpdateAddress(w http.ResponseWriter, r *http.Request) {
	var req address.Address
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSONError(w, r, "Invalid request body", http.StatusBadRequest)
		return
	}

	acc, err := h.accounts.UpdateAddress(r.Context(), mustSession(r), r.PathValue("id"), req)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, acc.Profile.Addresses)
}

func (h *AuthHandlers) DeleteAddress(w http.ResponseWriter, r *http.Request) {
	acc, err := h.accounts.DeleteAddress(r.Context(), mustSession(r), r.PathValue("id"))
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, acc.Profile.Addresses)
}

func (h *AuthHandlers) SetDefaultAddress(w http.ResponseWriter, r *http.Request) {
	acc, err := h.accounts.SetDefaultAddress(r.Context(), mustSession(r), r.PathValue("id"))
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, acc.Profile.Addresses)
}
