package handlers

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"qrForgeAPI/internal/user"
	"qrForgeAPI/middleware"
	"qrForgeAPI/services"
)

// AdminHandler serves the admin CRUD surface. All routes behind it are
// guarded by RequireRoles(RoleAdmin).
type AdminHandler struct {
	users    *services.UserService
	qrcodes  *services.QRCodeService
	payments *services.PaymentService
}

func NewAdminHandler(users *services.UserService, qrcodes *services.QRCodeService, payments *services.PaymentService) *AdminHandler {
	return &AdminHandler{users: users, qrcodes: qrcodes, payments: payments}
}

func (h *AdminHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	users, err := h.users.ListUsers(ctx)
	if err != nil {
		log.Printf("Admin user list error: %v", err)
		respondWithError(w, http.StatusInternalServerError, "SERVER_ERROR", "Failed to fetch users")
		return
	}

	respondWithJSON(w, http.StatusOK, users)
}

func (h *AdminHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if err := h.users.DeleteUser(ctx, mux.Vars(r)["id"]); err != nil {
		if errors.Is(err, user.ErrNotFound) {
			respondWithError(w, http.StatusNotFound, "USER_NOT_FOUND", "User not found")
			return
		}
		log.Printf("Admin user delete error: %v", err)
		respondWithError(w, http.StatusInternalServerError, "SERVER_ERROR", "Failed to delete user")
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]string{
		"message": "User deleted successfully",
		"code":    "USER_DELETED",
	})
}

func (h *AdminHandler) PromoteUser(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	u, err := h.users.PromoteUser(ctx, mux.Vars(r)["id"])
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			respondWithError(w, http.StatusNotFound, "USER_NOT_FOUND", "User not found")
			return
		}
		log.Printf("Admin user promote error: %v", err)
		respondWithError(w, http.StatusInternalServerError, "SERVER_ERROR", "Failed to promote user")
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"message": "User promoted to admin",
		"code":    "USER_PROMOTED",
		"user":    u,
	})
}

func (h *AdminHandler) ListQRCodes(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	codes, err := h.qrcodes.ListAll(ctx)
	if err != nil {
		log.Printf("Admin QR list error: %v", err)
		respondWithError(w, http.StatusInternalServerError, "SERVER_ERROR", "Failed to fetch QR codes")
		return
	}

	respondWithJSON(w, http.StatusOK, codes)
}

func (h *AdminHandler) DeleteQRCode(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	u, ok := middleware.GetUser(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "AUTH_REQUIRED", "User not authenticated")
		return
	}

	if err := h.qrcodes.Delete(ctx, mux.Vars(r)["id"], u); err != nil {
		if errors.Is(err, services.ErrQRNotFound) {
			respondWithError(w, http.StatusNotFound, "NOT_FOUND", "QR Code not found")
			return
		}
		log.Printf("Admin QR delete error: %v", err)
		respondWithError(w, http.StatusInternalServerError, "SERVER_ERROR", "Failed to delete QR code")
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]string{
		"message": "QR Code deleted successfully",
		"code":    "QR_DELETED",
	})
}

func (h *AdminHandler) ListPayments(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	payments, err := h.payments.ListPayments(ctx)
	if err != nil {
		log.Printf("Admin payment list error: %v", err)
		respondWithError(w, http.StatusInternalServerError, "SERVER_ERROR", "Server error")
		return
	}

	respondWithJSON(w, http.StatusOK, payments)
}
