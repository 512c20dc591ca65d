package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"qrForgeAPI/auth"
	"qrForgeAPI/config"
	"qrForgeAPI/internal/user"
	"qrForgeAPI/services"
)

type AuthHandler struct {
	users  *services.UserService
	tokens *auth.TokenService
	cfg    *config.Config
}

func NewAuthHandler(users *services.UserService, tokens *auth.TokenService, cfg *config.Config) *AuthHandler {
	return &AuthHandler{users: users, tokens: tokens, cfg: cfg}
}

func (h *AuthHandler) setTokenCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     "token",
		Value:    token,
		Path:     "/",
		MaxAge:   int(h.cfg.Auth.SessionTTL.Seconds()),
		HttpOnly: true,
		Secure:   h.cfg.IsProduction(),
		SameSite: http.SameSiteStrictMode,
	})
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	var req user.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "INVALID_INPUT", "Invalid request body")
		return
	}

	u, err := h.users.Register(ctx, &req, h.cfg.ClientURL)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrMissingFields):
			respondWithError(w, http.StatusBadRequest, "MISSING_FIELDS", "All fields are required")
		case errors.Is(err, services.ErrInvalidEmail):
			respondWithError(w, http.StatusBadRequest, "INVALID_EMAIL", "Invalid email format")
		case errors.Is(err, services.ErrWeakPassword):
			respondWithError(w, http.StatusBadRequest, "WEAK_PASSWORD", "Password must be at least 8 characters")
		case errors.Is(err, services.ErrEmailTaken):
			respondWithError(w, http.StatusBadRequest, "USER_EXISTS", "Email already registered")
		case errors.Is(err, services.ErrUsernameTaken):
			respondWithError(w, http.StatusBadRequest, "USER_EXISTS", "Username already exists")
		default:
			log.Printf("Registration error: %v", err)
			respondWithError(w, http.StatusInternalServerError, "SERVER_ERROR", "Server error")
		}
		return
	}

	token, err := h.tokens.Issue(u.ID, u.Role)
	if err != nil {
		log.Printf("Token issue error: %v", err)
		respondWithError(w, http.StatusInternalServerError, "SERVER_ERROR", "Server error")
		return
	}
	h.setTokenCookie(w, token)

	respondWithJSON(w, http.StatusCreated, map[string]interface{}{
		"message": "User registered. Please verify your email.",
		"code":    "REGISTRATION_SUCCESS",
		"token":   token,
		"user":    u,
	})
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	var req user.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "INVALID_INPUT", "Invalid request body")
		return
	}
	if req.Email == "" || req.Password == "" {
		respondWithError(w, http.StatusBadRequest, "MISSING_FIELDS", "Email and password required")
		return
	}

	u, err := h.users.Authenticate(ctx, req.Email, req.Password)
	if err != nil {
		if errors.Is(err, services.ErrInvalidCredentials) {
			respondWithError(w, http.StatusUnauthorized, "INVALID_CREDENTIALS", "Invalid credentials")
			return
		}
		log.Printf("Login error: %v", err)
		respondWithError(w, http.StatusInternalServerError, "SERVER_ERROR", "Server error")
		return
	}

	token, err := h.tokens.Issue(u.ID, u.Role)
	if err != nil {
		log.Printf("Token issue error: %v", err)
		respondWithError(w, http.StatusInternalServerError, "SERVER_ERROR", "Server error")
		return
	}
	h.setTokenCookie(w, token)

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Login successful",
		"code":    "LOGIN_SUCCESS",
		"token":   token,
		"user":    u,
	})
}

func (h *AuthHandler) VerifyEmail(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	token := r.URL.Query().Get("token")
	if token == "" {
		respondWithError(w, http.StatusBadRequest, "MISSING_TOKEN", "Token is required")
		return
	}

	if err := h.users.VerifyEmail(ctx, token); err != nil {
		if errors.Is(err, services.ErrInvalidEmailToken) {
			respondWithError(w, http.StatusBadRequest, "INVALID_TOKEN", "Invalid token")
			return
		}
		log.Printf("Email verification error: %v", err)
		respondWithError(w, http.StatusInternalServerError, "SERVER_ERROR", "Verification failed")
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]string{
		"message": "Email verified successfully",
		"code":    "EMAIL_VERIFIED",
	})
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     "token",
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.cfg.IsProduction(),
		SameSite: http.SameSiteStrictMode,
	})

	respondWithJSON(w, http.StatusOK, map[string]string{
		"message": "Logged out successfully",
		"code":    "LOGOUT_SUCCESS",
	})
}
