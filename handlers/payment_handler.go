package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"qrForgeAPI/internal/subscription"
	"qrForgeAPI/middleware"
	"qrForgeAPI/services"
)

type PaymentHandler struct {
	payments *services.PaymentService
}

func NewPaymentHandler(payments *services.PaymentService) *PaymentHandler {
	return &PaymentHandler{payments: payments}
}

type paymentRequest struct {
	Phone  string            `json:"phone"`
	Amount float64           `json:"amount"`
	Plan   subscription.Plan `json:"plan"`
}

func (h *PaymentHandler) Mpesa(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	u, ok := middleware.GetUser(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "AUTH_REQUIRED", "User not authenticated")
		return
	}

	var req paymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "INVALID_INPUT", "Invalid request body")
		return
	}
	if req.Phone == "" || req.Amount <= 0 {
		respondWithError(w, http.StatusBadRequest, "INVALID_INPUT", "Phone and a positive amount are required")
		return
	}

	resp, sub, err := h.payments.SubscribeMpesa(ctx, u, req.Phone, req.Amount, req.Plan)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrInvalidPlan):
			respondWithError(w, http.StatusBadRequest, "INVALID_INPUT", "Invalid subscription plan")
		case errors.Is(err, services.ErrPaymentRejected):
			middleware.ObservePaymentInitiation("mpesa", "rejected")
			respondWithError(w, http.StatusBadRequest, "PAYMENT_INITIATION_FAILED", "M-Pesa payment failed")
		default:
			middleware.ObservePaymentInitiation("mpesa", "error")
			log.Printf("M-Pesa initiation error: %v", err)
			respondWithError(w, http.StatusInternalServerError, "PAYMENT_INITIATION_FAILED", "Failed to send STK Push")
		}
		return
	}

	middleware.ObservePaymentInitiation("mpesa", "initiated")

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"message":      "Payment initiated",
		"code":         "PAYMENT_INITIATED",
		"response":     resp,
		"subscription": sub,
	})
}

func (h *PaymentHandler) Flutterwave(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	u, ok := middleware.GetUser(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "AUTH_REQUIRED", "User not authenticated")
		return
	}

	var req paymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "INVALID_INPUT", "Invalid request body")
		return
	}
	if req.Amount <= 0 {
		respondWithError(w, http.StatusBadRequest, "INVALID_INPUT", "A positive amount is required")
		return
	}

	link, sub, err := h.payments.SubscribeFlutterwave(ctx, u, req.Phone, req.Amount, req.Plan)
	if err != nil {
		if errors.Is(err, services.ErrInvalidPlan) {
			respondWithError(w, http.StatusBadRequest, "INVALID_INPUT", "Invalid subscription plan")
			return
		}
		middleware.ObservePaymentInitiation("flutterwave", "error")
		log.Printf("Flutterwave initiation error: %v", err)
		respondWithError(w, http.StatusInternalServerError, "PAYMENT_INITIATION_FAILED", "Failed to create payment link")
		return
	}

	middleware.ObservePaymentInitiation("flutterwave", "initiated")

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"message":      "Payment link created",
		"code":         "PAYMENT_LINK_CREATED",
		"paymentLink":  link,
		"subscription": sub,
	})
}
