package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"qrForgeAPI/internal/campaign"
	"qrForgeAPI/middleware"
	"qrForgeAPI/services"
)

type CampaignHandler struct {
	campaigns *services.CampaignService
}

func NewCampaignHandler(campaigns *services.CampaignService) *CampaignHandler {
	return &CampaignHandler{campaigns: campaigns}
}

func (h *CampaignHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	u, ok := middleware.GetUser(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "AUTH_REQUIRED", "User not authenticated")
		return
	}

	var req campaign.CreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "INVALID_INPUT", "Invalid request body")
		return
	}

	c, err := h.campaigns.Create(ctx, u.ID, req.Name, req.QRCodeIDs)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrMissingFields):
			respondWithError(w, http.StatusBadRequest, "MISSING_FIELDS", "Campaign name is required")
		case errors.Is(err, services.ErrInvalidQRCodes):
			respondWithError(w, http.StatusBadRequest, "INVALID_INPUT", "Some QR codes are invalid or do not belong to the user")
		default:
			log.Printf("Campaign create error: %v", err)
			respondWithError(w, http.StatusInternalServerError, "SERVER_ERROR", "Server error")
		}
		return
	}

	respondWithJSON(w, http.StatusCreated, map[string]interface{}{
		"message":  "Campaign created successfully",
		"code":     "CAMPAIGN_CREATED",
		"campaign": c,
	})
}

func (h *CampaignHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	u, ok := middleware.GetUser(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "AUTH_REQUIRED", "User not authenticated")
		return
	}

	campaigns, err := h.campaigns.List(ctx, u.ID)
	if err != nil {
		log.Printf("Campaign list error: %v", err)
		respondWithError(w, http.StatusInternalServerError, "SERVER_ERROR", "Server error")
		return
	}

	respondWithJSON(w, http.StatusOK, campaigns)
}

func (h *CampaignHandler) mutateQRCode(w http.ResponseWriter, r *http.Request,
	op func(ctx context.Context, campaignID, userID, qrID string) (*campaign.Campaign, error),
	successMessage, successCode string) {

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	u, ok := middleware.GetUser(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "AUTH_REQUIRED", "User not authenticated")
		return
	}

	var req campaign.QRCodeRef
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.QRCodeID == "" {
		respondWithError(w, http.StatusBadRequest, "INVALID_INPUT", "qrCodeId is required")
		return
	}

	c, err := op(ctx, mux.Vars(r)["campaignId"], u.ID, req.QRCodeID)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrCampaignNotFound):
			respondWithError(w, http.StatusNotFound, "NOT_FOUND", "Campaign not found")
		case errors.Is(err, services.ErrInvalidQRCodes):
			respondWithError(w, http.StatusBadRequest, "INVALID_INPUT", "Invalid QR code")
		default:
			log.Printf("Campaign update error: %v", err)
			respondWithError(w, http.StatusInternalServerError, "SERVER_ERROR", "Server error")
		}
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"message":  successMessage,
		"code":     successCode,
		"campaign": c,
	})
}

func (h *CampaignHandler) AddQRCode(w http.ResponseWriter, r *http.Request) {
	h.mutateQRCode(w, r, h.campaigns.AddQRCode, "QR code added successfully", "QR_ADDED")
}

func (h *CampaignHandler) RemoveQRCode(w http.ResponseWriter, r *http.Request) {
	h.mutateQRCode(w, r, h.campaigns.RemoveQRCode, "QR code removed successfully", "QR_REMOVED")
}

func (h *CampaignHandler) ToggleStatus(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	u, ok := middleware.GetUser(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "AUTH_REQUIRED", "User not authenticated")
		return
	}

	c, err := h.campaigns.ToggleStatus(ctx, mux.Vars(r)["campaignId"], u.ID)
	if err != nil {
		if errors.Is(err, services.ErrCampaignNotFound) {
			respondWithError(w, http.StatusNotFound, "NOT_FOUND", "Campaign not found")
			return
		}
		log.Printf("Campaign toggle error: %v", err)
		respondWithError(w, http.StatusInternalServerError, "SERVER_ERROR", "Server error")
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"message":  "Campaign " + string(c.Status),
		"code":     "CAMPAIGN_TOGGLED",
		"campaign": c,
	})
}
