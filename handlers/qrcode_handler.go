package handlers

import (
	"context"
	"errors"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"qrForgeAPI/middleware"
	"qrForgeAPI/services"
)

const maxLogoSize = 5 << 20 // 5 MiB

type QRCodeHandler struct {
	qrcodes *services.QRCodeService
}

func NewQRCodeHandler(qrcodes *services.QRCodeService) *QRCodeHandler {
	return &QRCodeHandler{qrcodes: qrcodes}
}

// Generate accepts multipart form data: fields "data" and "color", optional
// file field "logo".
func (h *QRCodeHandler) Generate(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 15*time.Second)
	defer cancel()

	u, ok := middleware.GetUser(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "AUTH_REQUIRED", "User not authenticated")
		return
	}

	if err := r.ParseMultipartForm(maxLogoSize); err != nil {
		respondWithError(w, http.StatusBadRequest, "INVALID_INPUT", "Invalid multipart form")
		return
	}

	data := r.FormValue("data")
	color := r.FormValue("color")

	var logoData []byte
	if file, _, err := r.FormFile("logo"); err == nil {
		defer file.Close()
		logoData, err = io.ReadAll(io.LimitReader(file, maxLogoSize))
		if err != nil {
			respondWithError(w, http.StatusBadRequest, "INVALID_INPUT", "Could not read logo file")
			return
		}
	}

	code, err := h.qrcodes.Generate(ctx, u.ID, data, color, logoData)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrInvalidQRInput):
			respondWithError(w, http.StatusBadRequest, "INVALID_INPUT", err.Error())
		case errors.Is(err, services.ErrGenerationFailed):
			log.Printf("QR generation error for user %s: %v", u.ID, err)
			respondWithError(w, http.StatusInternalServerError, "GENERATION_FAILED", err.Error())
		default:
			log.Printf("QR generation error for user %s: %v", u.ID, err)
			respondWithError(w, http.StatusInternalServerError, "SERVER_ERROR", "Server error")
		}
		return
	}

	middleware.ObserveQRGenerated()

	respondWithJSON(w, http.StatusCreated, map[string]interface{}{
		"message": "QR Code generated",
		"code":    "QR_GENERATED",
		"qrCode":  code,
	})
}

func (h *QRCodeHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	u, ok := middleware.GetUser(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "AUTH_REQUIRED", "User not authenticated")
		return
	}

	codes, err := h.qrcodes.ListByUser(ctx, u.ID)
	if err != nil {
		log.Printf("QR list error: %v", err)
		respondWithError(w, http.StatusInternalServerError, "SERVER_ERROR", "Server error")
		return
	}

	respondWithJSON(w, http.StatusOK, codes)
}

func (h *QRCodeHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	u, ok := middleware.GetUser(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "AUTH_REQUIRED", "User not authenticated")
		return
	}

	id := mux.Vars(r)["id"]
	if err := h.qrcodes.Delete(ctx, id, u); err != nil {
		switch {
		case errors.Is(err, services.ErrQRNotFound):
			respondWithError(w, http.StatusNotFound, "NOT_FOUND", "QR Code not found")
		case errors.Is(err, services.ErrNotOwner):
			respondWithError(w, http.StatusForbidden, "ACCESS_DENIED", "QR Code does not belong to you")
		default:
			log.Printf("QR delete error: %v", err)
			respondWithError(w, http.StatusInternalServerError, "SERVER_ERROR", "Server error")
		}
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]string{
		"message": "QR Code deleted",
		"code":    "QR_DELETED",
	})
}

// Scan records a scan event. Public: no authentication.
func (h *QRCodeHandler) Scan(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	id := mux.Vars(r)["id"]
	count, err := h.qrcodes.RecordScan(ctx, id)
	if err != nil {
		if errors.Is(err, services.ErrQRNotFound) {
			respondWithError(w, http.StatusNotFound, "NOT_FOUND", "QR Code not found")
			return
		}
		log.Printf("Scan record error: %v", err)
		respondWithError(w, http.StatusInternalServerError, "SERVER_ERROR", "Server error")
		return
	}

	middleware.ObserveScan()

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"message":   "Scan recorded",
		"code":      "SCAN_RECORDED",
		"scanCount": count,
	})
}
