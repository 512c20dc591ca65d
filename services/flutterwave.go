package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"qrForgeAPI/config"
)

// FlutterwaveClient creates hosted checkout sessions. The caller receives a
// redirect link; no confirmation callback is handled here.
type FlutterwaveClient struct {
	cfg         config.FlutterwaveConfig
	redirectURL string
	httpClient  *http.Client
}

func NewFlutterwaveClient(cfg config.FlutterwaveConfig, redirectURL string) *FlutterwaveClient {
	return &FlutterwaveClient{
		cfg:         cfg,
		redirectURL: redirectURL,
		httpClient:  &http.Client{Timeout: 15 * time.Second},
	}
}

type flwCustomer struct {
	Email       string `json:"email"`
	PhoneNumber string `json:"phone_number"`
}

type flwPaymentRequest struct {
	TxRef          string      `json:"tx_ref"`
	Amount         float64     `json:"amount"`
	Currency       string      `json:"currency"`
	RedirectURL    string      `json:"redirect_url"`
	Customer       flwCustomer `json:"customer"`
	PaymentOptions string      `json:"payment_options"`
}

type flwPaymentResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Data    struct {
		Link string `json:"link"`
	} `json:"data"`
}

// CreatePaymentLink returns the hosted checkout link and the transaction
// reference it was created under.
func (c *FlutterwaveClient) CreatePaymentLink(ctx context.Context, amount float64, email, phone string) (link, txRef string, err error) {
	txRef = "QR-" + strconv.FormatInt(time.Now().UnixMilli(), 10)

	payload := flwPaymentRequest{
		TxRef:          txRef,
		Amount:         amount,
		Currency:       "KES",
		RedirectURL:    c.redirectURL + "/payment-success",
		Customer:       flwCustomer{Email: email, PhoneNumber: phone},
		PaymentOptions: "card,mpesa,ussd",
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.cfg.BaseURL+"/v3/payments", bytes.NewReader(body))
	if err != nil {
		return "", "", err
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.SecretKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", "", fmt.Errorf("flutterwave request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", "", fmt.Errorf("flutterwave request failed: status %d", resp.StatusCode)
	}

	var pr flwPaymentResponse
	if err := json.NewDecoder(resp.Body).Decode(&pr); err != nil {
		return "", "", fmt.Errorf("flutterwave decode failed: %w", err)
	}
	if pr.Status != "success" {
		return "", "", fmt.Errorf("flutterwave rejected payment: %s", pr.Message)
	}

	return pr.Data.Link, txRef, nil
}
