package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"qrForgeAPI/config"
)

func newFlwServer(t *testing.T, handler func(w http.ResponseWriter, body flwPaymentRequest)) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/v3/payments", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer flw-secret", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var body flwPaymentRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		handler(w, body)
	})

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func TestCreatePaymentLink(t *testing.T) {
	server := newFlwServer(t, func(w http.ResponseWriter, body flwPaymentRequest) {
		assert.True(t, strings.HasPrefix(body.TxRef, "QR-"))
		assert.Equal(t, 1500.0, body.Amount)
		assert.Equal(t, "KES", body.Currency)
		assert.Equal(t, "https://app.example.com/payment-success", body.RedirectURL)
		assert.Equal(t, "alice@example.com", body.Customer.Email)
		assert.Equal(t, "254712345678", body.Customer.PhoneNumber)
		assert.Equal(t, "card,mpesa,ussd", body.PaymentOptions)

		json.NewEncoder(w).Encode(map[string]any{
			"status":  "success",
			"message": "Hosted Link",
			"data":    map[string]string{"link": "https://checkout.flutterwave.com/pay/abc123"},
		})
	})

	client := NewFlutterwaveClient(config.FlutterwaveConfig{
		BaseURL:   server.URL,
		SecretKey: "flw-secret",
	}, "https://app.example.com")

	link, txRef, err := client.CreatePaymentLink(context.Background(), 1500, "alice@example.com", "254712345678")
	require.NoError(t, err)
	assert.Equal(t, "https://checkout.flutterwave.com/pay/abc123", link)
	assert.True(t, strings.HasPrefix(txRef, "QR-"))
}

func TestCreatePaymentLinkGatewayError(t *testing.T) {
	server := newFlwServer(t, func(w http.ResponseWriter, _ flwPaymentRequest) {
		json.NewEncoder(w).Encode(map[string]any{
			"status":  "error",
			"message": "Invalid currency",
		})
	})

	client := NewFlutterwaveClient(config.FlutterwaveConfig{
		BaseURL:   server.URL,
		SecretKey: "flw-secret",
	}, "https://app.example.com")

	_, _, err := client.CreatePaymentLink(context.Background(), 1500, "alice@example.com", "254712345678")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Invalid currency")
}

func TestCreatePaymentLinkHTTPFailure(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/v3/payments", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	client := NewFlutterwaveClient(config.FlutterwaveConfig{
		BaseURL:   server.URL,
		SecretKey: "flw-secret",
	}, "https://app.example.com")

	_, _, err := client.CreatePaymentLink(context.Background(), 1500, "alice@example.com", "254712345678")
	assert.Error(t, err)
}
