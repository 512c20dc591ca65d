package services

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"qrForgeAPI/config"
)

func TestStkPassword(t *testing.T) {
	got := stkPassword("174379", "passkey", "20240101120000")
	want := base64.StdEncoding.EncodeToString([]byte("174379passkey20240101120000"))
	assert.Equal(t, want, got)
}

func newMpesaServer(t *testing.T, pushStatus func(w http.ResponseWriter, body stkPushRequest)) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()

	mux.HandleFunc("/oauth/v1/generate", func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		require.True(t, ok, "token request must use basic auth")
		assert.Equal(t, "consumer-key", user)
		assert.Equal(t, "consumer-secret", pass)
		assert.Equal(t, "client_credentials", r.URL.Query().Get("grant_type"))

		json.NewEncoder(w).Encode(map[string]string{"access_token": "test-token"})
	})

	mux.HandleFunc("/mpesa/stkpush/v1/processrequest", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var body stkPushRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		pushStatus(w, body)
	})

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func newMpesaTestClient(baseURL string) *MpesaClient {
	return NewMpesaClient(config.MpesaConfig{
		BaseURL:        baseURL,
		ConsumerKey:    "consumer-key",
		ConsumerSecret: "consumer-secret",
		Shortcode:      "174379",
		Passkey:        "passkey",
		CallbackURL:    "https://example.com/callback",
	})
}

func TestInitiateSTKPush(t *testing.T) {
	server := newMpesaServer(t, func(w http.ResponseWriter, body stkPushRequest) {
		assert.Equal(t, "174379", body.BusinessShortCode)
		assert.Equal(t, "174379", body.PartyB)
		assert.Equal(t, "254712345678", body.PartyA)
		assert.Equal(t, "254712345678", body.PhoneNumber)
		assert.Equal(t, 1000, body.Amount)
		assert.Equal(t, "CustomerPayBillOnline", body.TransactionType)
		assert.Equal(t, "https://example.com/callback", body.CallBackURL)
		assert.Len(t, body.Timestamp, 14)
		assert.Equal(t, stkPassword("174379", "passkey", body.Timestamp), body.Password)

		json.NewEncoder(w).Encode(STKPushResponse{
			MerchantRequestID:   "mr-1",
			CheckoutRequestID:   "ws_CO_123",
			ResponseCode:        "0",
			ResponseDescription: "Success. Request accepted for processing",
			CustomerMessage:     "Success. Request accepted for processing",
		})
	})

	client := newMpesaTestClient(server.URL)
	resp, err := client.InitiateSTKPush(context.Background(), "254712345678", 1000)
	require.NoError(t, err)
	assert.Equal(t, "0", resp.ResponseCode)
	assert.Equal(t, "ws_CO_123", resp.CheckoutRequestID)
}

func TestInitiateSTKPushPassesThroughGatewayRejection(t *testing.T) {
	server := newMpesaServer(t, func(w http.ResponseWriter, _ stkPushRequest) {
		json.NewEncoder(w).Encode(STKPushResponse{
			ResponseCode:        "1",
			ResponseDescription: "Insufficient funds",
		})
	})

	client := newMpesaTestClient(server.URL)
	resp, err := client.InitiateSTKPush(context.Background(), "254712345678", 1000)
	require.NoError(t, err)
	assert.Equal(t, "1", resp.ResponseCode)
}

func TestInitiateSTKPushTokenFailure(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/oauth/v1/generate", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	client := newMpesaTestClient(server.URL)
	_, err := client.InitiateSTKPush(context.Background(), "254712345678", 1000)
	assert.Error(t, err)
}
