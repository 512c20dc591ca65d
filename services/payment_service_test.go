package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"qrForgeAPI/internal/subscription"
	"qrForgeAPI/internal/user"
)

type fakeSTKPusher struct {
	resp   *STKPushResponse
	err    error
	called bool
}

func (f *fakeSTKPusher) InitiateSTKPush(_ context.Context, _ string, _ int) (*STKPushResponse, error) {
	f.called = true
	return f.resp, f.err
}

type fakeCheckoutLinker struct {
	link   string
	txRef  string
	err    error
	called bool
}

func (f *fakeCheckoutLinker) CreatePaymentLink(_ context.Context, _ float64, _, _ string) (string, string, error) {
	f.called = true
	return f.link, f.txRef, f.err
}

var testUser = &user.User{ID: "u1", Email: "alice@example.com", Role: user.RoleUser}

func TestSubscribeMpesaRejectsInvalidPlan(t *testing.T) {
	pusher := &fakeSTKPusher{}
	svc := NewPaymentService(nil, pusher, nil)

	_, _, err := svc.SubscribeMpesa(context.Background(), testUser, "254712345678", 1000, "platinum")
	assert.ErrorIs(t, err, ErrInvalidPlan)
	assert.False(t, pusher.called, "gateway must not be hit for an invalid plan")
}

func TestSubscribeMpesaGatewayRejection(t *testing.T) {
	pusher := &fakeSTKPusher{resp: &STKPushResponse{
		ResponseCode:        "1",
		ResponseDescription: "Insufficient funds",
	}}
	svc := NewPaymentService(nil, pusher, nil)

	resp, sub, err := svc.SubscribeMpesa(context.Background(), testUser, "254712345678", 1000, subscription.PlanStandard)
	require.ErrorIs(t, err, ErrPaymentRejected)
	assert.Contains(t, err.Error(), "Insufficient funds")
	assert.Nil(t, sub)
	require.NotNil(t, resp)
	assert.Equal(t, "1", resp.ResponseCode)
}

func TestSubscribeMpesaGatewayError(t *testing.T) {
	gatewayErr := errors.New("mpesa token request failed: status 401")
	pusher := &fakeSTKPusher{err: gatewayErr}
	svc := NewPaymentService(nil, pusher, nil)

	_, _, err := svc.SubscribeMpesa(context.Background(), testUser, "254712345678", 1000, subscription.PlanStandard)
	assert.ErrorIs(t, err, gatewayErr)
}

func TestSubscribeFlutterwaveRejectsInvalidPlan(t *testing.T) {
	linker := &fakeCheckoutLinker{}
	svc := NewPaymentService(nil, nil, linker)

	_, _, err := svc.SubscribeFlutterwave(context.Background(), testUser, "254712345678", 1000, "platinum")
	assert.ErrorIs(t, err, ErrInvalidPlan)
	assert.False(t, linker.called)
}

func TestSubscribeFlutterwaveGatewayError(t *testing.T) {
	gatewayErr := errors.New("flutterwave rejected payment: Invalid currency")
	linker := &fakeCheckoutLinker{err: gatewayErr}
	svc := NewPaymentService(nil, nil, linker)

	_, _, err := svc.SubscribeFlutterwave(context.Background(), testUser, "254712345678", 1000, subscription.PlanPremium)
	assert.ErrorIs(t, err, gatewayErr)
}
