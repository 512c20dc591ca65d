package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"qrForgeAPI/internal/subscription"
	"qrForgeAPI/internal/user"
)

var (
	ErrPaymentRejected = errors.New("payment was rejected by the gateway")
	ErrInvalidPlan     = errors.New("invalid subscription plan")
)

const subscriptionValidity = 30 * 24 * time.Hour

// STKPusher and CheckoutLinker are the two gateway shapes the payment service
// depends on; the concrete clients live in mpesa.go and flutterwave.go.
type STKPusher interface {
	InitiateSTKPush(ctx context.Context, phone string, amount int) (*STKPushResponse, error)
}

type CheckoutLinker interface {
	CreatePaymentLink(ctx context.Context, amount float64, email, phone string) (link, txRef string, err error)
}

type PaymentService struct {
	db    *pgxpool.Pool
	mpesa STKPusher
	flw   CheckoutLinker
}

func NewPaymentService(db *pgxpool.Pool, mpesa STKPusher, flw CheckoutLinker) *PaymentService {
	return &PaymentService{db: db, mpesa: mpesa, flw: flw}
}

func (s *PaymentService) insertSubscription(ctx context.Context, sub *subscription.Subscription) error {
	_, err := s.db.Exec(ctx, `
	INSERT INTO subscriptions (id, user_id, plan, status, payment_method, transaction_id, expires_at, created_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, sub.ID, sub.UserID, sub.Plan, sub.Status, sub.PaymentMethod, sub.TransactionID, sub.ExpiresAt, sub.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to save subscription: %w", err)
	}
	return nil
}

func (s *PaymentService) insertPayment(ctx context.Context, userID string, amount float64, status subscription.PaymentStatus) error {
	_, err := s.db.Exec(ctx, `
	INSERT INTO payments (id, user_id, amount, status, created_at)
	VALUES ($1, $2, $3, $4, $5)
	`, uuid.New().String(), userID, amount, status, time.Now())
	if err != nil {
		return fmt.Errorf("failed to save payment: %w", err)
	}
	return nil
}

// SubscribeMpesa initiates an STK push and, when the gateway accepts it,
// records an active 30-day subscription plus a pending ledger row. A non-zero
// response code persists nothing.
func (s *PaymentService) SubscribeMpesa(ctx context.Context, u *user.User, phone string, amount float64, plan subscription.Plan) (*STKPushResponse, *subscription.Subscription, error) {
	if !plan.Valid() {
		return nil, nil, ErrInvalidPlan
	}

	resp, err := s.mpesa.InitiateSTKPush(ctx, phone, int(amount))
	if err != nil {
		return nil, nil, err
	}

	if resp.ResponseCode != "0" {
		return resp, nil, fmt.Errorf("%w: %s", ErrPaymentRejected, resp.ResponseDescription)
	}

	sub := &subscription.Subscription{
		ID:            uuid.New().String(),
		UserID:        u.ID,
		Plan:          plan,
		Status:        subscription.StatusActive,
		PaymentMethod: subscription.MethodMpesa,
		TransactionID: resp.CheckoutRequestID,
		ExpiresAt:     time.Now().Add(subscriptionValidity),
		CreatedAt:     time.Now(),
	}
	if err := s.insertSubscription(ctx, sub); err != nil {
		return resp, nil, err
	}
	if err := s.insertPayment(ctx, u.ID, amount, subscription.PaymentPending); err != nil {
		return resp, nil, err
	}

	return resp, sub, nil
}

// SubscribeFlutterwave creates a hosted checkout session. The subscription is
// persisted in pending_confirmation: no confirmation callback exists, so the
// row stays pending until one is built.
func (s *PaymentService) SubscribeFlutterwave(ctx context.Context, u *user.User, phone string, amount float64, plan subscription.Plan) (string, *subscription.Subscription, error) {
	if !plan.Valid() {
		return "", nil, ErrInvalidPlan
	}

	link, txRef, err := s.flw.CreatePaymentLink(ctx, amount, u.Email, phone)
	if err != nil {
		return "", nil, err
	}

	sub := &subscription.Subscription{
		ID:            uuid.New().String(),
		UserID:        u.ID,
		Plan:          plan,
		Status:        subscription.StatusPendingConfirmation,
		PaymentMethod: subscription.MethodFlutterwave,
		TransactionID: txRef,
		ExpiresAt:     time.Now().Add(subscriptionValidity),
		CreatedAt:     time.Now(),
	}
	if err := s.insertSubscription(ctx, sub); err != nil {
		return "", nil, err
	}
	if err := s.insertPayment(ctx, u.ID, amount, subscription.PaymentPending); err != nil {
		return "", nil, err
	}

	return link, sub, nil
}

// ListPayments returns the full ledger with payer identities, for admins.
func (s *PaymentService) ListPayments(ctx context.Context) ([]*subscription.AdminPayment, error) {
	rows, err := s.db.Query(ctx, `
	SELECT p.id, p.user_id, p.amount, p.status, p.created_at, u.username, u.email
	FROM payments p
	JOIN users u ON u.id = p.user_id
	ORDER BY p.created_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list payments: %w", err)
	}
	defer rows.Close()

	payments := []*subscription.AdminPayment{}
	for rows.Next() {
		p := &subscription.AdminPayment{}
		if err := rows.Scan(&p.ID, &p.UserID, &p.Amount, &p.Status, &p.CreatedAt, &p.Username, &p.Email); err != nil {
			return nil, fmt.Errorf("failed to scan payment: %w", err)
		}
		payments = append(payments, p)
	}
	return payments, rows.Err()
}
