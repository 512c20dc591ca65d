package subscription

import "time"

type Plan string

const (
	PlanFree     Plan = "free"
	PlanStandard Plan = "standard"
	PlanPremium  Plan = "premium"
)

func (p Plan) Valid() bool {
	switch p {
	case PlanFree, PlanStandard, PlanPremium:
		return true
	}
	return false
}

type PaymentMethod string

const (
	MethodMpesa       PaymentMethod = "mpesa"
	MethodFlutterwave PaymentMethod = "flutterwave"
)

type Status string

const (
	StatusActive Status = "active"
	// StatusPendingConfirmation marks a card/redirect subscription that was
	// initiated but never confirmed. No confirmation callback exists yet, so
	// rows in this state are never transitioned.
	StatusPendingConfirmation Status = "pending_confirmation"
	StatusExpired             Status = "expired"
)

type Subscription struct {
	ID            string        `json:"id"`
	UserID        string        `json:"userId"`
	Plan          Plan          `json:"plan"`
	Status        Status        `json:"status"`
	PaymentMethod PaymentMethod `json:"paymentMethod"`
	TransactionID string        `json:"transactionId"`
	ExpiresAt     time.Time     `json:"expiresAt"`
	CreatedAt     time.Time     `json:"createdAt"`
}

type PaymentStatus string

const (
	PaymentSuccess PaymentStatus = "Success"
	PaymentPending PaymentStatus = "Pending"
	PaymentFailed  PaymentStatus = "Failed"
)

// Payment is a generic ledger row, not linked back to a subscription.
type Payment struct {
	ID        string        `json:"id"`
	UserID    string        `json:"userId"`
	Amount    float64       `json:"amount"`
	Status    PaymentStatus `json:"status"`
	CreatedAt time.Time     `json:"createdAt"`
}

// AdminPayment carries the payer's identity for the admin ledger listing.
type AdminPayment struct {
	Payment
	Username string `json:"username"`
	Email    string `json:"email"`
}
