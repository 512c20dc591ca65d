package campaign

import "time"

type Status string

const (
	StatusActive   Status = "active"
	StatusInactive Status = "inactive"
)

type Campaign struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	Name      string    `json:"name"`
	QRCodeIDs []string  `json:"qrCodeIds"`
	Status    Status    `json:"status"`
	CreatedAt time.Time `json:"createdAt"`
}

type CreateRequest struct {
	Name      string   `json:"name"`
	QRCodeIDs []string `json:"qrCodeIds"`
}

type QRCodeRef struct {
	QRCodeID string `json:"qrCodeId"`
}
