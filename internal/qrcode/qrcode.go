package qrcode

import "time"

type QRCode struct {
	ID        string     `json:"id"`
	UserID    string     `json:"userId"`
	Data      string     `json:"data"`
	QRUrl     string     `json:"qrUrl"`
	Color     string     `json:"color"`
	LogoURL   string     `json:"logoUrl,omitempty"`
	IsDynamic bool       `json:"isDynamic"`
	ScanCount int        `json:"scanCount"`
	ExpiresAt *time.Time `json:"expiresAt,omitempty"`
	CreatedAt time.Time  `json:"createdAt"`
}

// AdminQRCode carries the owner's identity for the admin listing.
type AdminQRCode struct {
	QRCode
	OwnerUsername string `json:"ownerUsername"`
	OwnerEmail    string `json:"ownerEmail"`
}
