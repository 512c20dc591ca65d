package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"time"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"qrForgeAPI/internal/qrcode"
	"qrForgeAPI/internal/qrgen"
	"qrForgeAPI/internal/user"
	"qrForgeAPI/storage"
)

var (
	ErrQRNotFound = errors.New("qr code not found")
	ErrNotOwner   = errors.New("qr code does not belong to user")
	// ErrInvalidQRInput covers empty content, bad colors and undecodable logos.
	ErrInvalidQRInput = errors.New("invalid qr input")
	// ErrGenerationFailed wraps rendering and storage failures; the underlying
	// cause travels in the message.
	ErrGenerationFailed = errors.New("qr generation failed")
)

type QRCodeService struct {
	db      *pgxpool.Pool
	uploads storage.Uploader
}

func NewQRCodeService(db *pgxpool.Pool, uploads storage.Uploader) *QRCodeService {
	return &QRCodeService{db: db, uploads: uploads}
}

// Generate renders the QR image, persists it through the configured uploader
// and writes the qr_codes row. No row is written when rendering fails.
func (s *QRCodeService) Generate(ctx context.Context, userID, data, colorHex string, logoData []byte) (*qrcode.QRCode, error) {
	if data == "" {
		return nil, fmt.Errorf("%w: qr code data is required", ErrInvalidQRInput)
	}
	if colorHex == "" {
		colorHex = "#000000"
	}

	fg, err := qrgen.ParseHexColor(colorHex)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidQRInput, err)
	}

	var logo image.Image
	var logoURL string
	if len(logoData) > 0 {
		logo, _, err = image.Decode(bytes.NewReader(logoData))
		if err != nil {
			return nil, fmt.Errorf("%w: could not decode logo image: %v", ErrInvalidQRInput, err)
		}
	}

	rendered, err := qrgen.Render(data, fg, logo)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGenerationFailed, err)
	}

	qrURL, err := s.uploads.Save(ctx, rendered, "image/png")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGenerationFailed, err)
	}

	if logo != nil {
		logoURL, err = s.uploads.Save(ctx, logoData, "application/octet-stream")
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrGenerationFailed, err)
		}
	}

	code := &qrcode.QRCode{
		ID:        uuid.New().String(),
		UserID:    userID,
		Data:      data,
		QRUrl:     qrURL,
		Color:     colorHex,
		LogoURL:   logoURL,
		CreatedAt: time.Now(),
	}

	err = s.db.QueryRow(ctx, `
	INSERT INTO qr_codes (id, user_id, data, qr_url, color, logo_url, is_dynamic, scan_count, created_at)
	VALUES ($1, $2, $3, $4, $5, $6, false, 0, $7)
	RETURNING id, scan_count, is_dynamic
	`, code.ID, code.UserID, code.Data, code.QRUrl, code.Color, code.LogoURL, code.CreatedAt,
	).Scan(&code.ID, &code.ScanCount, &code.IsDynamic)
	if err != nil {
		return nil, fmt.Errorf("failed to save qr code: %w", err)
	}

	return code, nil
}

func (s *QRCodeService) ListByUser(ctx context.Context, userID string) ([]*qrcode.QRCode, error) {
	rows, err := s.db.Query(ctx, `
	SELECT id, user_id, data, qr_url, color, logo_url, is_dynamic, scan_count, expires_at, created_at
	FROM qr_codes
	WHERE user_id = $1
	ORDER BY created_at DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list qr codes: %w", err)
	}
	defer rows.Close()

	codes := []*qrcode.QRCode{}
	for rows.Next() {
		c := &qrcode.QRCode{}
		if err := rows.Scan(&c.ID, &c.UserID, &c.Data, &c.QRUrl, &c.Color, &c.LogoURL,
			&c.IsDynamic, &c.ScanCount, &c.ExpiresAt, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan qr code: %w", err)
		}
		codes = append(codes, c)
	}
	return codes, rows.Err()
}

// Delete removes a QR code. Only the owner or an admin may delete it.
func (s *QRCodeService) Delete(ctx context.Context, id string, requester *user.User) error {
	var ownerID string
	err := s.db.QueryRow(ctx, `SELECT user_id FROM qr_codes WHERE id = $1`, id).Scan(&ownerID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrQRNotFound
		}
		return fmt.Errorf("failed to load qr code: %w", err)
	}

	if ownerID != requester.ID && requester.Role != user.RoleAdmin {
		return ErrNotOwner
	}

	if _, err := s.db.Exec(ctx, `DELETE FROM qr_codes WHERE id = $1`, id); err != nil {
		return fmt.Errorf("failed to delete qr code: %w", err)
	}
	return nil
}

// RecordScan increments the scan counter in a single atomic update, so
// concurrent scans never lose counts.
func (s *QRCodeService) RecordScan(ctx context.Context, id string) (int, error) {
	var count int
	err := s.db.QueryRow(ctx, `
	UPDATE qr_codes
	SET scan_count = scan_count + 1
	WHERE id = $1
	RETURNING scan_count
	`, id).Scan(&count)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, ErrQRNotFound
		}
		return 0, fmt.Errorf("failed to record scan: %w", err)
	}
	return count, nil
}

// ListAll returns every QR code with its owner, for the admin dashboard.
func (s *QRCodeService) ListAll(ctx context.Context) ([]*qrcode.AdminQRCode, error) {
	rows, err := s.db.Query(ctx, `
	SELECT q.id, q.user_id, q.data, q.qr_url, q.color, q.logo_url, q.is_dynamic,
	       q.scan_count, q.expires_at, q.created_at, u.username, u.email
	FROM qr_codes q
	JOIN users u ON u.id = q.user_id
	ORDER BY q.created_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list qr codes: %w", err)
	}
	defer rows.Close()

	codes := []*qrcode.AdminQRCode{}
	for rows.Next() {
		c := &qrcode.AdminQRCode{}
		if err := rows.Scan(&c.ID, &c.UserID, &c.Data, &c.QRUrl, &c.Color, &c.LogoURL,
			&c.IsDynamic, &c.ScanCount, &c.ExpiresAt, &c.CreatedAt,
			&c.OwnerUsername, &c.OwnerEmail); err != nil {
			return nil, fmt.Errorf("failed to scan qr code: %w", err)
		}
		codes = append(codes, c)
	}
	return codes, rows.Err()
}
