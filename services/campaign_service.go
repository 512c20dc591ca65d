package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"qrForgeAPI/internal/campaign"
)

var (
	ErrCampaignNotFound = errors.New("campaign not found")
	ErrInvalidQRCodes   = errors.New("some qr codes are invalid or do not belong to the user")
)

type CampaignService struct {
	db *pgxpool.Pool
}

func NewCampaignService(db *pgxpool.Pool) *CampaignService {
	return &CampaignService{db: db}
}

// ownsAll checks every referenced QR code belongs to the user. Ownership is
// only validated at association time, not re-checked later.
func (s *CampaignService) ownsAll(ctx context.Context, userID string, qrIDs []string) error {
	if len(qrIDs) == 0 {
		return nil
	}

	var count int
	err := s.db.QueryRow(ctx, `
	SELECT count(*) FROM qr_codes WHERE id = ANY($1::uuid[]) AND user_id = $2
	`, qrIDs, userID).Scan(&count)
	if err != nil {
		return fmt.Errorf("failed to validate qr codes: %w", err)
	}
	if count != len(qrIDs) {
		return ErrInvalidQRCodes
	}
	return nil
}

func (s *CampaignService) Create(ctx context.Context, userID, name string, qrIDs []string) (*campaign.Campaign, error) {
	if name == "" {
		return nil, ErrMissingFields
	}
	if err := s.ownsAll(ctx, userID, qrIDs); err != nil {
		return nil, err
	}

	c := &campaign.Campaign{
		ID:        uuid.New().String(),
		UserID:    userID,
		Name:      name,
		QRCodeIDs: qrIDs,
		Status:    campaign.StatusActive,
		CreatedAt: time.Now(),
	}
	if c.QRCodeIDs == nil {
		c.QRCodeIDs = []string{}
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
	INSERT INTO campaigns (id, user_id, name, status, created_at)
	VALUES ($1, $2, $3, $4, $5)
	`, c.ID, c.UserID, c.Name, c.Status, c.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create campaign: %w", err)
	}

	for _, qrID := range qrIDs {
		_, err = tx.Exec(ctx, `
		INSERT INTO campaign_qr_codes (campaign_id, qr_code_id)
		VALUES ($1, $2)
		ON CONFLICT DO NOTHING
		`, c.ID, qrID)
		if err != nil {
			return nil, fmt.Errorf("failed to link qr code: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit campaign: %w", err)
	}

	return c, nil
}

func (s *CampaignService) List(ctx context.Context, userID string) ([]*campaign.Campaign, error) {
	rows, err := s.db.Query(ctx, `
	SELECT c.id, c.user_id, c.name, c.status, c.created_at,
	       COALESCE(array_agg(cq.qr_code_id::text) FILTER (WHERE cq.qr_code_id IS NOT NULL), '{}')
	FROM campaigns c
	LEFT JOIN campaign_qr_codes cq ON cq.campaign_id = c.id
	WHERE c.user_id = $1
	GROUP BY c.id
	ORDER BY c.created_at DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list campaigns: %w", err)
	}
	defer rows.Close()

	campaigns := []*campaign.Campaign{}
	for rows.Next() {
		c := &campaign.Campaign{}
		if err := rows.Scan(&c.ID, &c.UserID, &c.Name, &c.Status, &c.CreatedAt, &c.QRCodeIDs); err != nil {
			return nil, fmt.Errorf("failed to scan campaign: %w", err)
		}
		campaigns = append(campaigns, c)
	}
	return campaigns, rows.Err()
}

func (s *CampaignService) get(ctx context.Context, campaignID, userID string) (*campaign.Campaign, error) {
	c := &campaign.Campaign{}
	err := s.db.QueryRow(ctx, `
	SELECT c.id, c.user_id, c.name, c.status, c.created_at,
	       COALESCE(array_agg(cq.qr_code_id::text) FILTER (WHERE cq.qr_code_id IS NOT NULL), '{}')
	FROM campaigns c
	LEFT JOIN campaign_qr_codes cq ON cq.campaign_id = c.id
	WHERE c.id = $1 AND c.user_id = $2
	GROUP BY c.id
	`, campaignID, userID).Scan(&c.ID, &c.UserID, &c.Name, &c.Status, &c.CreatedAt, &c.QRCodeIDs)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrCampaignNotFound
		}
		return nil, fmt.Errorf("failed to get campaign: %w", err)
	}
	return c, nil
}

// AddQRCode associates one QR code with a campaign the user owns.
func (s *CampaignService) AddQRCode(ctx context.Context, campaignID, userID, qrID string) (*campaign.Campaign, error) {
	if _, err := s.get(ctx, campaignID, userID); err != nil {
		return nil, err
	}
	if err := s.ownsAll(ctx, userID, []string{qrID}); err != nil {
		return nil, err
	}

	_, err := s.db.Exec(ctx, `
	INSERT INTO campaign_qr_codes (campaign_id, qr_code_id)
	VALUES ($1, $2)
	ON CONFLICT DO NOTHING
	`, campaignID, qrID)
	if err != nil {
		return nil, fmt.Errorf("failed to add qr code: %w", err)
	}

	return s.get(ctx, campaignID, userID)
}

func (s *CampaignService) RemoveQRCode(ctx context.Context, campaignID, userID, qrID string) (*campaign.Campaign, error) {
	if _, err := s.get(ctx, campaignID, userID); err != nil {
		return nil, err
	}

	_, err := s.db.Exec(ctx, `
	DELETE FROM campaign_qr_codes WHERE campaign_id = $1 AND qr_code_id = $2
	`, campaignID, qrID)
	if err != nil {
		return nil, fmt.Errorf("failed to remove qr code: %w", err)
	}

	return s.get(ctx, campaignID, userID)
}

// ToggleStatus flips a campaign between active and inactive.
func (s *CampaignService) ToggleStatus(ctx context.Context, campaignID, userID string) (*campaign.Campaign, error) {
	var status campaign.Status
	err := s.db.QueryRow(ctx, `
	UPDATE campaigns
	SET status = CASE WHEN status = 'active' THEN 'inactive' ELSE 'active' END
	WHERE id = $1 AND user_id = $2
	RETURNING status
	`, campaignID, userID).Scan(&status)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrCampaignNotFound
		}
		return nil, fmt.Errorf("failed to toggle campaign status: %w", err)
	}

	return s.get(ctx, campaignID, userID)
}
