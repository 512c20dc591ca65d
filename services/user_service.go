package services

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/crypto/bcrypt"

	"qrForgeAPI/internal/user"
)

var (
	ErrMissingFields      = errors.New("all fields are required")
	ErrInvalidEmail       = errors.New("invalid email format")
	ErrWeakPassword       = errors.New("password must be at least 8 characters")
	ErrEmailTaken         = errors.New("email already registered")
	ErrUsernameTaken      = errors.New("username already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidEmailToken  = errors.New("invalid verification token")
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// Mailer delivers account mail out of band. A send failure is logged and
// never fails the surrounding request.
type Mailer interface {
	SendVerificationEmail(to, verifyURL string) error
}

type UserService struct {
	db     *pgxpool.Pool
	mailer Mailer
}

func NewUserService(db *pgxpool.Pool) *UserService {
	return &UserService{db: db}
}

// SetMailer injects the mail provider after construction.
func (s *UserService) SetMailer(m Mailer) {
	s.mailer = m
}

func validateRegistration(req *user.RegisterRequest) error {
	if req.Username == "" || req.Email == "" || req.Password == "" {
		return ErrMissingFields
	}
	if !emailPattern.MatchString(req.Email) {
		return ErrInvalidEmail
	}
	if len(req.Password) < 8 {
		return ErrWeakPassword
	}
	return nil
}

func generateEmailToken() (string, error) {
	b := make([]byte, 20)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// Register creates a user with role "user", a bcrypt password hash and a
// pending email verification token, then sends the verification mail.
func (s *UserService) Register(ctx context.Context, req *user.RegisterRequest, verifyBaseURL string) (*user.User, error) {
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	req.Username = strings.TrimSpace(req.Username)

	if err := validateRegistration(req); err != nil {
		return nil, err
	}

	var existingEmail string
	err := s.db.QueryRow(ctx,
		`SELECT email FROM users WHERE email = $1 OR username = $2`,
		req.Email, req.Username,
	).Scan(&existingEmail)
	if err == nil {
		if existingEmail == req.Email {
			return nil, ErrEmailTaken
		}
		return nil, ErrUsernameTaken
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("failed to check existing user: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	emailToken, err := generateEmailToken()
	if err != nil {
		return nil, fmt.Errorf("failed to generate verification token: %w", err)
	}

	u := &user.User{
		ID:        uuid.New().String(),
		Username:  req.Username,
		Email:     req.Email,
		Role:      user.RoleUser,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}

	err = s.db.QueryRow(ctx, `
	INSERT INTO users (id, username, email, password_hash, role, email_verification_token, email_verified, created_at, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6, false, $7, $8)
	RETURNING id, username, email, role, email_verified, created_at, updated_at
	`,
		u.ID, u.Username, u.Email, string(hash), u.Role, emailToken, u.CreatedAt, u.UpdatedAt,
	).Scan(&u.ID, &u.Username, &u.Email, &u.Role, &u.EmailVerified, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	if s.mailer != nil {
		verifyURL := fmt.Sprintf("%s/verify-email?token=%s", verifyBaseURL, emailToken)
		if err := s.mailer.SendVerificationEmail(u.Email, verifyURL); err != nil {
			log.Printf("Warning: could not send verification email to %s: %v", u.Email, err)
		}
	}

	return u, nil
}

// Authenticate checks credentials. A missing user and a wrong password are
// indistinguishable to the caller.
func (s *UserService) Authenticate(ctx context.Context, email, password string) (*user.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	u := &user.User{}
	err := s.db.QueryRow(ctx, `
	SELECT id, username, email, password_hash, role, email_verified, created_at, updated_at
	FROM users
	WHERE email = $1
	`, email).Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.Role, &u.EmailVerified, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return nil, ErrInvalidCredentials
	}

	u.PasswordHash = ""
	return u, nil
}

// GetUserByID loads a user record without the password hash.
func (s *UserService) GetUserByID(ctx context.Context, id string) (*user.User, error) {
	u := &user.User{}
	err := s.db.QueryRow(ctx, `
	SELECT id, username, email, role, email_verified, created_at, updated_at
	FROM users
	WHERE id = $1
	`, id).Scan(&u.ID, &u.Username, &u.Email, &u.Role, &u.EmailVerified, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, user.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return u, nil
}

// VerifyEmail consumes a verification token.
func (s *UserService) VerifyEmail(ctx context.Context, token string) error {
	tag, err := s.db.Exec(ctx, `
	UPDATE users
	SET email_verified = true, email_verification_token = NULL, updated_at = now()
	WHERE email_verification_token = $1
	`, token)
	if err != nil {
		return fmt.Errorf("failed to verify email: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrInvalidEmailToken
	}
	return nil
}

func (s *UserService) ListUsers(ctx context.Context) ([]*user.User, error) {
	rows, err := s.db.Query(ctx, `
	SELECT id, username, email, role, email_verified, created_at, updated_at
	FROM users
	ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	users := []*user.User{}
	for rows.Next() {
		u := &user.User{}
		if err := rows.Scan(&u.ID, &u.Username, &u.Email, &u.Role, &u.EmailVerified, &u.CreatedAt, &u.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func (s *UserService) DeleteUser(ctx context.Context, id string) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return user.ErrNotFound
	}
	return nil
}

// PromoteUser raises a user to the admin role.
func (s *UserService) PromoteUser(ctx context.Context, id string) (*user.User, error) {
	u := &user.User{}
	err := s.db.QueryRow(ctx, `
	UPDATE users
	SET role = $1, updated_at = now()
	WHERE id = $2
	RETURNING id, username, email, role, email_verified, created_at, updated_at
	`, user.RoleAdmin, id).Scan(&u.ID, &u.Username, &u.Email, &u.Role, &u.EmailVerified, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, user.ErrNotFound
		}
		return nil, fmt.Errorf("failed to promote user: %w", err)
	}
	return u, nil
}
