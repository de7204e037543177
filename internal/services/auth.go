package services

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log"
	"time"
	"unicode"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"

	"tubebrief-backend/internal/middleware"
	"tubebrief-backend/internal/models"
	"tubebrief-backend/internal/repository"
)

// Invitation tokens are single-use and time-boxed to 7 days.
const invitationTTL = 7 * 24 * time.Hour

type AuthService struct {
	userRepo *repository.UserRepo
	redis    *redis.Client
	jwt      *middleware.JWTAuth
	email    *EmailService
}

func NewAuthService(userRepo *repository.UserRepo, redisClient *redis.Client, jwt *middleware.JWTAuth, email *EmailService) *AuthService {
	return &AuthService{
		userRepo: userRepo,
		redis:    redisClient,
		jwt:      jwt,
		email:    email,
	}
}

func (s *AuthService) Login(ctx context.Context, req models.LoginRequest) (*models.AuthTokens, error) {
	user, err := s.userRepo.GetByUsername(ctx, req.Username)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &UnauthorizedError{Message: "Invalid username or password"}
		}
		return nil, err
	}

	if user.PasswordHash == "" {
		// Invited account that has not set a password yet
		return nil, &UnauthorizedError{Message: "Invalid username or password"}
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, &UnauthorizedError{Message: "Invalid username or password"}
	}

	s.userRepo.UpdateLastLogin(ctx, user.ID)

	return s.issueTokens(ctx, user)
}

func (s *AuthService) RefreshToken(ctx context.Context, refreshToken string) (*models.AuthTokens, error) {
	userIDStr, err := s.redis.Get(ctx, "refresh:"+refreshToken).Result()
	if err != nil {
		return nil, &UnauthorizedError{Message: "Invalid or expired refresh token. Please log in again."}
	}

	userID, err := uuid.Parse(userIDStr)
	if err != nil {
		return nil, fmt.Errorf("invalid user ID: %w", err)
	}

	// Delete old token (rotation)
	s.redis.Del(ctx, "refresh:"+refreshToken)

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	return s.issueTokens(ctx, user)
}

func (s *AuthService) Logout(ctx context.Context, refreshToken string) error {
	return s.redis.Del(ctx, "refresh:"+refreshToken).Err()
}

// CreateUser is the direct admin path: username plus a password chosen by
// the admin, with a forced change on first login. Mutually exclusive with
// the invitation flow.
func (s *AuthService) CreateUser(ctx context.Context, req models.CreateUserRequest) (*models.User, error) {
	if err := s.checkUsernameFree(ctx, req.Username); err != nil {
		return nil, err
	}
	if err := validatePassword(req.Password); err != nil {
		return nil, &ValidationError{Fields: map[string]string{"password": err.Error()}}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), 12)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		Username:                 req.Username,
		PasswordHash:             string(hash),
		IsAdmin:                  req.IsAdmin,
		IsPasswordChangeRequired: true,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// InviteUser creates an account with no password and a fresh single-use
// invitation token. When an email address is given the invite link is sent
// out-of-band.
func (s *AuthService) InviteUser(ctx context.Context, req models.InviteUserRequest) (*models.User, string, error) {
	if req.Username == "" {
		return nil, "", &ValidationError{Fields: map[string]string{"username": "Username is required"}}
	}
	if err := s.checkUsernameFree(ctx, req.Username); err != nil {
		return nil, "", err
	}

	token, err := generateToken(32)
	if err != nil {
		return nil, "", err
	}
	expiry := time.Now().Add(invitationTTL)

	user := &models.User{
		Username:        req.Username,
		PasswordHash:    "",
		InvitationToken: &token,
		TokenExpiry:     &expiry,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, "", err
	}

	if req.Email != "" {
		go func() {
			if err := s.email.SendInvitationEmail(req.Email, req.Username, token); err != nil {
				log.Printf("failed to send invitation email to %s: %v", req.Email, err)
			}
		}()
	}

	return user, token, nil
}

// ValidateInvitation checks a token without consuming it, so the frontend
// can show the username on the password-set form.
func (s *AuthService) ValidateInvitation(ctx context.Context, token string) (*models.InvitationInfo, error) {
	user, err := s.lookupInvitation(ctx, token)
	if err != nil {
		return nil, err
	}
	return &models.InvitationInfo{
		Username:    user.Username,
		TokenExpiry: *user.TokenExpiry,
	}, nil
}

// AcceptInvitation consumes the token: the password is set and the token is
// cleared in one statement, after which the same token reads as invalid.
func (s *AuthService) AcceptInvitation(ctx context.Context, req models.AcceptInvitationRequest) (*models.AuthTokens, error) {
	user, err := s.lookupInvitation(ctx, req.Token)
	if err != nil {
		return nil, err
	}

	if err := validatePassword(req.Password); err != nil {
		return nil, &ValidationError{Fields: map[string]string{"password": err.Error()}}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), 12)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	if err := s.userRepo.SetPassword(ctx, user.ID, string(hash)); err != nil {
		return nil, err
	}

	user.IsPasswordChangeRequired = false
	return s.issueTokens(ctx, user)
}

func (s *AuthService) ChangePassword(ctx context.Context, userID uuid.UUID, req models.ChangePasswordRequest) error {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.CurrentPassword)); err != nil {
		return &UnauthorizedError{Message: "Current password is incorrect"}
	}

	if err := validatePassword(req.NewPassword); err != nil {
		return &ValidationError{Fields: map[string]string{"new_password": err.Error()}}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), 12)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	return s.userRepo.SetPassword(ctx, userID, string(hash))
}

// EnsureAdmin creates the bootstrap admin account on first start. A no-op
// when any admin already exists or no bootstrap password is configured.
func (s *AuthService) EnsureAdmin(ctx context.Context, username, password string) error {
	count, err := s.userRepo.CountAdmins(ctx)
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}
	if password == "" {
		log.Println("no admin account exists and ADMIN_PASSWORD is unset; admin bootstrap skipped")
		return nil
	}

	_, err = s.CreateUser(ctx, models.CreateUserRequest{
		Username: username,
		Password: password,
		IsAdmin:  true,
	})
	if err != nil {
		return fmt.Errorf("failed to create bootstrap admin: %w", err)
	}

	log.Printf("bootstrap admin %q created", username)
	return nil
}

func (s *AuthService) lookupInvitation(ctx context.Context, token string) (*models.User, error) {
	if token == "" {
		return nil, &ValidationError{Fields: map[string]string{"token": "Token is required"}}
	}

	user, err := s.userRepo.GetByInvitationToken(ctx, token)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &NotFoundError{Message: "Invalid or already used invitation token"}
		}
		return nil, err
	}

	if user.TokenExpiry == nil || time.Now().After(*user.TokenExpiry) {
		return nil, &NotFoundError{Message: "Invitation token has expired"}
	}

	return user, nil
}

func (s *AuthService) issueTokens(ctx context.Context, user *models.User) (*models.AuthTokens, error) {
	accessToken, err := s.jwt.GenerateAccessToken(user.ID, user.Username, user.IsAdmin)
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}

	refreshToken, err := generateToken(64)
	if err != nil {
		return nil, err
	}

	// Store refresh token in Redis (7 days)
	err = s.redis.Set(ctx, "refresh:"+refreshToken, user.ID.String(), 7*24*time.Hour).Err()
	if err != nil {
		return nil, fmt.Errorf("failed to store refresh token: %w", err)
	}

	return &models.AuthTokens{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    900,
	}, nil
}

func (s *AuthService) checkUsernameFree(ctx context.Context, username string) error {
	_, err := s.userRepo.GetByUsername(ctx, username)
	if err == nil {
		return &ConflictError{Message: "Username already in use"}
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return err
	}
	return nil
}

func generateToken(bytes int) (string, error) {
	b := make([]byte, bytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}
	return hex.EncodeToString(b), nil
}

func validatePassword(pw string) error {
	if len(pw) < 8 {
		return fmt.Errorf("Password must be at least 8 characters")
	}
	hasNumber := false
	for _, ch := range pw {
		if unicode.IsDigit(ch) {
			hasNumber = true
			break
		}
	}
	if !hasNumber {
		return fmt.Errorf("Password must contain at least one number")
	}
	return nil
}
