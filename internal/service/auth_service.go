package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/repricelab/ebay-connect/internal/config"
	"github.com/repricelab/ebay-connect/internal/domain"
	"github.com/repricelab/ebay-connect/internal/jwt"
	"github.com/repricelab/ebay-connect/internal/password"
	"github.com/repricelab/ebay-connect/internal/repository"
)

var (
	// ErrEmailTaken indicates a registration with an already-used email.
	ErrEmailTaken = errors.New("auth: user already exists")
	// ErrInvalidLogin indicates unknown email or wrong password.
	ErrInvalidLogin = errors.New("auth: invalid credentials")
	// ErrUserNotFound indicates a token subject without a backing user row.
	ErrUserNotFound = errors.New("auth: user not found")
)

// Session is the result of a successful register or login.
type Session struct {
	Token string
	User  domain.User
}

// AuthService handles user registration and login with JWT issuance.
type AuthService struct {
	users  repository.UserRepository
	node   *snowflake.Node
	jwt    *jwt.Generator
	cfg    config.Config
	logger *zap.Logger
}

// NewAuthService wires dependencies.
func NewAuthService(users repository.UserRepository, node *snowflake.Node, generator *jwt.Generator, cfg config.Config, logger *zap.Logger) *AuthService {
	return &AuthService{users: users, node: node, jwt: generator, cfg: cfg, logger: logger}
}

// Register creates a user with a hashed password and issues a session token.
func (s *AuthService) Register(ctx context.Context, email, plaintext, preferredLanguage string) (*Session, error) {
	normalized := strings.ToLower(strings.TrimSpace(email))

	if _, err := s.users.GetByEmail(ctx, normalized); err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("lookup user: %w", err)
	}

	hashed, err := password.Hash(plaintext)
	if err != nil {
		return nil, err
	}

	if preferredLanguage == "" {
		preferredLanguage = "en"
	}
	user, err := s.users.Create(ctx, domain.User{
		ID:                 s.node.Generate().Int64(),
		Email:              normalized,
		PasswordHash:       hashed,
		SubscriptionStatus: domain.SubscriptionInactive,
		PreferredLanguage:  preferredLanguage,
	})
	if err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}

	s.logger.Info("user registered", zap.Int64("user_id", user.ID))
	return s.issueSession(user)
}

// Login verifies the password and issues a session token.
func (s *AuthService) Login(ctx context.Context, email, plaintext string) (*Session, error) {
	normalized := strings.ToLower(strings.TrimSpace(email))

	user, err := s.users.GetByEmail(ctx, normalized)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrInvalidLogin
		}
		return nil, fmt.Errorf("lookup user: %w", err)
	}
	if !password.Verify(plaintext, user.PasswordHash) {
		return nil, ErrInvalidLogin
	}

	return s.issueSession(user)
}

// UserByID loads the user behind a validated token subject.
func (s *AuthService) UserByID(ctx context.Context, userID int64) (domain.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.User{}, ErrUserNotFound
		}
		return domain.User{}, fmt.Errorf("lookup user: %w", err)
	}
	return user, nil
}

// ValidateToken verifies a session token and returns the user id it names.
func (s *AuthService) ValidateToken(token string) (int64, error) {
	userID, _, err := s.jwt.ValidateToken(token)
	return userID, err
}

func (s *AuthService) issueSession(user domain.User) (*Session, error) {
	token, err := s.jwt.GenerateToken(user.ID, user.Email)
	if err != nil {
		return nil, fmt.Errorf("generate token: %w", err)
	}
	return &Session{Token: token, User: user}, nil
}
