// Package service provides the business logic for accounts, projects and
// episodes, delegating persistence to repository interfaces.
package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/atinyakov/PodStudio/internal/models"
	"github.com/atinyakov/PodStudio/internal/repository"
)

// DefaultBcryptCost is used when NewAuthService receives a cost outside bcrypt's range.
const DefaultBcryptCost = 12

const (
	minUsernameLen = 3
	minPasswordLen = 6
	// bcrypt ignores everything past 72 bytes and x/crypto rejects longer input.
	maxPasswordBytes = 72
)

// UserRepository defines the persistence operations
// required by the authentication service.
type UserRepository interface {
	// UserExists reports whether a user with the given email or username exists.
	UserExists(ctx context.Context, email, username string) (bool, error)
	// CreateUser stores a new user. Returns repository.ErrDuplicate on a unique violation.
	CreateUser(ctx context.Context, u *models.User) error
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByID(ctx context.Context, id string) (*models.User, error)
}

// Tokens issues and verifies bearer tokens.
type Tokens interface {
	Issue(userID string) (string, error)
	Verify(raw string) (string, error)
}

// AuthService implements registration, login and token authentication.
type AuthService struct {
	repo   UserRepository
	tokens Tokens
	cost   int
	newID  func() string
}

// NewAuthService constructs an AuthService. cost is the bcrypt work factor.
func NewAuthService(repo UserRepository, tokens Tokens, cost int) *AuthService {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = DefaultBcryptCost
	}
	return &AuthService{repo: repo, tokens: tokens, cost: cost, newID: uuid.NewString}
}

// Register creates a new account and returns it with a fresh token.
func (s *AuthService) Register(ctx context.Context, username, email, password string) (*models.User, string, error) {
	var v validator
	v.check(utf8.RuneCountInString(username) >= minUsernameLen, "username", "Username must be at least 3 characters long")
	v.check(validEmail(email), "email", "Please enter a valid email")
	v.check(utf8.RuneCountInString(password) >= minPasswordLen, "password", "Password must be at least 6 characters long")
	v.check(len(password) <= maxPasswordBytes, "password", "Password cannot exceed 72 bytes")
	if err := v.err(); err != nil {
		return nil, "", err
	}

	exists, err := s.repo.UserExists(ctx, email, username)
	if err != nil {
		return nil, "", fmt.Errorf("check user: %w", err)
	}
	if exists {
		return nil, "", ErrUserExists
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return nil, "", fmt.Errorf("hash password: %w", err)
	}

	user := &models.User{ID: s.newID(), Username: username, Email: email, PasswordHash: hash}
	if err := s.repo.CreateUser(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, "", ErrUserExists
		}
		return nil, "", fmt.Errorf("create user: %w", err)
	}

	tok, err := s.tokens.Issue(user.ID)
	if err != nil {
		return nil, "", err
	}
	return user, tok, nil
}

// Login verifies the credentials and returns the user with a fresh token.
// Unknown email and wrong password are indistinguishable to the caller.
func (s *AuthService) Login(ctx context.Context, email, password string) (*models.User, string, error) {
	var v validator
	v.check(validEmail(email), "email", "Please enter a valid email")
	v.check(password != "", "password", "Password is required")
	if err := v.err(); err != nil {
		return nil, "", err
	}

	user, err := s.repo.GetUserByEmail(ctx, email)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, "", ErrInvalidCredentials
	}
	if err != nil {
		return nil, "", fmt.Errorf("find user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword(user.PasswordHash, []byte(password)); err != nil {
		return nil, "", ErrInvalidCredentials
	}

	tok, err := s.tokens.Issue(user.ID)
	if err != nil {
		return nil, "", err
	}
	return user, tok, nil
}

// Authenticate resolves a bearer token to its live user. Token errors are
// returned unchanged; a deleted user yields ErrUserNotFound.
func (s *AuthService) Authenticate(ctx context.Context, raw string) (*models.User, error) {
	userID, err := s.tokens.Verify(raw)
	if err != nil {
		return nil, err
	}
	return s.Profile(ctx, userID)
}

// Profile returns the user with userID.
func (s *AuthService) Profile(ctx context.Context, userID string) (*models.User, error) {
	user, err := s.repo.GetUserByID(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}
	return user, nil
}

// validEmail accepts a bare addr-spec with a dotted domain, such as "alice@example.com".
func validEmail(email string) bool {
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return false
	}
	domain := email[strings.LastIndex(email, "@")+1:]
	return strings.Contains(domain, ".") && !strings.HasPrefix(domain, ".") && !strings.HasSuffix(domain, ".")
}
