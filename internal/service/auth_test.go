package service

import (
	"context"
	"errors"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"github.com/atinyakov/PodStudio/internal/models"
	"github.com/atinyakov/PodStudio/internal/repository"
)

type mockUserRepo struct {
	UserExistsFunc     func(ctx context.Context, email, username string) (bool, error)
	CreateUserFunc     func(ctx context.Context, u *models.User) error
	GetUserByEmailFunc func(ctx context.Context, email string) (*models.User, error)
	GetUserByIDFunc    func(ctx context.Context, id string) (*models.User, error)
}

func (m *mockUserRepo) UserExists(ctx context.Context, email, username string) (bool, error) {
	return m.UserExistsFunc(ctx, email, username)
}
func (m *mockUserRepo) CreateUser(ctx context.Context, u *models.User) error {
	return m.CreateUserFunc(ctx, u)
}
func (m *mockUserRepo) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return m.GetUserByEmailFunc(ctx, email)
}
func (m *mockUserRepo) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	return m.GetUserByIDFunc(ctx, id)
}

type fakeTokens struct {
	verifyErr error
}

func (f fakeTokens) Issue(userID string) (string, error) { return "token-" + userID, nil }
func (f fakeTokens) Verify(raw string) (string, error) {
	if f.verifyErr != nil {
		return "", f.verifyErr
	}
	return raw[len("token-"):], nil
}

func newTestAuth(repo UserRepository) *AuthService {
	svc := NewAuthService(repo, fakeTokens{}, bcrypt.MinCost)
	svc.newID = func() string { return "u1" }
	return svc
}

func TestRegister_Success(t *testing.T) {
	var stored *models.User
	repo := &mockUserRepo{
		UserExistsFunc: func(_ context.Context, email, username string) (bool, error) {
			if email != "a@x.com" || username != "alice" {
				t.Errorf("UserExists received (%q, %q)", email, username)
			}
			return false, nil
		},
		CreateUserFunc: func(_ context.Context, u *models.User) error {
			stored = u
			return nil
		},
	}

	user, tok, err := newTestAuth(repo).Register(context.Background(), "alice", "a@x.com", "secret1")
	if err != nil {
		t.Fatalf("Register returned error: %v", err)
	}
	if tok != "token-u1" || user.ID != "u1" {
		t.Errorf("Register = (%+v, %q)", user, tok)
	}
	if stored == nil || string(stored.PasswordHash) == "secret1" {
		t.Fatal("expected a hashed password to be stored")
	}
	if err := bcrypt.CompareHashAndPassword(stored.PasswordHash, []byte("secret1")); err != nil {
		t.Errorf("stored hash does not match password: %v", err)
	}
}

func TestRegister_Conflict(t *testing.T) {
	tests := []struct {
		name string
		repo *mockUserRepo
	}{
		{
			name: "pre-check finds user",
			repo: &mockUserRepo{
				UserExistsFunc: func(context.Context, string, string) (bool, error) { return true, nil },
			},
		},
		{
			name: "insert hits unique constraint",
			repo: &mockUserRepo{
				UserExistsFunc: func(context.Context, string, string) (bool, error) { return false, nil },
				CreateUserFunc: func(context.Context, *models.User) error { return repository.ErrDuplicate },
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := newTestAuth(tt.repo).Register(context.Background(), "alice", "a@x.com", "secret1")
			if !errors.Is(err, ErrUserExists) {
				t.Errorf("Register error = %v; want ErrUserExists", err)
			}
		})
	}
}

func TestRegister_Validation(t *testing.T) {
	repo := &mockUserRepo{
		UserExistsFunc: func(context.Context, string, string) (bool, error) {
			t.Fatal("repository must not be reached on invalid input")
			return false, nil
		},
	}

	_, _, err := newTestAuth(repo).Register(context.Background(), "al", "not-an-email", "12345")
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("Register error = %v; want *ValidationError", err)
	}
	want := []string{"username", "email", "password"}
	if len(verr.Fields) != len(want) {
		t.Fatalf("fields = %+v; want %v", verr.Fields, want)
	}
	for i, f := range verr.Fields {
		if f.Field != want[i] {
			t.Errorf("field[%d] = %q; want %q", i, f.Field, want[i])
		}
	}
}

func TestRegister_RepoError(t *testing.T) {
	wantErr := errors.New("db down")
	repo := &mockUserRepo{
		UserExistsFunc: func(context.Context, string, string) (bool, error) { return false, wantErr },
	}
	_, _, err := newTestAuth(repo).Register(context.Background(), "alice", "a@x.com", "secret1")
	if !errors.Is(err, wantErr) {
		t.Fatalf("Register error = %v; want wrapped %v", err, wantErr)
	}
}

func TestLogin(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("secret1"), bcrypt.MinCost)
	if err != nil {
		t.Fatal(err)
	}
	repo := &mockUserRepo{
		GetUserByEmailFunc: func(_ context.Context, email string) (*models.User, error) {
			if email != "a@x.com" {
				return nil, repository.ErrNotFound
			}
			return &models.User{ID: "u1", Username: "alice", Email: email, PasswordHash: hash}, nil
		},
	}
	svc := newTestAuth(repo)

	user, tok, err := svc.Login(context.Background(), "a@x.com", "secret1")
	if err != nil {
		t.Fatalf("Login returned error: %v", err)
	}
	if user.ID != "u1" || tok != "token-u1" {
		t.Errorf("Login = (%+v, %q)", user, tok)
	}

	for _, creds := range [][2]string{{"a@x.com", "wrong-pass"}, {"nobody@x.com", "secret1"}} {
		if _, _, err := svc.Login(context.Background(), creds[0], creds[1]); !errors.Is(err, ErrInvalidCredentials) {
			t.Errorf("Login(%q) error = %v; want ErrInvalidCredentials", creds[0], err)
		}
	}

	var verr *ValidationError
	if _, _, err := svc.Login(context.Background(), "a@x.com", ""); !errors.As(err, &verr) {
		t.Errorf("Login without password error = %v; want *ValidationError", err)
	}
}

func TestAuthenticate(t *testing.T) {
	repo := &mockUserRepo{
		GetUserByIDFunc: func(_ context.Context, id string) (*models.User, error) {
			if id == "gone" {
				return nil, repository.ErrNotFound
			}
			return &models.User{ID: id}, nil
		},
	}
	svc := newTestAuth(repo)

	user, err := svc.Authenticate(context.Background(), "token-u1")
	if err != nil || user.ID != "u1" {
		t.Fatalf("Authenticate = (%+v, %v)", user, err)
	}

	if _, err := svc.Authenticate(context.Background(), "token-gone"); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("Authenticate error = %v; want ErrUserNotFound", err)
	}

	badToken := errors.New("bad token")
	svc.tokens = fakeTokens{verifyErr: badToken}
	if _, err := svc.Authenticate(context.Background(), "whatever"); !errors.Is(err, badToken) {
		t.Errorf("Authenticate error = %v; want %v", err, badToken)
	}
}

func TestValidEmail(t *testing.T) {
	tests := map[string]bool{
		"alice@example.com":       true,
		"a.b+tag@sub.example.org": true,
		"":                        false,
		"alice":                   false,
		"alice@localhost":         false,
		"Alice <alice@x.com>":     false,
		"alice@x.com.":            false,
	}
	for in, want := range tests {
		if got := validEmail(in); got != want {
			t.Errorf("validEmail(%q) = %v; want %v", in, got, want)
		}
	}
}
