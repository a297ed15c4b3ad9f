package app

import (
	"context"
	"time"

	"github.com/Erich2020/challenge-server/internal/clock"
	"github.com/Erich2020/challenge-server/internal/domain"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

type UserRepository interface {
	CreateUser(ctx context.Context, user domain.User) error
	GetUserByEmail(ctx context.Context, email string) (domain.User, error)
	GetUser(ctx context.Context, id string) (domain.User, error)
	UpdateUser(ctx context.Context, user domain.User) (domain.User, error)
	UpdatePassword(ctx context.Context, id, hash string, now time.Time) error
	DeleteUser(ctx context.Context, id string) error
}

type UserService struct {
	repo       UserRepository
	clock      clock.Clock
	secret     []byte
	tokenTTL   time.Duration
	bcryptCost int
}

const defaultTokenTTL = 24 * time.Hour

func NewUserService(repo UserRepository, clk clock.Clock, secret []byte, opts ...UserServiceOption) *UserService {
	svc := &UserService{
		repo:       repo,
		clock:      clk,
		secret:     secret,
		tokenTTL:   defaultTokenTTL,
		bcryptCost: bcrypt.DefaultCost,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

type UserServiceOption func(*UserService)

func WithTokenTTL(d time.Duration) UserServiceOption {
	return func(s *UserService) {
		if d > 0 {
			s.tokenTTL = d
		}
	}
}

func WithBcryptCost(cost int) UserServiceOption {
	return func(s *UserService) {
		if cost >= bcrypt.MinCost && cost <= bcrypt.MaxCost {
			s.bcryptCost = cost
		}
	}
}

type CreateUserInput struct {
	Email    string
	Name     string
	Password string
}

// CreateUser registers an account. The returned user carries no password
// hash.
func (s *UserService) CreateUser(ctx context.Context, in CreateUserInput) (domain.User, error) {
	if in.Email == "" {
		return domain.User{}, domain.ErrEmailRequired
	}
	if in.Password == "" {
		return domain.User{}, domain.ErrPasswordRequired
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.bcryptCost)
	if err != nil {
		return domain.User{}, err
	}

	now := s.clock.Now()
	user := domain.User{
		ID:           uuid.NewString(),
		Email:        in.Email,
		Name:         in.Name,
		PasswordHash: string(hash),
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.repo.CreateUser(ctx, user); err != nil {
		return domain.User{}, err
	}

	user.PasswordHash = ""
	return user, nil
}

// Login checks the credentials and issues a signed token carrying the user's
// id and email. Unknown emails and wrong passwords are indistinguishable to
// the caller.
func (s *UserService) Login(ctx context.Context, email, password string) (string, error) {
	if email == "" || password == "" {
		return "", domain.ErrInvalidCredentials
	}

	user, err := s.repo.GetUserByEmail(ctx, email)
	if err != nil {
		if err == domain.ErrUserNotFound {
			return "", domain.ErrInvalidCredentials
		}
		return "", err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", domain.ErrInvalidCredentials
	}

	now := s.clock.Now()
	claims := jwt.MapClaims{
		"id":       user.ID,
		"username": user.Email,
		"iat":      now.Unix(),
		"exp":      now.Add(s.tokenTTL).Unix(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

func (s *UserService) GetUser(ctx context.Context, id string) (domain.User, error) {
	if id == "" {
		return domain.User{}, domain.ErrInvalidID
	}
	user, err := s.repo.GetUser(ctx, id)
	if err != nil {
		return domain.User{}, err
	}
	user.PasswordHash = ""
	return user, nil
}

type UpdateUserInput struct {
	Email *string
	Name  *string
}

// UpdateUser changes the profile fields that are set in the input. The
// returned user carries no password hash.
func (s *UserService) UpdateUser(ctx context.Context, id string, in UpdateUserInput) (domain.User, error) {
	if id == "" {
		return domain.User{}, domain.ErrInvalidID
	}

	user, err := s.repo.GetUser(ctx, id)
	if err != nil {
		return domain.User{}, err
	}

	if in.Email != nil {
		if *in.Email == "" {
			return domain.User{}, domain.ErrEmailRequired
		}
		user.Email = *in.Email
	}
	if in.Name != nil {
		user.Name = *in.Name
	}
	user.UpdatedAt = s.clock.Now()

	updated, err := s.repo.UpdateUser(ctx, user)
	if err != nil {
		return domain.User{}, err
	}
	updated.PasswordHash = ""
	return updated, nil
}

// ChangePassword replaces the user's password after verifying the current
// one. A wrong current password reads as invalid credentials.
func (s *UserService) ChangePassword(ctx context.Context, id, current, next string) error {
	if id == "" {
		return domain.ErrInvalidID
	}
	if next == "" {
		return domain.ErrPasswordRequired
	}

	user, err := s.repo.GetUser(ctx, id)
	if err != nil {
		return err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(current)); err != nil {
		return domain.ErrInvalidCredentials
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(next), s.bcryptCost)
	if err != nil {
		return err
	}
	return s.repo.UpdatePassword(ctx, id, string(hash), s.clock.Now())
}

// DeleteUser removes the account permanently.
func (s *UserService) DeleteUser(ctx context.Context, id string) error {
	if id == "" {
		return domain.ErrInvalidID
	}
	return s.repo.DeleteUser(ctx, id)
}
