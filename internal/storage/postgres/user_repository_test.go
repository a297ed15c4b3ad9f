package postgres_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Erich2020/challenge-server/internal/domain"
	"github.com/Erich2020/challenge-server/internal/storage/postgres"
	"github.com/Erich2020/challenge-server/internal/testutil"
	"github.com/google/uuid"
)

func TestUserRepository_CreateAndGet(t *testing.T) {
	pool := testutil.NewTestPool(t)
	ctx := context.Background()
	testutil.ApplyMigrations(t, ctx, pool)
	testutil.TruncateAll(t, ctx, pool)

	repo := postgres.NewUserRepository(pool)

	now := time.Now().UTC().Truncate(time.Microsecond)
	user := domain.User{
		ID:           uuid.NewString(),
		Email:        "ana@example.com",
		Name:         "Ana",
		PasswordHash: "hashed",
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := repo.CreateUser(ctx, user); err != nil {
		t.Fatalf("create user: %v", err)
	}

	byEmail, err := repo.GetUserByEmail(ctx, "ana@example.com")
	if err != nil {
		t.Fatalf("get user by email: %v", err)
	}
	if byEmail.ID != user.ID || byEmail.PasswordHash != "hashed" {
		t.Fatalf("unexpected user: %+v", byEmail)
	}

	byID, err := repo.GetUser(ctx, user.ID)
	if err != nil {
		t.Fatalf("get user: %v", err)
	}
	if byID.Email != "ana@example.com" {
		t.Fatalf("unexpected user: %+v", byID)
	}
}

func TestUserRepository_DuplicateEmailRejected(t *testing.T) {
	pool := testutil.NewTestPool(t)
	ctx := context.Background()
	testutil.ApplyMigrations(t, ctx, pool)
	testutil.TruncateAll(t, ctx, pool)

	repo := postgres.NewUserRepository(pool)

	now := time.Now().UTC()
	first := domain.User{ID: uuid.NewString(), Email: "ana@example.com", PasswordHash: "x", CreatedAt: now, UpdatedAt: now}
	if err := repo.CreateUser(ctx, first); err != nil {
		t.Fatalf("create user: %v", err)
	}

	second := first
	second.ID = uuid.NewString()
	if err := repo.CreateUser(ctx, second); !errors.Is(err, domain.ErrEmailTaken) {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}
}

func TestUserRepository_NotFound(t *testing.T) {
	pool := testutil.NewTestPool(t)
	ctx := context.Background()
	testutil.ApplyMigrations(t, ctx, pool)
	testutil.TruncateAll(t, ctx, pool)

	repo := postgres.NewUserRepository(pool)

	if _, err := repo.GetUserByEmail(ctx, "nobody@example.com"); !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
	if _, err := repo.GetUser(ctx, uuid.NewString()); !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}
