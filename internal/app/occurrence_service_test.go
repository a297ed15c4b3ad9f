package app

import (
	"context"
	"testing"
	"time"

	"github.com/Erich2020/challenge-server/internal/clock"
	"github.com/Erich2020/challenge-server/internal/domain"
)

type fakeOccurrenceRepo struct {
	occurrences map[string]domain.Occurrence
}

func newFakeOccurrenceRepo() *fakeOccurrenceRepo {
	return &fakeOccurrenceRepo{occurrences: make(map[string]domain.Occurrence)}
}

func (f *fakeOccurrenceRepo) CreateOccurrence(_ context.Context, occ domain.Occurrence) error {
	f.occurrences[occ.ID] = occ
	return nil
}

func (f *fakeOccurrenceRepo) GetOccurrence(_ context.Context, id string) (domain.Occurrence, error) {
	occ, ok := f.occurrences[id]
	if !ok {
		return domain.Occurrence{}, domain.ErrOccurrenceNotFound
	}
	return occ, nil
}

func (f *fakeOccurrenceRepo) ListOccurrences(_ context.Context) ([]domain.Occurrence, error) {
	out := make([]domain.Occurrence, 0, len(f.occurrences))
	for _, occ := range f.occurrences {
		out = append(out, occ)
	}
	return out, nil
}

func (f *fakeOccurrenceRepo) UpdateOccurrence(_ context.Context, occ domain.Occurrence) error {
	if _, ok := f.occurrences[occ.ID]; !ok {
		return domain.ErrOccurrenceNotFound
	}
	f.occurrences[occ.ID] = occ
	return nil
}

func (f *fakeOccurrenceRepo) DeleteOccurrence(_ context.Context, id string) error {
	if _, ok := f.occurrences[id]; !ok {
		return domain.ErrOccurrenceNotFound
	}
	delete(f.occurrences, id)
	return nil
}

func TestOccurrenceService_Create(t *testing.T) {
	t.Parallel()

	repo := newFakeOccurrenceRepo()
	fixed := clock.NewFixed(time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC))
	svc := NewOccurrenceService(repo, fixed)

	occ, err := svc.CreateOccurrence(context.Background(), CreateOccurrenceInput{
		Name:     "Morning Yoga",
		Date:     time.Date(2024, 7, 1, 9, 0, 0, 0, time.UTC),
		Location: "Studio A",
		Capacity: 20,
	}, "owner-1")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if occ.ID == "" {
		t.Fatalf("expected generated id")
	}
	if occ.CreatedBy != "owner-1" {
		t.Fatalf("expected creator recorded, got %q", occ.CreatedBy)
	}
	if !occ.CreatedAt.Equal(fixed.Now()) {
		t.Fatalf("expected created_at from the clock, got %v", occ.CreatedAt)
	}

	stored, err := svc.GetOccurrence(context.Background(), occ.ID)
	if err != nil {
		t.Fatalf("expected stored occurrence, got %v", err)
	}
	if stored.Capacity != 20 {
		t.Fatalf("expected capacity 20, got %d", stored.Capacity)
	}
}

func TestOccurrenceService_CreateValidation(t *testing.T) {
	t.Parallel()

	svc := NewOccurrenceService(newFakeOccurrenceRepo(), clock.NewSystem())

	tests := []struct {
		name    string
		in      CreateOccurrenceInput
		creator string
		wantErr error
	}{
		{"missing name", CreateOccurrenceInput{Capacity: 1}, "owner-1", domain.ErrOccurrenceNameRequired},
		{"negative capacity", CreateOccurrenceInput{Name: "Yoga", Capacity: -1}, "owner-1", domain.ErrInvalidCapacity},
		{"missing creator", CreateOccurrenceInput{Name: "Yoga", Capacity: 1}, "", domain.ErrInvalidID},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := svc.CreateOccurrence(context.Background(), tt.in, tt.creator); err != tt.wantErr {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestOccurrenceService_UpdateOwnerOnly(t *testing.T) {
	t.Parallel()

	repo := newFakeOccurrenceRepo()
	repo.occurrences["occ-1"] = domain.Occurrence{ID: "occ-1", Name: "Yoga", Capacity: 10, CreatedBy: "owner-1"}
	svc := NewOccurrenceService(repo, clock.NewSystem())

	name := "Evening Yoga"
	if _, err := svc.UpdateOccurrence(context.Background(), "occ-1", UpdateOccurrenceInput{Name: &name}, "intruder"); err != domain.ErrUnauthorized {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}

	capacity := 12
	occ, err := svc.UpdateOccurrence(context.Background(), "occ-1", UpdateOccurrenceInput{Name: &name, Capacity: &capacity}, "owner-1")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if occ.Name != "Evening Yoga" || occ.Capacity != 12 {
		t.Fatalf("expected fields applied, got %+v", occ)
	}

	// Untouched fields survive a partial update.
	if repo.occurrences["occ-1"].CreatedBy != "owner-1" {
		t.Fatalf("expected owner preserved")
	}
}

func TestOccurrenceService_UpdateValidation(t *testing.T) {
	t.Parallel()

	repo := newFakeOccurrenceRepo()
	repo.occurrences["occ-1"] = domain.Occurrence{ID: "occ-1", Name: "Yoga", Capacity: 10, CreatedBy: "owner-1"}
	svc := NewOccurrenceService(repo, clock.NewSystem())

	empty := ""
	if _, err := svc.UpdateOccurrence(context.Background(), "occ-1", UpdateOccurrenceInput{Name: &empty}, "owner-1"); err != domain.ErrOccurrenceNameRequired {
		t.Fatalf("expected ErrOccurrenceNameRequired, got %v", err)
	}

	negative := -5
	if _, err := svc.UpdateOccurrence(context.Background(), "occ-1", UpdateOccurrenceInput{Capacity: &negative}, "owner-1"); err != domain.ErrInvalidCapacity {
		t.Fatalf("expected ErrInvalidCapacity, got %v", err)
	}
}

func TestOccurrenceService_DeleteOwnerOnly(t *testing.T) {
	t.Parallel()

	repo := newFakeOccurrenceRepo()
	repo.occurrences["occ-1"] = domain.Occurrence{ID: "occ-1", Name: "Yoga", CreatedBy: "owner-1"}
	svc := NewOccurrenceService(repo, clock.NewSystem())

	if err := svc.DeleteOccurrence(context.Background(), "occ-1", "intruder"); err != domain.ErrUnauthorized {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
	if err := svc.DeleteOccurrence(context.Background(), "occ-1", "owner-1"); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if err := svc.DeleteOccurrence(context.Background(), "occ-1", "owner-1"); err != domain.ErrOccurrenceNotFound {
		t.Fatalf("expected ErrOccurrenceNotFound after delete, got %v", err)
	}
}
